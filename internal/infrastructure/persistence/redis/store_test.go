package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"losers-alert/internal/application/state"
	"losers-alert/internal/application/state/statetest"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T, prefix string) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := New(Options{Addr: mr.Addr(), Prefix: prefix})
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore_Contract(t *testing.T) {
	statetest.Run(t, func(t *testing.T) state.Store {
		s, _ := newTestStore(t, "losers:")
		return s
	})
}

func TestStore_KeyPrefix(t *testing.T) {
	s, mr := newTestStore(t, "losers:")
	if got := s.key("pinned_symbols"); got != "losers:pinned_symbols" {
		t.Fatalf("unexpected key %q", got)
	}

	if err := s.Set(context.Background(), "alert_drop_percent", []byte("20")); err != nil {
		t.Fatal(err)
	}
	if got, err := mr.Get("losers:alert_drop_percent"); err != nil || got != "20" {
		t.Fatalf("expected prefixed key in redis, got %q err=%v", got, err)
	}

	bare := New(Options{Addr: mr.Addr()})
	defer bare.Close()
	if got := bare.key("alert_drop_percent"); got != "alert_drop_percent" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestStore_UpdateGivesUpAfterRepeatedConflicts(t *testing.T) {
	s, mr := newTestStore(t, "")
	ctx := context.Background()

	rival := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer rival.Close()

	calls := 0
	err := s.Update(ctx, "notified_symbols_2026-10-15", func(cur []byte, found bool) ([]byte, error) {
		calls++
		// 另一個寫入者在 EXEC 前改動同一個鍵，使 WATCH 失敗。
		if err := rival.Set(ctx, "notified_symbols_2026-10-15", fmt.Sprintf(`["R%02d"]`, calls), 0).Err(); err != nil {
			t.Fatalf("rival set: %v", err)
		}
		return []byte(`["AAA"]`), nil
	})
	if !errors.Is(err, ErrTooManyConflicts) {
		t.Fatalf("expected ErrTooManyConflicts, got %v", err)
	}
	if calls != maxTxRetries {
		t.Fatalf("expected %d attempts, got %d", maxTxRetries, calls)
	}

	got, err := mr.Get("notified_symbols_2026-10-15")
	if err != nil {
		t.Fatal(err)
	}
	if got != fmt.Sprintf(`["R%02d"]`, maxTxRetries) {
		t.Fatalf("losing writer must not overwrite the value, got %q", got)
	}
}

func TestStore_UpdateRetriesOnceAfterConflict(t *testing.T) {
	s, mr := newTestStore(t, "")
	ctx := context.Background()

	rival := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer rival.Close()

	calls := 0
	err := s.Update(ctx, "set", func(cur []byte, found bool) ([]byte, error) {
		calls++
		if calls == 1 {
			if err := rival.Set(ctx, "set", `["BBB"]`, 0).Err(); err != nil {
				t.Fatalf("rival set: %v", err)
			}
		}
		members, err := state.DecodeSet(cur)
		if err != nil {
			return nil, err
		}
		members["AAA"] = struct{}{}
		return state.EncodeSet(members)
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("expected one retry, got %d calls", calls)
	}

	set, err := state.GetSet(ctx, s, "set")
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 2 {
		t.Fatalf("expected both writers' members, got %v", state.SortedMembers(set))
	}
}
