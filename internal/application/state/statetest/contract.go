// Package statetest 提供 state.Store 實作共用的行為測試。
package statetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"losers-alert/internal/application/state"
)

// Run 對 newStore 產生的實例執行完整契約測試；每個子測試取得新的實例。
func Run(t *testing.T, newStore func(t *testing.T) state.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Get(ctx, "missing"); !errors.Is(err, state.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SetGet", func(t *testing.T) {
		s := newStore(t)
		if err := s.Set(ctx, "k", []byte("v1")); err != nil {
			t.Fatal(err)
		}
		if err := s.Set(ctx, "k", []byte("v2")); err != nil {
			t.Fatal(err)
		}
		got, err := s.Get(ctx, "k")
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "v2" {
			t.Fatalf("expected v2, got %q", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		_ = s.Set(ctx, "k", []byte("v"))
		if err := s.Delete(ctx, "k"); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Get(ctx, "k"); !errors.Is(err, state.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := s.Delete(ctx, "never-set"); err != nil {
			t.Fatalf("deleting a missing key should not fail: %v", err)
		}
	})

	t.Run("UpdateCreatesAndReplaces", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(ctx, "k", func(cur []byte, found bool) ([]byte, error) {
			if found {
				t.Errorf("expected missing key on first update")
			}
			return []byte("a"), nil
		})
		if err != nil {
			t.Fatal(err)
		}
		err = s.Update(ctx, "k", func(cur []byte, found bool) ([]byte, error) {
			if !found || string(cur) != "a" {
				t.Errorf("expected current value a, got %q found=%v", cur, found)
			}
			return append(cur, 'b'), nil
		})
		if err != nil {
			t.Fatal(err)
		}
		got, _ := s.Get(ctx, "k")
		if string(got) != "ab" {
			t.Fatalf("expected ab, got %q", got)
		}
	})

	t.Run("UpdateErrorKeepsValue", func(t *testing.T) {
		s := newStore(t)
		_ = s.Set(ctx, "k", []byte("keep"))
		boom := errors.New("boom")
		err := s.Update(ctx, "k", func([]byte, bool) ([]byte, error) { return []byte("lost"), boom })
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		got, _ := s.Get(ctx, "k")
		if string(got) != "keep" {
			t.Fatalf("value changed after failed update: %q", got)
		}
	})

	t.Run("UpdateNilDeletes", func(t *testing.T) {
		s := newStore(t)
		_ = s.Set(ctx, "k", []byte("v"))
		if err := s.Update(ctx, "k", func([]byte, bool) ([]byte, error) { return nil, nil }); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Get(ctx, "k"); !errors.Is(err, state.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ConcurrentUnionLosesNothing", func(t *testing.T) {
		s := newStore(t)
		const writers = 16
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if err := state.UnionSet(ctx, s, "set", []string{fmt.Sprintf("S%02d", i)}); err != nil {
					t.Errorf("union %d: %v", i, err)
				}
			}(i)
		}
		wg.Wait()
		set, err := state.GetSet(ctx, s, "set")
		if err != nil {
			t.Fatal(err)
		}
		if len(set) != writers {
			t.Fatalf("expected %d members, got %d: %v", writers, len(set), state.SortedMembers(set))
		}
	})

	t.Run("ToggleMember", func(t *testing.T) {
		s := newStore(t)
		on, err := state.ToggleMember(ctx, s, "pins", "AAA")
		if err != nil || !on {
			t.Fatalf("first toggle should add: on=%v err=%v", on, err)
		}
		on, err = state.ToggleMember(ctx, s, "pins", "AAA")
		if err != nil || on {
			t.Fatalf("second toggle should remove: on=%v err=%v", on, err)
		}
		set, _ := state.GetSet(ctx, s, "pins")
		if len(set) != 0 {
			t.Fatalf("expected empty set, got %v", state.SortedMembers(set))
		}
	})
}
