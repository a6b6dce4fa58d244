package alert

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"losers-alert/internal/infra/memory"
)

var (
	day1 = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
)

func TestLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("mark_and_check", func(t *testing.T) {
		store := memory.NewStore()
		l := NewLedger(store, nil)
		if err := l.MarkNotified(ctx, []string{"AAA", "bbb"}, day1); err != nil {
			t.Fatal(err)
		}
		if !l.HasBeenNotified(ctx, "AAA", day1) || !l.HasBeenNotified(ctx, "BBB", day1) {
			t.Fatal("expected symbols to be recorded")
		}
		raw, err := store.Get(ctx, "notified_symbols_2024-05-01")
		if err != nil || string(raw) != `["AAA","BBB"]` {
			t.Fatalf("unexpected stored value %q err=%v", raw, err)
		}
	})

	t.Run("union_preserves_existing", func(t *testing.T) {
		l := NewLedger(memory.NewStore(), nil)
		_ = l.MarkNotified(ctx, []string{"AAA"}, day1)
		_ = l.MarkNotified(ctx, []string{"CCC"}, day1)
		got := l.Notified(ctx, day1)
		if fmt.Sprint(got) != "[AAA CCC]" {
			t.Fatalf("unexpected notified set %v", got)
		}
	})

	t.Run("dates_are_independent", func(t *testing.T) {
		l := NewLedger(memory.NewStore(), nil)
		_ = l.MarkNotified(ctx, []string{"AAA"}, day1)
		if l.HasBeenNotified(ctx, "AAA", day2) {
			t.Fatal("next day must start empty")
		}
	})

	t.Run("empty_mark_is_noop", func(t *testing.T) {
		store := memory.NewStore()
		l := NewLedger(store, nil)
		if err := l.MarkNotified(ctx, nil, day1); err != nil {
			t.Fatal(err)
		}
		if len(store.Keys()) != 0 {
			t.Fatalf("expected no keys written, got %v", store.Keys())
		}
	})

	t.Run("read_failure_is_false", func(t *testing.T) {
		store := newFlakyStore()
		l := NewLedger(store, nil)
		_ = l.MarkNotified(ctx, []string{"AAA"}, day1)
		store.failGet = true
		if l.HasBeenNotified(ctx, "AAA", day1) {
			t.Fatal("expected false on read failure")
		}
		if len(l.Notified(ctx, day1)) != 0 {
			t.Fatal("expected empty list on read failure")
		}
	})

	t.Run("concurrent_marks_lose_nothing", func(t *testing.T) {
		l := NewLedger(memory.NewStore(), nil)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = l.MarkNotified(ctx, []string{fmt.Sprintf("S%02d", i)}, day1)
			}(i)
		}
		wg.Wait()
		if got := len(l.Notified(ctx, day1)); got != 20 {
			t.Fatalf("expected 20 symbols, got %d", got)
		}
	})
}
