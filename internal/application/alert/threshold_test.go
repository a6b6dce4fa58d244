package alert

import (
	"context"
	"errors"
	"math"
	"testing"

	"losers-alert/internal/infra/memory"
)

func TestThresholdStore(t *testing.T) {
	ctx := context.Background()

	t.Run("default_when_unset", func(t *testing.T) {
		ts := NewThresholdStore(memory.NewStore(), nil)
		if got := ts.Get(ctx); got != 35 {
			t.Fatalf("expected 35, got %v", got)
		}
	})

	t.Run("clamps_on_set", func(t *testing.T) {
		ts := NewThresholdStore(memory.NewStore(), nil)
		cases := []struct {
			in, want float64
		}{
			{150, 95},
			{-10, 0},
			{12.5, 12.5},
			{math.Inf(1), 95},
			{math.Inf(-1), 0},
		}
		for _, c := range cases {
			stored, err := ts.Set(ctx, c.in)
			if err != nil {
				t.Fatalf("Set(%v) error: %v", c.in, err)
			}
			if stored != c.want || ts.Get(ctx) != c.want {
				t.Errorf("Set(%v): stored=%v get=%v want %v", c.in, stored, ts.Get(ctx), c.want)
			}
		}
	})

	t.Run("rejects_nan", func(t *testing.T) {
		ts := NewThresholdStore(memory.NewStore(), nil)
		if _, err := ts.Set(ctx, math.NaN()); !errors.Is(err, ErrInvalidThreshold) {
			t.Fatalf("expected ErrInvalidThreshold, got %v", err)
		}
	})

	t.Run("read_failure_returns_default", func(t *testing.T) {
		store := newFlakyStore()
		ts := NewThresholdStore(store, nil)
		if _, err := ts.Set(ctx, 20); err != nil {
			t.Fatal(err)
		}
		store.failGet = true
		if got := ts.Get(ctx); got != 35 {
			t.Fatalf("expected default on read failure, got %v", got)
		}
	})

	t.Run("write_failure_is_returned", func(t *testing.T) {
		store := newFlakyStore()
		store.failSet = true
		if _, err := NewThresholdStore(store, nil).Set(ctx, 20); err == nil {
			t.Fatal("expected write error")
		}
	})
}
