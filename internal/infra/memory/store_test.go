package memory

import (
	"context"
	"testing"

	"losers-alert/internal/application/state"
	"losers-alert/internal/application/state/statetest"
)

func TestStore_Contract(t *testing.T) {
	statetest.Run(t, func(t *testing.T) state.Store { return NewStore() })
}

func TestStore_ValuesAreCopied(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	buf := []byte("abc")
	_ = s.Set(ctx, "k", buf)
	buf[0] = 'x'

	got, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("store should keep its own copy, got %q", got)
	}
	got[1] = 'y'
	again, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("returned slice should be a copy, got %q", again)
	}
}

func TestStore_Keys(t *testing.T) {
	s := NewStore()
	_ = s.Set(context.Background(), "a", []byte("1"))
	if keys := s.Keys(); len(keys) != 1 || keys[0] != "a" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
