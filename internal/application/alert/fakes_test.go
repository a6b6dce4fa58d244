package alert

import (
	"context"
	"errors"
	"sync"

	"losers-alert/internal/application/state"
	alertDomain "losers-alert/internal/domain/alert"
	"losers-alert/internal/domain/market"
	"losers-alert/internal/infra/memory"
)

type fakeSource struct {
	mu     sync.Mutex
	quotes []market.Quote
	calls  int
	limits []int
}

func (f *fakeSource) FetchLosers(_ context.Context, limit int) []market.Quote {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.limits = append(f.limits, limit)
	return f.quotes
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []alertDomain.Notification
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, n alertDomain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// flakyStore 包裝記憶體存儲，可讓讀或寫失敗。
type flakyStore struct {
	*memory.Store
	failGet    bool
	failUpdate bool
	failSet    bool
}

var errStore = errors.New("store unavailable")

func newFlakyStore() *flakyStore {
	return &flakyStore{Store: memory.NewStore()}
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet {
		return nil, errStore
	}
	return f.Store.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return errStore
	}
	return f.Store.Set(ctx, key, value)
}

func (f *flakyStore) Update(ctx context.Context, key string, fn state.UpdateFunc) error {
	if f.failUpdate {
		return errStore
	}
	return f.Store.Update(ctx, key, fn)
}
