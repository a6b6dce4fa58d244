package watchlist

import (
	"context"
	"errors"
	"time"

	"losers-alert/internal/application/state"
	alertDomain "losers-alert/internal/domain/alert"
	"losers-alert/internal/domain/market"
	"losers-alert/internal/infrastructure/metrics"

	"github.com/rs/zerolog/log"
)

// PinnedKey 為釘選集合的鍵，跨日保留。
const PinnedKey = "pinned_symbols"

// ErrInvalidSymbol 表示代號為空白。
var ErrInvalidSymbol = errors.New("symbol required")

// DismissedKey 回傳某日隱藏集合的鍵，例如 dismissed_2024-05-01。
func DismissedKey(date time.Time) string {
	return "dismissed_" + alertDomain.DateKey(date)
}

// UIStateStore 保存釘選（永久）與每日隱藏（隔日自動失效）。
type UIStateStore struct {
	store   state.Store
	metrics *metrics.Registry
}

func NewUIStateStore(store state.Store, reg *metrics.Registry) *UIStateStore {
	return &UIStateStore{store: store, metrics: reg}
}

// Pinned 讀取失敗時回傳空集合。
func (u *UIStateStore) Pinned(ctx context.Context) []string {
	return u.members(ctx, PinnedKey, "pinned_get")
}

// DismissedOn 讀取失敗時回傳空集合。
func (u *UIStateStore) DismissedOn(ctx context.Context, date time.Time) []string {
	return u.members(ctx, DismissedKey(date), "dismissed_get")
}

// TogglePin 原子切換釘選，回傳切換後是否為釘選。
func (u *UIStateStore) TogglePin(ctx context.Context, symbol string) (bool, error) {
	symbol = market.NormalizeSymbol(symbol)
	if symbol == "" {
		return false, ErrInvalidSymbol
	}
	pinned, err := state.ToggleMember(ctx, u.store, PinnedKey, symbol)
	if err != nil {
		u.metrics.ObserveStoreError("pinned_toggle")
		return false, err
	}
	return pinned, nil
}

// Dismiss 將代號加入當日隱藏集合。
func (u *UIStateStore) Dismiss(ctx context.Context, symbol string, date time.Time) error {
	symbol = market.NormalizeSymbol(symbol)
	if symbol == "" {
		return ErrInvalidSymbol
	}
	if err := state.UnionSet(ctx, u.store, DismissedKey(date), []string{symbol}); err != nil {
		u.metrics.ObserveStoreError("dismissed_add")
		return err
	}
	return nil
}

// IsDismissed 讀取失敗時回傳 false。
func (u *UIStateStore) IsDismissed(ctx context.Context, symbol string, date time.Time) bool {
	set, err := state.GetSet(ctx, u.store, DismissedKey(date))
	if err != nil {
		u.metrics.ObserveStoreError("dismissed_get")
		return false
	}
	_, ok := set[market.NormalizeSymbol(symbol)]
	return ok
}

// UndismissAll 清除當日隱藏集合。
func (u *UIStateStore) UndismissAll(ctx context.Context, date time.Time) error {
	err := u.store.Delete(ctx, DismissedKey(date))
	if err != nil && !errors.Is(err, state.ErrNotFound) {
		u.metrics.ObserveStoreError("dismissed_clear")
		return err
	}
	return nil
}

func (u *UIStateStore) members(ctx context.Context, key, op string) []string {
	set, err := state.GetSet(ctx, u.store, key)
	if err != nil {
		u.metrics.ObserveStoreError(op)
		log.Warn().Err(err).Str("key", key).Msg("read ui state failed")
		return []string{}
	}
	return state.SortedMembers(set)
}
