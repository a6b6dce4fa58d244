package alert

import (
	"context"
	"time"

	"losers-alert/internal/application/state"
	alertDomain "losers-alert/internal/domain/alert"
	"losers-alert/internal/domain/market"
	"losers-alert/internal/infrastructure/metrics"

	"github.com/rs/zerolog/log"
)

// LedgerKey 回傳某日已通知代號集合的鍵，例如 notified_symbols_2024-05-01。
func LedgerKey(date time.Time) string {
	return "notified_symbols_" + alertDomain.DateKey(date)
}

// Ledger 記錄每個日曆日已通知過的代號，保證同一代號同一天最多通知一次。
type Ledger struct {
	store   state.Store
	metrics *metrics.Registry
}

func NewLedger(store state.Store, reg *metrics.Registry) *Ledger {
	return &Ledger{store: store, metrics: reg}
}

// HasBeenNotified 讀取失敗時回傳 false。
func (l *Ledger) HasBeenNotified(ctx context.Context, symbol string, date time.Time) bool {
	set, err := state.GetSet(ctx, l.store, LedgerKey(date))
	if err != nil {
		l.metrics.ObserveStoreError("ledger_get")
		log.Warn().Err(err).Str("date", alertDomain.DateKey(date)).Msg("read ledger failed")
		return false
	}
	_, ok := set[market.NormalizeSymbol(symbol)]
	return ok
}

// MarkNotified 以原子讀改寫把 symbols 併入當日集合；空輸入不寫入。
func (l *Ledger) MarkNotified(ctx context.Context, symbols []string, date time.Time) error {
	members := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = market.NormalizeSymbol(s); s != "" {
			members = append(members, s)
		}
	}
	if len(members) == 0 {
		return nil
	}
	if err := state.UnionSet(ctx, l.store, LedgerKey(date), members); err != nil {
		l.metrics.ObserveStoreError("ledger_mark")
		return err
	}
	return nil
}

// Notified 回傳當日已通知代號（排序）；讀取失敗時為空。
func (l *Ledger) Notified(ctx context.Context, date time.Time) []string {
	set, err := state.GetSet(ctx, l.store, LedgerKey(date))
	if err != nil {
		l.metrics.ObserveStoreError("ledger_get")
		return []string{}
	}
	return state.SortedMembers(set)
}
