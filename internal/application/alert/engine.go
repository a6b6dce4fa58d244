package alert

import (
	"context"
	"fmt"
	"time"

	alertDomain "losers-alert/internal/domain/alert"
	"losers-alert/internal/domain/market"
	"losers-alert/internal/infrastructure/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FetchLimit 為每次管線抓取的跌幅榜筆數。
const FetchLimit = 100

const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// RunState 為管線執行經過的狀態。
type RunState string

const (
	StateFetching  RunState = "fetching"
	StateFiltering RunState = "filtering"
	StateNoHits    RunState = "no_hits"
	StateNotifying RunState = "notifying"
	StateDone      RunState = "done"
)

// QuoteSource 取得當日跌幅榜；失敗時回傳空清單而非錯誤。
type QuoteSource interface {
	FetchLosers(ctx context.Context, limit int) []market.Quote
}

// Notifier 寄送通知。
type Notifier interface {
	Send(ctx context.Context, notification alertDomain.Notification) error
}

// RunResult 描述單次管線執行。
type RunResult struct {
	ID            string         `json:"id"`
	Trigger       string         `json:"trigger"`
	Date          string         `json:"date"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	Threshold     float64        `json:"threshold"`
	Fetched       int            `json:"fetched"`
	Candidates    int            `json:"candidates"`
	Hits          []market.Quote `json:"hits"`
	Path          []RunState     `json:"path"`
	DeliveryError string         `json:"delivery_error,omitempty"`
	LedgerError   string         `json:"ledger_error,omitempty"`
}

// Final 回傳最後抵達的狀態。
func (r RunResult) Final() RunState {
	if len(r.Path) == 0 {
		return ""
	}
	return r.Path[len(r.Path)-1]
}

// Notified 回報本次是否有送出通知。
func (r RunResult) Notified() bool {
	for _, s := range r.Path {
		if s == StateNotifying {
			return true
		}
	}
	return false
}

// Engine 執行跌幅榜 → 門檻篩選 → 去重 → 通知 → 記帳的管線。
type Engine struct {
	source     QuoteSource
	thresholds *ThresholdStore
	ledger     *Ledger
	notifier   Notifier
	metrics    *metrics.Registry
	now        func() time.Time
	limit      int
}

// NewEngine 建立通知引擎。
func NewEngine(source QuoteSource, thresholds *ThresholdStore, ledger *Ledger, notifier Notifier, reg *metrics.Registry) *Engine {
	return &Engine{
		source:     source,
		thresholds: thresholds,
		ledger:     ledger,
		notifier:   notifier,
		metrics:    reg,
		now:        time.Now,
		limit:      FetchLimit,
	}
}

// WithLimit 調整每次抓取筆數；n<1 時維持預設。
func (e *Engine) WithLimit(n int) *Engine {
	if n > 0 {
		e.limit = n
	}
	return e
}

// Candidates 保留 change <= -threshold 的報價，依原順序，同一代號只留第一筆。
func Candidates(quotes []market.Quote, threshold float64) []market.Quote {
	out := make([]market.Quote, 0, len(quotes))
	seen := make(map[string]struct{}, len(quotes))
	for _, q := range quotes {
		if !q.IsCandidate(threshold) {
			continue
		}
		if _, dup := seen[q.Symbol]; dup {
			continue
		}
		seen[q.Symbol] = struct{}{}
		out = append(out, q)
	}
	return out
}

// Run 以手動觸發執行一次管線。
func (e *Engine) Run(ctx context.Context, date time.Time) (RunResult, error) {
	return e.RunAs(ctx, TriggerManual, date)
}

// RunAs 執行一次管線。通知失敗不會阻止記帳；回傳的 error 僅代表記帳寫入失敗，
// 此時下一次執行可能重送相同代號。
func (e *Engine) RunAs(ctx context.Context, trigger string, date time.Time) (RunResult, error) {
	res := RunResult{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Date:      alertDomain.DateKey(date),
		StartedAt: e.now(),
		Hits:      []market.Quote{},
	}
	logger := log.With().Str("run_id", res.ID).Str("trigger", trigger).Str("date", res.Date).Logger()

	res.Path = append(res.Path, StateFetching)
	quotes := e.source.FetchLosers(ctx, e.limit)
	res.Fetched = len(quotes)

	res.Path = append(res.Path, StateFiltering)
	res.Threshold = e.thresholds.Get(ctx)
	candidates := Candidates(quotes, res.Threshold)
	res.Candidates = len(candidates)
	for _, q := range candidates {
		if !e.ledger.HasBeenNotified(ctx, q.Symbol, date) {
			res.Hits = append(res.Hits, q)
		}
	}

	var runErr error
	if len(res.Hits) == 0 {
		res.Path = append(res.Path, StateNoHits)
	} else {
		res.Path = append(res.Path, StateNotifying)
		n := alertDomain.Notification{Date: date, Threshold: res.Threshold, Hits: res.Hits}
		if e.notifier != nil {
			if err := e.notifier.Send(ctx, n); err != nil {
				res.DeliveryError = err.Error()
				logger.Warn().Err(err).Msg("notification delivery failed; marking as notified anyway")
			}
		}
		if err := e.ledger.MarkNotified(ctx, market.Symbols(res.Hits), date); err != nil {
			res.LedgerError = err.Error()
			runErr = fmt.Errorf("mark notified: %w", err)
			logger.Error().Err(err).Msg("ledger write failed; symbols may be re-notified")
		}
	}
	res.Path = append(res.Path, StateDone)
	res.FinishedAt = e.now()

	outcome := string(res.Path[len(res.Path)-2])
	e.metrics.ObserveRun(trigger, outcome, len(res.Hits), res.Threshold, res.FinishedAt.Sub(res.StartedAt))
	logger.Info().
		Int("fetched", res.Fetched).
		Int("candidates", res.Candidates).
		Int("hits", len(res.Hits)).
		Float64("threshold", res.Threshold).
		Str("outcome", outcome).
		Msg("pipeline run finished")
	return res, runErr
}
