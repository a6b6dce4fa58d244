package watchlist

import (
	"context"
	"sync"
	"time"

	"losers-alert/internal/domain/market"

	"github.com/rs/zerolog/log"
)

// displayLimit 為畫面刷新時抓取的筆數。
const displayLimit = 100

// QuoteSource 取得當日跌幅榜。
type QuoteSource interface {
	FetchLosers(ctx context.Context, limit int) []market.Quote
}

// Snapshot 為最近一次刷新的結果，只存在記憶體中。
type Snapshot struct {
	Quotes      []market.Quote `json:"quotes"`
	Online      bool           `json:"online"`
	RefreshedAt time.Time      `json:"refreshed_at"`
}

// Refresher 以固定間隔（預設 60 秒）刷新顯示用報價，與通知管線互不影響。
type Refresher struct {
	source   QuoteSource
	interval time.Duration
	now      func() time.Time

	mu     sync.RWMutex
	snap   Snapshot
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRefresher(source QuoteSource, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Refresher{
		source:   source,
		interval: interval,
		now:      time.Now,
		snap:     Snapshot{Quotes: []market.Quote{}},
	}
}

// Refresh 立即抓取並更新快照；空結果視為離線。
func (r *Refresher) Refresh(ctx context.Context) Snapshot {
	quotes := r.source.FetchLosers(ctx, displayLimit)
	if quotes == nil {
		quotes = []market.Quote{}
	}
	snap := Snapshot{Quotes: quotes, Online: len(quotes) > 0, RefreshedAt: r.now()}

	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()
	log.Debug().Int("quotes", len(quotes)).Bool("online", snap.Online).Msg("display snapshot refreshed")
	return snap
}

// Snapshot 回傳目前快照複本。
func (r *Refresher) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := r.snap
	snap.Quotes = append([]market.Quote(nil), r.snap.Quotes...)
	return snap
}

// Start 啟動刷新迴圈，啟動後立即刷新一次；重複呼叫無效。
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.Refresh(loopCtx)
		for {
			select {
			case <-ticker.C:
				r.Refresh(loopCtx)
			case <-loopCtx.Done():
				return
			}
		}
	}(r.done)
}

// Stop 取消刷新並等待迴圈結束。
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
