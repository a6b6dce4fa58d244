package alert

import (
	"context"
	"sync"
	"time"

	alertDomain "losers-alert/internal/domain/alert"

	"github.com/rs/zerolog/log"
)

// Runner 為排程器呼叫的管線。
type Runner interface {
	RunAs(ctx context.Context, trigger string, date time.Time) (RunResult, error)
}

// Scheduler 定期（預設 15 分鐘）執行管線，並提供立即執行。
// 同時有多次執行是允許的，正確性依賴存儲的單鍵原子更新。
type Scheduler struct {
	runner     Runner
	interval   time.Duration
	runTimeout time.Duration
	loc        *time.Location
	history    *History
	now        func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler 建立排程器；loc 決定「今天」是哪一個日曆日。
func NewScheduler(runner Runner, interval, runTimeout time.Duration, loc *time.Location, history *History) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if runTimeout <= 0 {
		runTimeout = 60 * time.Second
	}
	if history == nil {
		history = NewHistory()
	}
	return &Scheduler{
		runner:     runner,
		interval:   interval,
		runTimeout: runTimeout,
		loc:        loc,
		history:    history,
		now:        time.Now,
	}
}

// History 回傳執行紀錄。
func (s *Scheduler) History() *History {
	return s.history
}

// Start 啟動週期迴圈，啟動後立即執行一次；重複呼叫無效。
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	log.Info().Dur("interval", s.interval).Msg("alert scheduler started")
	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(loopCtx, TriggerSchedule)
		for {
			select {
			case <-ticker.C:
				s.runOnce(loopCtx, TriggerSchedule)
			case <-loopCtx.Done():
				return
			}
		}
	}(s.done)
}

// Stop 取消進行中的排程執行並等待迴圈結束。
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Info().Msg("alert scheduler stopped")
}

// RunNow 立即以今天的日期同步執行一次管線。
func (s *Scheduler) RunNow(ctx context.Context) (RunResult, error) {
	return s.runOnce(ctx, TriggerManual)
}

func (s *Scheduler) runOnce(ctx context.Context, trigger string) (RunResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	date := alertDomain.Today(s.now(), s.loc)
	res, err := s.runner.RunAs(runCtx, trigger, date)
	s.history.Record(res)
	if err != nil {
		log.Warn().Err(err).Str("run_id", res.ID).Msg("pipeline run reported an error")
	}
	return res, err
}
