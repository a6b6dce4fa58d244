// Package metrics 定義 Prometheus 指標。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry 收集管線、報價來源與通知的指標。
type Registry struct {
	reg *prometheus.Registry

	PipelineRuns     *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	PipelineHits     prometheus.Counter
	FetchAttempts    *prometheus.CounterVec
	Deliveries       *prometheus.CounterVec
	StoreErrors      *prometheus.CounterVec
	Threshold        prometheus.Gauge
}

// New 建立獨立的 registry，避免測試之間重複註冊。
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		PipelineRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "losers_pipeline_runs_total",
				Help: "Alert pipeline invocations by trigger and terminal state",
			},
			[]string{"trigger", "state"},
		),
		PipelineDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "losers_pipeline_duration_seconds",
				Help:    "Duration of one alert pipeline invocation",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		PipelineHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "losers_pipeline_new_hits_total",
				Help: "Symbols delivered as new hits",
			},
		),
		FetchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "losers_quote_fetch_attempts_total",
				Help: "Quote source attempts by stage and result",
			},
			[]string{"stage", "result"},
		),
		Deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "losers_notification_deliveries_total",
				Help: "Notification deliveries by channel and result",
			},
			[]string{"channel", "result"},
		),
		StoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "losers_store_errors_total",
				Help: "Recovered state store errors by operation",
			},
			[]string{"op"},
		),
		Threshold: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "losers_alert_threshold_percent",
				Help: "Threshold used by the most recent pipeline run",
			},
		),
	}
	r.reg.MustRegister(
		r.PipelineRuns,
		r.PipelineDuration,
		r.PipelineHits,
		r.FetchAttempts,
		r.Deliveries,
		r.StoreErrors,
		r.Threshold,
	)
	return r
}

// Gatherer 供 promhttp handler 使用。
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveRun 記錄一次管線執行。nil receiver 為 no-op，方便測試不注入指標。
func (r *Registry) ObserveRun(trigger, state string, hits int, threshold float64, d time.Duration) {
	if r == nil {
		return
	}
	r.PipelineRuns.WithLabelValues(trigger, state).Inc()
	r.PipelineDuration.Observe(d.Seconds())
	r.PipelineHits.Add(float64(hits))
	r.Threshold.Set(threshold)
}

// ObserveFetch 記錄報價來源單一階段的結果。
func (r *Registry) ObserveFetch(stage, result string) {
	if r == nil {
		return
	}
	r.FetchAttempts.WithLabelValues(stage, result).Inc()
}

// ObserveDelivery 記錄通知通道結果。
func (r *Registry) ObserveDelivery(channel string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.Deliveries.WithLabelValues(channel, result).Inc()
}

// ObserveStoreError 記錄被吸收的存儲錯誤。
func (r *Registry) ObserveStoreError(op string) {
	if r == nil {
		return
	}
	r.StoreErrors.WithLabelValues(op).Inc()
}
