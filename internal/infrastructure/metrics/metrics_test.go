package metrics

import (
	"errors"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, r *Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if matches(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matches(m *dto.Metric, labels map[string]string) bool {
	for _, lp := range m.GetLabel() {
		if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
			return false
		}
	}
	return true
}

func TestRegistry_Observe(t *testing.T) {
	r := New()
	r.ObserveRun("schedule", "notifying", 2, 30, 150*time.Millisecond)
	r.ObserveFetch("predefined", "error")
	r.ObserveDelivery("telegram", errors.New("down"))
	r.ObserveStoreError("ledger_get")

	if v := counterValue(t, r, "losers_pipeline_runs_total", map[string]string{"trigger": "schedule", "state": "notifying"}); v != 1 {
		t.Errorf("expected 1 run, got %v", v)
	}
	if v := counterValue(t, r, "losers_pipeline_new_hits_total", nil); v != 2 {
		t.Errorf("expected 2 hits, got %v", v)
	}
	if v := counterValue(t, r, "losers_notification_deliveries_total", map[string]string{"channel": "telegram", "result": "error"}); v != 1 {
		t.Errorf("expected 1 failed delivery, got %v", v)
	}
}

func TestRegistry_NilSafe(t *testing.T) {
	var r *Registry
	r.ObserveRun("manual", "no_hits", 0, 35, time.Second)
	r.ObserveFetch("screener", "ok")
	r.ObserveDelivery("log", nil)
	r.ObserveStoreError("x")
}
