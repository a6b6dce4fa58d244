package diagnostics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"losers-alert/internal/domain/market"
)

type fakeSource struct {
	quotes []market.Quote
	limit  int
}

func (f *fakeSource) FetchLosers(_ context.Context, limit int) []market.Quote {
	f.limit = limit
	return f.quotes
}

func TestService_Run(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		var method string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		src := &fakeSource{quotes: []market.Quote{
			{Symbol: "A", PercentChange: -1}, {Symbol: "B", PercentChange: -2},
			{Symbol: "C", PercentChange: -3}, {Symbol: "D", PercentChange: -4},
		}}
		rep := NewService(src, ts.URL, "ua").Run(context.Background())
		if method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", method)
		}
		if !rep.Connectivity.OK || rep.Connectivity.Status != 200 {
			t.Errorf("unexpected probe %+v", rep.Connectivity)
		}
		if src.limit != 3 || len(rep.Smoke.Rows) != 3 || !rep.Smoke.OK {
			t.Errorf("unexpected smoke %+v limit=%d", rep.Smoke, src.limit)
		}
	})

	t.Run("server_error_and_empty_source", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer ts.Close()

		rep := NewService(&fakeSource{}, ts.URL, "").Run(context.Background())
		if rep.Connectivity.OK || rep.Connectivity.Status != 503 {
			t.Errorf("unexpected probe %+v", rep.Connectivity)
		}
		if rep.Smoke.OK || rep.Smoke.Rows == nil {
			t.Errorf("unexpected smoke %+v", rep.Smoke)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := ts.URL
		ts.Close()

		res := NewService(&fakeSource{}, url, "").Probe(context.Background())
		if res.OK || res.Error == "" {
			t.Errorf("expected connection error, got %+v", res)
		}
	})
}
