package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_FetchLosers(t *testing.T) {
	t.Run("primary_success", func(t *testing.T) {
		var gotUA, gotQuery string
		ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/finance/screener/predefined/saved" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			gotUA = r.Header.Get("User-Agent")
			gotQuery = r.URL.RawQuery
			_, _ = w.Write([]byte(`{"finance":{"result":[{"quotes":[
				{"symbol":"aaa","regularMarketChangePercent":-40.5},
				{"symbol":"BBB","regularMarketChangePercent":{"raw":-12.25,"fmt":"-12.25%"}}
			]}]}}`))
		})

		c := NewClient(Options{BaseURL: ts.URL})
		quotes := c.FetchLosers(context.Background(), 0)
		if len(quotes) != 2 {
			t.Fatalf("expected 2 quotes, got %d", len(quotes))
		}
		if quotes[0].Symbol != "AAA" || quotes[0].PercentChange != -40.5 {
			t.Errorf("unexpected first quote %+v", quotes[0])
		}
		if quotes[1].PercentChange != -12.25 {
			t.Errorf("expected raw value to be used, got %v", quotes[1].PercentChange)
		}
		if gotUA != DefaultUserAgent {
			t.Errorf("expected browser user agent, got %q", gotUA)
		}
		if !strings.Contains(gotQuery, "count=100") || !strings.Contains(gotQuery, "scrIds=day_losers") {
			t.Errorf("unexpected query %q", gotQuery)
		}
	})

	t.Run("fallback_after_primary_error", func(t *testing.T) {
		var screenerHits int32
		ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/v1/finance/screener/predefined/saved":
				w.WriteHeader(http.StatusInternalServerError)
			case "/v1/finance/screener":
				atomic.AddInt32(&screenerHits, 1)
				if r.URL.Query().Get("region") != "US" || r.URL.Query().Get("lang") != "en-US" {
					t.Errorf("unexpected fallback query %q", r.URL.RawQuery)
				}
				_, _ = w.Write([]byte(`{"finance":{"result":[{"quotes":[
					{"symbol":"XYZ","regularMarketChangePercent":-50},
					{"symbol":"NOPCT"}
				]}]}}`))
			}
		})

		c := NewClient(Options{BaseURL: ts.URL})
		quotes := c.FetchLosers(context.Background(), 100)
		if len(quotes) != 1 || quotes[0].Symbol != "XYZ" {
			t.Fatalf("expected single XYZ quote, got %+v", quotes)
		}
		if atomic.LoadInt32(&screenerHits) != 1 {
			t.Fatalf("expected one fallback call")
		}
	})

	t.Run("fallback_after_empty_primary", func(t *testing.T) {
		ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/v1/finance/screener/predefined/saved" {
				_, _ = w.Write([]byte(`{"finance":{"result":[{"quotes":[]}]}}`))
				return
			}
			_, _ = w.Write([]byte(`{"finance":{"result":[{"quotes":[{"symbol":"QQQ","percent_change":-3}]}]}}`))
		})

		c := NewClient(Options{BaseURL: ts.URL})
		out := c.Fetch(context.Background(), 10)
		if out.Stage != StageScreener || len(out.Quotes) != 1 || out.Quotes[0].PercentChange != -3 {
			t.Fatalf("unexpected outcome %+v", out)
		}
	})

	t.Run("both_fail_returns_empty", func(t *testing.T) {
		ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})

		c := NewClient(Options{BaseURL: ts.URL})
		quotes := c.FetchLosers(context.Background(), 100)
		if quotes == nil || len(quotes) != 0 {
			t.Fatalf("expected empty non-nil slice, got %#v", quotes)
		}
	})

	t.Run("only_first_result_is_read", func(t *testing.T) {
		ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"finance":{"result":[
				{"quotes":[{"symbol":"ONE","regularMarketChangePercent":-1}]},
				{"quotes":[{"symbol":"TWO","regularMarketChangePercent":-2}]}
			]}}`))
		})

		c := NewClient(Options{BaseURL: ts.URL})
		quotes := c.FetchLosers(context.Background(), 100)
		if len(quotes) != 1 || quotes[0].Symbol != "ONE" {
			t.Fatalf("unexpected quotes %+v", quotes)
		}
	})
}

func TestParseQuotes_DropsIncompleteRows(t *testing.T) {
	body := []byte(`{"finance":{"result":[{"quotes":[
		{"symbol":"","regularMarketChangePercent":-5},
		{"regularMarketChangePercent":-5},
		{"symbol":"OK","regularMarketChangePercent":-5}
	]}]}}`)
	quotes, err := parseQuotes(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quotes) != 1 || quotes[0].Symbol != "OK" {
		t.Fatalf("unexpected quotes %+v", quotes)
	}

	formatted := []byte(`{"finance":{"result":[{"quotes":[
		{"symbol":"GOOD","regularMarketChangePercent":{"raw":-40,"fmt":"-40.00%"}},
		{"symbol":"BAD","regularMarketChangePercent":{}},
		{"symbol":"ALT","regularMarketChangePercent":{},"percent_change":-12.5}
	]}]}}`)
	quotes, err = parseQuotes(formatted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quotes) != 2 || quotes[0].Symbol != "GOOD" || quotes[0].PercentChange != -40 ||
		quotes[1].Symbol != "ALT" || quotes[1].PercentChange != -12.5 {
		t.Fatalf("unexpected quotes %+v", quotes)
	}

	empty, err := parseQuotes([]byte(`{}`))
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty slice for missing finance, got %#v err=%v", empty, err)
	}
}
