package yahoo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"losers-alert/internal/domain/market"
	"losers-alert/internal/infrastructure/metrics"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"
	DefaultLimit     = 100

	StagePredefined = "predefined"
	StageScreener   = "screener"

	maxBodyBytes = 10 * 1024 * 1024
)

// Options 為 Client 設定；零值欄位使用預設。
type Options struct {
	BaseURL       string
	UserAgent     string
	Timeout       time.Duration
	RatePerMinute int
	HTTPClient    *http.Client
	Metrics       *metrics.Registry
}

// Client 實作跌幅榜報價來源：predefined/saved 為主要端點，screener 為備援。
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	breakers   map[string]*gobreaker.CircuitBreaker
	metrics    *metrics.Registry
}

// NewClient 建立 Yahoo 報價來源。
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	var limiter *rate.Limiter
	if opts.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), 2)
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		httpClient: hc,
		limiter:    limiter,
		breakers: map[string]*gobreaker.CircuitBreaker{
			StagePredefined: newBreaker("yahoo-" + StagePredefined),
			StageScreener:   newBreaker("yahoo-" + StageScreener),
		},
		metrics: opts.Metrics,
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// 空結果屬正常回應，不計入熔斷
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrEmpty) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
}

// FetchLosers 取得當日跌幅榜，任何傳輸或解析錯誤都轉為空清單。
func (c *Client) FetchLosers(ctx context.Context, limit int) []market.Quote {
	return c.Fetch(ctx, limit).Quotes
}

// Fetch 與 FetchLosers 相同，但保留各階段錯誤供診斷使用。
func (c *Client) Fetch(ctx context.Context, limit int) Outcome {
	if limit < 1 {
		limit = DefaultLimit
	}
	out := FetchWithFallback(ctx,
		Attempt{Stage: StagePredefined, Run: func(ctx context.Context) ([]market.Quote, error) {
			return c.Predefined(ctx, limit)
		}},
		Attempt{Stage: StageScreener, Run: func(ctx context.Context) ([]market.Quote, error) {
			return c.Screener(ctx, limit)
		}},
	)
	for stage, err := range out.Errors {
		c.metrics.ObserveFetch(stage, "error")
		log.Warn().Str("stage", stage).Err(err).Msg("day losers attempt failed")
	}
	if out.Stage != "" {
		c.metrics.ObserveFetch(out.Stage, "ok")
		log.Debug().Str("stage", out.Stage).Int("quotes", len(out.Quotes)).Msg("day losers fetched")
	} else {
		log.Error().Msg("day losers unavailable from all endpoints; returning empty list")
	}
	return out
}

// Predefined 呼叫 v1/finance/screener/predefined/saved。
func (c *Client) Predefined(ctx context.Context, limit int) ([]market.Quote, error) {
	params := url.Values{}
	params.Set("scrIds", "day_losers")
	params.Set("count", strconv.Itoa(limit))
	params.Set("offset", "0")
	return c.stage(ctx, StagePredefined, "/v1/finance/screener/predefined/saved", params)
}

// Screener 呼叫 v1/finance/screener 備援端點。
func (c *Client) Screener(ctx context.Context, limit int) ([]market.Quote, error) {
	params := url.Values{}
	params.Set("lang", "en-US")
	params.Set("region", "US")
	params.Set("scrIds", "day_losers")
	params.Set("count", strconv.Itoa(limit))
	params.Set("offset", "0")
	return c.stage(ctx, StageScreener, "/v1/finance/screener", params)
}

func (c *Client) stage(ctx context.Context, stage, path string, params url.Values) ([]market.Quote, error) {
	res, err := c.breakers[stage].Execute(func() (interface{}, error) {
		body, err := c.get(ctx, path, params)
		if err != nil {
			return nil, err
		}
		quotes, err := parseQuotes(body)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", stage, err)
		}
		if len(quotes) == 0 {
			return quotes, ErrEmpty
		}
		return quotes, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]market.Quote), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL = fullURL + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo api error (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
