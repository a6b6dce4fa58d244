package diagnostics

import (
	"context"
	"net/http"
	"time"

	"losers-alert/internal/domain/market"

	"github.com/rs/zerolog/log"
)

const (
	DefaultProbeURL = "https://finance.yahoo.com"
	smokeRows       = 3
	probeTimeout    = 5 * time.Second
)

// QuoteSource 用於 smoke test。
type QuoteSource interface {
	FetchLosers(ctx context.Context, limit int) []market.Quote
}

// ProbeResult 為連線檢查結果。
type ProbeResult struct {
	URL       string `json:"url"`
	OK        bool   `json:"ok"`
	Status    int    `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// SmokeResult 為小量抓取的結果。
type SmokeResult struct {
	OK   bool           `json:"ok"`
	Rows []market.Quote `json:"rows"`
}

// Report 彙整一次診斷。
type Report struct {
	CheckedAt    time.Time   `json:"checked_at"`
	Connectivity ProbeResult `json:"connectivity"`
	Smoke        SmokeResult `json:"smoke"`
}

// Service 執行連線檢查與報價來源 smoke test。
type Service struct {
	source     QuoteSource
	probeURL   string
	httpClient *http.Client
	userAgent  string
	now        func() time.Time
}

func NewService(source QuoteSource, probeURL, userAgent string) *Service {
	if probeURL == "" {
		probeURL = DefaultProbeURL
	}
	return &Service{
		source:     source,
		probeURL:   probeURL,
		httpClient: &http.Client{Timeout: probeTimeout},
		userAgent:  userAgent,
		now:        time.Now,
	}
}

// Run 先檢查網站可達，再抓取 3 筆跌幅榜。
func (s *Service) Run(ctx context.Context) Report {
	rep := Report{CheckedAt: s.now()}
	rep.Connectivity = s.Probe(ctx)

	rows := s.source.FetchLosers(ctx, smokeRows)
	if len(rows) > smokeRows {
		rows = rows[:smokeRows]
	}
	if rows == nil {
		rows = []market.Quote{}
	}
	rep.Smoke = SmokeResult{OK: len(rows) > 0, Rows: rows}

	log.Info().
		Bool("reachable", rep.Connectivity.OK).
		Int("status", rep.Connectivity.Status).
		Int("smoke_rows", len(rows)).
		Msg("diagnostics finished")
	return rep
}

// Probe 以 HEAD 請求檢查網站，2xx/3xx 視為可達。
func (s *Service) Probe(ctx context.Context) ProbeResult {
	res := ProbeResult{URL: s.probeURL}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.probeURL, nil)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	start := s.now()
	resp, err := s.httpClient.Do(req)
	res.LatencyMs = s.now().Sub(start).Milliseconds()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	resp.Body.Close()
	res.Status = resp.StatusCode
	res.OK = resp.StatusCode < 400
	return res
}
