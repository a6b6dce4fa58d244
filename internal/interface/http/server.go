package httpapi

import (
	"context"
	"net/http"
	"time"

	"losers-alert/internal/application/alert"
	"losers-alert/internal/application/diagnostics"
	"losers-alert/internal/application/watchlist"
	alertDomain "losers-alert/internal/domain/alert"
	authinfra "losers-alert/internal/infrastructure/auth"
	"losers-alert/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	errCodeBadRequest   = "BAD_REQUEST"
	errCodeUnauthorized = "AUTH_UNAUTHORIZED"
	errCodeNotFound     = "NOT_FOUND"
	errCodeInternal     = "INTERNAL_ERROR"
)

// Pinger 為可回報健康狀態的存儲。
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps 為 Server 需要的用例與基礎設施。
type Deps struct {
	Watchlist   *watchlist.Watchlist
	UIState     *watchlist.UIStateStore
	Thresholds  *alert.ThresholdStore
	Ledger      *alert.Ledger
	Scheduler   *alert.Scheduler
	Diagnostics *diagnostics.Service
	Tokens      *authinfra.JWTIssuer
	Metrics     *metrics.Registry
	Store       Pinger
	StoreDriver string
	Location    *time.Location
}

// Server 封裝 HTTP 路由與依賴。
type Server struct {
	engine      *gin.Engine
	watchlist   *watchlist.Watchlist
	ui          *watchlist.UIStateStore
	thresholds  *alert.ThresholdStore
	ledger      *alert.Ledger
	scheduler   *alert.Scheduler
	diagnostics *diagnostics.Service
	tokenSvc    *authinfra.JWTIssuer
	metrics     *metrics.Registry
	store       Pinger
	storeDriver string
	loc         *time.Location
	now         func() time.Time
}

// NewServer 建立 API 伺服器。
func NewServer(deps Deps) *Server {
	s := &Server{
		engine:      gin.New(),
		watchlist:   deps.Watchlist,
		ui:          deps.UIState,
		thresholds:  deps.Thresholds,
		ledger:      deps.Ledger,
		scheduler:   deps.Scheduler,
		diagnostics: deps.Diagnostics,
		tokenSvc:    deps.Tokens,
		metrics:     deps.Metrics,
		store:       deps.Store,
		storeDriver: deps.StoreDriver,
		loc:         deps.Location,
		now:         time.Now,
	}
	s.engine.Use(gin.Recovery(), s.ginLogger(), corsMiddleware())
	s.registerRoutes()
	return s
}

// Handler 回傳路由處理器，供 HTTP server 掛載。
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.GET("/ping", s.handlePing)
	api.GET("/health", s.handleHealth)
	api.GET("/losers", s.handleView)
	api.GET("/settings/threshold", s.handleGetThreshold)
	api.GET("/jobs/history", s.handleJobsHistory)
	api.GET("/diagnostics", s.handleDiagnostics)

	auth := api.Group("", s.requireAuth())
	auth.POST("/losers/refresh", s.handleRefresh)
	auth.PUT("/settings/threshold", s.handleSetThreshold)
	auth.POST("/pins/:symbol/toggle", s.handleTogglePin)
	auth.POST("/dismissals/:symbol", s.handleDismiss)
	auth.DELETE("/dismissals", s.handleUndismissAll)
	auth.POST("/jobs/run-now", s.handleRunNow)

	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Gatherer(), promhttp.HandlerOpts{})))
	}
}

func (s *Server) today() time.Time {
	return alertDomain.Today(s.now(), s.loc)
}
