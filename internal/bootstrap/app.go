// Package bootstrap 依組態組裝存儲、報價來源、通知通道與各用例。
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"losers-alert/internal/application/alert"
	"losers-alert/internal/application/diagnostics"
	"losers-alert/internal/application/state"
	"losers-alert/internal/application/watchlist"
	alertDomain "losers-alert/internal/domain/alert"
	"losers-alert/internal/infra/memory"
	authinfra "losers-alert/internal/infrastructure/auth"
	"losers-alert/internal/infrastructure/config"
	"losers-alert/internal/infrastructure/db"
	"losers-alert/internal/infrastructure/external/yahoo"
	"losers-alert/internal/infrastructure/metrics"
	"losers-alert/internal/infrastructure/notify"
	boltstore "losers-alert/internal/infrastructure/persistence/bolt"
	"losers-alert/internal/infrastructure/persistence/postgres"
	redisstore "losers-alert/internal/infrastructure/persistence/redis"
	httpapi "losers-alert/internal/interface/http"

	"github.com/rs/zerolog/log"
)

// App 持有一個程序內共用的所有元件。
type App struct {
	Config      config.Config
	Store       state.Store
	Metrics     *metrics.Registry
	Source      *yahoo.Client
	Thresholds  *alert.ThresholdStore
	Ledger      *alert.Ledger
	UIState     *watchlist.UIStateStore
	Notifier    *notify.MultiNotifier
	Engine      *alert.Engine
	Scheduler   *alert.Scheduler
	Refresher   *watchlist.Refresher
	Watchlist   *watchlist.Watchlist
	Diagnostics *diagnostics.Service
	Tokens      *authinfra.JWTIssuer

	closers []func() error
}

// New 依 cfg 建立 App；呼叫端負責 Close。
func New(ctx context.Context, cfg config.Config) (*App, error) {
	reg := metrics.New()
	store, closer, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Store: store, Metrics: reg}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	userAgent := cfg.Yahoo.UserAgent
	if userAgent == "" {
		userAgent = yahoo.DefaultUserAgent
	}
	app.Source = yahoo.NewClient(yahoo.Options{
		BaseURL:       cfg.Yahoo.BaseURL,
		UserAgent:     userAgent,
		Timeout:       cfg.Yahoo.Timeout,
		RatePerMinute: cfg.Yahoo.RatePerMinute,
		Metrics:       reg,
	})
	app.Thresholds = alert.NewThresholdStore(store, reg)
	app.Ledger = alert.NewLedger(store, reg)
	app.UIState = watchlist.NewUIStateStore(store, reg)
	app.Notifier = buildNotifier(cfg, reg)
	app.Engine = alert.NewEngine(app.Source, app.Thresholds, app.Ledger, app.Notifier, reg).WithLimit(cfg.Yahoo.Limit)
	app.Scheduler = alert.NewScheduler(app.Engine, cfg.Scheduler.PollInterval, cfg.Scheduler.RunTimeout, cfg.Alert.Location(), nil)
	app.Refresher = watchlist.NewRefresher(app.Source, cfg.Scheduler.RefreshInterval)
	app.Watchlist = watchlist.NewWatchlist(app.Refresher, app.Thresholds, app.UIState)
	app.Diagnostics = diagnostics.NewService(app.Source, diagnostics.DefaultProbeURL, userAgent)
	app.Tokens = NewTokenIssuer(cfg)

	log.Info().
		Str("store", cfg.Store.Driver).
		Strs("channels", app.Notifier.Channels()).
		Str("timezone", cfg.Alert.Location().String()).
		Msg("application assembled")
	return app, nil
}

// OpenStore 依 store.driver 建立狀態存儲，回傳對應的關閉函式（可能為 nil）。
func OpenStore(ctx context.Context, cfg config.Config) (state.Store, func() error, error) {
	switch cfg.Store.Driver {
	case "memory":
		return memory.NewStore(), nil, nil
	case "bolt", "":
		s, err := boltstore.Open(cfg.Store.BoltPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt store: %w", err)
		}
		return s, s.Close, nil
	case "postgres":
		conn, err := db.Connect(ctx, cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if conn == nil {
			return nil, nil, errors.New("store.driver=postgres requires db.dsn")
		}
		if err := db.EnsureSchema(ctx, conn); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return postgres.NewKVStore(conn), conn.Close, nil
	case "redis":
		s := redisstore.New(redisstore.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.Ping(pingCtx); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store.driver: %s", cfg.Store.Driver)
	}
}

func buildNotifier(cfg config.Config, reg *metrics.Registry) *notify.MultiNotifier {
	channels := []notify.Channel{notify.NewLogNotifier(log.Logger)}
	tg := cfg.Notifier.Telegram
	if tg.Enabled && tg.Token != "" && tg.ChatID != 0 {
		channels = append(channels, notify.NewTelegramClient(tg.Token, tg.ChatID, tg.Prefix))
	} else if tg.Enabled {
		log.Warn().Msg("telegram enabled but token or chat_id missing; channel skipped")
	}
	return notify.NewMultiNotifier(reg, channels...)
}

// NewTokenIssuer 建立 API token 簽發器，不需開啟存儲。
func NewTokenIssuer(cfg config.Config) *authinfra.JWTIssuer {
	return authinfra.NewJWTIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL)
}

// Today 回傳設定時區下的今天。
func (a *App) Today() time.Time {
	return alertDomain.Today(time.Now(), a.Config.Alert.Location())
}

// Server 建立 HTTP 伺服器。
func (a *App) Server() *httpapi.Server {
	deps := httpapi.Deps{
		Watchlist:   a.Watchlist,
		UIState:     a.UIState,
		Thresholds:  a.Thresholds,
		Ledger:      a.Ledger,
		Scheduler:   a.Scheduler,
		Diagnostics: a.Diagnostics,
		Tokens:      a.Tokens,
		Metrics:     a.Metrics,
		StoreDriver: a.Config.Store.Driver,
		Location:    a.Config.Alert.Location(),
	}
	if p, ok := a.Store.(httpapi.Pinger); ok {
		deps.Store = p
	}
	return httpapi.NewServer(deps)
}

// Close 依建立的相反順序釋放資源。
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
