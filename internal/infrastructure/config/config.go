package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 儲存 daemon、HTTP API 及外部相依的執行設定。
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	DB        DBConfig        `yaml:"db"`
	Store     StoreConfig     `yaml:"store"`
	Yahoo     YahooConfig     `yaml:"yahoo"`
	Alert     AlertConfig     `yaml:"alert"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type DBConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxIdleTime  time.Duration `yaml:"max_idle_time"`
}

// StoreConfig 選擇狀態存儲：memory / bolt / postgres / redis。
type StoreConfig struct {
	Driver   string      `yaml:"driver"`
	BoltPath string      `yaml:"bolt_path"`
	Redis    RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type YahooConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	RatePerMinute int           `yaml:"rate_per_minute"`
	Limit         int           `yaml:"limit"`
}

type AlertConfig struct {
	// Timezone 決定「今天」的日曆日，例如 America/New_York；空字串為系統時區。
	Timezone string `yaml:"timezone"`
}

type SchedulerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	RunTimeout      time.Duration `yaml:"run_timeout"`
}

type NotifierConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
	Prefix  string `yaml:"prefix"`
}

type AuthConfig struct {
	// Secret 為空時不驗證寫入類 API。
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Location 解析 Alert.Timezone；無法解析時回傳系統時區。
func (c AlertConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// LoadFromFile 從 YAML 組態檔載入設定；檔案不存在時只使用預設值與環境變數。
func LoadFromFile(path string) (Config, error) {
	// 嘗試載入 .env 檔案（如果存在）
	_ = godotenv.Load()

	var cfg Config
	cfg.Scheduler.Enabled = true
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg = applyDefaults(cfg)
	cfg = applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 檢查組態之間的相依。
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "bolt", "redis":
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("store.driver=postgres requires db.dsn")
		}
	default:
		return fmt.Errorf("unsupported store.driver: %s", c.Store.Driver)
	}
	if c.Alert.Timezone != "" {
		if _, err := time.LoadLocation(c.Alert.Timezone); err != nil {
			return fmt.Errorf("invalid alert.timezone %q: %w", c.Alert.Timezone, err)
		}
	}
	return nil
}

func applyDefaults(cfg Config) Config {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB.MaxOpenConns = 5
	}
	if cfg.DB.MaxIdleConns == 0 {
		cfg.DB.MaxIdleConns = 2
	}
	if cfg.DB.MaxIdleTime == 0 {
		cfg.DB.MaxIdleTime = 15 * time.Minute
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "bolt"
	}
	if cfg.Store.BoltPath == "" {
		cfg.Store.BoltPath = "losers-alert.db"
	}
	if cfg.Store.Redis.Addr == "" {
		cfg.Store.Redis.Addr = "localhost:6379"
	}
	if cfg.Store.Redis.Prefix == "" {
		cfg.Store.Redis.Prefix = "losers:"
	}
	if cfg.Yahoo.BaseURL == "" {
		cfg.Yahoo.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.Yahoo.Timeout == 0 {
		cfg.Yahoo.Timeout = 10 * time.Second
	}
	if cfg.Yahoo.RatePerMinute == 0 {
		cfg.Yahoo.RatePerMinute = 30
	}
	if cfg.Yahoo.Limit == 0 {
		cfg.Yahoo.Limit = 100
	}
	if cfg.Scheduler.PollInterval == 0 {
		cfg.Scheduler.PollInterval = 15 * time.Minute
	}
	if cfg.Scheduler.RefreshInterval == 0 {
		cfg.Scheduler.RefreshInterval = 60 * time.Second
	}
	if cfg.Scheduler.RunTimeout == 0 {
		cfg.Scheduler.RunTimeout = 60 * time.Second
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour * 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if val := os.Getenv("HTTP_ADDR"); val != "" {
		cfg.HTTP.Addr = val
	}
	if val := os.Getenv("PORT"); val != "" {
		cfg.HTTP.Addr = ":" + val
	}
	if val := os.Getenv("DB_DSN"); val != "" {
		cfg.DB.DSN = val
	}
	if val := os.Getenv("STORE_DRIVER"); val != "" {
		cfg.Store.Driver = val
	}
	if val := os.Getenv("BOLT_PATH"); val != "" {
		cfg.Store.BoltPath = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Store.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Store.Redis.Password = val
	}
	if val := os.Getenv("YAHOO_BASE_URL"); val != "" {
		cfg.Yahoo.BaseURL = val
	}
	if val := os.Getenv("ALERT_TIMEZONE"); val != "" {
		cfg.Alert.Timezone = val
	}
	if val := os.Getenv("SCHEDULER_ENABLED"); val != "" {
		cfg.Scheduler.Enabled = (val == "true")
	}
	if val := os.Getenv("POLL_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Scheduler.PollInterval = d
		}
	}
	if val := os.Getenv("REFRESH_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Scheduler.RefreshInterval = d
		}
	}
	if val := os.Getenv("TELEGRAM_TOKEN"); val != "" {
		cfg.Notifier.Telegram.Token = val
	}
	if val := os.Getenv("TELEGRAM_CHAT_ID"); val != "" {
		if id, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Notifier.Telegram.ChatID = id
		}
	}
	if val := os.Getenv("TELEGRAM_ENABLED"); val != "" {
		cfg.Notifier.Telegram.Enabled = (val == "true")
	}
	if val := os.Getenv("AUTH_SECRET"); val != "" {
		cfg.Auth.Secret = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
	return cfg
}
