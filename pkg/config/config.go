package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "ORDERDESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv               = "ORDERDESK_APP_ENV"
	EnvPort                 = "ORDERDESK_APP_PORT"
	EnvLogLevel             = "ORDERDESK_LOG_LEVEL"
	EnvStoreBaseURL         = "ORDERDESK_STORE_BASE_URL"
	EnvStoreTimeout         = "ORDERDESK_STORE_TIMEOUT"
	EnvRedisURL             = "ORDERDESK_REDIS_URL"
	EnvDraftTTL             = "ORDERDESK_DRAFT_TTL"
	EnvSubmitLockTTL        = "ORDERDESK_SUBMIT_LOCK_TTL"
	EnvConnectivityProbe    = "ORDERDESK_CONNECTIVITY_PROBE"
	EnvConnectivityCacheTTL = "ORDERDESK_CONNECTIVITY_CACHE_TTL"
	EnvCatalogSearchRPS     = "ORDERDESK_CATALOG_SEARCH_RPS"
)

type Config struct {
	App          AppConfig
	Store        StoreConfig
	Redis        RedisConfig
	Drafts       DraftsConfig
	Connectivity ConnectivityConfig
	Catalog      CatalogConfig
	Metrics      MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.ensureBaseURL(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORDERDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDERDESK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ORDERDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDERDESK_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated list of console origins allowed to call the API.
	CORSOrigins []string `envconfig:"ORDERDESK_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StoreConfig points at the remote record store REST API.
type StoreConfig struct {
	BaseURL   string        `envconfig:"ORDERDESK_STORE_BASE_URL" required:"true"`
	Timeout   time.Duration `envconfig:"ORDERDESK_STORE_TIMEOUT" default:"15s"`
	UserAgent string        `envconfig:"ORDERDESK_STORE_USER_AGENT" default:"orderdesk/1"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERDESK_REDIS_URL"`
	Address      string        `envconfig:"ORDERDESK_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured; without one drafts stay in memory.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type DraftsConfig struct {
	TTL           time.Duration `envconfig:"ORDERDESK_DRAFT_TTL" default:"12h"`
	SubmitLockTTL time.Duration `envconfig:"ORDERDESK_SUBMIT_LOCK_TTL" default:"30s"`
}

type ConnectivityConfig struct {
	Probe    bool          `envconfig:"ORDERDESK_CONNECTIVITY_PROBE" default:"true"`
	CacheTTL time.Duration `envconfig:"ORDERDESK_CONNECTIVITY_CACHE_TTL" default:"5s"`
	Timeout  time.Duration `envconfig:"ORDERDESK_CONNECTIVITY_TIMEOUT" default:"3s"`
}

type CatalogConfig struct {
	SearchRPS   float64 `envconfig:"ORDERDESK_CATALOG_SEARCH_RPS" default:"5"`
	SearchBurst int     `envconfig:"ORDERDESK_CATALOG_SEARCH_BURST" default:"5"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"ORDERDESK_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"ORDERDESK_METRICS_PATH" default:"/metrics"`
}

func (s *StoreConfig) ensureBaseURL() error {
	raw := strings.TrimSpace(s.BaseURL)
	if raw == "" {
		return fmt.Errorf("%s is required", EnvStoreBaseURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvStoreBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url, got %q", EnvStoreBaseURL, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", EnvStoreBaseURL)
	}
	s.BaseURL = strings.TrimRight(raw, "/")
	return nil
}
