// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New builds a Config populated with defaults.
// - Load layers an optional YAML file and the environment over those defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"net/url"
	"runtime"
	"time"

	"github.com/okian/bizlens/internal/domain/scorecard"
)

// Audit store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// RequestTimeout bounds the handling of one HTTP request.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	Upstream  UpstreamConfig   `koanf:"upstream"`
	Auth      AuthConfig       `koanf:"auth"`
	Audit     AuditConfig      `koanf:"audit"`
	Scorecard scorecard.Config `koanf:"scorecard"`
	Analytics AnalyticsConfig  `koanf:"analytics"`
	Metrics   MetricsConfig    `koanf:"metrics"`
}

// UpstreamConfig locates the collaborator services and tunes the client
// side resilience applied to every call.
type UpstreamConfig struct {
	EntiteURL      string `koanf:"entite_url"`
	ParametrageURL string `koanf:"parametrage_url"`
	ProduitURL     string `koanf:"produit_url"`

	Timeout       time.Duration `koanf:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
	Burst         int           `koanf:"burst"`

	// RetryAttempts of 1 disables retries.
	RetryAttempts     int           `koanf:"retry_attempts"`
	RetryInitialDelay time.Duration `koanf:"retry_initial_delay"`

	BreakerFailures int           `koanf:"breaker_failures"`
	BreakerRecovery time.Duration `koanf:"breaker_recovery"`

	// CacheTTL of zero disables response caching.
	CacheTTL  time.Duration `koanf:"cache_ttl"`
	CacheSize int           `koanf:"cache_size"`
}

// AuthConfig controls bearer token verification.
type AuthConfig struct {
	// JWTSecret enables HS256 verification when non-empty. Tokens are
	// forwarded upstream either way.
	JWTSecret string `koanf:"jwt_secret"`
}

// AuditConfig sizes the report audit pipeline.
type AuditConfig struct {
	QueueSize       int    `koanf:"queue_size"`
	WorkerCount     int    `koanf:"worker_count"`
	Store           string `koanf:"store"`
	DSN             string `koanf:"dsn"`
	HistoryLimit    int    `koanf:"history_limit"`
	MaxHistoryLimit int    `koanf:"max_history_limit"`
}

// AnalyticsConfig tunes the time based computations.
type AnalyticsConfig struct {
	RecentWindowDays    int `koanf:"recent_window_days"`
	MovingAverageWindow int `koanf:"moving_average_window"`
	ForecastPeriods     int `koanf:"forecast_periods"`
}

// MetricsConfig controls Prometheus recording.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
	// RefreshInterval paces the sampled system and service gauges.
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

// RecentWindow returns RecentWindowDays as a duration.
func (a AnalyticsConfig) RecentWindow() time.Duration {
	return time.Duration(a.RecentWindowDays) * 24 * time.Hour
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		RequestTimeout: 30 * time.Second,
		Upstream: UpstreamConfig{
			EntiteURL:         "http://localhost:8081",
			ParametrageURL:    "http://localhost:8082",
			ProduitURL:        "http://localhost:8083",
			Timeout:           5 * time.Second,
			RatePerSecond:     0,
			Burst:             10,
			RetryAttempts:     1,
			RetryInitialDelay: 100 * time.Millisecond,
			BreakerFailures:   5,
			BreakerRecovery:   30 * time.Second,
			CacheTTL:          0,
			CacheSize:         256,
		},
		Audit: AuditConfig{
			QueueSize:       1024,
			WorkerCount:     runtime.NumCPU(),
			Store:           StoreMemory,
			HistoryLimit:    20,
			MaxHistoryLimit: 200,
		},
		Scorecard: scorecard.DefaultConfig(),
		Analytics: AnalyticsConfig{
			RecentWindowDays:    30,
			MovingAverageWindow: 7,
			ForecastPeriods:     12,
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			RefreshInterval: 10 * time.Second,
		},
	}
}

// Validate checks c for values the service cannot start with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	for name, raw := range map[string]string{
		"upstream.entite_url":      c.Upstream.EntiteURL,
		"upstream.parametrage_url": c.Upstream.ParametrageURL,
		"upstream.produit_url":     c.Upstream.ProduitURL,
	} {
		if err := validateURL(raw); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err)
		}
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("%w: upstream.timeout must be positive", ErrInvalidConfig)
	}
	if c.Upstream.RatePerSecond < 0 {
		return fmt.Errorf("%w: upstream.rate_per_second must not be negative", ErrInvalidConfig)
	}
	if c.Upstream.RetryAttempts < 1 {
		return fmt.Errorf("%w: upstream.retry_attempts must be at least 1", ErrInvalidConfig)
	}
	if c.Upstream.BreakerFailures < 1 {
		return fmt.Errorf("%w: upstream.breaker_failures must be at least 1", ErrInvalidConfig)
	}
	switch c.Audit.Store {
	case StoreMemory:
	case StorePostgres:
		if c.Audit.DSN == "" {
			return fmt.Errorf("%w: audit.dsn is required for the postgres store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown audit.store %q", ErrInvalidConfig, c.Audit.Store)
	}
	if c.Audit.HistoryLimit < 1 || c.Audit.HistoryLimit > c.Audit.MaxHistoryLimit {
		return fmt.Errorf("%w: audit.history_limit must be within [1, max_history_limit]", ErrInvalidConfig)
	}
	if c.Analytics.MovingAverageWindow < 1 || c.Analytics.ForecastPeriods < 0 || c.Analytics.RecentWindowDays < 1 {
		return fmt.Errorf("%w: analytics windows must be positive", ErrInvalidConfig)
	}
	if c.Metrics.RefreshInterval <= 0 {
		return fmt.Errorf("%w: metrics.refresh_interval must be positive", ErrInvalidConfig)
	}
	if err := c.Scorecard.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return nil
}
