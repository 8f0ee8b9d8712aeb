package upstream

import (
	"net/http"
	"time"

	"github.com/okian/bizlens/internal/adapters/cache"
	"github.com/okian/bizlens/pkg/logger"
)

// Option applies a configuration option to a Client.
type Option func(*options)

type options struct {
	httpClient    *http.Client
	timeout       time.Duration
	ratePerSecond float64
	burst         int
	retry         RetryConfig
	breaker       BreakerConfig
	cache         cache.Cache
	log           logger.Logger
	now           func() time.Time
}

func defaultOptions() options {
	return options{
		httpClient: &http.Client{},
		timeout:    5 * time.Second,
		retry:      DefaultRetryConfig(),
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		if hc != nil {
			o.httpClient = hc
		}
	}
}

// WithTimeout bounds each attempt. Zero disables the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithRateLimit sets a token bucket. A non-positive rate means unlimited.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		o.ratePerSecond = perSecond
		o.burst = burst
	}
}

// WithRetry sets the retry policy.
func WithRetry(cfg RetryConfig) Option {
	return func(o *options) {
		o.retry = cfg
	}
}

// WithBreaker sets the circuit breaker thresholds.
func WithBreaker(cfg BreakerConfig) Option {
	return func(o *options) {
		o.breaker = cfg
	}
}

// WithCache caches successful responses.
func WithCache(c cache.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithClock replaces time.Now for the breaker.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
