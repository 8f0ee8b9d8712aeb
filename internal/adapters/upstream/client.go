// Package upstream calls the entity, taxonomy and product services that feed
// the BI reports.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/bizlens/internal/adapters/cache"
	"github.com/okian/bizlens/internal/domain/record"
	"github.com/okian/bizlens/pkg/logger"
	"github.com/okian/bizlens/pkg/metrics"
)

const maxBodyBytes = 32 << 20

// Client fetches record lists from one collaborator service.
type Client struct {
	name    string
	baseURL string
	http    *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	breaker *Breaker
	retry   RetryConfig
	cache   cache.Cache
	log     logger.Logger
}

// NewClient creates a client for the service rooted at baseURL.
func NewClient(name, baseURL string, opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    o.httpClient,
		timeout: o.timeout,
		limiter: rate.NewLimiter(rate.Inf, 0),
		retry:   o.retry,
		cache:   o.cache,
		log:     o.log,
	}
	if c.log == nil {
		c.log = logger.Get().Named("upstream").With(logger.String("service", name))
	}
	if o.ratePerSecond > 0 {
		burst := o.burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(o.ratePerSecond), burst)
	}

	c.breaker = NewBreaker(o.breaker)
	c.breaker.counts = tripsBreaker
	if o.now != nil {
		c.breaker.now = o.now
	}
	c.breaker.onChange = func(s BreakerState) {
		metrics.UpdateBreakerState(name, int(s))
		c.log.Warn(context.Background(), "circuit breaker state changed", logger.String("state", s.String()))
	}
	metrics.UpdateBreakerState(name, int(StateClosed))
	return c
}

// Name returns the service name used in logs and metrics.
func (c *Client) Name() string { return c.name }

// BreakerState returns the state of the client's circuit breaker.
func (c *Client) BreakerState() BreakerState { return c.breaker.State() }

// Fetch GETs path and decodes a JSON array of records. authorization is sent
// verbatim in the Authorization header. Every error wraps ErrUnavailable.
func (c *Client) Fetch(ctx context.Context, path, authorization string) ([]record.Record, error) {
	key := cache.Key(path, authorization)
	if c.cache != nil {
		if recs, ok := c.cache.Get(ctx, key); ok {
			metrics.RecordCacheHit(c.name)
			return recs, nil
		}
		metrics.RecordCacheMiss(c.name)
	}

	start := time.Now()
	var recs []record.Record
	err := retry(ctx, c.retry, func() error {
		return c.breaker.Call(func() error {
			var err error
			recs, err = c.do(ctx, path, authorization)
			return err
		})
	})
	metrics.RecordUpstreamLatency(c.name, float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordUpstreamRequest(c.name, outcome(err))
		c.log.Warn(ctx, "upstream call failed", logger.String("path", path), logger.Error(err))
		return nil, fmt.Errorf("%s %s: %w: %w", c.name, path, ErrUnavailable, err)
	}

	metrics.RecordUpstreamRequest(c.name, "ok")
	metrics.UpdateUpstreamRecords(c.name, len(recs))
	if c.cache != nil {
		c.cache.Set(ctx, key, recs)
	}
	return recs, nil
}

func (c *Client) do(ctx context.Context, path, authorization string) ([]record.Record, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return nil, uerr.Err
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	recs, err := record.DecodeList(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return recs, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrStatus):
		return "status"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
