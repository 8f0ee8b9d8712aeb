package upstream

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"time"
)

// RetryConfig holds configuration for retry behavior. MaxAttempts of 1 means
// the call is made once.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        bool
}

// DefaultRetryConfig makes a single attempt.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   1,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// retryable reports whether another attempt may help. An open breaker, a
// body we cannot decode or a rejected request will not fix itself within
// the backoff window.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) && se.ClientFault() && se.Code != http.StatusTooManyRequests {
		return false
	}
	return !errors.Is(err, ErrCircuitOpen) && !errors.Is(err, ErrDecode) &&
		!errors.Is(err, context.Canceled)
}

// retry runs fn up to cfg.MaxAttempts times with exponential backoff.
func retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) || attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(backoff(cfg, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

func backoff(cfg RetryConfig, attempt int) time.Duration {
	factor := cfg.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	delay := float64(cfg.InitialDelay) * math.Pow(factor, float64(attempt))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter && delay > 0 {
		// +/- 10%
		delay += delay * 0.1 * (rand.Float64()*2 - 1)
	}
	return time.Duration(delay)
}
