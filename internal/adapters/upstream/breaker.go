package upstream

import (
	"sync"
	"time"
)

// BreakerState is the state of a circuit breaker.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds configuration for the circuit breaker.
type BreakerConfig struct {
	FailureThreshold int           // consecutive failures before opening
	RecoveryTimeout  time.Duration // wait before a half-open trial call
	SuccessThreshold int           // half-open successes needed to close
}

// Breaker stops calling a collaborator after repeated failures. While half
// open it lets at most SuccessThreshold calls through at once.
type Breaker struct {
	mu          sync.Mutex
	cfg         BreakerConfig
	state       BreakerState
	gen         uint64
	failures    int
	successes   int
	trials      int
	nextAttempt time.Time
	now         func() time.Time
	onChange    func(BreakerState)
	// counts reports whether err is the collaborator's fault. Nil counts
	// every error.
	counts func(error) bool
}

// NewBreaker creates a closed breaker. Zero config fields take defaults.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 3
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// Call runs fn unless the breaker is open. Errors that counts rejects are
// returned without touching the breaker.
func (b *Breaker) Call(fn func() error) error {
	gen, ok := b.allow()
	if !ok {
		return ErrCircuitOpen
	}
	err := fn()
	b.done(gen, err)
	return err
}

func (b *Breaker) allow() (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateClosed:
		return b.gen, true
	case StateOpen:
		if b.now().Before(b.nextAttempt) {
			return 0, false
		}
		b.successes = 0
		b.trials = 0
		b.setState(StateHalfOpen)
	}
	if b.trials >= b.cfg.SuccessThreshold {
		return 0, false
	}
	b.trials++
	return b.gen, true
}

func (b *Breaker) done(gen uint64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen && gen == b.gen {
		b.trials--
	}
	switch {
	case err == nil:
		b.onSuccess()
	case b.counts == nil || b.counts(err):
		b.onFailure()
	}
}

// onFailure records a failure. Caller holds mu.
func (b *Breaker) onFailure() {
	if b.state == StateOpen {
		return
	}
	b.failures++
	b.successes = 0
	if b.state == StateHalfOpen || b.failures >= b.cfg.FailureThreshold {
		b.nextAttempt = b.now().Add(b.cfg.RecoveryTimeout)
		b.setState(StateOpen)
	}
}

// onSuccess records a success. Caller holds mu.
func (b *Breaker) onSuccess() {
	b.failures = 0
	if b.state == StateHalfOpen {
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.setState(StateClosed)
		}
	}
}

// setState updates the state. Caller holds mu.
func (b *Breaker) setState(s BreakerState) {
	if b.state == s {
		return
	}
	b.state = s
	b.gen++
	if b.onChange != nil {
		b.onChange(s)
	}
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset closes the breaker.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.successes = 0
	b.trials = 0
	b.setState(StateClosed)
}
