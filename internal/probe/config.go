// Package probe exercises a running BI service end to end: it can stand up a
// stub upstream from a fixture, calls every report endpoint concurrently and
// checks that each response carries its documented top-level keys.
package probe

import (
	"runtime"
	"sync"
	"time"
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL  string        // Base URL of the BI service
	Token    string        // Authorization header value sent with every call
	Fixture  string        // YAML fixture path; empty means synthetic data
	Entities int           // Synthetic entity count
	Products int           // Synthetic product count
	StubAddr string        // Listen address of the stub upstream; empty disables it
	Rounds   int           // Calls per endpoint
	Workers  int           // Concurrent callers
	Timeout  time.Duration // HTTP request timeout
	LogFile  string        // Run log path
	Output   string        // Results JSON path; empty skips it
	Verbose  bool          // Log every call
}

// Normalize fills zero fields with defaults.
func (c *Config) Normalize() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Token == "" {
		c.Token = DefaultToken
	}
	if c.Entities <= 0 {
		c.Entities = DefaultEntities
	}
	if c.Products <= 0 {
		c.Products = DefaultProducts
	}
	if c.Rounds <= 0 {
		c.Rounds = DefaultRounds
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Result is the outcome of one endpoint call.
type Result struct {
	Endpoint string        `json:"endpoint"`
	Status   int           `json:"status"`
	Duration time.Duration `json:"duration"`
	Missing  []string      `json:"missing,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
	Err      string        `json:"error,omitempty"`
}

// OK reports whether the call succeeded with every expected key present.
func (r Result) OK() bool {
	return r.Err == "" && r.Status == StatusOK && len(r.Missing) == 0
}

// Stats holds run statistics.
type Stats struct {
	mu        sync.Mutex
	Calls     int
	Succeeded int
	Failed    int
	Degraded  int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Results   []Result
}

func (s *Stats) add(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if r.OK() {
		s.Succeeded++
	} else {
		s.Failed++
	}
	if len(r.Warnings) > 0 {
		s.Degraded++
	}
	s.Results = append(s.Results, r)
}
