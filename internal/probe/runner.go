package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/bizlens/pkg/logger"
)

// Run executes a complete probe and returns its statistics. It fails when any
// call did not answer 200 with every documented key.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	config.Normalize()
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting bi probe",
		logger.String("baseURL", config.BaseURL),
		logger.Int("rounds", config.Rounds),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("fixture", config.Fixture),
		logger.String("stubAddr", config.StubAddr))

	// Step 1: Serve fixture data as the upstream when asked
	if config.StubAddr != "" {
		fixture, err := loadOrGenerate(config)
		if err != nil {
			return nil, err
		}
		stub, err := StartStub(ctx, config.StubAddr, fixture)
		if err != nil {
			return nil, err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = stub.Close(shutdownCtx)
		}()
	}

	client := newHTTPClient(config.Timeout, config.Token)

	// Step 2: Check service health
	if err := checkServiceHealth(ctx, client, config.BaseURL); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 3: Call every endpoint concurrently
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for round := 0; round < config.Rounds; round++ {
		for _, ep := range Endpoints() {
			g.Go(func() error {
				r := call(gctx, client, config.BaseURL, ep)
				stats.add(r)
				if config.Verbose || !r.OK() {
					log.Info(gctx, "probe call",
						logger.String("endpoint", r.Endpoint),
						logger.Int("status", r.Status),
						logger.Duration("duration", r.Duration),
						logger.Any("missing", r.Missing),
						logger.Any("warnings", r.Warnings),
						logger.String("error", r.Err))
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	// Step 4: Save results
	if config.Output != "" {
		if err := saveResults(ctx, config.Output, stats); err != nil {
			log.Warn(ctx, "failed to save results", logger.Error(err))
		}
	}

	displayFinalStats(ctx, stats)

	if stats.Failed > 0 {
		return stats, fmt.Errorf("%d of %d calls failed", stats.Failed, stats.Calls)
	}
	log.Info(ctx, "probe completed successfully")
	return stats, nil
}

func loadOrGenerate(config *Config) (*Fixture, error) {
	if config.Fixture != "" {
		return LoadFixture(config.Fixture)
	}
	return Generate(config.Entities, config.Products, uint64(time.Now().UnixNano()), time.Now()), nil
}

// call performs one endpoint request and checks its shape.
func call(ctx context.Context, client *HTTPClient, baseURL string, ep Endpoint) Result {
	start := time.Now()
	status, body, err := client.Do(ctx, ep.Method, baseURL+ep.Path, ep.Body)
	r := Result{Endpoint: ep.Name, Status: status, Duration: time.Since(start)}
	if err != nil {
		r.Err = err.Error()
		return r
	}
	if status != StatusOK {
		r.Err = fmt.Sprintf("unexpected status %d", status)
		return r
	}
	r.Missing, r.Warnings, err = ep.Check(body)
	if err != nil {
		r.Err = err.Error()
	}
	return r
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, baseURL string) error {
	logger.Get().Info(ctx, "checking service health")

	status, _, err := client.Do(ctx, "GET", baseURL+"/healthz", "")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveResults writes every call result as a JSON array.
func saveResults(ctx context.Context, filename string, stats *Stats) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	stats.mu.Lock()
	data, err := json.MarshalIndent(stats.Results, "", "  ")
	stats.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(filename, data, logFilePermission); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	logger.Get().Info(ctx, "results saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final probe statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, callsPerSecond float64

	if stats.Calls > 0 {
		successRate = float64(stats.Succeeded) / float64(stats.Calls) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		callsPerSecond = float64(stats.Calls) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("calls", stats.Calls),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("failed", stats.Failed),
		logger.Int("degraded", stats.Degraded),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("callsPerSecond", callsPerSecond))
}
