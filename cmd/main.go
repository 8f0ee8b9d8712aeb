package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/bizlens/internal/adapters/cache"
	"github.com/okian/bizlens/internal/adapters/http/api"
	"github.com/okian/bizlens/internal/adapters/http/swagger"
	"github.com/okian/bizlens/internal/adapters/repository"
	"github.com/okian/bizlens/internal/adapters/upstream"
	app "github.com/okian/bizlens/internal/app"
	"github.com/okian/bizlens/internal/config"
	"github.com/okian/bizlens/pkg/logger"
	"github.com/okian/bizlens/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	writeTimeoutSlack         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		os.Stderr.WriteString("failed to load .env: " + err.Error() + "\n")
		return
	}

	if err := logger.Init(logger.WithFormat(os.Getenv("BIZLENS_LOG_FORMAT"))); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		loggerInstance.Error(ctx, "failed to load config", logger.Error(err))
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.SetEnabled(cfg.Metrics.Enabled)
	metrics.SetRefreshInterval(cfg.Metrics.RefreshInterval)

	svc, err := buildService(ctx, cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to build service", logger.Error(err))
		return
	}
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.RequestTimeout + writeTimeoutSlack,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// buildService wires the upstream clients and the audit store into a Service.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	opts := upstreamOptions(cfg, log)
	entite := upstream.NewEntiteClient(cfg.Upstream.EntiteURL, opts...)
	parametrage := upstream.NewParametrageClient(cfg.Upstream.ParametrageURL, opts...)
	produit := upstream.NewProduitClient(cfg.Upstream.ProduitURL, opts...)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithSources(entite, parametrage, produit),
		app.WithBreakers(entite, parametrage, produit),
		app.WithStore(store),
		app.WithWorkerCount(cfg.Audit.WorkerCount),
		app.WithQueueSize(cfg.Audit.QueueSize),
		app.WithHistoryLimits(cfg.Audit.HistoryLimit, cfg.Audit.MaxHistoryLimit),
		app.WithScorecardConfig(cfg.Scorecard),
		app.WithRecentWindow(cfg.Analytics.RecentWindow()),
		app.WithMovingAverageWindow(cfg.Analytics.MovingAverageWindow),
		app.WithForecastPeriods(cfg.Analytics.ForecastPeriods),
	), nil
}

// upstreamOptions maps the upstream section of cfg onto client options.
// The returned options are shared by all collaborators; each client builds
// its own breaker and limiter from them.
func upstreamOptions(cfg *config.Config, log logger.Logger) []upstream.Option {
	u := cfg.Upstream
	retry := upstream.DefaultRetryConfig()
	retry.MaxAttempts = u.RetryAttempts
	retry.InitialDelay = u.RetryInitialDelay

	breaker := upstream.BreakerConfig{
		FailureThreshold: u.BreakerFailures,
		RecoveryTimeout:  u.BreakerRecovery,
	}

	opts := []upstream.Option{
		upstream.WithLogger(log.Named("upstream")),
		upstream.WithTimeout(u.Timeout),
		upstream.WithRetry(retry),
		upstream.WithBreaker(breaker),
	}
	if u.RatePerSecond > 0 {
		opts = append(opts, upstream.WithRateLimit(u.RatePerSecond, u.Burst))
	}
	if u.CacheTTL > 0 {
		opts = append(opts, upstream.WithCache(cache.New(cache.WithTTL(u.CacheTTL), cache.WithMaxSize(u.CacheSize))))
	}
	return opts
}

// openStore returns the configured audit store.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.Audit.Store == config.StorePostgres {
		store, err := repository.OpenPostgres(ctx, cfg.Audit.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return repository.NewMemoryStore(repository.WithCapacity(cfg.Audit.MaxHistoryLimit)), nil
}

// newHandler builds the root HTTP handler with all routes registered.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service) http.Handler {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc,
		api.WithTokenVerifier(api.NewTokenVerifier(cfg.Auth.JWTSecret)),
		api.WithHistoryLimits(cfg.Audit.HistoryLimit, cfg.Audit.MaxHistoryLimit),
	)
	apiServer.Register(ctx, mux)

	var h http.Handler = mux
	if cfg.RequestTimeout > 0 {
		h = http.TimeoutHandler(h, cfg.RequestTimeout, `{"code":"timeout","message":"request timed out"}`)
	}
	return api.RequestIDMiddleware(h)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}

	if stored, ok := stats["storedReports"].(int); ok {
		metrics.UpdateRepositoryRecordsTotal(stored)
	}

	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
}
