// Package service builds the BI reports from the collaborator services and
// keeps an audit trail of what it produced.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/bizlens/internal/adapters/mq/queue"
	"github.com/okian/bizlens/internal/adapters/mq/worker"
	"github.com/okian/bizlens/internal/adapters/repository"
	"github.com/okian/bizlens/internal/adapters/upstream"
	"github.com/okian/bizlens/internal/domain/aggregate"
	"github.com/okian/bizlens/internal/domain/model"
	"github.com/okian/bizlens/internal/domain/scorecard"
	"github.com/okian/bizlens/internal/domain/stats"
	"github.com/okian/bizlens/internal/domain/types"
	"github.com/okian/bizlens/pkg/logger"
	"github.com/okian/bizlens/pkg/metrics"
)

const (
	defaultQueueSize       = 1024
	defaultHistoryLimit    = 20
	defaultMaxHistoryLimit = 200
	defaultMAWindow        = 7
	stopTimeout            = 10 * time.Second
)

// ErrInvalidLimit is returned by RecentReports for an out-of-range limit.
var ErrInvalidLimit = errors.New("invalid report limit")

// BreakerReporter exposes the state of a collaborator circuit breaker.
type BreakerReporter interface {
	Name() string
	BreakerState() upstream.BreakerState
}

// Service implements the API dependencies for the BI endpoints.
type Service struct {
	mu sync.RWMutex

	entities EntitySource
	taxonomy TaxonomySource
	products ProductSource
	breakers []BreakerReporter

	reporter *scorecard.Reporter
	now      func() time.Time

	recentWindow    time.Duration
	maWindow        int
	forecastPeriods int

	// audit trail
	store           repository.Store
	auditQueue      queue.Queue
	workerPool      *worker.Pool
	workerCount     int
	queueSize       int
	historyLimit    int
	maxHistoryLimit int

	started bool

	logger logger.Logger
}

// New constructs a Service. Reports can be built right away; snapshots are
// only recorded after Start.
func New(opts ...Option) *Service {
	s := &Service{
		reporter:        scorecard.NewReporter(scorecard.DefaultConfig()),
		now:             time.Now,
		recentWindow:    aggregate.DefaultRecentWindow,
		maWindow:        defaultMAWindow,
		forecastPeriods: stats.DefaultForecastPeriods,
		workerCount:     runtime.NumCPU(),
		queueSize:       defaultQueueSize,
		historyLimit:    defaultHistoryLimit,
		maxHistoryLimit: defaultMaxHistoryLimit,
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.historyLimit > s.maxHistoryLimit {
		s.historyLimit = s.maxHistoryLimit
	}

	return s
}

// Start creates the audit queue and starts its workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting bi service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory report store")
	}
	s.auditQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.workerPool = worker.NewPool(s.workerCount, s.auditQueue, s.store)
	// workers outlive the start context so Stop can drain them
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "bi service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
	)

	return nil
}

// Stop drains the audit queue and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping bi service...")

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "audit workers did not drain", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing report store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "bi service stopped")
}

// publish records snap on the audit queue without blocking.
func (s *Service) publish(ctx context.Context, snap model.ReportSnapshot) { //nolint:gocritic // hugeParam
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return
	}
	snap.RequestID = logger.RequestID(ctx)
	if err := s.auditQueue.Enqueue(ctx, snap); err != nil {
		s.logger.Debug(ctx, "report snapshot dropped",
			logger.String("operation", string(snap.Operation)),
			logger.Error(err),
		)
	}
}

// finish records metrics for a report and publishes its snapshot.
func (s *Service) finish(ctx context.Context, op model.Operation, start time.Time, total int, w types.Warnings, decorate func(*model.ReportSnapshot)) {
	metrics.RecordReportGenerated(string(op))
	metrics.RecordReportLatency(string(op), float64(time.Since(start).Milliseconds()))

	snap := model.NewSnapshot(op, s.now(), total, w.Warnings)
	if decorate != nil {
		decorate(&snap)
	}
	s.publish(ctx, snap)
}

// RecentReports returns the newest audit snapshots. A limit of 0 means the
// configured default.
func (s *Service) RecentReports(ctx context.Context, limit int) (types.ReportHistory, error) {
	if limit == 0 {
		limit = s.historyLimit
	}
	if limit < 1 || limit > s.maxHistoryLimit {
		return types.ReportHistory{}, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidLimit, limit, s.maxHistoryLimit)
	}

	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()

	out := types.ReportHistory{Reports: []model.ReportSnapshot{}}
	if store == nil {
		return out, nil
	}
	reports, err := store.Recent(ctx, limit)
	if err != nil {
		return out, fmt.Errorf("recent reports: %w", err)
	}
	if reports != nil {
		out.Reports = reports
	}
	out.Count = len(out.Reports)
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	out := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}

	breakers := make(map[string]string, len(s.breakers))
	for _, b := range s.breakers {
		breakers[b.Name()] = b.BreakerState().String()
	}
	out["breakers"] = breakers

	if s.started {
		out["queueLength"] = s.auditQueue.Len(ctx)
		if n, err := s.store.Count(ctx); err == nil {
			out["storedReports"] = n
		}
	}

	return out
}
