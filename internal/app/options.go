package service

import (
	"time"

	"github.com/okian/bizlens/internal/adapters/repository"
	"github.com/okian/bizlens/internal/domain/scorecard"
	"github.com/okian/bizlens/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of audit workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the audit queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for every time-dependent computation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithScorecardConfig sets the scoring weights and thresholds.
func WithScorecardConfig(cfg scorecard.Config) Option {
	return func(s *Service) {
		s.reporter = scorecard.NewReporter(cfg)
	}
}

// WithSources sets the collaborators. Any of them may be nil, in which case
// the sections depending on it are always degraded.
func WithSources(entities EntitySource, taxonomy TaxonomySource, products ProductSource) Option {
	return func(s *Service) {
		s.entities = entities
		s.taxonomy = taxonomy
		s.products = products
	}
}

// WithStore sets the audit store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithRecentWindow sets how far back an entity counts as recently created.
func WithRecentWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.recentWindow = d
		}
	}
}

// WithMovingAverageWindow sets the time series smoothing window.
func WithMovingAverageWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maWindow = n
		}
	}
}

// WithForecastPeriods sets how many steps a forecast extrapolates.
func WithForecastPeriods(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.forecastPeriods = n
		}
	}
}

// WithHistoryLimits sets the default and maximum page size of RecentReports.
func WithHistoryLimits(def, max int) Option {
	return func(s *Service) {
		if def > 0 {
			s.historyLimit = def
		}
		if max > 0 {
			s.maxHistoryLimit = max
		}
	}
}

// WithBreakers exposes collaborator circuit breakers in GetStats.
func WithBreakers(breakers ...BreakerReporter) Option {
	return func(s *Service) {
		s.breakers = append(s.breakers, breakers...)
	}
}
