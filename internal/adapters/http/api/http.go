// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AggregateDependencies
	TimeSeriesDependencies
	AnalyticsDependencies
	ReportsDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	aggregateHandler  *AggregateHandler
	timeSeriesHandler *TimeSeriesHandler
	analyticsHandler  *AnalyticsHandler
	reportsHandler    *ReportsHandler
	verifier          *TokenVerifier
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	verifier     *TokenVerifier
	defaultLimit int
	maxLimit     int
}

// WithTokenVerifier enables bearer token verification on /api/bi routes.
func WithTokenVerifier(v *TokenVerifier) Option {
	return func(c *serverConfig) {
		c.verifier = v
	}
}

// WithHistoryLimits bounds the limit parameter of GET /api/bi/reports.
func WithHistoryLimits(defaultLimit, maxLimit int) Option {
	return func(c *serverConfig) {
		if defaultLimit > 0 {
			c.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			c.maxLimit = maxLimit
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := serverConfig{defaultLimit: 20, maxLimit: 200}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.defaultLimit > cfg.maxLimit {
		cfg.defaultLimit = cfg.maxLimit
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		aggregateHandler:  NewAggregateHandler(deps),
		timeSeriesHandler: NewTimeSeriesHandler(deps),
		analyticsHandler:  NewAnalyticsHandler(deps),
		reportsHandler:    NewReportsHandler(deps, cfg.defaultLimit, cfg.maxLimit),
		verifier:          cfg.verifier,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("/api/bi/aggregate", s.secured(s.aggregateHandler.HandleAggregate, "aggregate"))
	mux.HandleFunc("/api/bi/timeseries", s.secured(s.timeSeriesHandler.HandleTimeSeries, "timeseries"))
	mux.HandleFunc("/api/bi/timeseries/products", s.secured(s.timeSeriesHandler.HandleProductTimeSeries, "timeseries_products"))
	mux.HandleFunc("/api/bi/entity-analytics", s.secured(s.analyticsHandler.HandleEntityAnalytics, "entity_analytics"))
	mux.HandleFunc("/api/bi/sector-analysis", s.secured(s.analyticsHandler.HandleSectorAnalysis, "sector_analysis"))
	mux.HandleFunc("/api/bi/correlations/business", s.secured(s.analyticsHandler.HandleBusinessCorrelations, "correlations_business"))
	mux.HandleFunc("/api/bi/scorecard", s.secured(s.analyticsHandler.HandleScorecard, "scorecard"))
	mux.HandleFunc("/api/bi/reports", s.secured(s.reportsHandler.HandleRecentReports, "reports"))
}

func (s *Server) secured(h http.HandlerFunc, endpoint string) http.HandlerFunc {
	return MetricsMiddleware(AuthMiddleware(h, s.verifier), endpoint)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
