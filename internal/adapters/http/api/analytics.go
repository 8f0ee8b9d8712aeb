package api

import (
	"context"
	"net/http"

	"github.com/okian/bizlens/internal/domain/types"
)

// AnalyticsDependencies defines the interface for the breakdown reports.
type AnalyticsDependencies interface {
	EntityAnalytics(ctx context.Context, authorization string) types.EntityAnalytics
	SectorAnalysis(ctx context.Context, authorization string) types.SectorAnalysis
	BusinessCorrelations(ctx context.Context, authorization string) types.BusinessCorrelations
	BusinessScorecard(ctx context.Context, authorization string) types.BusinessScorecard
}

// AnalyticsHandler handles the parameterless GET reports.
type AnalyticsHandler struct {
	deps AnalyticsDependencies
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps AnalyticsDependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

// HandleEntityAnalytics handles GET /api/bi/entity-analytics requests.
func (h *AnalyticsHandler) HandleEntityAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.EntityAnalytics(r.Context(), r.Header.Get("Authorization")))
}

// HandleSectorAnalysis handles GET /api/bi/sector-analysis requests.
func (h *AnalyticsHandler) HandleSectorAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.SectorAnalysis(r.Context(), r.Header.Get("Authorization")))
}

// HandleBusinessCorrelations handles GET /api/bi/correlations/business requests.
func (h *AnalyticsHandler) HandleBusinessCorrelations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.BusinessCorrelations(r.Context(), r.Header.Get("Authorization")))
}

// HandleScorecard handles GET /api/bi/scorecard requests.
func (h *AnalyticsHandler) HandleScorecard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.BusinessScorecard(r.Context(), r.Header.Get("Authorization")))
}
