package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/bizlens/internal/domain/types"
)

// ReportsDependencies defines the interface for the report audit trail.
type ReportsDependencies interface {
	RecentReports(ctx context.Context, limit int) (types.ReportHistory, error)
}

// ReportsHandler handles report history requests.
type ReportsHandler struct {
	deps         ReportsDependencies
	defaultLimit int
	maxLimit     int
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps ReportsDependencies, defaultLimit, maxLimit int) *ReportsHandler {
	return &ReportsHandler{
		deps:         deps,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// HandleRecentReports handles GET /api/bi/reports?limit=N requests.
func (h *ReportsHandler) HandleRecentReports(w http.ResponseWriter, r *http.Request) {
	const op = "api.recent_reports"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	history, err := h.deps.RecentReports(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, history)
}
