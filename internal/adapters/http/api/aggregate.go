package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/bizlens/internal/domain/types"
)

const maxBodyBytes = 1 << 20

// AggregateDependencies defines the interface for the aggregate dashboard.
type AggregateDependencies interface {
	AggregateMetrics(ctx context.Context, authorization, timeframe string) types.AggregateMetrics
}

// aggregateRequest mirrors the OpenAPI schema for POST /api/bi/aggregate.
// Only timeframe influences the result.
type aggregateRequest struct {
	Timeframe string `json:"timeframe"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Metric    string `json:"metric"`
	Interval  string `json:"interval"`
}

// AggregateHandler handles aggregate requests.
type AggregateHandler struct {
	deps AggregateDependencies
}

// NewAggregateHandler creates a new aggregate handler.
func NewAggregateHandler(deps AggregateDependencies) *AggregateHandler {
	return &AggregateHandler{deps: deps}
}

// HandleAggregate handles POST /api/bi/aggregate requests.
func (h *AggregateHandler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	const op = "api.aggregate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req aggregateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	out := h.deps.AggregateMetrics(r.Context(), r.Header.Get("Authorization"), req.Timeframe)
	writeJSON(w, http.StatusOK, out)
}
