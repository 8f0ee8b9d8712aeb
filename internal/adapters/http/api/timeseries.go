package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/bizlens/internal/domain/types"
)

// TimeSeriesDependencies defines the interface for time series operations.
type TimeSeriesDependencies interface {
	TimeSeries(ctx context.Context, authorization string, q types.TimeSeriesQuery) types.TimeSeries
	ProductTimeSeries(ctx context.Context, authorization, interval string) types.ProductTimeSeries
}

// TimeSeriesHandler handles time series requests.
type TimeSeriesHandler struct {
	deps TimeSeriesDependencies
}

// NewTimeSeriesHandler creates a new time series handler.
func NewTimeSeriesHandler(deps TimeSeriesDependencies) *TimeSeriesHandler {
	return &TimeSeriesHandler{deps: deps}
}

// HandleTimeSeries handles GET /api/bi/timeseries requests.
func (h *TimeSeriesHandler) HandleTimeSeries(w http.ResponseWriter, r *http.Request) {
	const op = "api.timeseries"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	query := types.TimeSeriesQuery{
		Metric:    q.Get("metric"),
		Interval:  q.Get("interval"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	}
	if raw := q.Get("includeForecast"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		query.IncludeForecast = v
	}

	out := h.deps.TimeSeries(r.Context(), r.Header.Get("Authorization"), query)
	writeJSON(w, http.StatusOK, out)
}

// HandleProductTimeSeries handles GET /api/bi/timeseries/products requests.
func (h *TimeSeriesHandler) HandleProductTimeSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	out := h.deps.ProductTimeSeries(r.Context(), r.Header.Get("Authorization"), r.URL.Query().Get("interval"))
	writeJSON(w, http.StatusOK, out)
}
