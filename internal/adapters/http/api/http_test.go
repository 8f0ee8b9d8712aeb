package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/bizlens/internal/adapters/http/api"
	"github.com/okian/bizlens/internal/domain/bucket"
	"github.com/okian/bizlens/internal/domain/model"
	"github.com/okian/bizlens/internal/domain/types"
	"github.com/okian/bizlens/pkg/logger"
)

// mockDeps records the arguments of every call.
type mockDeps struct {
	mu            sync.Mutex
	authorization string
	timeframe     string
	query         types.TimeSeriesQuery
	interval      string
	limit         int
	requestID     string
	reportsErr    error
}

func (m *mockDeps) record(ctx context.Context, authorization string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authorization = authorization
	m.requestID = logger.RequestID(ctx)
}

func (m *mockDeps) AggregateMetrics(ctx context.Context, authorization, timeframe string) types.AggregateMetrics {
	m.record(ctx, authorization)
	m.timeframe = timeframe
	return types.NewAggregateMetrics(timeframe)
}

func (m *mockDeps) TimeSeries(ctx context.Context, authorization string, q types.TimeSeriesQuery) types.TimeSeries {
	m.record(ctx, authorization)
	m.query = q
	return types.NewTimeSeries(q.Metric, bucket.Daily)
}

func (m *mockDeps) ProductTimeSeries(ctx context.Context, authorization, interval string) types.ProductTimeSeries {
	m.record(ctx, authorization)
	m.interval = interval
	return types.NewProductTimeSeries(bucket.Monthly)
}

func (m *mockDeps) EntityAnalytics(ctx context.Context, authorization string) types.EntityAnalytics {
	m.record(ctx, authorization)
	return types.NewEntityAnalytics()
}

func (m *mockDeps) SectorAnalysis(ctx context.Context, authorization string) types.SectorAnalysis {
	m.record(ctx, authorization)
	return types.NewSectorAnalysis()
}

func (m *mockDeps) BusinessCorrelations(ctx context.Context, authorization string) types.BusinessCorrelations {
	m.record(ctx, authorization)
	return types.BusinessCorrelations{}
}

func (m *mockDeps) BusinessScorecard(ctx context.Context, authorization string) types.BusinessScorecard {
	m.record(ctx, authorization)
	return types.BusinessScorecard{}
}

func (m *mockDeps) RecentReports(_ context.Context, limit int) (types.ReportHistory, error) {
	m.limit = limit
	if m.reportsErr != nil {
		return types.ReportHistory{}, m.reportsErr
	}
	snap := model.NewSnapshot(model.OpScorecard, time.Now(), 3, nil)
	return types.ReportHistory{Reports: []model.ReportSnapshot{snap}, Count: 1}, nil
}

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "workerCount": 2}
}

func newMux(deps *mockDeps, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, mockStats{}, opts...).Register(context.Background(), mux)
	return mux
}

func do(h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

var bearer = map[string]string{"Authorization": "Bearer abc"}

func TestAuthorization(t *testing.T) {
	Convey("Given the BI routes", t, func() {
		mux := newMux(&mockDeps{})

		Convey("Requests without Authorization are rejected", func() {
			for _, path := range []string{
				"/api/bi/timeseries",
				"/api/bi/timeseries/products",
				"/api/bi/entity-analytics",
				"/api/bi/sector-analysis",
				"/api/bi/correlations/business",
				"/api/bi/scorecard",
				"/api/bi/reports",
			} {
				w := do(mux, http.MethodGet, path, "", nil)
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(decode(w)["code"], ShouldEqual, "unauthorized")
			}
			w := do(mux, http.MethodPost, "/api/bi/aggregate", `{}`, nil)
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("The header is forwarded verbatim", func() {
			deps := &mockDeps{}
			mux := newMux(deps)
			w := do(mux, http.MethodGet, "/api/bi/scorecard", "", bearer)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.authorization, ShouldEqual, "Bearer abc")
		})
	})
}

func TestTokenVerification(t *testing.T) {
	Convey("Given a server verifying HS256 tokens", t, func() {
		const secret = "s3cret"
		deps := &mockDeps{}
		mux := newMux(deps, api.WithTokenVerifier(api.NewTokenVerifier(secret)))

		sign := func(key string, exp time.Time) string {
			tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(exp),
			})
			s, err := tok.SignedString([]byte(key))
			So(err, ShouldBeNil)
			return s
		}

		Convey("A valid token passes", func() {
			token := "Bearer " + sign(secret, time.Now().Add(time.Hour))
			w := do(mux, http.MethodGet, "/api/bi/entity-analytics", "", map[string]string{"Authorization": token})
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.authorization, ShouldEqual, token)
		})

		Convey("A token signed with another key is rejected", func() {
			token := "Bearer " + sign("other", time.Now().Add(time.Hour))
			w := do(mux, http.MethodGet, "/api/bi/entity-analytics", "", map[string]string{"Authorization": token})
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
			So(decode(w)["code"], ShouldEqual, "invalid_token")
		})

		Convey("An expired token is rejected", func() {
			token := "Bearer " + sign(secret, time.Now().Add(-time.Hour))
			w := do(mux, http.MethodGet, "/api/bi/entity-analytics", "", map[string]string{"Authorization": token})
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("A malformed token is rejected", func() {
			w := do(mux, http.MethodGet, "/api/bi/entity-analytics", "", map[string]string{"Authorization": "Bearer nope"})
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})
	})

	Convey("An empty secret disables verification", t, func() {
		So(api.NewTokenVerifier(""), ShouldBeNil)
	})

	Convey("Verify reports ErrInvalidToken", t, func() {
		_, err := api.NewTokenVerifier("k").Verify("Bearer ")
		So(errors.Is(err, api.ErrInvalidToken), ShouldBeTrue)
	})
}

func TestAggregateHandler(t *testing.T) {
	Convey("Given POST /api/bi/aggregate", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("The timeframe is passed through", func() {
			w := do(mux, http.MethodPost, "/api/bi/aggregate", `{"timeframe":"30d","metric":"x"}`, bearer)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.timeframe, ShouldEqual, "30d")
			out := decode(w)
			So(out["timeframe"], ShouldEqual, "30d")
			So(out, ShouldContainKey, "businessMetrics")
		})

		Convey("An empty body is accepted", func() {
			w := do(mux, http.MethodPost, "/api/bi/aggregate", "", bearer)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Malformed JSON is a bad request", func() {
			w := do(mux, http.MethodPost, "/api/bi/aggregate", `{"timeframe":`, bearer)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "bad_request")
		})

		Convey("GET is not routed", func() {
			w := do(mux, http.MethodGet, "/api/bi/aggregate", "", bearer)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestTimeSeriesHandler(t *testing.T) {
	Convey("Given GET /api/bi/timeseries", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("Query parameters are mapped", func() {
			w := do(mux, http.MethodGet,
				"/api/bi/timeseries?metric=products&interval=weekly&startDate=2024-01-01T00:00:00&endDate=2024-02-01T00:00:00&includeForecast=true",
				"", bearer)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.query, ShouldResemble, types.TimeSeriesQuery{
				Metric:          "products",
				Interval:        "weekly",
				StartDate:       "2024-01-01T00:00:00",
				EndDate:         "2024-02-01T00:00:00",
				IncludeForecast: true,
			})
			So(decode(w), ShouldContainKey, "timeSeriesData")
		})

		Convey("An unparsable includeForecast is a bad request", func() {
			w := do(mux, http.MethodGet, "/api/bi/timeseries?includeForecast=maybe", "", bearer)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("The product series takes its interval from the query", func() {
			w := do(mux, http.MethodGet, "/api/bi/timeseries/products?interval=yearly", "", bearer)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.interval, ShouldEqual, "yearly")
		})
	})
}

func TestAnalyticsHandlers(t *testing.T) {
	Convey("Given the parameterless reports", t, func() {
		mux := newMux(&mockDeps{})

		Convey("Each returns JSON", func() {
			for _, path := range []string{
				"/api/bi/entity-analytics",
				"/api/bi/sector-analysis",
				"/api/bi/correlations/business",
				"/api/bi/scorecard",
			} {
				w := do(mux, http.MethodGet, path, "", bearer)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
			}
		})

		Convey("Other methods are not routed", func() {
			w := do(mux, http.MethodDelete, "/api/bi/scorecard", "", bearer)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestReportsHandler(t *testing.T) {
	Convey("Given GET /api/bi/reports", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps, api.WithHistoryLimits(5, 50))

		Convey("The default limit applies when absent", func() {
			w := do(mux, http.MethodGet, "/api/bi/reports", "", bearer)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.limit, ShouldEqual, 5)
			So(decode(w)["count"], ShouldEqual, float64(1))
		})

		Convey("An explicit limit is honored", func() {
			w := do(mux, http.MethodGet, "/api/bi/reports?limit=50", "", bearer)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.limit, ShouldEqual, 50)
		})

		Convey("Invalid limits are bad requests", func() {
			for _, q := range []string{"abc", "0", "-1"} {
				w := do(mux, http.MethodGet, "/api/bi/reports?limit="+q, "", bearer)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
			w := do(mux, http.MethodGet, "/api/bi/reports?limit=51", "", bearer)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "limit_exceeded")
		})

		Convey("Store failures surface as internal errors", func() {
			deps.reportsErr = errors.New("boom")
			w := do(mux, http.MethodGet, "/api/bi/reports", "", bearer)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	Convey("Given a mux wrapped with request ids", t, func() {
		deps := &mockDeps{}
		h := api.RequestIDMiddleware(newMux(deps))

		Convey("An incoming id is propagated", func() {
			header := map[string]string{"Authorization": "t", api.HeaderRequestID: "req-42"}
			w := do(h, http.MethodGet, "/api/bi/scorecard", "", header)
			So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "req-42")
			So(deps.requestID, ShouldEqual, "req-42")
		})

		Convey("A missing id is generated", func() {
			w := do(h, http.MethodGet, "/api/bi/scorecard", "", bearer)
			So(w.Header().Get(api.HeaderRequestID), ShouldNotBeEmpty)
			So(deps.requestID, ShouldEqual, w.Header().Get(api.HeaderRequestID))
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given the operational routes", t, func() {
		mux := newMux(&mockDeps{})

		Convey("/healthz reports ok without auth", func() {
			w := do(mux, http.MethodGet, "/healthz", "", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["status"], ShouldEqual, "ok")
		})

		Convey("/healthz serves metrics to scrapers", func() {
			w := do(mux, http.MethodGet, "/healthz", "", map[string]string{"Accept": "text/plain"})
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/plain")
		})

		Convey("/metrics serves the registry", func() {
			w := do(mux, http.MethodGet, "/metrics", "", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("/stats serves the provider", func() {
			w := do(mux, http.MethodGet, "/stats", "", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["started"], ShouldEqual, true)
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Wrapped errors keep kind and cause", t, func() {
		cause := errors.New("cause")
		err := api.WrapKind("api.x", api.ErrBadRequest, cause)
		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "api.x: bad request: cause")
		So(api.Wrap("api.x", nil), ShouldBeNil)
		So(api.NewKind("api.x", api.ErrUnauthorized).Error(), ShouldEqual, "api.x: unauthorized")
	})
}
