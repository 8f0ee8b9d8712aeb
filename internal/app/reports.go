package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/bizlens/internal/domain/aggregate"
	"github.com/okian/bizlens/internal/domain/bucket"
	"github.com/okian/bizlens/internal/domain/dateparse"
	"github.com/okian/bizlens/internal/domain/model"
	"github.com/okian/bizlens/internal/domain/record"
	"github.com/okian/bizlens/internal/domain/scorecard"
	"github.com/okian/bizlens/internal/domain/stats"
	"github.com/okian/bizlens/internal/domain/types"
	"github.com/okian/bizlens/pkg/logger"
	"github.com/okian/bizlens/pkg/metrics"
)

// Time series metrics.
const (
	MetricEntities = "entities"
	MetricProducts = "products"
)

// degraded records that a section fell back to its default.
func (s *Service) degraded(ctx context.Context, op model.Operation, w *types.Warnings, f *fetch) {
	metrics.RecordReportDegraded(string(op), f.section)
	w.Warn(f.section + " unavailable")
	s.logger.Warn(ctx, "section degraded",
		logger.String("operation", string(op)),
		logger.String("section", f.section),
		logger.Error(f.err),
	)
}

func recordSkipped(n int) {
	for i := 0; i < n; i++ {
		metrics.RecordDateParseError()
	}
}

// AggregateMetrics summarizes entities by type. timeframe is echoed back.
func (s *Service) AggregateMetrics(ctx context.Context, authorization, timeframe string) types.AggregateMetrics {
	const op = model.OpAggregate
	start := time.Now()
	out := types.NewAggregateMetrics(timeframe)

	entities := s.entitiesFetch()
	s.fanOut(ctx, authorization, entities)
	if entities.err != nil {
		s.degraded(ctx, op, &out.Warnings, entities)
		s.finish(ctx, op, start, 0, out.Warnings, nil)
		return out
	}

	st := aggregate.ProcessEntities(entities.recs)
	total := len(entities.recs)
	active := aggregate.ActiveCount(entities.recs)

	out.TotalEntities = total
	out.ActiveEntities = active
	out.BusinessMetrics = types.BusinessMetrics{
		TotalEntities:  total,
		ActiveEntities: active,
		EntityTypes:    st.Distribution,
		Performance:    st.Performance,
	}
	out.Trends = st
	out.Correlations.EntityPerformance = st.Correlations()

	s.finish(ctx, op, start, total, out.Warnings, nil)
	return out
}

// TimeSeries buckets entity or product creation dates. Bad filters and
// unknown selectors degrade to defaults with a warning.
func (s *Service) TimeSeries(ctx context.Context, authorization string, q types.TimeSeriesQuery) types.TimeSeries {
	const op = model.OpTimeSeries
	start := time.Now()
	var w types.Warnings

	metric := strings.ToLower(strings.TrimSpace(q.Metric))
	var src *fetch
	switch metric {
	case MetricProducts:
		src = s.productsFetch()
	case "", MetricEntities:
		metric = MetricEntities
		src = s.entitiesFetch()
	default:
		w.Warn(fmt.Sprintf("unknown metric %q, using %s", q.Metric, MetricEntities))
		metric = MetricEntities
		src = s.entitiesFetch()
	}

	iv, ok := bucket.ParseInterval(q.Interval)
	if !ok && strings.TrimSpace(q.Interval) != "" {
		w.Warn(fmt.Sprintf("unknown interval %q, using %s", q.Interval, iv))
	}

	var r bucket.Range
	r.Start = parseFilter(&w, "startDate", q.StartDate, false)
	r.End = parseFilter(&w, "endDate", q.EndDate, true)

	out := types.NewTimeSeries(metric, iv)
	out.Warnings = w

	s.fanOut(ctx, authorization, src)
	if src.err != nil {
		s.degraded(ctx, op, &out.Warnings, src)
		s.finish(ctx, op, start, 0, out.Warnings, nil)
		return out
	}

	ts, skipped := aggregate.Timestamps(src.recs, record.FieldCreatedAt)
	recordSkipped(skipped)

	series := bucket.Count(ts, iv, r)
	if r.Bounded() {
		series = bucket.FillGaps(series, bucket.Keys(*r.Start, *r.End, iv))
	}
	out.TimeSeriesData = series

	values := bucket.Values(series)
	for i, v := range stats.MovingAverage(values, s.maWindow) {
		out.MovingAverages = append(out.MovingAverages, types.AveragePoint{Date: series[i].Key, Value: v})
	}
	if q.IncludeForecast {
		for i, v := range stats.Forecast(values, s.forecastPeriods) {
			out.Forecasts = append(out.Forecasts, types.ForecastPoint{Step: i + 1, Value: v})
		}
	}

	s.finish(ctx, op, start, len(src.recs), out.Warnings, nil)
	return out
}

// parseFilter parses an optional date filter. An unparseable value is
// ignored with a warning.
func parseFilter(w *types.Warnings, name, raw string, end bool) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := dateparse.ParseBound(raw, end)
	if err != nil {
		w.Warn(fmt.Sprintf("%s %q ignored: unrecognized date", name, raw))
		return nil
	}
	return &t
}

// EntityAnalytics counts entities per enterprise type.
func (s *Service) EntityAnalytics(ctx context.Context, authorization string) types.EntityAnalytics {
	const op = model.OpEntities
	start := time.Now()
	out := types.NewEntityAnalytics()

	entities, kinds := s.entitiesFetch(), s.taxonomyFetch("typeEntreprises")
	s.fanOut(ctx, authorization, entities, kinds)
	for _, f := range []*fetch{entities, kinds} {
		if f.err != nil {
			s.degraded(ctx, op, &out.Warnings, f)
		}
	}

	if entities.err == nil || kinds.err == nil {
		out.TypeBreakdown = aggregate.EntityTypes(entities.recs, kinds.recs)
	}

	s.finish(ctx, op, start, len(entities.recs), out.Warnings, nil)
	return out
}

// SectorAnalysis counts entities per sector and sub-sector.
func (s *Service) SectorAnalysis(ctx context.Context, authorization string) types.SectorAnalysis {
	const op = model.OpSectors
	start := time.Now()
	out := types.NewSectorAnalysis()

	entities := s.entitiesFetch()
	secteurs := s.taxonomyFetch("secteurs")
	sousSecteurs := s.taxonomyFetch("sousSecteurs")
	s.fanOut(ctx, authorization, entities, secteurs, sousSecteurs)
	for _, f := range []*fetch{entities, secteurs, sousSecteurs} {
		if f.err != nil {
			s.degraded(ctx, op, &out.Warnings, f)
		}
	}

	out.SectorBreakdown = aggregate.Sectors(entities.recs, secteurs.recs, sousSecteurs.recs, s.now(), s.recentWindow)

	s.finish(ctx, op, start, len(entities.recs), out.Warnings, nil)
	return out
}

// ProductTimeSeries counts products per creation bucket. An empty interval
// means monthly.
func (s *Service) ProductTimeSeries(ctx context.Context, authorization, interval string) types.ProductTimeSeries {
	const op = model.OpProducts
	start := time.Now()

	iv := bucket.Monthly
	var w types.Warnings
	if strings.TrimSpace(interval) != "" {
		var ok bool
		if iv, ok = bucket.ParseInterval(interval); !ok {
			w.Warn(fmt.Sprintf("unknown interval %q, using %s", interval, iv))
		}
	}
	out := types.NewProductTimeSeries(iv)
	out.Warnings = w

	products := s.productsFetch()
	s.fanOut(ctx, authorization, products)
	if products.err != nil {
		s.degraded(ctx, op, &out.Warnings, products)
		s.finish(ctx, op, start, 0, out.Warnings, nil)
		return out
	}

	ts, skipped := aggregate.Timestamps(products.recs, record.FieldCreatedAt)
	recordSkipped(skipped)
	out.TimeSeriesData = bucket.CountMap(ts, iv, bucket.Range{})

	s.finish(ctx, op, start, len(products.recs), out.Warnings, nil)
	return out
}

// BusinessCorrelations builds the correlation report of all entities.
func (s *Service) BusinessCorrelations(ctx context.Context, authorization string) types.BusinessCorrelations {
	const op = model.OpCorrelations
	start := time.Now()
	out := types.BusinessCorrelations{Correlations: scorecard.EmptyCorrelations()}

	entities := s.entitiesFetch()
	s.fanOut(ctx, authorization, entities)
	if entities.err != nil {
		s.degraded(ctx, op, &out.Warnings, entities)
		s.finish(ctx, op, start, 0, out.Warnings, nil)
		return out
	}

	out.Correlations = s.reporter.Correlations(entities.recs, s.now())

	s.finish(ctx, op, start, len(entities.recs), out.Warnings, nil)
	return out
}

// BusinessScorecard builds the scorecard of all entities, or an error
// message when there are none.
func (s *Service) BusinessScorecard(ctx context.Context, authorization string) types.BusinessScorecard {
	const op = model.OpScorecard
	start := time.Now()
	var out types.BusinessScorecard

	entities := s.entitiesFetch()
	s.fanOut(ctx, authorization, entities)
	if entities.err != nil {
		s.degraded(ctx, op, &out.Warnings, entities)
		out.Scorecard = scorecard.Unavailable()
		s.finish(ctx, op, start, 0, out.Warnings, nil)
		return out
	}

	out.Scorecard = s.reporter.Scorecard(entities.recs, s.now())

	s.finish(ctx, op, start, len(entities.recs), out.Warnings, func(snap *model.ReportSnapshot) {
		if out.Summary != nil {
			snap.Score = out.Summary.OverallScore
			snap.Grade = out.Summary.ScoreGrade
		}
	})
	return out
}
