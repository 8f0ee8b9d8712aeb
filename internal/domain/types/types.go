// Package types contains the response shapes of the analytics API
package types

import (
	"github.com/okian/bizlens/internal/domain/aggregate"
	"github.com/okian/bizlens/internal/domain/bucket"
	"github.com/okian/bizlens/internal/domain/model"
	"github.com/okian/bizlens/internal/domain/scorecard"
	"github.com/okian/bizlens/internal/domain/stats"
)

// Warnings lists the sections that were returned with defaults.
type Warnings struct {
	Warnings []string `json:"warnings,omitempty"`
}

// Warn appends a warning.
func (w *Warnings) Warn(msg string) {
	w.Warnings = append(w.Warnings, msg)
}

// BusinessMetrics is the business section of AggregateMetrics.
type BusinessMetrics struct {
	TotalEntities  int                      `json:"totalEntities"`
	ActiveEntities int                      `json:"activeEntities"`
	EntityTypes    map[string]int64         `json:"entityTypes"`
	Performance    map[string]stats.Summary `json:"performance"`
}

// AggregateCorrelations is the correlation section of AggregateMetrics.
type AggregateCorrelations struct {
	EntityPerformance map[string]float64 `json:"entityPerformance"`
}

// AggregateMetrics is the response of POST /api/bi/aggregate.
type AggregateMetrics struct {
	Timeframe       string                `json:"timeframe,omitempty"`
	TotalEntities   int                   `json:"totalEntities"`
	ActiveEntities  int                   `json:"activeEntities"`
	BusinessMetrics BusinessMetrics       `json:"businessMetrics"`
	Trends          aggregate.EntityStats `json:"trends"`
	Correlations    AggregateCorrelations `json:"correlations"`
	Warnings
}

// NewAggregateMetrics returns a response with every section empty.
func NewAggregateMetrics(timeframe string) AggregateMetrics {
	empty := aggregate.ProcessEntities(nil)
	return AggregateMetrics{
		Timeframe: timeframe,
		BusinessMetrics: BusinessMetrics{
			EntityTypes: empty.Distribution,
			Performance: empty.Performance,
		},
		Trends:       empty,
		Correlations: AggregateCorrelations{EntityPerformance: map[string]float64{}},
	}
}

// ForecastPoint is one extrapolated step.
type ForecastPoint struct {
	Step  int     `json:"step"`
	Value float64 `json:"value"`
}

// AveragePoint is one moving average value.
type AveragePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// TimeSeriesQuery are the parameters of GET /api/bi/timeseries.
type TimeSeriesQuery struct {
	Metric          string
	Interval        string
	StartDate       string
	EndDate         string
	IncludeForecast bool
}

// TimeSeries is the response of GET /api/bi/timeseries.
type TimeSeries struct {
	Metric         string          `json:"metric"`
	Interval       string          `json:"interval"`
	TimeSeriesData []bucket.Bucket `json:"timeSeriesData"`
	MovingAverages []AveragePoint  `json:"movingAverages"`
	Forecasts      []ForecastPoint `json:"forecasts"`
	Warnings
}

// NewTimeSeries returns an empty series.
func NewTimeSeries(metric string, iv bucket.Interval) TimeSeries {
	return TimeSeries{
		Metric:         metric,
		Interval:       string(iv),
		TimeSeriesData: []bucket.Bucket{},
		MovingAverages: []AveragePoint{},
		Forecasts:      []ForecastPoint{},
	}
}

// EntityAnalytics is the response of GET /api/bi/entity-analytics.
type EntityAnalytics struct {
	aggregate.TypeBreakdown
	Warnings
}

// NewEntityAnalytics returns an empty analysis.
func NewEntityAnalytics() EntityAnalytics {
	return EntityAnalytics{TypeBreakdown: aggregate.EntityTypes(nil, nil)}
}

// SectorAnalysis is the response of GET /api/bi/sector-analysis.
type SectorAnalysis struct {
	aggregate.SectorBreakdown
	Warnings
}

// NewSectorAnalysis returns an empty analysis.
func NewSectorAnalysis() SectorAnalysis {
	return SectorAnalysis{SectorBreakdown: aggregate.SectorBreakdown{
		Secteurs:     map[string]int64{},
		SousSecteurs: map[string]int64{},
		Performance:  map[string]aggregate.CategoryMetrics{},
		Trends:       map[string]aggregate.SectorTrend{},
	}}
}

// ProductTimeSeries is the response of GET /api/bi/timeseries/products.
type ProductTimeSeries struct {
	Interval       string           `json:"interval"`
	TimeSeriesData map[string]int64 `json:"timeSeriesData"`
	Warnings
}

// NewProductTimeSeries returns an empty series.
func NewProductTimeSeries(iv bucket.Interval) ProductTimeSeries {
	return ProductTimeSeries{Interval: string(iv), TimeSeriesData: map[string]int64{}}
}

// BusinessCorrelations is the response of GET /api/bi/correlations/business.
type BusinessCorrelations struct {
	scorecard.Correlations
	Warnings
}

// BusinessScorecard is the response of GET /api/bi/scorecard.
type BusinessScorecard struct {
	scorecard.Scorecard
	Warnings
}

// ReportHistory is the response of GET /api/bi/reports.
type ReportHistory struct {
	Reports []model.ReportSnapshot `json:"reports"`
	Count   int                    `json:"count"`
}
