package scorecard

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/okian/bizlens/internal/domain/record"
	"github.com/okian/bizlens/internal/domain/stats"
)

// BusinessCorrelations relates risk to company age and breaks entities with a
// business record down by sector, region and legal form.
type BusinessCorrelations struct {
	RiskVsAge             float64          `json:"risk_vs_age"`
	SectorDistribution    map[string]int64 `json:"sector_distribution"`
	RegionDistribution    map[string]int64 `json:"region_distribution"`
	LegalFormDistribution map[string]int64 `json:"legal_form_distribution"`
}

// SectorPerformance summarizes one sector.
type SectorPerformance struct {
	EntityCount int     `json:"entity_count"`
	AverageRisk float64 `json:"average_risk"`
	AverageAge  float64 `json:"average_age"`
}

// SectorCorrelations groups entities by sector.
type SectorCorrelations struct {
	SectorPerformance map[string]SectorPerformance `json:"sector_performance"`
}

// RegionalPerformance summarizes one region.
type RegionalPerformance struct {
	EntityCount     int     `json:"entity_count"`
	SectorDiversity int     `json:"sector_diversity"`
	AverageRisk     float64 `json:"average_risk"`
}

// GeographicCorrelations groups entities by region.
type GeographicCorrelations struct {
	RegionalPerformance map[string]RegionalPerformance `json:"regional_performance"`
}

// RiskBandAnalysis summarizes one risk band.
type RiskBandAnalysis struct {
	EntityCount        int              `json:"entity_count"`
	SectorDistribution map[string]int64 `json:"sector_distribution"`
	AverageAge         float64          `json:"average_age"`
}

// RiskCorrelations groups entities by risk band.
type RiskCorrelations struct {
	RiskAnalysis map[string]RiskBandAnalysis `json:"risk_analysis"`
}

// Insights are human readable conclusions.
type Insights struct {
	KeyInsights   []string `json:"key_insights"`
	TotalInsights int      `json:"total_insights"`
}

// Correlations is the full correlation report.
type Correlations struct {
	BusinessCorrelations   BusinessCorrelations   `json:"businessCorrelations"`
	SectorCorrelations     SectorCorrelations     `json:"sectorCorrelations"`
	GeographicCorrelations GeographicCorrelations `json:"geographicCorrelations"`
	RiskCorrelations       RiskCorrelations       `json:"riskCorrelations"`
	Insights               Insights               `json:"insights"`
}

// EmptyCorrelations is the report of an empty or unavailable entity list.
func EmptyCorrelations() Correlations {
	return Correlations{
		BusinessCorrelations: BusinessCorrelations{
			SectorDistribution:    map[string]int64{},
			RegionDistribution:    map[string]int64{},
			LegalFormDistribution: map[string]int64{},
		},
		SectorCorrelations:     SectorCorrelations{SectorPerformance: map[string]SectorPerformance{}},
		GeographicCorrelations: GeographicCorrelations{RegionalPerformance: map[string]RegionalPerformance{}},
		RiskCorrelations:       RiskCorrelations{RiskAnalysis: map[string]RiskBandAnalysis{}},
		Insights:               Insights{KeyInsights: []string{}},
	}
}

// Correlations builds the correlation report. now fixes the company ages.
func (r *Reporter) Correlations(entities []record.Record, now time.Time) Correlations {
	out := EmptyCorrelations()
	out.BusinessCorrelations = businessCorrelations(entities, now)
	out.SectorCorrelations = sectorCorrelations(entities, now)
	out.GeographicCorrelations = geographicCorrelations(entities)
	out.RiskCorrelations = riskCorrelations(entities, now)
	out.Insights = r.insights(out)
	return out
}

func businessCorrelations(entities []record.Record, now time.Time) BusinessCorrelations {
	out := BusinessCorrelations{
		SectorDistribution:    map[string]int64{},
		RegionDistribution:    map[string]int64{},
		LegalFormDistribution: map[string]int64{},
	}
	var risks, ages []float64
	for _, e := range lo.Filter(entities, func(e record.Record, _ int) bool { return hasBusiness(e) }) {
		biz, _ := e.Map(fieldBusiness)
		risk, okRisk := riskOf(e)
		age, okAge := ageOf(e, now)
		if okRisk && okAge {
			risks = append(risks, risk)
			ages = append(ages, age)
		}
		if lf, ok := biz.String(fieldLegalForm); ok {
			out.LegalFormDistribution[lf]++
		}
		if s, ok := biz.String(fieldSecteur); ok {
			out.SectorDistribution[s]++
		}
		if reg, ok := e.String(fieldRegion); ok {
			out.RegionDistribution[reg]++
		}
	}
	if len(risks) > 1 {
		out.RiskVsAge = stats.Pearson(risks, ages)
	}
	return out
}

func averageRisk(group []record.Record) float64 {
	return stats.Mean(lo.FilterMap(group, func(e record.Record, _ int) (float64, bool) { return riskOf(e) }))
}

func averageAge(group []record.Record, now time.Time) float64 {
	return stats.Mean(lo.FilterMap(group, func(e record.Record, _ int) (float64, bool) { return ageOf(e, now) }))
}

func sectorCorrelations(entities []record.Record, now time.Time) SectorCorrelations {
	out := SectorCorrelations{SectorPerformance: map[string]SectorPerformance{}}
	groups := lo.GroupBy(
		lo.Filter(entities, func(e record.Record, _ int) bool { _, ok := sectorOf(e); return ok }),
		func(e record.Record) string { s, _ := sectorOf(e); return s },
	)
	for sector, group := range groups {
		out.SectorPerformance[sector] = SectorPerformance{
			EntityCount: len(group),
			AverageRisk: averageRisk(group),
			AverageAge:  averageAge(group, now),
		}
	}
	return out
}

func geographicCorrelations(entities []record.Record) GeographicCorrelations {
	out := GeographicCorrelations{RegionalPerformance: map[string]RegionalPerformance{}}
	groups := lo.GroupBy(
		lo.Filter(entities, func(e record.Record, _ int) bool { _, ok := regionOf(e); return ok }),
		func(e record.Record) string { r, _ := regionOf(e); return r },
	)
	for region, group := range groups {
		sectors := lo.Uniq(lo.FilterMap(group, func(e record.Record, _ int) (string, bool) { return sectorOf(e) }))
		out.RegionalPerformance[region] = RegionalPerformance{
			EntityCount:     len(group),
			SectorDiversity: len(sectors),
			AverageRisk:     averageRisk(group),
		}
	}
	return out
}

func riskCorrelations(entities []record.Record, now time.Time) RiskCorrelations {
	out := RiskCorrelations{RiskAnalysis: map[string]RiskBandAnalysis{}}
	// only the business record's risk is banded here
	groups := lo.GroupBy(
		lo.Filter(entities, func(e record.Record, _ int) bool { _, ok := businessRiskOf(e); return ok }),
		func(e record.Record) string { risk, _ := businessRiskOf(e); return RiskBand(risk) },
	)
	for band, group := range groups {
		dist := map[string]int64{}
		for _, e := range group {
			if s, ok := sectorOf(e); ok {
				dist[s]++
			}
		}
		out.RiskAnalysis[band] = RiskBandAnalysis{
			EntityCount:        len(group),
			SectorDistribution: dist,
			AverageAge:         averageAge(group, now),
		}
	}
	return out
}

func (r *Reporter) insights(c Correlations) Insights {
	out := Insights{KeyInsights: []string{}}

	if rv := c.BusinessCorrelations.RiskVsAge; math.Abs(rv) > r.cfg.InsightThreshold {
		if rv > 0 {
			out.KeyInsights = append(out.KeyInsights, "Older companies tend to have higher risk levels")
		} else {
			out.KeyInsights = append(out.KeyInsights, "Newer companies tend to have higher risk levels")
		}
	}

	if name, ok := best(c.SectorCorrelations.SectorPerformance, func(p SectorPerformance) int { return p.EntityCount }); ok {
		out.KeyInsights = append(out.KeyInsights, fmt.Sprintf("Sector '%s' shows the best performance metrics", name))
	}
	if name, ok := best(c.GeographicCorrelations.RegionalPerformance, func(p RegionalPerformance) int { return p.SectorDiversity }); ok {
		out.KeyInsights = append(out.KeyInsights, fmt.Sprintf("Region '%s' has the highest business diversity", name))
	}

	out.TotalInsights = len(out.KeyInsights)
	return out
}

// best returns the key with the highest score; ties go to the smallest key.
func best[V any](m map[string]V, score func(V) int) (string, bool) {
	if len(m) == 0 {
		return "", false
	}
	keys := lo.Keys(m)
	sort.Strings(keys)
	top := keys[0]
	for _, k := range keys[1:] {
		if score(m[k]) > score(m[top]) {
			top = k
		}
	}
	return top, true
}
