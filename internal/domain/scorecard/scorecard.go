// Package scorecard derives the business scorecard and the correlation report
// from an entity list.
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

// Error messages returned in place of a scorecard.
const (
	ErrMsgNoData     = "No entity data available"
	ErrMsgNoEntities = "No entities found in the system"
)

// Fixed action item thresholds.
const (
	actionCompletenessTarget = 80.0
	actionDiversityTarget    = 5
)

// KPI statuses.
const (
	StatusGreen  = "Green"
	StatusYellow = "Yellow"
	StatusRed    = "Red"
)

// KPIs is the scorecard dashboard.
type KPIs struct {
	TotalEntities            int              `json:"totalEntities"`
	EntitiesWithBusiness     int              `json:"entitiesWithBusiness"`
	BusinessDataCompleteness float64          `json:"businessDataCompleteness"`
	EntitiesWithContact      int              `json:"entitiesWithContact"`
	ContactDataCompleteness  float64          `json:"contactDataCompleteness"`
	EntitiesWithProducts     int              `json:"entitiesWithProducts"`
	ProductsDataCompleteness float64          `json:"productsDataCompleteness"`
	SectorDiversity          int              `json:"sectorDiversity"`
	Sectors                  []string         `json:"sectors"`
	RegionalDiversity        int              `json:"regionalDiversity"`
	Regions                  []string         `json:"regions"`
	RiskDistribution         map[string]int64 `json:"riskDistribution"`
	AverageRisk              float64          `json:"averageRisk"`
	BusinessDataStatus       string           `json:"businessDataStatus"`
	ContactDataStatus        string           `json:"contactDataStatus"`
	SectorDiversityStatus    string           `json:"sectorDiversityStatus"`
	RegionalDiversityStatus  string           `json:"regionalDiversityStatus"`
}

// RankEntry is one row of a ranking.
type RankEntry struct {
	Name       string  `json:"name"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Rankings lists the largest sectors and regions.
type Rankings struct {
	TopSectors []RankEntry `json:"topSectors"`
	TopRegions []RankEntry `json:"topRegions"`
}

// ActionItem is a recommended follow-up.
type ActionItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Impact      string `json:"impact"`
	Effort      string `json:"effort"`
	Timeline    string `json:"timeline"`
}

// ActionItems groups action items by priority.
type ActionItems struct {
	HighPriority   []ActionItem `json:"highPriority"`
	MediumPriority []ActionItem `json:"mediumPriority"`
	LowPriority    []ActionItem `json:"lowPriority"`
	TotalActions   int          `json:"totalActions"`
}

// PerformanceSummary is the SWOT-style part of the summary.
type PerformanceSummary struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
}

// Summary carries the overall score.
type Summary struct {
	OverallScore float64            `json:"overallScore"`
	ScoreGrade   string             `json:"scoreGrade"`
	LastUpdated  string             `json:"lastUpdated"`
	Highlights   []string           `json:"highlights"`
	Performance  PerformanceSummary `json:"performance"`
}

// Scorecard is either a full report or an error message.
type Scorecard struct {
	KPIs        *KPIs        `json:"kpis,omitempty"`
	Rankings    *Rankings    `json:"rankings,omitempty"`
	ActionItems *ActionItems `json:"actionItems,omitempty"`
	Summary     *Summary     `json:"summary,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Reporter builds scorecards and correlation reports.
type Reporter struct {
	cfg Config
}

// NewReporter returns a Reporter using cfg.
func NewReporter(cfg Config) *Reporter {
	return &Reporter{cfg: cfg}
}

// Config returns the reporter configuration.
func (r *Reporter) Config() Config { return r.cfg }

// Unavailable is the scorecard returned when entities could not be fetched.
func Unavailable() Scorecard {
	return Scorecard{Error: ErrMsgNoData}
}

// Scorecard builds the scorecard of entities as of now.
func (r *Reporter) Scorecard(entities []record.Record, now time.Time) Scorecard {
	if len(entities) == 0 {
		return Scorecard{Error: ErrMsgNoEntities}
	}
	kpis := r.KPIs(entities)
	rankings := r.Rankings(entities)
	actions := Actions(kpis)
	summary := r.Summary(kpis, now)
	return Scorecard{
		KPIs:        &kpis,
		Rankings:    &rankings,
		ActionItems: &actions,
		Summary:     &summary,
	}
}

// KPIs computes the dashboard indicators.
func (r *Reporter) KPIs(entities []record.Record) KPIs {
	total := len(entities)
	k := KPIs{
		TotalEntities:        total,
		EntitiesWithBusiness: lo.CountBy(entities, func(e record.Record) bool { return e.Has(fieldBusiness) }),
		EntitiesWithContact:  lo.CountBy(entities, func(e record.Record) bool { return e.Has(fieldContact) }),
		EntitiesWithProducts: lo.CountBy(entities, func(e record.Record) bool { return e.Has(fieldProducts) }),
		RiskDistribution:     map[string]int64{},
	}
	k.BusinessDataCompleteness = stats.Percentage(k.EntitiesWithBusiness, total)
	k.ContactDataCompleteness = stats.Percentage(k.EntitiesWithContact, total)
	k.ProductsDataCompleteness = stats.Percentage(k.EntitiesWithProducts, total)

	k.Sectors = distinct(lo.FilterMap(entities, func(e record.Record, _ int) (string, bool) { return sectorOf(e) }))
	k.SectorDiversity = len(k.Sectors)
	k.Regions = distinct(lo.FilterMap(entities, func(e record.Record, _ int) (string, bool) { return regionOf(e) }))
	k.RegionalDiversity = len(k.Regions)

	risks := lo.FilterMap(entities, func(e record.Record, _ int) (float64, bool) { return riskOf(e) })
	for _, risk := range risks {
		k.RiskDistribution[RiskBand(risk)]++
	}
	k.AverageRisk = stats.Mean(risks)

	t := r.cfg.KPI
	k.BusinessDataStatus = status(k.BusinessDataCompleteness, t.CompletenessGreen, t.CompletenessYellow)
	k.ContactDataStatus = status(k.ContactDataCompleteness, t.CompletenessGreen, t.CompletenessYellow)
	k.SectorDiversityStatus = status(float64(k.SectorDiversity), float64(t.DiversityGreen), float64(t.DiversityYellow))
	k.RegionalDiversityStatus = status(float64(k.RegionalDiversity), float64(t.DiversityGreen), float64(t.DiversityYellow))
	return k
}

func status(v, green, yellow float64) string {
	switch {
	case v >= green:
		return StatusGreen
	case v >= yellow:
		return StatusYellow
	default:
		return StatusRed
	}
}

func distinct(xs []string) []string {
	out := lo.Uniq(xs)
	sort.Strings(out)
	return out
}

// Rankings returns the top sectors and regions by entity count.
func (r *Reporter) Rankings(entities []record.Record) Rankings {
	sectors := lo.FilterMap(entities, func(e record.Record, _ int) (string, bool) { return sectorOf(e) })
	regions := lo.FilterMap(entities, func(e record.Record, _ int) (string, bool) { return regionOf(e) })
	return Rankings{
		TopSectors: top(countNames(sectors), len(entities), r.cfg.TopN),
		TopRegions: top(countNames(regions), len(entities), r.cfg.TopN),
	}
}

func countNames(names []string) map[string]int64 {
	out := make(map[string]int64, len(names))
	for _, n := range names {
		out[n]++
	}
	return out
}

// top sorts by count descending, then name ascending, and keeps n entries.
func top(counts map[string]int64, total, n int) []RankEntry {
	out := make([]RankEntry, 0, len(counts))
	for name, c := range counts {
		out = append(out, RankEntry{Name: name, Count: c, Percentage: stats.Percentage(int(c), total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Actions applies the fixed action item rules.
func Actions(k KPIs) ActionItems {
	a := ActionItems{
		HighPriority:   []ActionItem{},
		MediumPriority: []ActionItem{},
		LowPriority:    []ActionItem{},
	}
	if k.BusinessDataCompleteness < actionCompletenessTarget {
		a.HighPriority = append(a.HighPriority, ActionItem{
			Title:       "Improve Business Data Completeness",
			Description: fmt.Sprintf("Current completeness: %.1f%%. Target: 80%%+", k.BusinessDataCompleteness),
			Priority:    "High",
			Impact:      "High",
			Effort:      "Medium",
			Timeline:    "30 days",
		})
	}
	if k.ContactDataCompleteness < actionCompletenessTarget {
		a.HighPriority = append(a.HighPriority, ActionItem{
			Title:       "Improve Contact Data Completeness",
			Description: fmt.Sprintf("Current completeness: %.1f%%. Target: 80%%+", k.ContactDataCompleteness),
			Priority:    "High",
			Impact:      "High",
			Effort:      "Medium",
			Timeline:    "30 days",
		})
	}
	if k.SectorDiversity < actionDiversityTarget {
		a.MediumPriority = append(a.MediumPriority, ActionItem{
			Title:       "Increase Sector Diversity",
			Description: fmt.Sprintf("Current diversity: %d sectors. Target: 5+ sectors", k.SectorDiversity),
			Priority:    "Medium",
			Impact:      "Medium",
			Effort:      "High",
			Timeline:    "60 days",
		})
	}
	if k.RegionalDiversity < actionDiversityTarget {
		a.MediumPriority = append(a.MediumPriority, ActionItem{
			Title:       "Increase Regional Diversity",
			Description: fmt.Sprintf("Current diversity: %d regions. Target: 5+ regions", k.RegionalDiversity),
			Priority:    "Medium",
			Impact:      "Medium",
			Effort:      "High",
			Timeline:    "60 days",
		})
	}
	a.LowPriority = append(a.LowPriority, ActionItem{
		Title:       "Regular Data Quality Review",
		Description: "Schedule monthly data quality assessment",
		Priority:    "Low",
		Impact:      "Medium",
		Effort:      "Low",
		Timeline:    "Ongoing",
	})
	a.TotalActions = len(a.HighPriority) + len(a.MediumPriority) + len(a.LowPriority)
	return a
}

// Score is the weighted overall score of k.
func (r *Reporter) Score(k KPIs) float64 {
	c, w := r.cfg, r.cfg.Weights
	sector := math.Min(float64(k.SectorDiversity)*c.DiversityFactor, c.DiversityCap)
	region := math.Min(float64(k.RegionalDiversity)*c.DiversityFactor, c.DiversityCap)
	risk := math.Max(0, (c.RiskCeiling-k.AverageRisk)*c.RiskFactor)
	return w.Business*k.BusinessDataCompleteness +
		w.Contact*k.ContactDataCompleteness +
		w.Sector*sector +
		w.Region*region +
		w.Risk*risk
}

// Grade maps a score to a letter.
func (r *Reporter) Grade(score float64) string {
	g := r.cfg.Grades
	switch {
	case score >= g.A:
		return "A"
	case score >= g.B:
		return "B"
	case score >= g.C:
		return "C"
	case score >= g.D:
		return "D"
	default:
		return "F"
	}
}

// Summary scores k and lists highlights, strengths and weaknesses.
func (r *Reporter) Summary(k KPIs, now time.Time) Summary {
	score := r.Score(k)
	t := r.cfg.KPI
	s := Summary{
		OverallScore: score,
		ScoreGrade:   r.Grade(score),
		LastUpdated:  now.Format("2006-01-02T15:04:05"),
		Highlights: []string{
			fmt.Sprintf("Total Entities: %d", k.TotalEntities),
			fmt.Sprintf("Business Data Completeness: %.1f%%", k.BusinessDataCompleteness),
			fmt.Sprintf("Sector Diversity: %d sectors", k.SectorDiversity),
			fmt.Sprintf("Regional Diversity: %d regions", k.RegionalDiversity),
		},
		Performance: PerformanceSummary{
			Strengths:  []string{},
			Weaknesses: []string{},
			Opportunities: []string{
				"Expand into underserved sectors based on diversity analysis",
				"Increase presence in regions with low coverage",
				"Improve data quality through systematic data collection",
				"Focus on completing missing business and contact information",
			},
		},
	}

	p := &s.Performance
	if k.BusinessDataCompleteness >= t.CompletenessGreen {
		p.Strengths = append(p.Strengths, "High business data completeness indicates good data quality")
	} else {
		p.Weaknesses = append(p.Weaknesses, "Low business data completeness needs improvement")
	}
	if k.ContactDataCompleteness >= t.CompletenessGreen {
		p.Strengths = append(p.Strengths, "Good contact data completeness shows strong customer information")
	} else {
		p.Weaknesses = append(p.Weaknesses, "Low contact data completeness restricts customer insights")
	}
	if k.SectorDiversity >= t.DiversityGreen {
		p.Strengths = append(p.Strengths, "Good sector diversity shows balanced portfolio")
	} else {
		p.Weaknesses = append(p.Weaknesses, "Limited sector diversity increases concentration risk")
	}
	if k.RegionalDiversity >= t.DiversityGreen {
		p.Strengths = append(p.Strengths, "Strong regional diversity indicates broad market presence")
	} else {
		p.Weaknesses = append(p.Weaknesses, "Limited regional diversity restricts market reach")
	}
	return s
}
