package scorecard

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by Config.Validate failures.
var ErrInvalidConfig = errors.New("invalid scorecard config")

// Weights are the contributions of each component to the overall score.
type Weights struct {
	Business float64 `koanf:"business" json:"business"`
	Contact  float64 `koanf:"contact" json:"contact"`
	Sector   float64 `koanf:"sector" json:"sector"`
	Region   float64 `koanf:"region" json:"region"`
	Risk     float64 `koanf:"risk" json:"risk"`
}

// KPIThresholds map KPI values to Green/Yellow/Red.
type KPIThresholds struct {
	CompletenessGreen  float64 `koanf:"completeness_green" json:"completenessGreen"`
	CompletenessYellow float64 `koanf:"completeness_yellow" json:"completenessYellow"`
	DiversityGreen     int     `koanf:"diversity_green" json:"diversityGreen"`
	DiversityYellow    int     `koanf:"diversity_yellow" json:"diversityYellow"`
}

// Grades are the minimum scores of the A..D letter grades; anything lower is F.
type Grades struct {
	A float64 `koanf:"a" json:"a"`
	B float64 `koanf:"b" json:"b"`
	C float64 `koanf:"c" json:"c"`
	D float64 `koanf:"d" json:"d"`
}

// Config parameterizes scoring. Action item thresholds are not part of it.
type Config struct {
	Weights Weights       `koanf:"weights"`
	KPI     KPIThresholds `koanf:"kpi"`
	Grades  Grades        `koanf:"grades"`

	// DiversityFactor scales a diversity count before DiversityCap applies.
	DiversityFactor float64 `koanf:"diversity_factor"`
	DiversityCap    float64 `koanf:"diversity_cap"`
	// RiskCeiling is the average risk at which the risk component reaches 0.
	RiskCeiling float64 `koanf:"risk_ceiling"`
	RiskFactor  float64 `koanf:"risk_factor"`

	InsightThreshold float64 `koanf:"insight_threshold"`
	TopN             int     `koanf:"top_n"`
}

// DefaultConfig returns the production scoring parameters.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{Business: 0.3, Contact: 0.2, Sector: 0.2, Region: 0.2, Risk: 0.1},
		KPI: KPIThresholds{
			CompletenessGreen:  80,
			CompletenessYellow: 60,
			DiversityGreen:     5,
			DiversityYellow:    3,
		},
		Grades:           Grades{A: 80, B: 70, C: 60, D: 50},
		DiversityFactor:  5,
		DiversityCap:     25,
		RiskCeiling:      5,
		RiskFactor:       5,
		InsightThreshold: 0.3,
		TopN:             5,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	w := c.Weights
	for name, v := range map[string]float64{
		"business": w.Business, "contact": w.Contact, "sector": w.Sector, "region": w.Region, "risk": w.Risk,
	} {
		if v < 0 {
			return fmt.Errorf("%w: weight %s is negative", ErrInvalidConfig, name)
		}
	}
	if c.KPI.CompletenessYellow > c.KPI.CompletenessGreen {
		return fmt.Errorf("%w: completeness yellow threshold above green", ErrInvalidConfig)
	}
	if c.KPI.DiversityYellow > c.KPI.DiversityGreen {
		return fmt.Errorf("%w: diversity yellow threshold above green", ErrInvalidConfig)
	}
	g := c.Grades
	if !(g.A >= g.B && g.B >= g.C && g.C >= g.D) {
		return fmt.Errorf("%w: grade cutoffs must be descending", ErrInvalidConfig)
	}
	if c.TopN < 1 {
		return fmt.Errorf("%w: top_n must be positive", ErrInvalidConfig)
	}
	if c.InsightThreshold < 0 || c.InsightThreshold > 1 {
		return fmt.Errorf("%w: insight_threshold must be within [0,1]", ErrInvalidConfig)
	}
	return nil
}
