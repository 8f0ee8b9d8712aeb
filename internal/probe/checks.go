package probe

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Endpoint describes one BI call and the keys its response must carry.
type Endpoint struct {
	Name   string
	Method string
	Path   string
	Body   string
	Keys   []string
	// AltKeys is an accepted alternative shape, e.g. an error-only report.
	AltKeys []string
}

// Endpoints lists every report the probe exercises.
func Endpoints() []Endpoint {
	return []Endpoint{
		{
			Name:   "aggregate",
			Method: http.MethodPost,
			Path:   "/api/bi/aggregate",
			Body:   `{"timeframe":"30d"}`,
			Keys:   []string{"timeframe", "totalEntities", "activeEntities", "businessMetrics", "trends", "correlations"},
		},
		{
			Name:   "timeseries",
			Method: http.MethodGet,
			Path:   "/api/bi/timeseries?metric=entities&interval=monthly&includeForecast=true",
			Keys:   []string{"metric", "interval", "timeSeriesData", "movingAverages", "forecasts"},
		},
		{
			Name:   "timeseries_products",
			Method: http.MethodGet,
			Path:   "/api/bi/timeseries/products?interval=weekly",
			Keys:   []string{"interval", "timeSeriesData"},
		},
		{
			Name:   "entity_analytics",
			Method: http.MethodGet,
			Path:   "/api/bi/entity-analytics",
			Keys:   []string{"entityDistribution", "performance", "totalEntities", "totalTypes"},
		},
		{
			Name:   "sector_analysis",
			Method: http.MethodGet,
			Path:   "/api/bi/sector-analysis",
			Keys:   []string{"secteurs", "sousSecteurs", "performance", "trends"},
		},
		{
			Name:   "correlations_business",
			Method: http.MethodGet,
			Path:   "/api/bi/correlations/business",
			Keys:   []string{"businessCorrelations", "sectorCorrelations", "geographicCorrelations", "riskCorrelations", "insights"},
		},
		{
			Name:    "scorecard",
			Method:  http.MethodGet,
			Path:    "/api/bi/scorecard",
			Keys:    []string{"kpis", "rankings", "actionItems", "summary"},
			AltKeys: []string{"error"},
		},
		{
			Name:   "reports",
			Method: http.MethodGet,
			Path:   "/api/bi/reports?limit=10",
			Keys:   []string{"reports", "count"},
		},
	}
}

// Check decodes body and returns the expected keys it lacks and the
// warnings it carries.
func (e Endpoint) Check(body []byte) (missing, warnings []string, err error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, nil, fmt.Errorf("%s: decode response: %w", e.Name, err)
	}
	if raw, ok := doc["warnings"]; ok {
		_ = json.Unmarshal(raw, &warnings)
	}
	missing = missingKeys(doc, e.Keys)
	if len(missing) > 0 && len(e.AltKeys) > 0 && len(missingKeys(doc, e.AltKeys)) == 0 {
		missing = nil
	}
	return missing, warnings, nil
}

func missingKeys(doc map[string]json.RawMessage, keys []string) []string {
	var out []string
	for _, k := range keys {
		if _, ok := doc[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}
