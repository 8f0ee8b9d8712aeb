package scorecard

import (
	"strconv"
	"strings"
	"time"

	"github.com/okian/bizlens/internal/domain/aggregate"
	"github.com/okian/bizlens/internal/domain/record"
)

// Entity field names read by the reporter.
const (
	fieldContact    = "entiteContact"
	fieldProducts   = "entiteProducts"
	fieldRegion     = "region"
	fieldRisk       = "risk"
	fieldLegalForm  = "formeJuridique"
	fieldSecteur    = aggregate.FieldSecteur
	fieldBusiness   = aggregate.FieldBusiness
	fieldCreationDt = record.FieldDateCreation
)

// Risk bands.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// RiskBand maps a risk score to Low (<=2), Medium (3-4) or High (>=5).
// Fractional scores are truncated first.
func RiskBand(risk float64) string {
	switch r := int(risk); {
	case r <= 2:
		return RiskLow
	case r <= 4:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// riskOf reads the business record's risk, falling back to the root field.
func riskOf(e record.Record) (float64, bool) {
	if r, ok := businessRiskOf(e); ok {
		return r, true
	}
	return e.Number(fieldRisk)
}

// businessRiskOf is the risk held by the business record alone.
func businessRiskOf(e record.Record) (float64, bool) {
	biz, ok := e.Map(fieldBusiness)
	if !ok {
		return 0, false
	}
	return biz.Number(fieldRisk)
}

// ageOf is now's year minus the year prefix of the business creation date.
func ageOf(e record.Record, now time.Time) (float64, bool) {
	biz, ok := e.Map(fieldBusiness)
	if !ok {
		return 0, false
	}
	raw, ok := biz.String(fieldCreationDt)
	if !ok || len(raw) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(raw[:4])
	if err != nil {
		return 0, false
	}
	return float64(now.Year() - year), true
}

// sectorOf returns the non-blank business sector.
func sectorOf(e record.Record) (string, bool) {
	biz, ok := e.Map(fieldBusiness)
	if !ok {
		return "", false
	}
	s, ok := biz.String(fieldSecteur)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// regionOf returns the non-blank root region.
func regionOf(e record.Record) (string, bool) {
	r, ok := e.String(fieldRegion)
	if !ok || strings.TrimSpace(r) == "" {
		return "", false
	}
	return r, true
}

func hasBusiness(e record.Record) bool {
	_, ok := e.Map(fieldBusiness)
	return ok
}
