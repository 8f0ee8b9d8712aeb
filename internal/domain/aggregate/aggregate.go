// Package aggregate computes distributions and per-category performance over
// entity lists.
package aggregate

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/okian/bizlens/internal/domain/dateparse"
	"github.com/okian/bizlens/internal/domain/record"
	"github.com/okian/bizlens/internal/domain/stats"
)

// Field names read from upstream records.
const (
	FieldType             = "type"
	FieldValue            = "value"
	FieldActive           = "active"
	FieldID               = "id"
	FieldName             = "nom"
	FieldDescription      = "description"
	FieldStatus           = "status"
	FieldTypeEntrepriseID = "typeEntrepriseId"
	FieldBusiness         = "entiteBusiness"
	FieldSecteur          = "secteur"
	FieldSousSecteur      = "sousSecteur"
)

// DefaultRecentWindow is how far back an entity counts as recently created.
const DefaultRecentWindow = 30 * 24 * time.Hour

// EntityStats is the per-type breakdown of an entity list.
type EntityStats struct {
	Distribution map[string]int64         `json:"distribution"`
	Performance  map[string]stats.Summary `json:"performance"`
	Growth       map[string]float64       `json:"growth"`

	series map[string][]float64
}

// ProcessEntities counts entities by their "type" field and summarizes the
// numeric "value" field per type. Entities without a type are ignored; a
// non-numeric value is left out of the summary but the entity is still counted.
func ProcessEntities(entities []record.Record) EntityStats {
	out := EntityStats{
		Distribution: map[string]int64{},
		Performance:  map[string]stats.Summary{},
		Growth:       map[string]float64{},
		series:       map[string][]float64{},
	}
	for _, e := range entities {
		typ, ok := e.String(FieldType)
		if !ok {
			continue
		}
		out.Distribution[typ]++
		if v, ok := e.Number(FieldValue); ok {
			out.series[typ] = append(out.series[typ], v)
		}
	}
	for typ, xs := range out.series {
		out.Performance[typ] = stats.Summarize(xs)
	}
	return out
}

// Correlations returns the Pearson coefficient of every pair of types whose
// value series have the same length, keyed "a_b" with a < b.
func (s EntityStats) Correlations() map[string]float64 {
	out := map[string]float64{}
	types := lo.Keys(s.series)
	sort.Strings(types)
	for i := 0; i < len(types); i++ {
		for j := i + 1; j < len(types); j++ {
			a, b := s.series[types[i]], s.series[types[j]]
			if len(a) != len(b) {
				continue
			}
			out[types[i]+"_"+types[j]] = stats.Pearson(a, b)
		}
	}
	return out
}

// ActiveCount counts entities whose "active" field is true.
func ActiveCount(entities []record.Record) int {
	return lo.CountBy(entities, func(e record.Record) bool {
		active, ok := e.Bool(FieldActive)
		return ok && active
	})
}

// CategoryMetrics is the performance entry of one category.
type CategoryMetrics struct {
	Count      int64                   `json:"count"`
	Percentage float64                 `json:"percentage"`
	Details    map[string]record.Value `json:"details,omitempty"`
}

// TypeBreakdown is the enterprise-type analysis of an entity list.
type TypeBreakdown struct {
	Distribution  map[string]int64           `json:"entityDistribution"`
	Performance   map[string]CategoryMetrics `json:"performance"`
	TotalEntities int                        `json:"totalEntities"`
	TotalTypes    int                        `json:"totalTypes"`
}

// EntityTypes counts entities per enterprise type. Every named type is
// present in the distribution, at zero when nothing matches. Entities are
// matched on typeEntrepriseId == type id.
func EntityTypes(entities, types []record.Record) TypeBreakdown {
	out := TypeBreakdown{
		Distribution:  map[string]int64{},
		Performance:   map[string]CategoryMetrics{},
		TotalEntities: len(entities),
		TotalTypes:    len(types),
	}

	details := map[string]map[string]record.Value{}
	nameByID := map[string]string{}
	for _, t := range types {
		name, ok := t.String(FieldName)
		if !ok {
			continue
		}
		out.Distribution[name] = 0
		details[name] = map[string]record.Value{
			FieldID:          t[FieldID],
			FieldDescription: t[FieldDescription],
			FieldType:        t[FieldType],
			FieldStatus:      t[FieldStatus],
		}
		if id, ok := t.Text(FieldID); ok {
			if _, dup := nameByID[id]; !dup {
				nameByID[id] = name
			}
		}
	}

	for _, e := range entities {
		id, ok := e.Text(FieldTypeEntrepriseID)
		if !ok {
			continue
		}
		if name, ok := nameByID[id]; ok {
			out.Distribution[name]++
		}
	}

	for name, count := range out.Distribution {
		out.Performance[name] = CategoryMetrics{
			Count:      count,
			Percentage: stats.Percentage(int(count), len(entities)),
			Details:    details[name],
		}
	}
	return out
}

// SectorTrend is the growth entry of one sector.
type SectorTrend struct {
	Total  int64   `json:"total"`
	Growth float64 `json:"growth"`
}

// SectorBreakdown is the sector and sub-sector analysis of an entity list.
type SectorBreakdown struct {
	Secteurs     map[string]int64           `json:"secteurs"`
	SousSecteurs map[string]int64           `json:"sousSecteurs"`
	Performance  map[string]CategoryMetrics `json:"performance"`
	Trends       map[string]SectorTrend     `json:"trends"`
}

// Business returns the nested business record of an entity.
func Business(e record.Record) (record.Record, bool) {
	return e.Map(FieldBusiness)
}

// Sectors counts entities per sector and sub-sector as named in their
// business record, seeded with every taxonomy name. Entities without a
// business record are left out of both distributions. Percentages are taken
// over the whole entity list. Growth is the share of a sector's entities
// created within window before now.
func Sectors(entities, secteurs, sousSecteurs []record.Record, now time.Time, window time.Duration) SectorBreakdown {
	out := SectorBreakdown{
		Secteurs:     seed(secteurs),
		SousSecteurs: seed(sousSecteurs),
		Performance:  map[string]CategoryMetrics{},
		Trends:       map[string]SectorTrend{},
	}

	cutoff := wallClock(now).Add(-window)
	recent := map[string]int64{}
	for _, e := range entities {
		biz, ok := Business(e)
		if !ok {
			continue
		}
		if s, ok := biz.String(FieldSecteur); ok {
			out.Secteurs[s]++
			if createdAfter(e, cutoff) {
				recent[s]++
			}
		}
		if ss, ok := biz.String(FieldSousSecteur); ok {
			out.SousSecteurs[ss]++
		}
	}

	for s, count := range out.Secteurs {
		out.Performance[s] = CategoryMetrics{
			Count:      count,
			Percentage: stats.Percentage(int(count), len(entities)),
		}
		out.Trends[s] = SectorTrend{
			Total:  count,
			Growth: stats.Percentage(int(recent[s]), int(count)),
		}
	}
	return out
}

func seed(taxonomy []record.Record) map[string]int64 {
	out := make(map[string]int64, len(taxonomy))
	for _, t := range taxonomy {
		if name, ok := t.String(FieldName); ok {
			out[name] = 0
		}
	}
	return out
}

func createdAfter(e record.Record, cutoff time.Time) bool {
	raw, ok := e.String(record.FieldCreatedAt)
	if !ok {
		return false
	}
	t, err := dateparse.Parse(raw)
	if err != nil {
		return false
	}
	return t.After(cutoff)
}

// wallClock drops the zone of t, matching how dateparse reads timestamps.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Timestamps parses field of every record. Records without the field are
// excluded; records whose value does not parse are counted in skipped.
func Timestamps(recs []record.Record, field string) (ts []time.Time, skipped int) {
	ts = make([]time.Time, 0, len(recs))
	for _, r := range recs {
		raw, ok := r.String(field)
		if !ok {
			if r.Has(field) {
				skipped++
			}
			continue
		}
		t, err := dateparse.Parse(raw)
		if err != nil {
			skipped++
			continue
		}
		ts = append(ts, t)
	}
	return ts, skipped
}
