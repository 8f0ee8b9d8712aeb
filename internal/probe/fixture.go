package probe

import (
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Fixture is the data a stub upstream serves, one list per collaborator path.
type Fixture struct {
	Entites         []map[string]any `yaml:"entites" json:"entites"`
	Secteurs        []map[string]any `yaml:"secteurs" json:"secteurs"`
	SousSecteurs    []map[string]any `yaml:"sousSecteurs" json:"sousSecteurs"`
	TypeEntreprises []map[string]any `yaml:"typeEntreprises" json:"typeEntreprises"`
	Produits        []map[string]any `yaml:"produits" json:"produits"`
}

// LoadFixture reads a YAML fixture from path.
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

var (
	secteurNames    = []string{"Agriculture", "Industrie", "Commerce", "Services", "Technologie", "Tourisme"}
	sousSecteurs    = []string{"Agroalimentaire", "Textile", "Distribution", "Conseil", "Logiciel", "Hotellerie", "Transport"}
	typeNames       = []string{"SARL", "SA", "SAS", "EI", "Cooperative"}
	regionNames     = []string{"Nord", "Sud", "Est", "Ouest", "Centre"}
	legalFormNames  = []string{"SARL", "SA", "SNC", "SCS"}
	entityTypeNames = []string{"startup", "pme", "grande_entreprise"}
)

// Generate builds a synthetic fixture. The same seed yields the same data
// apart from identifiers.
func Generate(entities, products int, seed uint64, now time.Time) *Fixture {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	pick := func(xs []string) string { return xs[r.IntN(len(xs))] }
	stamp := func(maxDays int) string {
		return now.Add(-time.Duration(r.IntN(maxDays*24)) * time.Hour).Format("2006-01-02T15:04:05")
	}

	f := &Fixture{}
	for i, name := range secteurNames {
		f.Secteurs = append(f.Secteurs, map[string]any{"id": i + 1, "nom": name})
	}
	for i, name := range sousSecteurs {
		f.SousSecteurs = append(f.SousSecteurs, map[string]any{"id": i + 1, "nom": name})
	}
	for i, name := range typeNames {
		f.TypeEntreprises = append(f.TypeEntreprises, map[string]any{
			"id":          i + 1,
			"nom":         name,
			"description": name + " company",
			"status":      "ACTIVE",
		})
	}

	for i := 0; i < entities; i++ {
		e := map[string]any{
			"id":               uuid.NewString(),
			"nom":              fmt.Sprintf("Entite %04d", i),
			"type":             pick(entityTypeNames),
			"value":            float64(r.IntN(10_000)) / 100,
			"active":           r.IntN(4) != 0,
			"typeEntrepriseId": r.IntN(len(typeNames)) + 1,
			"region":           pick(regionNames),
			"createdAt":        stamp(730),
		}
		// a fifth of the entities lack business data
		if r.IntN(5) != 0 {
			e["entiteBusiness"] = map[string]any{
				"secteur":        pick(secteurNames),
				"sousSecteur":    pick(sousSecteurs),
				"formeJuridique": pick(legalFormNames),
				"risk":           r.IntN(6),
				"dateCreation":   fmt.Sprintf("%d-%02d-01", 1990+r.IntN(34), 1+r.IntN(12)),
			}
		}
		if r.IntN(3) != 0 {
			e["entiteContact"] = map[string]any{"email": fmt.Sprintf("contact%04d@example.com", i)}
		}
		if r.IntN(2) == 0 {
			e["entiteProducts"] = []any{map[string]any{"nom": "Produit " + pick(sousSecteurs)}}
		}
		f.Entites = append(f.Entites, e)
	}

	for i := 0; i < products; i++ {
		p := map[string]any{
			"id":  uuid.NewString(),
			"nom": fmt.Sprintf("Produit %04d", i),
		}
		// both spellings occur upstream
		if i%2 == 0 {
			p["createdAt"] = stamp(365)
		} else {
			p["created_at"] = stamp(365)
		}
		f.Produits = append(f.Produits, p)
	}
	return f
}
