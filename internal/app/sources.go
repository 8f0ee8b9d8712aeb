package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/okian/bizlens/internal/domain/record"
)

// ErrNoSource is returned for a collaborator that was not configured.
var ErrNoSource = errors.New("source not configured")

// EntitySource lists entities.
type EntitySource interface {
	Entities(ctx context.Context, authorization string) ([]record.Record, error)
}

// TaxonomySource lists the sector, sub-sector and enterprise-type taxonomies.
type TaxonomySource interface {
	Secteurs(ctx context.Context, authorization string) ([]record.Record, error)
	SousSecteurs(ctx context.Context, authorization string) ([]record.Record, error)
	TypeEntreprises(ctx context.Context, authorization string) ([]record.Record, error)
}

// ProductSource lists products.
type ProductSource interface {
	Products(ctx context.Context, authorization string) ([]record.Record, error)
}

type fetchFunc func(ctx context.Context, authorization string) ([]record.Record, error)

// fetch is one collaborator call of a report.
type fetch struct {
	section string
	fn      fetchFunc
	recs    []record.Record
	err     error
}

func (s *Service) entitiesFetch() *fetch {
	f := &fetch{section: "entities"}
	if s.entities != nil {
		f.fn = s.entities.Entities
	}
	return f
}

func (s *Service) productsFetch() *fetch {
	f := &fetch{section: "products"}
	if s.products != nil {
		f.fn = s.products.Products
	}
	return f
}

func (s *Service) taxonomyFetch(section string) *fetch {
	f := &fetch{section: section}
	if s.taxonomy == nil {
		return f
	}
	switch section {
	case "secteurs":
		f.fn = s.taxonomy.Secteurs
	case "sousSecteurs":
		f.fn = s.taxonomy.SousSecteurs
	case "typeEntreprises":
		f.fn = s.taxonomy.TypeEntreprises
	}
	return f
}

// fanOut runs every fetch concurrently. A failed fetch never cancels the
// others; its error is kept on the fetch.
func (s *Service) fanOut(ctx context.Context, authorization string, fetches ...*fetch) {
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range fetches {
		g.Go(func() error {
			if f.fn == nil {
				f.err = ErrNoSource
				return nil
			}
			f.recs, f.err = f.fn(gctx, authorization)
			return nil
		})
	}
	_ = g.Wait()
}
