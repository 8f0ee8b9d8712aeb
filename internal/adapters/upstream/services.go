package upstream

import (
	"context"

	"github.com/okian/bizlens/internal/domain/record"
)

// Collaborator paths.
const (
	PathEntites         = "/api/entites"
	PathSecteurs        = "/api/secteurs"
	PathSousSecteurs    = "/api/sous-secteurs"
	PathTypeEntreprises = "/api/type-entreprises"
	PathProduits        = "/api/produits"
)

// EntiteClient reads entity records.
type EntiteClient struct{ *Client }

// NewEntiteClient creates a client for the entity service.
func NewEntiteClient(baseURL string, opts ...Option) *EntiteClient {
	return &EntiteClient{NewClient("entite", baseURL, opts...)}
}

// Entities lists all entities.
func (c *EntiteClient) Entities(ctx context.Context, authorization string) ([]record.Record, error) {
	return c.Fetch(ctx, PathEntites, authorization)
}

// ParametrageClient reads the sector and company-type taxonomies.
type ParametrageClient struct{ *Client }

// NewParametrageClient creates a client for the taxonomy service.
func NewParametrageClient(baseURL string, opts ...Option) *ParametrageClient {
	return &ParametrageClient{NewClient("parametrage", baseURL, opts...)}
}

func (c *ParametrageClient) Secteurs(ctx context.Context, authorization string) ([]record.Record, error) {
	return c.Fetch(ctx, PathSecteurs, authorization)
}

func (c *ParametrageClient) SousSecteurs(ctx context.Context, authorization string) ([]record.Record, error) {
	return c.Fetch(ctx, PathSousSecteurs, authorization)
}

func (c *ParametrageClient) TypeEntreprises(ctx context.Context, authorization string) ([]record.Record, error) {
	return c.Fetch(ctx, PathTypeEntreprises, authorization)
}

// ProduitClient reads product records.
type ProduitClient struct{ *Client }

// NewProduitClient creates a client for the product service.
func NewProduitClient(baseURL string, opts ...Option) *ProduitClient {
	return &ProduitClient{NewClient("produit", baseURL, opts...)}
}

// Products lists all products.
func (c *ProduitClient) Products(ctx context.Context, authorization string) ([]record.Record, error) {
	return c.Fetch(ctx, PathProduits, authorization)
}
