// Package catalog serves a tenant's storefront product listings.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/velora-dev/backend-velora/internal/common"
	"github.com/velora-dev/backend-velora/internal/repo"
	"github.com/velora-dev/backend-velora/internal/tenant"
)

// Store is the persistence surface the service needs.
type Store interface {
	List(ctx context.Context, p common.Pagination) ([]repo.Product, int64, error)
	GetBySlug(ctx context.Context, slug string) (repo.Product, error)
}

// Product is the wire shape of a catalog entry.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"priceCents"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListResult bundles one page of products with its pagination metadata.
type ListResult struct {
	Items      []Product         `json:"data"`
	Pagination common.Pagination `json:"pagination"`
}

// Service reads the tenant's catalog, caching list pages and product details
// in Redis under tenant-prefixed keys.
type Service struct {
	Store Store
	Cache *Cache
	Log   zerolog.Logger
}

// List returns one page of the tenant's active products.
func (s *Service) List(ctx context.Context, p common.Pagination) (ListResult, error) {
	tenantID, _ := tenant.FromContext(ctx)
	key := tenant.PrefixKey(tenantID, fmt.Sprintf("catalog:list:%d:%d", p.Page, p.PerPage))

	var cached ListResult
	if hit, err := s.Cache.GetJSON(ctx, key, &cached); err != nil {
		s.Log.Warn().Err(err).Msg("catalog cache read failed")
	} else if hit {
		return cached, nil
	}

	rows, total, err := s.Store.List(ctx, p)
	if err != nil {
		return ListResult{}, mapStoreError(err)
	}
	items := make([]Product, 0, len(rows))
	for _, r := range rows {
		items = append(items, toProduct(r))
	}
	p.TotalItems = total
	result := ListResult{Items: items, Pagination: p}

	if err := s.Cache.SetJSON(ctx, key, result); err != nil {
		s.Log.Warn().Err(err).Msg("catalog cache write failed")
	}
	return result, nil
}

// GetBySlug returns one active product.
func (s *Service) GetBySlug(ctx context.Context, slug string) (Product, error) {
	tenantID, _ := tenant.FromContext(ctx)
	key := tenant.PrefixKey(tenantID, "catalog:product:"+slug)

	var cached Product
	if hit, err := s.Cache.GetJSON(ctx, key, &cached); err != nil {
		s.Log.Warn().Err(err).Msg("catalog cache read failed")
	} else if hit {
		return cached, nil
	}

	row, err := s.Store.GetBySlug(ctx, slug)
	if err != nil {
		return Product{}, mapStoreError(err)
	}
	product := toProduct(row)

	if err := s.Cache.SetJSON(ctx, key, product); err != nil {
		s.Log.Warn().Err(err).Msg("catalog cache write failed")
	}
	return product, nil
}

func toProduct(r repo.Product) Product {
	return Product{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		PriceCents:  r.PriceCents,
		Currency:    r.Currency,
		CreatedAt:   r.CreatedAt,
	}
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return common.NewAppError("PRODUCT_NOT_FOUND", "product not found", http.StatusNotFound, err)
	case errors.Is(err, repo.ErrTenantMissing):
		return common.NewAppError("TENANT_REQUIRED", "tenant could not be resolved", http.StatusBadRequest, err)
	default:
		return common.NewAppError("INTERNAL", "internal error", http.StatusInternalServerError, err)
	}
}
