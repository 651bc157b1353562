package repo

import (
	"context"
	"time"

	"github.com/velora-dev/backend-velora/internal/common"
)

// Product is one sellable item in a tenant's catalog.
type Product struct {
	ID          int64
	TenantID    int64
	Name        string
	Slug        string
	Description string
	PriceCents  int64
	Currency    string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductsRepo reads a tenant's catalog.
type ProductsRepo struct {
	DB DBTX
}

// List returns one page of active products for the tenant in context.
func (r ProductsRepo) List(ctx context.Context, p common.Pagination) ([]Product, int64, error) {
	tid, err := tenantFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.DB.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE tenant_id = $1 AND is_active`, tid).
		Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, tenant_id, name, slug, description, price_cents, currency,
		       is_active, created_at, updated_at
		FROM products WHERE tenant_id = $1 AND is_active
		ORDER BY name
		LIMIT $2 OFFSET $3`,
		tid, p.PerPage, (p.Page-1)*p.PerPage)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var pr Product
		if err := rows.Scan(
			&pr.ID, &pr.TenantID, &pr.Name, &pr.Slug, &pr.Description,
			&pr.PriceCents, &pr.Currency, &pr.IsActive, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
			return nil, 0, mapError(err)
		}
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err)
	}
	return out, total, nil
}

// GetBySlug returns the tenant's product matching the slug or ErrNotFound.
func (r ProductsRepo) GetBySlug(ctx context.Context, slug string) (Product, error) {
	tid, err := tenantFromContext(ctx)
	if err != nil {
		return Product{}, err
	}
	var pr Product
	err = r.DB.QueryRow(ctx, `
		SELECT id, tenant_id, name, slug, description, price_cents, currency,
		       is_active, created_at, updated_at
		FROM products WHERE tenant_id = $1 AND slug = $2 AND is_active`, tid, slug).
		Scan(
			&pr.ID, &pr.TenantID, &pr.Name, &pr.Slug, &pr.Description,
			&pr.PriceCents, &pr.Currency, &pr.IsActive, &pr.CreatedAt, &pr.UpdatedAt)
	if err != nil {
		return Product{}, mapError(err)
	}
	return pr, nil
}
