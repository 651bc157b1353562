package repo

import (
	"context"
	"time"

	"github.com/velora-dev/backend-velora/internal/common"
)

// Order is a customer purchase recorded under a tenant.
type Order struct {
	ID            string
	TenantID      int64
	CustomerEmail string
	TotalCents    int64
	Currency      string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrdersRepo reads a tenant's orders.
type OrdersRepo struct {
	DB DBTX
}

// List returns one page of the tenant's orders, newest first.
func (r OrdersRepo) List(ctx context.Context, p common.Pagination) ([]Order, int64, error) {
	tid, err := tenantFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.DB.QueryRow(ctx, `SELECT count(*) FROM orders WHERE tenant_id = $1`, tid).
		Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, tenant_id, customer_email, total_cents, currency, status,
		       created_at, updated_at
		FROM orders WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		tid, p.PerPage, (p.Page-1)*p.PerPage)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.TenantID, &o.CustomerEmail, &o.TotalCents, &o.Currency,
			&o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, mapError(err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err)
	}
	return out, total, nil
}

// GetByID returns one of the tenant's orders or ErrNotFound.
func (r OrdersRepo) GetByID(ctx context.Context, id string) (Order, error) {
	tid, err := tenantFromContext(ctx)
	if err != nil {
		return Order{}, err
	}
	var o Order
	err = r.DB.QueryRow(ctx, `
		SELECT id, tenant_id, customer_email, total_cents, currency, status,
		       created_at, updated_at
		FROM orders WHERE tenant_id = $1 AND id = $2`, tid, id).
		Scan(
			&o.ID, &o.TenantID, &o.CustomerEmail, &o.TotalCents, &o.Currency,
			&o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, mapError(err)
	}
	return o, nil
}
