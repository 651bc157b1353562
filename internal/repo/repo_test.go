package repo_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/velora-dev/backend-velora/internal/common"
	"github.com/velora-dev/backend-velora/internal/repo"
	"github.com/velora-dev/backend-velora/internal/tenant"
)

// stubRow returns a fixed error from Scan.
type stubRow struct{ err error }

func (r stubRow) Scan(...any) error { return r.err }

// stubDB serves every query from canned row errors.
type stubDB struct {
	rowErr error
}

func (s stubDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, s.rowErr
}

func (s stubDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, s.rowErr
}

func (s stubDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return stubRow{err: s.rowErr}
}

func TestLeadsRequireTenant(t *testing.T) {
	t.Parallel()

	leads := repo.LeadsRepo{DB: stubDB{}}

	_, _, err := leads.ListByTenant(context.Background(), common.Pagination{Page: 1, PerPage: 20})
	require.ErrorIs(t, err, repo.ErrTenantMissing)

	_, err = leads.GetByID(context.Background(), "abc")
	require.ErrorIs(t, err, repo.ErrTenantMissing)

	err = leads.Create(context.Background(), &repo.Lead{FullName: "Jo", Email: "jo@x.dev"})
	require.ErrorIs(t, err, repo.ErrTenantMissing)
}

func TestNoRowsMapsToNotFound(t *testing.T) {
	t.Parallel()

	ctx := tenant.WithTenant(context.Background(), 7)
	db := stubDB{rowErr: pgx.ErrNoRows}

	_, err := repo.LeadsRepo{DB: db}.GetByID(ctx, "missing")
	require.ErrorIs(t, err, repo.ErrNotFound)

	_, err = repo.ProductsRepo{DB: db}.GetBySlug(ctx, "missing")
	require.ErrorIs(t, err, repo.ErrNotFound)

	_, err = repo.OrdersRepo{DB: db}.GetByID(ctx, "missing")
	require.ErrorIs(t, err, repo.ErrNotFound)

	_, err = repo.TenantsRepo{DB: db}.GetByID(context.Background(), 404)
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestDuplicateMapsToErrDuplicate(t *testing.T) {
	t.Parallel()

	ctx := tenant.WithTenant(context.Background(), 7)
	db := stubDB{rowErr: &pgconn.PgError{Code: "23505"}}

	err := repo.LeadsRepo{DB: db}.Create(ctx, &repo.Lead{FullName: "Jo", Email: "jo@x.dev"})
	require.ErrorIs(t, err, repo.ErrDuplicate)
}
