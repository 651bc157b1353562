// Package repo provides tenant-scoped persistence over pgx. Every query that
// touches tenant-owned data derives the tenant identifier from the request
// context and refuses to run without one.
package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/velora-dev/backend-velora/internal/tenant"
)

var (
	// ErrNotFound indicates the requested row does not exist for this tenant.
	ErrNotFound = errors.New("repo: not found")
	// ErrTenantMissing indicates the tenant identifier was not found in context.
	ErrTenantMissing = errors.New("repo: tenant missing")
	// ErrDuplicate indicates a unique constraint was violated.
	ErrDuplicate = errors.New("repo: duplicate")
)

// DBTX abstracts the pgx surface shared by pools, connections, and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func tenantFromContext(ctx context.Context) (int64, error) {
	tenantID, ok := tenant.FromContext(ctx)
	if !ok {
		return 0, ErrTenantMissing
	}
	return tenantID, nil
}

const uniqueViolation = "23505"

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
