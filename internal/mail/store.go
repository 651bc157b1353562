package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/velora-dev/backend-velora/internal/repo"
)

// TenantStore yields a tenant's display name and raw config blob.
// Implementations return an error wrapping ErrTenantNotFound when the tenant
// does not exist.
type TenantStore interface {
	TenantConfig(ctx context.Context, tenantID int64) (name string, config json.RawMessage, err error)
}

// RepoStore adapts the tenants repository to the TenantStore contract.
type RepoStore struct {
	Tenants repo.TenantsRepo
}

func (s RepoStore) TenantConfig(ctx context.Context, tenantID int64) (string, json.RawMessage, error) {
	name, cfg, err := s.Tenants.TenantConfig(ctx, tenantID)
	if errors.Is(err, repo.ErrNotFound) {
		return "", nil, fmt.Errorf("%w: tenant %d", ErrTenantNotFound, tenantID)
	}
	if err != nil {
		return "", nil, err
	}
	return name, cfg, nil
}
