package repo

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Tenant represents a business account and its free-form configuration blob.
type Tenant struct {
	ID        int64
	Name      string
	Slug      string
	Status    string
	Industry  string
	Config    json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TenantDomain maps a fully qualified domain to its owning tenant.
type TenantDomain struct {
	TenantID  int64
	Domain    string
	IsPrimary bool
	IsActive  bool
}

// TenantsRepo reads and updates tenant records.
type TenantsRepo struct {
	DB DBTX
}

// GetByID returns the tenant or ErrNotFound.
func (r TenantsRepo) GetByID(ctx context.Context, id int64) (Tenant, error) {
	var t Tenant
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, slug, status, industry, config, created_at, updated_at
		FROM tenants WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Slug, &t.Status, &t.Industry, &t.Config, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Tenant{}, mapError(err)
	}
	return t, nil
}

// GetBySlug returns the tenant matching the slug or ErrNotFound.
func (r TenantsRepo) GetBySlug(ctx context.Context, slug string) (Tenant, error) {
	var t Tenant
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, slug, status, industry, config, created_at, updated_at
		FROM tenants WHERE slug = $1`, strings.ToLower(strings.TrimSpace(slug))).
		Scan(&t.ID, &t.Name, &t.Slug, &t.Status, &t.Industry, &t.Config, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Tenant{}, mapError(err)
	}
	return t, nil
}

// TenantConfig returns the tenant's name and raw config blob. Implements the
// narrow store contracts used by the mail dispatcher.
func (r TenantsRepo) TenantConfig(ctx context.Context, id int64) (string, json.RawMessage, error) {
	var (
		name   string
		config json.RawMessage
	)
	err := r.DB.QueryRow(ctx, `SELECT name, config FROM tenants WHERE id = $1`, id).
		Scan(&name, &config)
	if err != nil {
		return "", nil, mapError(err)
	}
	return name, config, nil
}

// TenantIDByDomain resolves an active domain to its owning tenant. Implements
// tenant.DomainLookup.
func (r TenantsRepo) TenantIDByDomain(ctx context.Context, domain string) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		SELECT tenant_id FROM tenant_domains
		WHERE domain = $1 AND is_active`, strings.ToLower(strings.TrimSpace(domain))).
		Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

// UpdateConfig replaces the tenant's config blob.
func (r TenantsRepo) UpdateConfig(ctx context.Context, id int64, config json.RawMessage) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE tenants SET config = $2, updated_at = now() WHERE id = $1`, id, config)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
