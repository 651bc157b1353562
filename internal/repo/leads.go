package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/velora-dev/backend-velora/internal/common"
)

// Lead is an inbound prospect captured from a tenant's public intake form.
type Lead struct {
	ID               string
	TenantID         int64
	FullName         string
	Email            string
	BusinessName     string
	WhatsAppNumber   string
	Website          string
	Service          string
	CurrentSetup     string
	BudgetRange      string
	MostImportant    string
	Commitment       string
	BiggestPainPoint string
	SalesFollowUp    string
	Status           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// LeadsRepo persists leads scoped to the tenant in context.
type LeadsRepo struct {
	DB DBTX
}

// Create inserts the lead for the tenant in context and fills ID, TenantID
// and timestamps.
func (r LeadsRepo) Create(ctx context.Context, l *Lead) error {
	tid, err := tenantFromContext(ctx)
	if err != nil {
		return err
	}
	l.ID = uuid.NewString()
	l.TenantID = tid
	if l.Status == "" {
		l.Status = "new"
	}
	err = r.DB.QueryRow(ctx, `
		INSERT INTO leads (
			id, tenant_id, full_name, email, business_name, whatsapp_number,
			website, service, current_setup, budget_range, most_important,
			commitment, biggest_pain_point, sales_follow_up, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at`,
		l.ID, l.TenantID, l.FullName, l.Email, l.BusinessName, l.WhatsAppNumber,
		l.Website, l.Service, l.CurrentSetup, l.BudgetRange, l.MostImportant,
		l.Commitment, l.BiggestPainPoint, l.SalesFollowUp, l.Status).
		Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// ListByTenant returns one page of the tenant's leads, newest first, plus the
// total count for pagination.
func (r LeadsRepo) ListByTenant(ctx context.Context, p common.Pagination) ([]Lead, int64, error) {
	tid, err := tenantFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.DB.QueryRow(ctx, `SELECT count(*) FROM leads WHERE tenant_id = $1`, tid).
		Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, tenant_id, full_name, email, business_name, whatsapp_number,
		       website, service, current_setup, budget_range, most_important,
		       commitment, biggest_pain_point, sales_follow_up, status,
		       created_at, updated_at
		FROM leads WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		tid, p.PerPage, (p.Page-1)*p.PerPage)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		var l Lead
		if err := rows.Scan(
			&l.ID, &l.TenantID, &l.FullName, &l.Email, &l.BusinessName, &l.WhatsAppNumber,
			&l.Website, &l.Service, &l.CurrentSetup, &l.BudgetRange, &l.MostImportant,
			&l.Commitment, &l.BiggestPainPoint, &l.SalesFollowUp, &l.Status,
			&l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, 0, mapError(err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err)
	}
	return out, total, nil
}

// GetByID returns one of the tenant's leads or ErrNotFound.
func (r LeadsRepo) GetByID(ctx context.Context, id string) (Lead, error) {
	tid, err := tenantFromContext(ctx)
	if err != nil {
		return Lead{}, err
	}
	var l Lead
	err = r.DB.QueryRow(ctx, `
		SELECT id, tenant_id, full_name, email, business_name, whatsapp_number,
		       website, service, current_setup, budget_range, most_important,
		       commitment, biggest_pain_point, sales_follow_up, status,
		       created_at, updated_at
		FROM leads WHERE tenant_id = $1 AND id = $2`, tid, id).
		Scan(
			&l.ID, &l.TenantID, &l.FullName, &l.Email, &l.BusinessName, &l.WhatsAppNumber,
			&l.Website, &l.Service, &l.CurrentSetup, &l.BudgetRange, &l.MostImportant,
			&l.Commitment, &l.BiggestPainPoint, &l.SalesFollowUp, &l.Status,
			&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return Lead{}, mapError(err)
	}
	return l, nil
}

// UpdateStatus sets the lead's pipeline status and sales note.
func (r LeadsRepo) UpdateStatus(ctx context.Context, id, status, salesFollowUp string) (Lead, error) {
	tid, err := tenantFromContext(ctx)
	if err != nil {
		return Lead{}, err
	}
	var l Lead
	err = r.DB.QueryRow(ctx, `
		UPDATE leads SET status = $3, sales_follow_up = $4, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING id, tenant_id, full_name, email, business_name, whatsapp_number,
		          website, service, current_setup, budget_range, most_important,
		          commitment, biggest_pain_point, sales_follow_up, status,
		          created_at, updated_at`,
		tid, id, status, salesFollowUp).
		Scan(
			&l.ID, &l.TenantID, &l.FullName, &l.Email, &l.BusinessName, &l.WhatsAppNumber,
			&l.Website, &l.Service, &l.CurrentSetup, &l.BudgetRange, &l.MostImportant,
			&l.Commitment, &l.BiggestPainPoint, &l.SalesFollowUp, &l.Status,
			&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return Lead{}, mapError(err)
	}
	return l, nil
}

// Delete removes the lead. Returns ErrNotFound when nothing matched.
func (r LeadsRepo) Delete(ctx context.Context, id string) error {
	tid, err := tenantFromContext(ctx)
	if err != nil {
		return err
	}
	tag, err := r.DB.Exec(ctx, `DELETE FROM leads WHERE tenant_id = $1 AND id = $2`, tid, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
