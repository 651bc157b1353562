// Package leads implements the tenant-scoped lead intake workflow: public
// form submissions, the admin pipeline endpoints, and the hand-off to the
// best-effort notification fan-out.
package leads

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/velora-dev/backend-velora/internal/common"
	"github.com/velora-dev/backend-velora/internal/obs"
	"github.com/velora-dev/backend-velora/internal/repo"
)

// Statuses a lead can move through in the pipeline.
var allowedStatuses = map[string]bool{
	"new":       true,
	"contacted": true,
	"qualified": true,
	"won":       true,
	"lost":      true,
}

// Store is the persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, l *repo.Lead) error
	ListByTenant(ctx context.Context, p common.Pagination) ([]repo.Lead, int64, error)
	GetByID(ctx context.Context, id string) (repo.Lead, error)
	UpdateStatus(ctx context.Context, id, status, salesFollowUp string) (repo.Lead, error)
	Delete(ctx context.Context, id string) error
}

// Notifier fans out the lead notifications. Implementations never return an
// error; delivery is best effort.
type Notifier interface {
	SendLeadNotifications(ctx context.Context, lead repo.Lead)
}

// CreateInput is the public intake form payload.
type CreateInput struct {
	FullName         string `json:"fullName" validate:"required,min=2,max=120"`
	Email            string `json:"email" validate:"required,email"`
	BusinessName     string `json:"businessName" validate:"omitempty,max=160"`
	WhatsAppNumber   string `json:"whatsappNumber" validate:"omitempty,max=32"`
	Website          string `json:"website" validate:"omitempty,url"`
	Service          string `json:"service" validate:"omitempty,max=120"`
	CurrentSetup     string `json:"currentSetup" validate:"omitempty,max=500"`
	BudgetRange      string `json:"budgetRange" validate:"omitempty,max=60"`
	MostImportant    string `json:"mostImportant" validate:"omitempty,max=500"`
	Commitment       string `json:"commitment" validate:"omitempty,max=120"`
	BiggestPainPoint string `json:"biggestPainPoint" validate:"omitempty,max=500"`
}

// UpdateInput moves a lead through the pipeline.
type UpdateInput struct {
	Status        string `json:"status" validate:"required"`
	SalesFollowUp string `json:"salesFollowUp" validate:"omitempty,max=1000"`
}

// Service coordinates lead persistence and notification hand-off.
type Service struct {
	Store    Store
	Notifier Notifier
	Validate *validator.Validate
	Log      zerolog.Logger
}

// Create validates and persists the lead, then fires the notification
// fan-out on a detached goroutine. The submitter never waits on, or
// observes, notification delivery.
func (s *Service) Create(ctx context.Context, in CreateInput) (repo.Lead, error) {
	if err := s.validateInput(in); err != nil {
		countSubmission("invalid")
		return repo.Lead{}, err
	}

	lead := repo.Lead{
		FullName:         strings.TrimSpace(in.FullName),
		Email:            strings.ToLower(strings.TrimSpace(in.Email)),
		BusinessName:     strings.TrimSpace(in.BusinessName),
		WhatsAppNumber:   strings.TrimSpace(in.WhatsAppNumber),
		Website:          strings.TrimSpace(in.Website),
		Service:          strings.TrimSpace(in.Service),
		CurrentSetup:     strings.TrimSpace(in.CurrentSetup),
		BudgetRange:      strings.TrimSpace(in.BudgetRange),
		MostImportant:    strings.TrimSpace(in.MostImportant),
		Commitment:       strings.TrimSpace(in.Commitment),
		BiggestPainPoint: strings.TrimSpace(in.BiggestPainPoint),
	}
	if err := s.Store.Create(ctx, &lead); err != nil {
		countSubmission("error")
		return repo.Lead{}, mapStoreError(err)
	}
	countSubmission("ok")

	s.Log.Info().
		Int64("tenant_id", lead.TenantID).
		Str("lead_id", lead.ID).
		Msg("lead created")

	if s.Notifier != nil {
		// Detached from the request lifecycle so a slow provider cannot
		// stall or fail the submission.
		go s.Notifier.SendLeadNotifications(context.WithoutCancel(ctx), lead)
	}
	return lead, nil
}

// List returns one page of the tenant's leads.
func (s *Service) List(ctx context.Context, p common.Pagination) ([]repo.Lead, int64, error) {
	rows, total, err := s.Store.ListByTenant(ctx, p)
	if err != nil {
		return nil, 0, mapStoreError(err)
	}
	return rows, total, nil
}

// Get returns one lead.
func (s *Service) Get(ctx context.Context, id string) (repo.Lead, error) {
	lead, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return repo.Lead{}, mapStoreError(err)
	}
	return lead, nil
}

// Update moves the lead to a new pipeline status.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (repo.Lead, error) {
	if err := s.validateInput(in); err != nil {
		return repo.Lead{}, err
	}
	status := strings.ToLower(strings.TrimSpace(in.Status))
	if !allowedStatuses[status] {
		return repo.Lead{}, common.NewAppError("VALIDATION", fmt.Sprintf("unknown status %q", in.Status), http.StatusBadRequest, nil)
	}
	lead, err := s.Store.UpdateStatus(ctx, id, status, strings.TrimSpace(in.SalesFollowUp))
	if err != nil {
		return repo.Lead{}, mapStoreError(err)
	}
	return lead, nil
}

// Delete removes the lead.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (s *Service) validateInput(in any) error {
	v := s.Validate
	if v == nil {
		v = validator.New()
	}
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	details := map[string]string{}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			details[fe.Field()] = fe.Tag()
		}
	}
	return &common.AppError{
		Code:       "VALIDATION",
		Message:    "request validation failed",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details:    details,
	}
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return common.NewAppError("LEAD_NOT_FOUND", "lead not found", http.StatusNotFound, err)
	case errors.Is(err, repo.ErrTenantMissing):
		return common.NewAppError("TENANT_REQUIRED", "tenant could not be resolved", http.StatusBadRequest, err)
	default:
		return common.NewAppError("INTERNAL", "internal error", http.StatusInternalServerError, err)
	}
}

func countSubmission(result string) {
	if obs.LeadSubmissionsTotal != nil {
		obs.LeadSubmissionsTotal.WithLabelValues(result).Inc()
	}
}
