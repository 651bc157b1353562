// Package order exposes a tenant's order history to its dashboard.
package order

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/velora-dev/backend-velora/internal/common"
	"github.com/velora-dev/backend-velora/internal/repo"
)

// Store is the persistence surface the handlers need.
type Store interface {
	List(ctx context.Context, p common.Pagination) ([]repo.Order, int64, error)
	GetByID(ctx context.Context, id string) (repo.Order, error)
}

// orderResponse is the wire shape of an order.
type orderResponse struct {
	ID            string    `json:"id"`
	CustomerEmail string    `json:"customerEmail"`
	TotalCents    int64     `json:"totalCents"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toResponse(o repo.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		CustomerEmail: o.CustomerEmail,
		TotalCents:    o.TotalCents,
		Currency:      o.Currency,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// Handler exposes the order read endpoints.
type Handler struct {
	Store Store
}

// Routes mounts the order endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	return r
}

// List handles GET /admin/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := common.ParsePagination(r, 20, 100)
	rows, total, err := h.Store.List(r.Context(), p)
	if err != nil {
		common.RenderError(w, mapStoreError(err))
		return
	}
	out := make([]orderResponse, 0, len(rows))
	for _, o := range rows {
		out = append(out, toResponse(o))
	}
	p.TotalItems = total
	common.JSON(w, http.StatusOK, map[string]any{"data": out, "pagination": p})
}

// Get handles GET /admin/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.Store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, mapStoreError(err))
		return
	}
	common.JSONData(w, http.StatusOK, toResponse(o))
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return common.NewAppError("ORDER_NOT_FOUND", "order not found", http.StatusNotFound, err)
	case errors.Is(err, repo.ErrTenantMissing):
		return common.NewAppError("TENANT_REQUIRED", "tenant could not be resolved", http.StatusBadRequest, err)
	default:
		return common.NewAppError("INTERNAL", "internal error", http.StatusInternalServerError, err)
	}
}
