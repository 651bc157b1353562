package leads

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/velora-dev/backend-velora/internal/common"
	"github.com/velora-dev/backend-velora/internal/repo"
	"github.com/velora-dev/backend-velora/internal/security"
)

// leadResponse is the wire shape of a lead.
type leadResponse struct {
	ID               string    `json:"id"`
	FullName         string    `json:"fullName"`
	Email            string    `json:"email"`
	BusinessName     string    `json:"businessName,omitempty"`
	WhatsAppNumber   string    `json:"whatsappNumber,omitempty"`
	Website          string    `json:"website,omitempty"`
	Service          string    `json:"service,omitempty"`
	CurrentSetup     string    `json:"currentSetup,omitempty"`
	BudgetRange      string    `json:"budgetRange,omitempty"`
	MostImportant    string    `json:"mostImportant,omitempty"`
	Commitment       string    `json:"commitment,omitempty"`
	BiggestPainPoint string    `json:"biggestPainPoint,omitempty"`
	SalesFollowUp    string    `json:"salesFollowUp,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func toResponse(l repo.Lead) leadResponse {
	return leadResponse{
		ID:               l.ID,
		FullName:         l.FullName,
		Email:            l.Email,
		BusinessName:     l.BusinessName,
		WhatsAppNumber:   l.WhatsAppNumber,
		Website:          l.Website,
		Service:          l.Service,
		CurrentSetup:     l.CurrentSetup,
		BudgetRange:      l.BudgetRange,
		MostImportant:    l.MostImportant,
		Commitment:       l.Commitment,
		BiggestPainPoint: l.BiggestPainPoint,
		SalesFollowUp:    l.SalesFollowUp,
		Status:           l.Status,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

// Handler exposes the lead endpoints.
type Handler struct {
	Service *Service
}

// PublicRoutes mounts the unauthenticated intake endpoint. The caller wraps
// it with the submission rate limiter.
func (h *Handler) PublicRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	return r
}

// AdminRoutes mounts the pipeline management endpoints.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// Create handles POST /leads.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		if security.IsBodyTooLarge(err) {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body exceeds the allowed size", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	lead, err := h.Service.Create(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, toResponse(lead))
}

// List handles GET /admin/leads.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := common.ParsePagination(r, 20, 100)
	rows, total, err := h.Service.List(r.Context(), p)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	out := make([]leadResponse, 0, len(rows))
	for _, l := range rows {
		out = append(out, toResponse(l))
	}
	p.TotalItems = total
	common.JSON(w, http.StatusOK, map[string]any{"data": out, "pagination": p})
}

// Get handles GET /admin/leads/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	lead, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, toResponse(lead))
}

// Update handles PATCH /admin/leads/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	lead, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, toResponse(lead))
}

// Delete handles DELETE /admin/leads/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
