package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/velora-dev/backend-velora/internal/common"
)

// Handler exposes public catalog endpoints.
type Handler struct {
	Service        *Service
	DefaultPerPage int
	MaxPerPage     int
}

// Routes mounts the catalog endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Products)
	r.Get("/{slug}", h.ProductDetail)
	return r
}

// Products handles GET /products with pagination.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	perPage := h.DefaultPerPage
	if perPage <= 0 {
		perPage = 20
	}
	maxPerPage := h.MaxPerPage
	if maxPerPage <= 0 {
		maxPerPage = 100
	}
	p := common.ParsePagination(r, perPage, maxPerPage)

	result, err := h.Service.List(r.Context(), p)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(result.Pagination.TotalItems, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": result.Pagination,
	})
}

// ProductDetail handles GET /products/{slug}.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	product, err := h.Service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, product)
}
