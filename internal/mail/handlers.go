package mail

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/velora-dev/backend-velora/internal/common"
	"github.com/velora-dev/backend-velora/internal/tenant"
)

// Handler exposes admin endpoints for managing a tenant's email settings.
type Handler struct {
	Service *Service
}

// Routes mounts the email admin endpoints. Callers wrap these with the
// authenticated admin middleware.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/verify", h.Verify)
	r.Post("/test", h.SendTest)
	r.Delete("/transport-cache", h.ClearCache)
	return r
}

// Verify handles POST /admin/email/verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	verified := h.Service.VerifyConfig(r.Context(), tenantID)
	common.JSONData(w, http.StatusOK, map[string]any{"verified": verified})
}

type sendTestRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SendTest handles POST /admin/email/test, dispatching a message through the
// tenant's own configured provider.
func (h *Handler) SendTest(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	var req sendTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if req.To == "" {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "field \"to\" is required", nil)
		return
	}
	if req.Subject == "" {
		req.Subject = "Test email"
	}
	if req.Message == "" {
		req.Message = "<p>Your email settings are working.</p>"
	}

	res, err := h.Service.SendEmail(r.Context(), Message{
		TenantID: tenantID,
		To:       []string{req.To},
		Subject:  req.Subject,
		HTML:     req.Message,
	})
	if err != nil {
		common.RenderError(w, h.mapError(err))
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"messageId": res.MessageID,
		"success":   res.Success,
	})
}

// ClearCache handles DELETE /admin/email/transport-cache. With ?all=true it
// drops every tenant's cached transport, otherwise only the caller's.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("all") == "true" {
		h.Service.ClearTransportCache()
		common.JSONData(w, http.StatusOK, map[string]any{"cleared": "all"})
		return
	}
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}
	h.Service.EvictTransport(tenantID)
	common.JSONData(w, http.StatusOK, map[string]any{"cleared": tenantID})
}

func (h *Handler) mapError(err error) error {
	var dispatch *DispatchError
	if !errors.As(err, &dispatch) {
		return err
	}
	switch {
	case errors.Is(dispatch.Err, ErrTenantNotFound):
		return common.NewAppError("TENANT_NOT_FOUND", "tenant not found", http.StatusNotFound, err)
	case errors.Is(dispatch.Err, ErrNotConfigured):
		return common.NewAppError("EMAIL_NOT_CONFIGURED", "tenant has no active email configuration", http.StatusBadRequest, err)
	case errors.Is(dispatch.Err, ErrUnsupportedProvider):
		return common.NewAppError("UNSUPPORTED_PROVIDER", "email provider is not supported", http.StatusBadRequest, err)
	case errors.Is(dispatch.Err, ErrNotImplemented):
		return common.NewAppError("PROVIDER_NOT_IMPLEMENTED", "email provider is not implemented yet", http.StatusBadRequest, err)
	default:
		var cfgErr *ConfigError
		if errors.As(dispatch.Err, &cfgErr) {
			return common.NewAppError("EMAIL_CONFIG_INVALID", cfgErr.Error(), http.StatusBadRequest, err)
		}
		return &common.AppError{
			Code:       "EMAIL_DISPATCH_FAILED",
			Message:    "email could not be sent",
			HTTPStatus: http.StatusBadGateway,
			Err:        err,
		}
	}
}
