// Package files proxies tenant-branded assets that live on external storage
// so storefront pages can reference them from the API origin.
package files

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/velora-dev/backend-velora/internal/common"
	"github.com/velora-dev/backend-velora/internal/resilience"
	"github.com/velora-dev/backend-velora/internal/tenant"
)

// TenantStore yields the tenant's raw config blob.
type TenantStore interface {
	TenantConfig(ctx context.Context, tenantID int64) (name string, config json.RawMessage, err error)
}

// LogoProxy serves the tenant's logo by fetching it from the URL stored in
// the tenant's branding config. Responses carry a day-long cache header so
// browsers and CDNs absorb repeat traffic.
type LogoProxy struct {
	Store  TenantStore
	Client resilience.HTTPClient
	Log    zerolog.Logger
}

const logoCacheControl = "public, max-age=86400"

// ServeLogo handles GET /files/logo.
func (p *LogoProxy) ServeLogo(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant could not be resolved", nil)
		return
	}

	logoURL, err := p.logoURL(r.Context(), tenantID)
	if err != nil {
		common.RenderError(w, err)
		return
	}

	req, err := http.NewRequest(http.MethodGet, logoURL, nil)
	if err != nil {
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM", "logo could not be fetched", nil)
		return
	}
	resp, err := p.Client.Do(r.Context(), req)
	if err != nil {
		if errors.Is(err, resilience.ErrOpenCircuit) {
			common.JSONError(w, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "logo storage is unavailable", nil)
			return
		}
		p.Log.Warn().Err(err).Int64("tenant_id", tenantID).Msg("logo fetch failed")
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM", "logo could not be fetched", nil)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM", "logo could not be fetched", nil)
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", logoCacheControl)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		p.Log.Debug().Err(err).Msg("logo stream interrupted")
	}
}

func (p *LogoProxy) logoURL(ctx context.Context, tenantID int64) (string, error) {
	_, raw, err := p.Store.TenantConfig(ctx, tenantID)
	if err != nil {
		return "", common.NewAppError("TENANT_NOT_FOUND", "tenant not found", http.StatusNotFound, err)
	}
	var blob struct {
		Branding struct {
			LogoURL string `json:"logoUrl"`
		} `json:"branding"`
	}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &blob)
	}
	if blob.Branding.LogoURL == "" {
		return "", common.NewAppError("LOGO_NOT_CONFIGURED", "tenant has no logo configured", http.StatusNotFound, nil)
	}
	u, err := url.Parse(blob.Branding.LogoURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", common.NewAppError("LOGO_INVALID", "tenant logo URL is invalid", http.StatusBadGateway, err)
	}
	return blob.Branding.LogoURL, nil
}
