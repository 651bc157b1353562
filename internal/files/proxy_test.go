package files_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/velora-dev/backend-velora/internal/files"
	"github.com/velora-dev/backend-velora/internal/resilience"
	"github.com/velora-dev/backend-velora/internal/tenant"
)

type stubStore struct {
	configs map[int64]json.RawMessage
}

func (s stubStore) TenantConfig(_ context.Context, tenantID int64) (string, json.RawMessage, error) {
	cfg, ok := s.configs[tenantID]
	if !ok {
		return "", nil, fmt.Errorf("tenant %d not found", tenantID)
	}
	return "Acme", cfg, nil
}

func newProxy(store files.TenantStore) *files.LogoProxy {
	return &files.LogoProxy{
		Store:  store,
		Client: resilience.HTTPClient{Client: http.DefaultClient, MaxAttempts: 1},
		Log:    zerolog.Nop(),
	}
}

func serve(p *files.LogoProxy, tenantID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/files/logo", nil)
	if tenantID != 0 {
		req = req.WithContext(tenant.WithTenant(req.Context(), tenantID))
	}
	rec := httptest.NewRecorder()
	p.ServeLogo(rec, req)
	return rec
}

func TestServeLogo(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	t.Cleanup(upstream.Close)

	store := stubStore{configs: map[int64]json.RawMessage{
		1: json.RawMessage(fmt.Sprintf(`{"branding": {"logoUrl": %q}}`, upstream.URL+"/logo.png")),
	}}

	rec := serve(newProxy(store), 1)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))
	require.Equal(t, "png-bytes", rec.Body.String())
}

func TestServeLogoErrors(t *testing.T) {
	t.Parallel()

	store := stubStore{configs: map[int64]json.RawMessage{
		1: json.RawMessage(`{"branding": {}}`),
		2: json.RawMessage(`{"branding": {"logoUrl": "ftp://nope/logo.png"}}`),
	}}
	p := newProxy(store)

	rec := serve(p, 0)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(p, 1)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "LOGO_NOT_CONFIGURED")

	rec = serve(p, 2)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	rec = serve(p, 99)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeLogoUpstreamFailure(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(upstream.Close)

	store := stubStore{configs: map[int64]json.RawMessage{
		1: json.RawMessage(fmt.Sprintf(`{"branding": {"logoUrl": %q}}`, upstream.URL)),
	}}

	rec := serve(newProxy(store), 1)
	require.Equal(t, http.StatusBadGateway, rec.Code)
}
