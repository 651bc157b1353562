package security_test

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velora-dev/backend-velora/internal/security"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHeadersMiddleware(t *testing.T) {
	t.Parallel()

	h := security.Headers{Enable: true, EnableHSTS: true, HSTSIncludeSubdomains: true}
	handler := h.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "https://api.velora.dev/health/live", nil)
	req.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	headers := rr.Result().Header
	require.Equal(t, "nosniff", headers.Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", headers.Get("X-Frame-Options"))
	require.Contains(t, headers.Get("Content-Security-Policy"), "default-src 'none'")
	require.Equal(t, "max-age=31536000; includeSubDomains", headers.Get("Strict-Transport-Security"))
}

func TestHeadersSkipsHSTSOverPlainHTTP(t *testing.T) {
	t.Parallel()

	h := security.Headers{Enable: true, EnableHSTS: true}
	handler := h.Middleware(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://api.velora.dev/", nil))

	require.Empty(t, rr.Header().Get("Strict-Transport-Security"))
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestHeadersDisabled(t *testing.T) {
	t.Parallel()

	handler := security.Headers{}.Middleware(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://api.velora.dev/", nil))

	require.Empty(t, rr.Header().Get("X-Content-Type-Options"))
}
