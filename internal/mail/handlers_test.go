package mail_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/velora-dev/backend-velora/internal/mail"
	"github.com/velora-dev/backend-velora/internal/tenant"
)

func newHandler(store mail.TenantStore, builder mail.TransportBuilder) *mail.Handler {
	return &mail.Handler{Service: &mail.Service{
		Store:   store,
		Builder: builder,
		Cache:   mail.NewTransportCache(0),
		Log:     zerolog.Nop(),
	}}
}

func doRequest(h http.Handler, method, target, body string, tenantID int64) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if tenantID != 0 {
		req = req.WithContext(tenant.WithTenant(req.Context(), tenantID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestVerifyEndpoint(t *testing.T) {
	t.Parallel()

	store := stubStore{configs: map[int64]json.RawMessage{1: activeSMTPBlob("p")}}
	h := newHandler(store, &recordingBuilder{}).Routes()

	rec := doRequest(h, http.MethodPost, "/verify", "", 1)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data": {"verified": true}}`, rec.Body.String())

	rec = doRequest(h, http.MethodPost, "/verify", "", 42)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data": {"verified": false}}`, rec.Body.String())

	rec = doRequest(h, http.MethodPost, "/verify", "", 0)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendTestEndpoint(t *testing.T) {
	t.Parallel()

	store := stubStore{configs: map[int64]json.RawMessage{1: activeSMTPBlob("p")}}
	builder := &recordingBuilder{}
	h := newHandler(store, builder).Routes()

	rec := doRequest(h, http.MethodPost, "/test", `{"to": "me@x.dev"}`, 1)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			MessageID string `json:"messageId"`
			Success   bool   `json:"success"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Data.Success)
	require.NotEmpty(t, body.Data.MessageID)

	sent := builder.transport.envelopes()
	require.Len(t, sent, 1)
	require.Equal(t, "me@x.dev", sent[0].Recipients())

	rec = doRequest(h, http.MethodPost, "/test", `{}`, 1)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendTestMapsNotConfigured(t *testing.T) {
	t.Parallel()

	store := stubStore{configs: map[int64]json.RawMessage{1: json.RawMessage(`{}`)}}
	h := newHandler(store, &recordingBuilder{}).Routes()

	rec := doRequest(h, http.MethodPost, "/test", `{"to": "me@x.dev"}`, 1)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "EMAIL_NOT_CONFIGURED")
}

func TestClearCacheEndpoint(t *testing.T) {
	t.Parallel()

	store := stubStore{configs: map[int64]json.RawMessage{1: activeSMTPBlob("p")}}
	builder := &recordingBuilder{}
	handler := newHandler(store, builder)
	h := handler.Routes()

	rec := doRequest(h, http.MethodPost, "/test", `{"to": "me@x.dev"}`, 1)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, builder.buildCount())

	rec = doRequest(h, http.MethodDelete, "/transport-cache", "", 1)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, http.MethodPost, "/test", `{"to": "me@x.dev"}`, 1)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, builder.buildCount())

	rec = doRequest(h, http.MethodDelete, "/transport-cache?all=true", "", 0)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data": {"cleared": "all"}}`, rec.Body.String())
}
