package order_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velora-dev/backend-velora/internal/common"
	"github.com/velora-dev/backend-velora/internal/order"
	"github.com/velora-dev/backend-velora/internal/repo"
	"github.com/velora-dev/backend-velora/internal/tenant"
)

type stubStore struct {
	orders []repo.Order
}

func (s stubStore) List(ctx context.Context, p common.Pagination) ([]repo.Order, int64, error) {
	tid, ok := tenant.FromContext(ctx)
	if !ok {
		return nil, 0, repo.ErrTenantMissing
	}
	var out []repo.Order
	for _, o := range s.orders {
		if o.TenantID == tid {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (s stubStore) GetByID(ctx context.Context, id string) (repo.Order, error) {
	tid, ok := tenant.FromContext(ctx)
	if !ok {
		return repo.Order{}, repo.ErrTenantMissing
	}
	for _, o := range s.orders {
		if o.TenantID == tid && o.ID == id {
			return o, nil
		}
	}
	return repo.Order{}, repo.ErrNotFound
}

func get(h http.Handler, target string, tenantID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if tenantID != 0 {
		req = req.WithContext(tenant.WithTenant(req.Context(), tenantID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOrderEndpoints(t *testing.T) {
	t.Parallel()

	store := stubStore{orders: []repo.Order{
		{ID: "ord-1", TenantID: 7, CustomerEmail: "a@x.dev", TotalCents: 12300, Currency: "USD", Status: "paid"},
		{ID: "ord-2", TenantID: 8, CustomerEmail: "b@y.dev", TotalCents: 500, Currency: "USD", Status: "pending"},
	}}
	h := (&order.Handler{Store: store}).Routes()

	rec := get(h, "/", 7)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ord-1")
	require.NotContains(t, rec.Body.String(), "ord-2")

	rec = get(h, "/ord-1", 7)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"paid"`)

	// Cross-tenant access is a miss.
	rec = get(h, "/ord-2", 7)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(h, "/", 0)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
