// Package tenant resolves the owning tenant for each request and exposes it
// through the request context. Every domain entity is scoped by the tenant
// identifier carried here.
package tenant

import (
	"context"
	"strconv"
)

type contextKey string

const tenantContextKey contextKey = "tenant.id"

// WithTenant stores the tenant identifier inside the context.
func WithTenant(ctx context.Context, tenantID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, tenantContextKey, tenantID)
}

// FromContext extracts the tenant identifier from the context if available.
func FromContext(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	tenantID, ok := ctx.Value(tenantContextKey).(int64)
	if !ok || tenantID <= 0 {
		return 0, false
	}
	return tenantID, true
}

// PrefixKey creates a namespaced cache key per tenant identifier.
func PrefixKey(tenantID int64, key string) string {
	if tenantID <= 0 {
		return key
	}
	return strconv.FormatInt(tenantID, 10) + ":" + key
}
