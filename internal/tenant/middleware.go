package tenant

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrUnknownDomain indicates no active tenant owns the requested domain.
var ErrUnknownDomain = errors.New("tenant: unknown domain")

// DomainLookup resolves a fully qualified domain to its owning tenant.
type DomainLookup interface {
	TenantIDByDomain(ctx context.Context, domain string) (int64, error)
}

// Resolver resolves tenant identifiers from HTTP requests. Resolution order:
// an identifier already present on the context (set by the auth middleware
// from the JWT claim), the configured override header, then the request host
// matched against the tenant domain table. Domain lookups are cached in
// Redis to keep the hot path off the database.
type Resolver struct {
	Domains    DomainLookup
	Cache      *redis.Client
	CacheTTL   time.Duration
	HeaderName string
	Logger     zerolog.Logger
}

const domainCachePrefix = "tenant:domain:"

// Middleware resolves the tenant and injects it into the context passed
// downstream. Requests without a resolvable tenant pass through untouched;
// tenant-scoped repositories reject them later.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if _, ok := FromContext(req.Context()); ok {
			countResolution("claim")
			next.ServeHTTP(w, req)
			return
		}
		tenantID := r.Resolve(req)
		if tenantID > 0 {
			req = req.WithContext(WithTenant(req.Context(), tenantID))
		}
		next.ServeHTTP(w, req)
	})
}

// Resolve attempts to find the tenant identifier from the override header or
// the request host.
func (r *Resolver) Resolve(req *http.Request) int64 {
	if r == nil || req == nil {
		return 0
	}
	header := r.HeaderName
	if header == "" {
		header = "X-Tenant-ID"
	}
	if raw := strings.TrimSpace(req.Header.Get(header)); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			countResolution("header")
			return id
		}
	}

	host := hostWithoutPort(req.Host)
	if host == "" {
		countResolution("none")
		return 0
	}
	id, err := r.byDomain(req.Context(), strings.ToLower(host))
	if err != nil {
		if !errors.Is(err, ErrUnknownDomain) {
			r.Logger.Warn().Err(err).Str("host", host).Msg("tenant domain lookup failed")
		}
		countResolution("none")
		return 0
	}
	countResolution("domain")
	return id
}

// resolutionCounter is wired by the obs package when it registers the
// tenant_resolution_total metric; referencing obs directly here would create
// an import cycle (obs imports tenant for the context helpers).
var resolutionCounter *prometheus.CounterVec

// SetResolutionCounter injects the counter that records resolution outcomes.
func SetResolutionCounter(c *prometheus.CounterVec) {
	resolutionCounter = c
}

func countResolution(source string) {
	if resolutionCounter == nil {
		return
	}
	resolutionCounter.WithLabelValues(source).Inc()
}

func (r *Resolver) byDomain(ctx context.Context, domain string) (int64, error) {
	if r.Cache != nil {
		if raw, err := r.Cache.Get(ctx, domainCachePrefix+domain).Result(); err == nil {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				return id, nil
			}
		}
	}
	if r.Domains == nil {
		return 0, ErrUnknownDomain
	}
	id, err := r.Domains.TenantIDByDomain(ctx, domain)
	if err != nil {
		return 0, err
	}
	if r.Cache != nil && id > 0 {
		ttl := r.CacheTTL
		if ttl <= 0 {
			ttl = 5 * time.Minute
		}
		if err := r.Cache.Set(ctx, domainCachePrefix+domain, strconv.FormatInt(id, 10), ttl).Err(); err != nil {
			r.Logger.Warn().Err(err).Str("domain", domain).Msg("cache tenant domain")
		}
	}
	return id, nil
}

func hostWithoutPort(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if hostport == "" {
		return ""
	}
	if strings.HasPrefix(hostport, "[") {
		if idx := strings.Index(hostport, "]"); idx != -1 {
			host := hostport[1:idx]
			if host != "" {
				return host
			}
		}
	}
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return h
	}
	if idx := strings.Index(hostport, ":"); idx != -1 && strings.Count(hostport, ":") == 1 {
		return hostport[:idx]
	}
	return hostport
}
