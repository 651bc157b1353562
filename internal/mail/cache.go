package mail

import (
	"sync"
	"time"
)

// DefaultTransportTTL bounds how long a built transport stays cached before
// the next access forces a rebuild with fresh credentials.
const DefaultTransportTTL = 24 * time.Hour

type cacheEntry struct {
	transport Transport
	expiresAt time.Time
}

// TransportCache holds at most one live transport per tenant. Expiry is
// checked lazily on access against the injected clock, so no per-entry
// timers accumulate under tenant churn. Racing builds for the same tenant
// are tolerated, last writer wins.
type TransportCache struct {
	mu      sync.Mutex
	entries map[int64]cacheEntry

	// TTL defaults to DefaultTransportTTL when zero.
	TTL time.Duration
	// Now is the time source, overridable in tests.
	Now func() time.Time
}

// NewTransportCache returns a cache with the given TTL. A non-positive TTL
// selects the default.
func NewTransportCache(ttl time.Duration) *TransportCache {
	if ttl <= 0 {
		ttl = DefaultTransportTTL
	}
	return &TransportCache{
		entries: make(map[int64]cacheEntry),
		TTL:     ttl,
		Now:     time.Now,
	}
}

func (c *TransportCache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *TransportCache) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return DefaultTransportTTL
}

// Get returns the live transport for the tenant, evicting it first when its
// TTL has elapsed.
func (c *TransportCache) Get(tenantID int64) (Transport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		return nil, false
	}
	e, ok := c.entries[tenantID]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, tenantID)
		return nil, false
	}
	return e.transport, true
}

// Put stores the transport, replacing any previous entry for the tenant.
func (c *TransportCache) Put(tenantID int64, t Transport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[int64]cacheEntry)
	}
	c.entries[tenantID] = cacheEntry{transport: t, expiresAt: c.now().Add(c.ttl())}
}

// Evict drops the tenant's entry if present.
func (c *TransportCache) Evict(tenantID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, tenantID)
}

// Clear drops every entry.
func (c *TransportCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int64]cacheEntry)
}

// Len reports the number of cached entries, expired or not.
func (c *TransportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
