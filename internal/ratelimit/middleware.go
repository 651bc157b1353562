// Package ratelimit throttles anonymous endpoints, primarily the public
// lead intake form, using a Redis-backed sliding window.
package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/velora-dev/backend-velora/internal/common"
)

// Config describes how to derive a rate limit key and thresholds.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Handler enforces rate limits before delegating to the next handler.
// Limiter failures fail open: a degraded Redis must not take lead intake
// down with it.
type Handler struct {
	Limiter Limiter
	Config  Config
	OnError func(error)
}

// Middleware implements the http.Handler middleware interface.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Config.Key == nil || h.Config.Max <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		key := h.Config.Key(r)
		verdict, err := h.Limiter.Allow(r.Context(), key, h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		writeLimitHeaders(w, h.Config.Max, verdict)

		if !verdict.Allowed {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, slow down", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeLimitHeaders(w http.ResponseWriter, limit int, v Verdict) {
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(v.Remaining))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(v.ResetAt.Unix(), 10))
	if !v.Allowed {
		retryAfter := int(time.Until(v.ResetAt).Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
		headers.Set("Retry-After", strconv.Itoa(retryAfter))
	}
}
