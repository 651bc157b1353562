package security

import (
	"errors"
	"net/http"

	"github.com/velora-dev/backend-velora/internal/common"
)

// BodyLimit caps request payload size. The public lead form is the main
// consumer; nothing legitimate posts more than a few kilobytes.
type BodyLimit struct {
	Max int64
}

// Middleware rejects oversized payloads with HTTP 413. Declared lengths are
// checked up front; chunked bodies are capped while the handler reads.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body exceeds the allowed size", nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}

// IsBodyTooLarge reports whether a body read failed because the limit was hit.
func IsBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
