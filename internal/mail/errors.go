// Package mail implements tenant-scoped email dispatch: per-tenant provider
// configuration, a TTL-bound transport cache, a strict low-level send path,
// and best-effort lead notifications over a fixed channel.
package mail

import (
	"errors"
	"fmt"

	"github.com/velora-dev/backend-velora/internal/secrets"
)

var (
	// ErrTenantNotFound indicates the tenant referenced by a dispatch does
	// not exist.
	ErrTenantNotFound = errors.New("mail: tenant not found")
	// ErrNotConfigured indicates the tenant has no active email configuration.
	ErrNotConfigured = errors.New("mail: email not configured")
	// ErrUnsupportedProvider indicates a provider outside the known set.
	ErrUnsupportedProvider = errors.New("mail: unsupported provider")
	// ErrNotImplemented indicates a provider that is declared but not wired.
	ErrNotImplemented = errors.New("mail: provider not implemented")
	// ErrTemplate indicates a notification template could not be rendered.
	ErrTemplate = errors.New("mail: template")
	// ErrTransport indicates a provider or network level send failure.
	ErrTransport = errors.New("mail: transport")
	// ErrCredential indicates a stored credential could not be decrypted.
	ErrCredential = secrets.ErrCredential
)

// ConfigError reports a required provider field that is missing from a
// tenant's email configuration.
type ConfigError struct {
	Provider string
	Field    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("mail: provider %s: missing required field %q", e.Provider, e.Field)
}

// DispatchError wraps any failure surfaced by the strict SendEmail path so
// callers observe a single error type carrying the original cause.
type DispatchError struct {
	Err error
}

func (e *DispatchError) Error() string { return fmt.Sprintf("mail: dispatch: %v", e.Err) }

func (e *DispatchError) Unwrap() error { return e.Err }
