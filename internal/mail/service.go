package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/velora-dev/backend-velora/internal/obs"
)

// TransportBuilder constructs a transport from a parsed tenant config.
type TransportBuilder interface {
	Build(cfg TenantEmailConfig) (Transport, error)
}

// Message is one strict dispatch request.
type Message struct {
	TenantID int64
	To       []string
	Subject  string
	HTML     string
	Text     string
	ReplyTo  string
}

// Service is the low-level dispatcher. SendEmail surfaces every failure;
// callers needing best-effort semantics use Notifier instead.
type Service struct {
	Store   TenantStore
	Builder TransportBuilder
	Cache   *TransportCache
	Log     zerolog.Logger
}

// SendEmail loads the tenant's email configuration, acquires a transport
// from the cache or the builder, and dispatches the message. Any failure at
// any step is wrapped in a DispatchError.
func (s *Service) SendEmail(ctx context.Context, msg Message) (Result, error) {
	res, provider, err := s.send(ctx, msg)
	if err != nil {
		s.Log.Error().Err(err).Int64("tenant_id", msg.TenantID).Msg("email dispatch failed")
		countSend(provider, "error")
		return Result{}, &DispatchError{Err: err}
	}
	countSend(provider, "ok")
	return res, nil
}

func (s *Service) send(ctx context.Context, msg Message) (Result, string, error) {
	cfg, err := s.configFor(ctx, msg.TenantID)
	if err != nil {
		return Result{}, "", err
	}

	transport, err := s.transportFor(ctx, msg.TenantID, cfg)
	if err != nil {
		return Result{}, cfg.Provider, err
	}

	replyTo := msg.ReplyTo
	if replyTo == "" {
		replyTo = cfg.ReplyToAddress
	}
	env := Envelope{
		From:    cfg.From(),
		ReplyTo: replyTo,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}

	start := time.Now()
	id, err := transport.Send(ctx, env)
	observeSend(cfg.Provider, time.Since(start))
	if err != nil {
		return Result{}, cfg.Provider, err
	}

	s.Log.Info().
		Int64("tenant_id", msg.TenantID).
		Str("provider", cfg.Provider).
		Str("message_id", id).
		Msg("email dispatched")
	return Result{MessageID: id, Success: true}, cfg.Provider, nil
}

func (s *Service) configFor(ctx context.Context, tenantID int64) (TenantEmailConfig, error) {
	_, raw, err := s.Store.TenantConfig(ctx, tenantID)
	if err != nil {
		return TenantEmailConfig{}, err
	}
	cfg, err := ParseTenantEmailConfig(raw)
	if err != nil {
		return TenantEmailConfig{}, fmt.Errorf("tenant %d: %w", tenantID, err)
	}
	return cfg, nil
}

// transportFor returns the cached transport or builds and caches a fresh
// one. Concurrent first access may build twice; the cache keeps the last.
func (s *Service) transportFor(ctx context.Context, tenantID int64, cfg TenantEmailConfig) (Transport, error) {
	if t, ok := s.Cache.Get(tenantID); ok {
		return t, nil
	}
	t, err := s.Builder.Build(cfg)
	if err != nil {
		return nil, err
	}
	if obs.MailTransportBuilds != nil {
		obs.MailTransportBuilds.WithLabelValues(cfg.Provider).Inc()
	}
	s.Log.Debug().
		Int64("tenant_id", tenantID).
		Str("provider", cfg.Provider).
		Msg("mail transport built")
	s.Cache.Put(tenantID, t)
	return t, nil
}

// VerifyConfig reports whether the tenant's configured transport can
// establish a connection. Advisory contract: every failure maps to false.
func (s *Service) VerifyConfig(ctx context.Context, tenantID int64) bool {
	cfg, err := s.configFor(ctx, tenantID)
	if err != nil {
		s.Log.Debug().Err(err).Int64("tenant_id", tenantID).Msg("email config verification failed")
		return false
	}
	transport, err := s.transportFor(ctx, tenantID, cfg)
	if err != nil {
		s.Log.Debug().Err(err).Int64("tenant_id", tenantID).Msg("email config verification failed")
		return false
	}
	if err := transport.Verify(ctx); err != nil {
		s.Log.Debug().Err(err).Int64("tenant_id", tenantID).Msg("email config verification failed")
		return false
	}
	return true
}

// EvictTransport drops one tenant's cached transport.
func (s *Service) EvictTransport(tenantID int64) {
	s.Cache.Evict(tenantID)
}

// ClearTransportCache drops every cached transport.
func (s *Service) ClearTransportCache() {
	s.Cache.Clear()
}

func countSend(provider, result string) {
	if obs.MailSendTotal == nil {
		return
	}
	if provider == "" {
		provider = "unknown"
	}
	obs.MailSendTotal.WithLabelValues(provider, result).Inc()
}

func observeSend(provider string, d time.Duration) {
	if obs.MailSendLatency == nil {
		return
	}
	obs.MailSendLatency.WithLabelValues(provider).Observe(float64(d.Milliseconds()))
}
