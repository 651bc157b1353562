package mail_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/velora-dev/backend-velora/internal/mail"
)

// stubStore serves tenant names and config blobs from a map.
type stubStore struct {
	names   map[int64]string
	configs map[int64]json.RawMessage
	err     error
}

func (s stubStore) TenantConfig(_ context.Context, tenantID int64) (string, json.RawMessage, error) {
	if s.err != nil {
		return "", nil, s.err
	}
	cfg, ok := s.configs[tenantID]
	if !ok {
		return "", nil, fmt.Errorf("%w: tenant %d", mail.ErrTenantNotFound, tenantID)
	}
	return s.names[tenantID], cfg, nil
}

// stubDecrypter maps ciphertexts to plaintexts and records invocations.
type stubDecrypter struct {
	mapping map[string]string
	calls   int
}

func (d *stubDecrypter) Reveal(value string) (string, error) {
	if !strings.HasPrefix(value, "encrypted:") {
		return value, nil
	}
	d.calls++
	plain, ok := d.mapping[strings.TrimPrefix(value, "encrypted:")]
	if !ok {
		return "", fmt.Errorf("%w: unknown ciphertext", mail.ErrCredential)
	}
	return plain, nil
}

// recordingTransport captures every envelope it is asked to send.
type recordingTransport struct {
	mu        sync.Mutex
	sent      []mail.Envelope
	sendErr   error
	verifyErr error
}

func (t *recordingTransport) Send(_ context.Context, env mail.Envelope) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return "", t.sendErr
	}
	t.sent = append(t.sent, env)
	return fmt.Sprintf("<msg-%d@test>", len(t.sent)), nil
}

func (t *recordingTransport) Verify(context.Context) error { return t.verifyErr }

func (t *recordingTransport) envelopes() []mail.Envelope {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]mail.Envelope(nil), t.sent...)
}

// recordingBuilder counts builds, optionally validating through a real
// factory first, and hands out a shared recording transport.
type recordingBuilder struct {
	mu        sync.Mutex
	builds    int
	lastCfg   mail.TenantEmailConfig
	transport *recordingTransport
	factory   *mail.Factory
}

func (b *recordingBuilder) Build(cfg mail.TenantEmailConfig) (mail.Transport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.factory != nil {
		if _, err := b.factory.Build(cfg); err != nil {
			return nil, err
		}
	}
	b.builds++
	b.lastCfg = cfg
	if b.transport == nil {
		b.transport = &recordingTransport{}
	}
	return b.transport, nil
}

func (b *recordingBuilder) buildCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.builds
}

func activeSMTPBlob(pass string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"email": {
			"provider": "smtp",
			"isActive": true,
			"host": "smtp.example.com",
			"port": 587,
			"fromAddress": "no-reply@x.com",
			"fromName": "X",
			"auth": {"user": "u", "pass": %q}
		}
	}`, pass))
}

var errBoom = errors.New("boom")
