package mail

import (
	"fmt"
)

// Fixed SMTP relay endpoints for the API-key providers.
const (
	sendgridHost = "smtp.sendgrid.net"
	sendgridUser = "apikey"
	mailgunHost  = "smtp.mailgun.org"
	relayPort    = 587
)

// CredentialDecrypter resolves stored credential values to plaintext. Values
// without the encrypted prefix pass through unchanged.
type CredentialDecrypter interface {
	Reveal(value string) (string, error)
}

// Factory builds transports from tenant email configuration. Credential
// fields are decrypted with the process-wide secret before use.
type Factory struct {
	Secrets CredentialDecrypter
}

// Build validates the provider's required fields and constructs its
// transport. aws-ses is declared but deterministically unimplemented so the
// provider set stays exhaustive.
func (f Factory) Build(cfg TenantEmailConfig) (Transport, error) {
	switch cfg.Provider {
	case ProviderSMTP:
		return f.buildSMTP(cfg)
	case ProviderSendGrid:
		return f.buildSendGrid(cfg)
	case ProviderMailgun:
		return f.buildMailgun(cfg)
	case ProviderAWSSES:
		return nil, fmt.Errorf("%w: %s", ErrNotImplemented, ProviderAWSSES)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}

func (f Factory) buildSMTP(cfg TenantEmailConfig) (Transport, error) {
	if cfg.Host == "" {
		return nil, &ConfigError{Provider: ProviderSMTP, Field: "host"}
	}
	if cfg.Port == 0 {
		return nil, &ConfigError{Provider: ProviderSMTP, Field: "port"}
	}
	pass, err := f.Secrets.Reveal(cfg.Auth.Pass)
	if err != nil {
		return nil, err
	}
	return &SMTPTransport{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Auth.User,
		Password: pass,
		Secure:   cfg.Secure,
	}, nil
}

func (f Factory) buildSendGrid(cfg TenantEmailConfig) (Transport, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigError{Provider: ProviderSendGrid, Field: "apiKey"}
	}
	key, err := f.Secrets.Reveal(cfg.APIKey)
	if err != nil {
		return nil, err
	}
	return &SMTPTransport{
		Host:     sendgridHost,
		Port:     relayPort,
		Username: sendgridUser,
		Password: key,
	}, nil
}

func (f Factory) buildMailgun(cfg TenantEmailConfig) (Transport, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigError{Provider: ProviderMailgun, Field: "apiKey"}
	}
	if cfg.Domain == "" {
		return nil, &ConfigError{Provider: ProviderMailgun, Field: "domain"}
	}
	key, err := f.Secrets.Reveal(cfg.APIKey)
	if err != nil {
		return nil, err
	}
	return &SMTPTransport{
		Host:     mailgunHost,
		Port:     relayPort,
		Username: "postmaster@" + cfg.Domain,
		Password: key,
	}, nil
}
