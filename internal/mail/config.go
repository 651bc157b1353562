package mail

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Known provider identifiers.
const (
	ProviderSMTP     = "smtp"
	ProviderSendGrid = "sendgrid"
	ProviderMailgun  = "mailgun"
	ProviderAWSSES   = "aws-ses"
)

// SMTPAuth holds the credential pair for a raw SMTP provider. Pass may be
// stored with the "encrypted:" prefix.
type SMTPAuth struct {
	User string `json:"user"`
	Pass string `json:"pass"`
}

// TenantEmailConfig is the email section of a tenant's free-form config blob.
type TenantEmailConfig struct {
	Provider       string   `json:"provider"`
	IsActive       bool     `json:"isActive"`
	FromName       string   `json:"fromName"`
	FromAddress    string   `json:"fromAddress"`
	ReplyToAddress string   `json:"replyToAddress"`
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	Secure         bool     `json:"secure"`
	Auth           SMTPAuth `json:"auth"`
	APIKey         string   `json:"apiKey"`
	Domain         string   `json:"domain"`
}

// From renders the envelope sender as "{fromName} <{fromAddress}>" when a
// display name is set.
func (c TenantEmailConfig) From() string {
	if c.FromName == "" {
		return c.FromAddress
	}
	return fmt.Sprintf("%s <%s>", c.FromName, c.FromAddress)
}

type tenantConfigBlob struct {
	Email *TenantEmailConfig `json:"email"`
}

// ParseTenantEmailConfig extracts the email section from a tenant config
// blob. Returns ErrNotConfigured when the blob is empty, the email section
// is absent, or the section is not active.
func ParseTenantEmailConfig(raw json.RawMessage) (TenantEmailConfig, error) {
	if len(raw) == 0 {
		return TenantEmailConfig{}, ErrNotConfigured
	}
	var blob tenantConfigBlob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return TenantEmailConfig{}, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	if blob.Email == nil || !blob.Email.IsActive {
		return TenantEmailConfig{}, ErrNotConfigured
	}
	cfg := *blob.Email
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	return cfg, nil
}
