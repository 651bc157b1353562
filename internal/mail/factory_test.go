package mail_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velora-dev/backend-velora/internal/mail"
)

func TestFactoryRequiredFields(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		cfg      mail.TenantEmailConfig
		provider string
		field    string
	}{
		{
			name:     "smtp without host",
			cfg:      mail.TenantEmailConfig{Provider: "smtp", Port: 587},
			provider: "smtp",
			field:    "host",
		},
		{
			name:     "smtp without port",
			cfg:      mail.TenantEmailConfig{Provider: "smtp", Host: "smtp.example.com"},
			provider: "smtp",
			field:    "port",
		},
		{
			name:     "sendgrid without api key",
			cfg:      mail.TenantEmailConfig{Provider: "sendgrid"},
			provider: "sendgrid",
			field:    "apiKey",
		},
		{
			name:     "mailgun without api key",
			cfg:      mail.TenantEmailConfig{Provider: "mailgun", Domain: "mg.x.com"},
			provider: "mailgun",
			field:    "apiKey",
		},
		{
			name:     "mailgun without domain",
			cfg:      mail.TenantEmailConfig{Provider: "mailgun", APIKey: "key"},
			provider: "mailgun",
			field:    "domain",
		},
	}

	f := mail.Factory{Secrets: &stubDecrypter{}}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := f.Build(tc.cfg)
			var cfgErr *mail.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			require.Equal(t, tc.provider, cfgErr.Provider)
			require.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestFactoryUnknownAndUnimplementedProviders(t *testing.T) {
	t.Parallel()

	f := mail.Factory{Secrets: &stubDecrypter{}}

	_, err := f.Build(mail.TenantEmailConfig{Provider: "postmark"})
	require.ErrorIs(t, err, mail.ErrUnsupportedProvider)

	_, err = f.Build(mail.TenantEmailConfig{Provider: "aws-ses"})
	require.ErrorIs(t, err, mail.ErrNotImplemented)
}

func TestFactoryPlaintextCredentialPassesThrough(t *testing.T) {
	t.Parallel()

	dec := &stubDecrypter{}
	f := mail.Factory{Secrets: dec}

	transport, err := f.Build(mail.TenantEmailConfig{
		Provider: "smtp",
		Host:     "smtp.example.com",
		Port:     587,
		Auth:     mail.SMTPAuth{User: "u", Pass: "plainpass"},
	})
	require.NoError(t, err)

	smtp, ok := transport.(*mail.SMTPTransport)
	require.True(t, ok)
	require.Equal(t, "smtp.example.com", smtp.Host)
	require.Equal(t, 587, smtp.Port)
	require.Equal(t, "plainpass", smtp.Password)
	require.Zero(t, dec.calls)
}

func TestFactoryEncryptedCredentialIsDecrypted(t *testing.T) {
	t.Parallel()

	dec := &stubDecrypter{mapping: map[string]string{"XYZ": "secret42"}}
	f := mail.Factory{Secrets: dec}

	transport, err := f.Build(mail.TenantEmailConfig{
		Provider: "smtp",
		Host:     "smtp.example.com",
		Port:     587,
		Auth:     mail.SMTPAuth{User: "u", Pass: "encrypted:XYZ"},
	})
	require.NoError(t, err)

	smtp := transport.(*mail.SMTPTransport)
	require.Equal(t, "secret42", smtp.Password)
	require.Equal(t, 1, dec.calls)
}

func TestFactoryDecryptionFailureSurfacesCredentialError(t *testing.T) {
	t.Parallel()

	f := mail.Factory{Secrets: &stubDecrypter{}}

	_, err := f.Build(mail.TenantEmailConfig{
		Provider: "smtp",
		Host:     "smtp.example.com",
		Port:     587,
		Auth:     mail.SMTPAuth{Pass: "encrypted:nope"},
	})
	require.ErrorIs(t, err, mail.ErrCredential)
}

func TestFactoryRelayWiring(t *testing.T) {
	t.Parallel()

	dec := &stubDecrypter{mapping: map[string]string{"SGKEY": "sg-plain"}}
	f := mail.Factory{Secrets: dec}

	transport, err := f.Build(mail.TenantEmailConfig{Provider: "sendgrid", APIKey: "encrypted:SGKEY"})
	require.NoError(t, err)
	sg := transport.(*mail.SMTPTransport)
	require.Equal(t, "smtp.sendgrid.net", sg.Host)
	require.Equal(t, 587, sg.Port)
	require.Equal(t, "apikey", sg.Username)
	require.Equal(t, "sg-plain", sg.Password)

	transport, err = f.Build(mail.TenantEmailConfig{Provider: "mailgun", APIKey: "mg-key", Domain: "mg.x.com"})
	require.NoError(t, err)
	mg := transport.(*mail.SMTPTransport)
	require.Equal(t, "smtp.mailgun.org", mg.Host)
	require.Equal(t, 587, mg.Port)
	require.Equal(t, "postmaster@mg.x.com", mg.Username)
	require.Equal(t, "mg-key", mg.Password)
}
