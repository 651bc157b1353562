package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/velora-dev/backend-velora/internal/config"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL": "postgres://localhost:5432/velora",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "unit-test-secret",
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	env := baseEnv()
	env["DATABASE_URL"] = ""
	_, err := config.LoadForTests(env)
	require.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "X-Tenant-ID", cfg.TenantHeader)
	require.Equal(t, 24*time.Hour, cfg.MailTransportTTL)
	require.Equal(t, 10, cfg.LeadsRateLimit)
	require.Equal(t, time.Minute, cfg.LeadsRateWindow)
}

func TestCredentialSecretFallsBackToJWTSecret(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, "unit-test-secret", cfg.CredentialSecret)

	env := baseEnv()
	env["CREDENTIAL_SECRET"] = "dedicated-secret"
	cfg, err = config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, "dedicated-secret", cfg.CredentialSecret)
}

func TestMailTransportTTLOverride(t *testing.T) {
	env := baseEnv()
	env["MAIL_TRANSPORT_TTL"] = "1h"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, time.Hour, cfg.MailTransportTTL)
}

func TestCORSOriginsSplitAndTrimmed(t *testing.T) {
	env := baseEnv()
	env["CORS_ALLOWED_ORIGINS"] = " https://app.velora.dev , https://admin.velora.dev ,"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, []string{"https://app.velora.dev", "https://admin.velora.dev"}, cfg.CORSAllowedOrigins)
}
