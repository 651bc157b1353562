package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// CredentialSecret decrypts provider credentials stored with the
	// "encrypted:" prefix in tenant config blobs. Falls back to JWTSecret
	// when unset, matching historical deployments.
	CredentialSecret string

	CORSAllowedOrigins []string

	// Tenant resolution.
	TenantHeader     string
	TenantRootDomain string
	TenantCacheTTL   time.Duration

	// Per-tenant mail transports.
	MailTransportTTL time.Duration

	// Fixed notification channel for lead emails. Deliberately independent of
	// per-tenant provider settings; see internal/mail.
	NotifySendGridKey string
	NotifyFromEmail   string
	NotifyFromName    string
	NotifyReplyTo     string

	DashboardBaseURL string

	LeadsRateLimit  int
	LeadsRateWindow time.Duration

	FilesProxyTimeout     time.Duration
	FilesProxyMaxAttempts int

	CatalogDefaultLimit int
	CatalogMaxLimit     int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		JWTIssuer:          strings.TrimSpace(k.String("JWT_ISSUER")),
		JWTAudience:        strings.TrimSpace(k.String("JWT_AUDIENCE")),
		CredentialSecret:   k.String("CREDENTIAL_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		TenantHeader:     valueOrDefault(k.String("TENANT_HEADER"), "X-Tenant-ID"),
		TenantRootDomain: strings.TrimSpace(k.String("TENANT_ROOT_DOMAIN")),
		TenantCacheTTL:   parseDuration(k.String("TENANT_CACHE_TTL"), "5m"),

		MailTransportTTL: parseDuration(k.String("MAIL_TRANSPORT_TTL"), "24h"),

		NotifySendGridKey: k.String("NOTIFY_SENDGRID_API_KEY"),
		NotifyFromEmail:   strings.TrimSpace(k.String("NOTIFY_FROM_EMAIL")),
		NotifyFromName:    strings.TrimSpace(k.String("NOTIFY_FROM_NAME")),
		NotifyReplyTo:     strings.TrimSpace(k.String("NOTIFY_REPLY_TO")),

		DashboardBaseURL: valueOrDefault(strings.TrimSpace(k.String("DASHBOARD_BASE_URL")), "https://app.velora.dev"),

		LeadsRateLimit:  intOrDefault(k.String("LEADS_RATE_LIMIT"), 10),
		LeadsRateWindow: parseDuration(k.String("LEADS_RATE_WINDOW"), "1m"),

		FilesProxyTimeout:     parseDuration(k.String("FILES_PROXY_TIMEOUT"), "10s"),
		FilesProxyMaxAttempts: intOrDefault(k.String("FILES_PROXY_MAX_ATTEMPTS"), 3),

		CatalogDefaultLimit: intOrDefault(k.String("CATALOG_DEFAULT_LIMIT"), 20),
		CatalogMaxLimit:     intOrDefault(k.String("CATALOG_MAX_LIMIT"), 100),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.CredentialSecret == "" {
		cfg.CredentialSecret = cfg.JWTSecret
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func intOrDefault(value string, def int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return def
	}
	var parsed int
	if _, err := fmt.Sscanf(trimmed, "%d", &parsed); err != nil {
		return def
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
