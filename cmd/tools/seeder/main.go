// Command seeder applies migrations and loads demo tenants for local
// development. It is destructive only in the sense of upserting demo rows;
// it never deletes existing data.
package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alexedwards/argon2id"
	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/velora-dev/backend-velora/internal/obs"
	"github.com/velora-dev/backend-velora/internal/secrets"
)

func main() {
	_ = godotenv.Load()
	logger := obs.NewLogger("console", "info").With().Str("tool", "seeder").Logger()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	credentialSecret := os.Getenv("CREDENTIAL_SECRET")
	if credentialSecret == "" {
		credentialSecret = os.Getenv("JWT_SECRET")
	}
	keeper, err := secrets.NewKeeper(credentialSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("CREDENTIAL_SECRET or JWT_SECRET must be set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	if err := runMigrations(db); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}
	logger.Info().Msg("migrations applied")

	for _, tn := range demoTenants(keeper, logger) {
		id, err := seedTenant(db, tn)
		if err != nil {
			logger.Fatal().Err(err).Str("slug", tn.slug).Msg("seed tenant")
		}
		logger.Info().Int64("tenant_id", id).Str("slug", tn.slug).Msg("tenant seeded")
	}

	logger.Info().Msg("seeding completed")
}

func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}
	src := os.Getenv("MIGRATIONS_PATH")
	if src == "" {
		src = "migrations"
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

type demoTenant struct {
	name     string
	slug     string
	industry string
	domain   string
	config   map[string]any
	admin    demoUser
	products []demoProduct
}

type demoUser struct {
	email    string
	password string
}

type demoProduct struct {
	name       string
	slug       string
	priceCents int64
}

func demoTenants(keeper *secrets.Keeper, logger zerolog.Logger) []demoTenant {
	smtpPass, err := keeper.Encrypt("demo-smtp-password")
	if err != nil {
		logger.Fatal().Err(err).Msg("encrypt demo credential")
	}
	sendgridKey, err := keeper.Encrypt("SG.demo-key")
	if err != nil {
		logger.Fatal().Err(err).Msg("encrypt demo credential")
	}

	return []demoTenant{
		{
			name:     "Acme Web Studio",
			slug:     "acme",
			industry: "agency",
			domain:   "acme.localhost",
			config: map[string]any{
				"email": map[string]any{
					"provider":    "smtp",
					"isActive":    true,
					"fromName":    "Acme Web Studio",
					"fromAddress": "no-reply@acme.localhost",
					"host":        "mailhog",
					"port":        1025,
					"secure":      false,
					"auth": map[string]any{
						"user": "acme",
						"pass": smtpPass,
					},
				},
				"branding": map[string]any{
					"logoUrl":      "https://placehold.co/200x60/1d4ed8/white?text=Acme",
					"primaryColor": "#1d4ed8",
					"accentColor":  "#f59e0b",
					"contactEmail": "hello@acme.localhost",
					"adminEmail":   "owner@acme.localhost",
					"timezone":     "America/New_York",
				},
			},
			admin: demoUser{email: "owner@acme.localhost", password: "acme-admin-pass"},
			products: []demoProduct{
				{name: "Starter Site", slug: "starter-site", priceCents: 99000},
				{name: "Growth Site", slug: "growth-site", priceCents: 249000},
			},
		},
		{
			name:     "Bluefin Dental",
			slug:     "bluefin",
			industry: "healthcare",
			domain:   "bluefin.localhost",
			config: map[string]any{
				"email": map[string]any{
					"provider":    "sendgrid",
					"isActive":    true,
					"fromName":    "Bluefin Dental",
					"fromAddress": "care@bluefin.localhost",
					"apiKey":      sendgridKey,
				},
				"branding": map[string]any{
					"primaryColor": "#0e7490",
					"contactEmail": "care@bluefin.localhost",
					"timezone":     "Europe/Amsterdam",
				},
			},
			admin: demoUser{email: "admin@bluefin.localhost", password: "bluefin-admin-pass"},
			products: []demoProduct{
				{name: "Checkup Package", slug: "checkup-package", priceCents: 12500},
			},
		},
		{
			// deliberately has no email section, to exercise the
			// not-configured path end to end
			name:     "Cobalt Fitness",
			slug:     "cobalt",
			industry: "fitness",
			domain:   "cobalt.localhost",
			config: map[string]any{
				"branding": map[string]any{
					"primaryColor": "#7c3aed",
				},
			},
			admin: demoUser{email: "admin@cobalt.localhost", password: "cobalt-admin-pass"},
		},
	}
}

func seedTenant(db *sql.DB, tn demoTenant) (int64, error) {
	blob, err := json.Marshal(tn.config)
	if err != nil {
		return 0, fmt.Errorf("marshal config: %w", err)
	}

	var id int64
	err = db.QueryRow(`
		INSERT INTO tenants (name, slug, industry, config)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			industry = EXCLUDED.industry,
			config = EXCLUDED.config,
			updated_at = now()
		RETURNING id`,
		tn.name, strings.ToLower(tn.slug), tn.industry, blob).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert tenant: %w", err)
	}

	if _, err := db.Exec(`
		INSERT INTO tenant_domains (tenant_id, domain)
		VALUES ($1, $2)
		ON CONFLICT (domain) DO UPDATE SET tenant_id = EXCLUDED.tenant_id, is_active = TRUE`,
		id, tn.domain); err != nil {
		return 0, fmt.Errorf("upsert domain: %w", err)
	}

	hash, err := argon2id.CreateHash(tn.admin.password, argon2id.DefaultParams)
	if err != nil {
		return 0, fmt.Errorf("hash admin password: %w", err)
	}
	if _, err := db.Exec(`
		INSERT INTO tenant_users (tenant_id, email, password_hash, role)
		VALUES ($1, $2, $3, 'admin')
		ON CONFLICT (tenant_id, email) DO UPDATE SET password_hash = EXCLUDED.password_hash, role = 'admin'`,
		id, tn.admin.email, hash); err != nil {
		return 0, fmt.Errorf("upsert admin user: %w", err)
	}

	for _, p := range tn.products {
		if _, err := db.Exec(`
			INSERT INTO products (tenant_id, name, slug, price_cents, currency)
			VALUES ($1, $2, $3, $4, 'USD')
			ON CONFLICT (tenant_id, slug) DO UPDATE SET
				name = EXCLUDED.name,
				price_cents = EXCLUDED.price_cents,
				is_active = TRUE,
				updated_at = now()`,
			id, p.name, p.slug, p.priceCents); err != nil {
			return 0, fmt.Errorf("upsert product %s: %w", p.slug, err)
		}
	}
	return id, nil
}
