package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velora-dev/backend-velora/internal/auth"
	"github.com/velora-dev/backend-velora/internal/catalog"
	"github.com/velora-dev/backend-velora/internal/common"
	"github.com/velora-dev/backend-velora/internal/config"
	"github.com/velora-dev/backend-velora/internal/files"
	"github.com/velora-dev/backend-velora/internal/health"
	"github.com/velora-dev/backend-velora/internal/leads"
	"github.com/velora-dev/backend-velora/internal/mail"
	"github.com/velora-dev/backend-velora/internal/obs"
	"github.com/velora-dev/backend-velora/internal/order"
	"github.com/velora-dev/backend-velora/internal/ratelimit"
	"github.com/velora-dev/backend-velora/internal/repo"
	"github.com/velora-dev/backend-velora/internal/resilience"
	"github.com/velora-dev/backend-velora/internal/secrets"
	"github.com/velora-dev/backend-velora/internal/security"
	"github.com/velora-dev/backend-velora/internal/tenant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "velora")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "velora-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "velora-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	tenantsRepo := repo.TenantsRepo{DB: pool}
	leadsRepo := repo.LeadsRepo{DB: pool}
	productsRepo := repo.ProductsRepo{DB: pool}
	ordersRepo := repo.OrdersRepo{DB: pool}

	keeper, err := secrets.NewKeeper(cfg.CredentialSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("derive credential keeper")
	}

	mailStore := mail.RepoStore{Tenants: tenantsRepo}
	mailService := &mail.Service{
		Store:   mailStore,
		Builder: mail.Factory{Secrets: keeper},
		Cache:   mail.NewTransportCache(cfg.MailTransportTTL),
		Log:     logger.With().Str("component", "mail").Logger(),
	}

	renderer, err := mail.NewRenderer()
	if err != nil {
		logger.Fatal().Err(err).Msg("parse mail templates")
	}

	notifier := &mail.Notifier{
		Store:    mailStore,
		Channel:  notificationChannel(cfg),
		Renderer: renderer,

		FromEmail:        cfg.NotifyFromEmail,
		FromName:         cfg.NotifyFromName,
		ReplyTo:          cfg.NotifyReplyTo,
		DashboardBaseURL: cfg.DashboardBaseURL,

		Log: logger.With().Str("component", "notify").Logger(),
	}
	if cfg.NotifySendGridKey == "" {
		logger.Warn().Msg("NOTIFY_SENDGRID_API_KEY not set; lead notifications will fail to send")
	}

	verifier, err := auth.NewVerifier(auth.VerifierConfig{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("configure token verifier")
	}
	authMiddleware := auth.Middleware{
		Verifier:     verifier,
		AccessCookie: envOrDefault("AUTH_ACCESS_COOKIE", "access_token"),
	}

	tenantResolver := &tenant.Resolver{
		Domains:    tenantsRepo,
		Cache:      redisClient,
		CacheTTL:   cfg.TenantCacheTTL,
		HeaderName: cfg.TenantHeader,
		Logger:     logger.With().Str("component", "tenant").Logger(),
	}

	leadsService := &leads.Service{
		Store:    leadsRepo,
		Notifier: notifier,
		Validate: validator.New(),
		Log:      logger.With().Str("component", "leads").Logger(),
	}
	leadsHandler := &leads.Handler{Service: leadsService}

	catalogService := &catalog.Service{
		Store: productsRepo,
		Cache: catalog.NewCache(redisClient, envDurationMillis("CATALOG_CACHE_TTL_MS", 60_000)),
		Log:   logger.With().Str("component", "catalog").Logger(),
	}
	catalogHandler := &catalog.Handler{
		Service:        catalogService,
		DefaultPerPage: cfg.CatalogDefaultLimit,
		MaxPerPage:     cfg.CatalogMaxLimit,
	}

	orderHandler := &order.Handler{Store: ordersRepo}
	mailHandler := &mail.Handler{Service: mailService}

	logoBreaker := resilience.NewBreaker(
		envInt("FILES_BREAKER_MIN_REQUESTS", 5),
		envFloat("FILES_BREAKER_FAILURE_RATIO", 0.5),
		envDurationMillis("FILES_BREAKER_OPEN_MS", 30_000),
	).WithTarget("logo-upstream")
	logoProxy := &files.LogoProxy{
		Store: mailStore,
		Client: resilience.HTTPClient{
			Client: &http.Client{
				Timeout:   cfg.FilesProxyTimeout,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			},
			Breaker:     logoBreaker,
			MaxAttempts: cfg.FilesProxyMaxAttempts,
			Timeout:     cfg.FilesProxyTimeout,
		},
		Log: logger.With().Str("component", "files").Logger(),
	}

	leadLimiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "ratelimit:leads"},
		Config: ratelimit.Config{
			Key:    func(r *http.Request) string { return common.ClientIP(r) },
			Window: cfg.LeadsRateWindow,
			Max:    cfg.LeadsRateLimit,
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("lead rate limiter degraded")
		},
	}

	securityHeaders := security.Headers{
		Enable:                envBool("SECURE_HEADERS_ENABLE", true),
		EnableHSTS:            envBool("SECURE_HSTS_ENABLE", false),
		HSTSMaxAge:            envInt("SECURE_HSTS_MAX_AGE", 31536000),
		HSTSIncludeSubdomains: envBool("SECURE_HSTS_INCLUDE_SUBDOMAINS", true),
	}
	bodyLimit := security.BodyLimit{Max: int64(envInt("SECURE_BODY_MAX_BYTES", 1<<20))}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_HTTP_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", cfg.TenantHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(securityHeaders.Middleware)
	r.Use(bodyLimit.Middleware)

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	if envBool("SECURE_PPROF_ENABLE", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(authMiddleware.Authenticate)
		v.Use(tenantResolver.Middleware)

		v.Mount("/products", catalogHandler.Routes())
		v.With(leadLimiter.Middleware).Mount("/leads", leadsHandler.PublicRoutes())
		v.Get("/files/logo", logoProxy.ServeLogo)

		v.Route("/admin", func(a chi.Router) {
			a.Use(authMiddleware.RequireAuth)
			a.Use(authMiddleware.RequireAdmin)

			a.Mount("/leads", leadsHandler.AdminRoutes())
			a.Mount("/orders", orderHandler.Routes())
			a.Mount("/email", mailHandler.Routes())
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		logger.Info().Msg("shutdown signal received, draining")
		health.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

// notificationChannel builds the fixed SMTP relay used for lead
// notifications. It is process configuration, not tenant configuration, so
// every tenant's notifications leave through the same SendGrid account.
func notificationChannel(cfg *config.Config) mail.Transport {
	return &mail.SMTPTransport{
		Host:     "smtp.sendgrid.net",
		Port:     587,
		Username: "apikey",
		Password: cfg.NotifySendGridKey,
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
