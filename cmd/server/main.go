package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DukeRupert/smartmail/internal"
	"github.com/DukeRupert/smartmail/internal/ai"
	"github.com/DukeRupert/smartmail/internal/ai/anthropic"
	"github.com/DukeRupert/smartmail/internal/ai/mock"
	"github.com/DukeRupert/smartmail/internal/ai/openai"
	"github.com/DukeRupert/smartmail/internal/auth"
	"github.com/DukeRupert/smartmail/internal/billing"
	"github.com/DukeRupert/smartmail/internal/compose"
	"github.com/DukeRupert/smartmail/internal/email"
	"github.com/DukeRupert/smartmail/internal/handler"
	"github.com/DukeRupert/smartmail/internal/metrics"
	"github.com/DukeRupert/smartmail/internal/middleware"
	"github.com/DukeRupert/smartmail/internal/repository"
	"github.com/DukeRupert/smartmail/internal/service"
	"github.com/DukeRupert/smartmail/internal/storage"
	"github.com/DukeRupert/smartmail/internal/templates"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	repo := repository.New(pool)

	// ==========================================================================
	// Collaborators
	// ==========================================================================

	provider := newProvider(cfg, logger)
	composer := compose.New(provider, logger)
	logger.Info("Text provider selected", "provider", composer.ProviderName())

	catalog, err := templates.Load()
	if err != nil {
		return fmt.Errorf("template catalog failed: %w", err)
	}
	logger.Info("Templates loaded", "count", catalog.Len())

	gateway := billing.NewRazorpayService(billing.Config{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		BaseURL:   cfg.RazorpayAPIURL,
	})
	if !cfg.BillingEnabled() {
		logger.Warn("Razorpay credentials missing; payment endpoints will fail closed")
	}

	store, err := storage.New(cfg.StorageProvider,
		storage.LocalConfig{BasePath: cfg.LocalStoragePath},
		storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			Endpoint:        cfg.R2Endpoint,
		},
		logger,
	)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	var mailer email.EmailService
	if cfg.SMTPEnabled() {
		smtpMailer, err := email.NewSMTPEmailService(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		}, cfg.BaseURL, logger)
		if err != nil {
			return fmt.Errorf("email service initialization failed: %w", err)
		}
		mailer = smtpMailer
	} else {
		logger.Info("SMTP not configured; receipt emails disabled")
	}

	// ==========================================================================
	// Services and middleware
	// ==========================================================================

	profileService := service.NewProfileService(repo, cfg.FreeDailyLimit, logger)
	emailService := service.NewEmailService(repo, composer, catalog, cfg.FreeDailyLimit, logger)
	paymentService := service.NewPaymentService(repo, gateway, store, mailer, service.PaymentConfig{
		MonthlyAmount: cfg.ProMonthlyAmount,
		YearlyAmount:  cfg.ProYearlyAmount,
		Currency:      cfg.ProCurrency,
	}, logger)
	subscriptionService := service.NewSubscriptionService(repo, logger)

	verifier := auth.NewTokenVerifier(auth.VerifierConfig{
		Secret:   cfg.AuthJWTSecret,
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
	})
	if cfg.AuthJWTSecret == "" {
		logger.Warn("SUPABASE_JWT_SECRET not set; authenticated endpoints will fail closed")
	}
	authMw := middleware.NewAuthMiddleware(verifier, profileService, logger)

	generateLimiter, paymentLimiter, closeLimiters, err := newLimiters(cfg, logger)
	if err != nil {
		return fmt.Errorf("rate limiter initialization failed: %w", err)
	}
	defer closeLimiters()
	limitGenerate := middleware.NewRateLimitMiddleware("generate", generateLimiter, logger).Limit
	limitPayments := middleware.NewRateLimitMiddleware("payments", paymentLimiter, logger).Limit

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	handler.NewHealthHandler(pool, logger).RegisterRoutes(mux)

	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	if !metricsAuth.Enabled() {
		logger.Warn("METRICS_USERNAME and METRICS_PASSWORD not set; /metrics is unprotected")
	}
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// Create middleware stacks for protected routes
	requireUser := middleware.Stack(authMw.WithUser, authMw.RequireUser)
	requirePro := middleware.Stack(authMw.WithUser, authMw.RequirePro)

	handler.NewProfileHandler(profileService, logger).RegisterRoutes(mux, requireUser)
	handler.NewEmailHandler(emailService, cfg.FreeDailyLimit, logger).RegisterRoutes(mux, requireUser, requirePro, limitGenerate)
	handler.NewTemplateHandler(catalog, logger).RegisterRoutes(mux, requireUser)
	handler.NewPaymentHandler(paymentService, logger).RegisterRoutes(mux, requireUser, requirePro, limitPayments)
	handler.NewSubscriptionHandler(subscriptionService, logger).RegisterRoutes(mux, requireUser)

	// Anything else is a JSON 404
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handler.NotFoundResponse(w, r, logger)
	})

	// The metrics middleware wraps the mux directly so it can read the matched pattern.
	root := middleware.Stack(
		middleware.NewRequestLoggingMiddleware(logger).Handler,
		middleware.NewCORSMiddleware(cfg.CORSAllowedOrigins).Handler,
		middleware.NewSecurityHeadersMiddleware(cfg.Env != "development").Handler,
		metrics.Middleware,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		// Generation waits on the text provider.
		WriteTimeout: cfg.AIRequestTimeout + 15*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newProvider selects the text provider. A selected provider without
// credentials is replaced by ai.Unconfigured so generation fails closed.
func newProvider(cfg *internal.Config, logger *slog.Logger) ai.Provider {
	pc := ai.ProviderConfig{RequestTimeout: cfg.AIRequestTimeout}

	switch cfg.AIProvider {
	case "anthropic":
		p, err := anthropic.New(anthropic.Config{
			APIKey:         cfg.AnthropicAPIKey,
			Model:          cfg.AnthropicModel,
			BaseURL:        cfg.AnthropicBaseURL,
			ProviderConfig: pc,
		}, logger)
		if err != nil {
			logger.Warn("Anthropic provider unavailable", "error", err)
			return ai.Unconfigured{Provider: "anthropic", Missing: "ANTHROPIC_API_KEY"}
		}
		return p
	case "openai":
		p, err := openai.New(openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			Model:          cfg.OpenAIModel,
			ProviderConfig: pc,
		}, logger)
		if err != nil {
			logger.Warn("OpenAI provider unavailable", "error", err)
			return ai.Unconfigured{Provider: "openai", Missing: "OPENAI_API_KEY"}
		}
		return p
	default:
		if !cfg.MockProviderAllowed() {
			logger.Warn("AI_PROVIDER not set outside development; email generation will fail closed", "env", cfg.Env)
			return ai.Unconfigured{Provider: "mock", Missing: "AI_PROVIDER"}
		}
		return mock.New(logger)
	}
}

// newLimiters builds the generation and payment limiters, shared through
// Redis when REDIS_URL is set and process-local otherwise.
func newLimiters(cfg *internal.Config, logger *slog.Logger) (generate, payments middleware.Limiter, closeFn func(), err error) {
	if cfg.RedisURL == "" {
		logger.Info("REDIS_URL not set; using in-memory rate limits")
		return middleware.NewRateLimiter(cfg.GenerateRateLimit, cfg.GenerateRateWindow),
			middleware.NewRateLimiter(cfg.PaymentRateLimit, cfg.PaymentRateWindow),
			func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	closeFn = func() { _ = client.Close() }

	generate, err = middleware.NewRedisLimiter(client, "smartmail:ratelimit:generate", cfg.GenerateRateLimit, cfg.GenerateRateWindow)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	payments, err = middleware.NewRedisLimiter(client, "smartmail:ratelimit:payments", cfg.PaymentRateLimit, cfg.PaymentRateWindow)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}

	logger.Info("Rate limits shared through Redis", "addr", opts.Addr)
	return generate, payments, closeFn, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
