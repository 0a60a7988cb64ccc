package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/landing/internal/auth"
	"github.com/BradenHooton/landing/internal/background"
	"github.com/BradenHooton/landing/internal/config"
	"github.com/BradenHooton/landing/internal/database"
	"github.com/BradenHooton/landing/internal/handlers"
	"github.com/BradenHooton/landing/internal/metrics"
	"github.com/BradenHooton/landing/internal/ratelimit"
	"github.com/BradenHooton/landing/internal/repositories"
	"github.com/BradenHooton/landing/internal/routes"
	"github.com/BradenHooton/landing/internal/services"
	pkgauth "github.com/BradenHooton/landing/pkg/auth"
	pkghttp "github.com/BradenHooton/landing/pkg/http"
	pkglogger "github.com/BradenHooton/landing/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := pkglogger.New(pkglogger.Options{
		Level:    cfg.Log.Level,
		File:     cfg.Log.File,
		ToStdout: cfg.Log.ToStdout,
	})
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		err := db.Migrate(migrateCtx)
		cancel()
		if err != nil {
			logger.Error("failed to apply migrations, continuing", slog.Any("error", err))
		}
	}

	// Metrics
	registry := metrics.SetupPrometheus(metrics.NewPoolCollector(db.Pool, cfg.Database.Name))
	metricsManager := metrics.NewManager("landing", "api", registry)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	contactRepo := repositories.NewContactRepository(db)

	// Session and credential primitives
	hasher, err := pkgauth.NewHasher(cfg.Auth.PasswordHasher)
	if err != nil {
		logger.Error("invalid password hasher", slog.Any("error", err))
		os.Exit(1)
	}

	codec, err := auth.NewSessionCodec(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	if err != nil {
		logger.Error("failed to create session codec", slog.Any("error", err))
		os.Exit(1)
	}

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelay: cfg.Auth.FailureDelayBase,
		Jitter:    cfg.Auth.FailureDelayJitter,
	})

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Initialize services
	authService := services.NewAdminAuthService(userRepo, hasher, codec, timingDelay, metricsManager, logger, auditLogger)

	var notifier services.OwnerNotifier
	if cfg.Email.OwnerNotifyEnabled {
		sesCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		sesNotifier, err := services.NewSESOwnerNotifier(sesCtx, cfg.Email.AWSRegion, cfg.Email.FromAddress, cfg.Email.OwnerAddress, logger)
		cancel()
		if err != nil {
			logger.Error("failed to initialize owner notifications, continuing without them", slog.Any("error", err))
		} else {
			notifier = sesNotifier
		}
	}
	contactService := services.NewContactService(contactRepo, notifier, metricsManager, logger)

	// Provision configured admin accounts; failures never stop startup
	provisionCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.ProvisionAdmins(provisionCtx, cfg.Auth.AdminAccounts); err != nil {
		logger.Error("failed to provision admin accounts", slog.Any("error", err))
	}
	cancel()

	// Global rate limiter
	limiter, err := ratelimit.New(
		ratelimit.Config{
			Window:           cfg.RateLimit.Window,
			MaxRequests:      cfg.RateLimit.MaxRequests,
			SweepProbability: cfg.RateLimit.SweepProbability,
		},
		ratelimit.NewMemoryStore(),
		ratelimit.WithSweepHook(metricsManager.SweptKeys),
	)
	if err != nil {
		logger.Error("invalid rate limit configuration", slog.Any("error", err))
		os.Exit(1)
	}

	cleanupManager := background.NewCleanupManager(limiter, logger, cfg.RateLimit.SweepInterval, func(tracked int) {
		metricsManager.GaugeTrackedKeys.Set(float64(tracked))
	})

	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	cookies := auth.CookiePolicy{
		Name:     cfg.Auth.SessionCookieName,
		Domain:   cfg.Auth.CookieDomain,
		SameSite: cfg.Auth.CookieSameSite,
		IPConfig: ipConfig,
	}

	// Setup router
	router := routes.NewRouter(routes.Dependencies{
		Env:            cfg.Server.Env,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IPConfig:       ipConfig,
		Logger:         logger,
		Metrics:        metricsManager,
		Registry:       registry,
		Limiter:        limiter,
		LoginPerMinute: cfg.Auth.LoginPerMinute,
		Cookies:        cookies,
		Introspector:   authService,
		AuthHandler:    handlers.NewAuthHandler(authService, cookies, ipConfig, cfg.Server.Env, logger),
		Contact:        handlers.NewContactHandler(contactService, ipConfig, cfg.Server.Env, logger),
		HealthHandler:  handlers.NewHealthHandler(db, logger),
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	// Let in-flight owner notifications finish before the pool closes
	contactService.Wait()

	logger.Info("server stopped gracefully")
}
