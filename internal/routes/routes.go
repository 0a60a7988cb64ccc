package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/landing/internal/auth"
	"github.com/BradenHooton/landing/internal/handlers"
	"github.com/BradenHooton/landing/internal/metrics"
	middlewareCustom "github.com/BradenHooton/landing/internal/middleware"
	"github.com/BradenHooton/landing/internal/ratelimit"
	pkghttp "github.com/BradenHooton/landing/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies is everything the router needs from main
type Dependencies struct {
	Env            string
	AllowedOrigins []string
	IPConfig       *pkghttp.IPConfig
	Logger         *slog.Logger
	Metrics        *metrics.Manager
	Registry       *prometheus.Registry
	Limiter        *ratelimit.Limiter
	LoginPerMinute int

	Cookies       auth.CookiePolicy
	Introspector  auth.SessionIntrospector
	AuthHandler   *handlers.AuthHandler
	Contact       *handlers.ContactHandler
	HealthHandler *handlers.HealthHandler
}

// NewRouter builds the middleware chain and registers every route behind
// the global rate limit.
func NewRouter(deps Dependencies) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	if deps.Metrics != nil {
		router.Use(middlewareCustom.RequestMetrics(deps.Metrics))
	}
	router.Use(middlewareCustom.SecureLogger(deps.Logger, deps.IPConfig))
	router.Use(middleware.Recoverer)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: deps.Env, IPConfig: deps.IPConfig}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(deps.AllowedOrigins)))
	router.Use(middlewareCustom.RateLimit(middlewareCustom.RateLimitConfig{
		Limiter:  deps.Limiter,
		IPConfig: deps.IPConfig,
		Metrics:  deps.Metrics,
		Logger:   deps.Logger,
	}))
	router.Use(middleware.Timeout(60 * time.Second))

	RegisterRoutes(router, deps)
	return router
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, deps Dependencies) {
	router.Get("/health", deps.HealthHandler.Health)
	if deps.Registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// Public routes
	router.Post("/api/contact", deps.Contact.Submit)

	loginLimit := deps.LoginPerMinute
	if loginLimit <= 0 {
		loginLimit = 10
	}
	router.With(middlewareCustom.LoginRateLimit(loginLimit, deps.IPConfig, deps.Metrics)).
		Post("/api/admin/login", deps.AuthHandler.Login)

	// Session endpoints answer {"authenticated": false} themselves
	router.Get("/api/admin/me", deps.AuthHandler.Me)
	router.Post("/api/admin/logout", deps.AuthHandler.Logout)

	// Admin-only routes
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAdminSession(deps.Introspector, deps.Cookies))
		r.Get("/api/admin/contacts", deps.Contact.List)
		r.Get("/api/admin/contacts/export.csv", deps.Contact.Export)
	})
}
