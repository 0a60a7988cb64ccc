//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/BradenHooton/landing/internal/auth"
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

// TestServer wraps httptest.Server with database and all dependencies
type TestServer struct {
	Server   *httptest.Server
	DB       *database.DB
	Config   *config.Config
	Notifier *services.MockOwnerNotifier

	// Dependency references for inspection in tests
	AuthService    *services.AdminAuthService
	ContactService *services.ContactService
	Metrics        *metrics.Manager
	Cookies        auth.CookiePolicy
}

// NewTestServer initializes a complete HTTP server with real database and a
// recording owner notifier
func NewTestServer(db *database.DB, maxRequests int) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			SessionSecret:     "test-secret-32-characters-long-for-testing",
			SessionTTL:        7 * 24 * time.Hour,
			SessionCookieName: "app_session_id",
			CookieSameSite:    "lax",
			LoginPerMinute:    100,
		},
		RateLimit: config.RateLimitConfig{
			Window:           time.Minute,
			MaxRequests:      maxRequests,
			SweepProbability: 0.01,
		},
		Server: config.ServerConfig{
			Env:            "test",
			AllowedOrigins: []string{},
			TrustedProxies: []string{},
		},
	}

	m, registry := metrics.NewTestManagerAndRegistry()

	codec, err := auth.NewSessionCodec(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	if err != nil {
		panic(err)
	}

	userRepo := repositories.NewUserRepository(db)
	contactRepo := repositories.NewContactRepository(db)
	notifier := &services.MockOwnerNotifier{}

	authService := services.NewAdminAuthService(userRepo, pkgauth.SHA256Hasher{}, codec,
		auth.NewTimingDelay(auth.TimingConfig{BaseDelay: 10 * time.Millisecond}),
		m, logger, pkglogger.NewAuditLogger(logger))
	contactService := services.NewContactService(contactRepo, notifier, m, logger)

	limiter, err := ratelimit.New(ratelimit.Config{
		Window:           cfg.RateLimit.Window,
		MaxRequests:      cfg.RateLimit.MaxRequests,
		SweepProbability: cfg.RateLimit.SweepProbability,
	}, ratelimit.NewMemoryStore(), ratelimit.WithSweepHook(m.SweptKeys))
	if err != nil {
		panic(err)
	}

	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	cookies := auth.CookiePolicy{Name: cfg.Auth.SessionCookieName, SameSite: cfg.Auth.CookieSameSite, IPConfig: ipConfig}

	router := routes.NewRouter(routes.Dependencies{
		Env:            cfg.Server.Env,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IPConfig:       ipConfig,
		Logger:         logger,
		Metrics:        m,
		Registry:       registry,
		Limiter:        limiter,
		LoginPerMinute: cfg.Auth.LoginPerMinute,
		Cookies:        cookies,
		Introspector:   authService,
		AuthHandler:    handlers.NewAuthHandler(authService, cookies, ipConfig, cfg.Server.Env, logger),
		Contact:        handlers.NewContactHandler(contactService, ipConfig, cfg.Server.Env, logger),
		HealthHandler:  handlers.NewHealthHandler(db, logger),
	})

	return &TestServer{
		Server:         httptest.NewServer(router),
		DB:             db,
		Config:         cfg,
		Notifier:       notifier,
		AuthService:    authService,
		ContactService: contactService,
		Metrics:        m,
		Cookies:        cookies,
	}
}

// Close shuts down the test server and waits for background notifications
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
	ts.ContactService.Wait()
}

// Request makes an HTTP request to the test server, attaching cookie when non-nil
func (ts *TestServer) Request(method, path string, body interface{}, cookie *http.Cookie) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	return http.DefaultClient.Do(req)
}

// Login posts credentials and returns the response with its session cookie, if any
func (ts *TestServer) Login(email, password string) (*http.Response, *http.Cookie, error) {
	resp, err := ts.Request(http.MethodPost, "/api/admin/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range resp.Cookies() {
		if c.Name == ts.Cookies.Name {
			return resp, c, nil
		}
	}
	return resp, nil, nil
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// GetErrorMessage extracts error message from error response
func GetErrorMessage(resp *http.Response) (string, error) {
	var errResp pkghttp.ErrorResponse
	if err := ParseJSONResponse(resp, &errResp); err != nil {
		return "", err
	}
	return errResp.Message, nil
}
