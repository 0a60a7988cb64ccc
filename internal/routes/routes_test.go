package routes

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BradenHooton/landing/internal/auth"
	"github.com/BradenHooton/landing/internal/handlers"
	"github.com/BradenHooton/landing/internal/metrics"
	"github.com/BradenHooton/landing/internal/models"
	"github.com/BradenHooton/landing/internal/ratelimit"
	"github.com/BradenHooton/landing/internal/services"
	pkgauth "github.com/BradenHooton/landing/pkg/auth"
	pkglogger "github.com/BradenHooton/landing/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler  http.Handler
	store    *services.MemoryCredentialStore
	contacts *services.ContactService
	cookies  auth.CookiePolicy
}

func newTestServer(t *testing.T, maxRequests int) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, reg := metrics.NewTestManagerAndRegistry()

	codec, err := auth.NewSessionCodec("test-secret-32-characters-long!!", 0)
	require.NoError(t, err)

	limiter, err := ratelimit.New(ratelimit.Config{Window: time.Minute, MaxRequests: maxRequests}, ratelimit.NewMemoryStore())
	require.NoError(t, err)

	store := services.NewMemoryCredentialStore()
	store.Put("user-admin", "a@x.com", "secret", models.RoleAdmin)
	store.Put("user-plain", "u@x.com", "secret", models.RoleUser)

	authService := services.NewAdminAuthService(store, pkgauth.SHA256Hasher{}, codec, nil, m, logger, pkglogger.NewAuditLogger(logger))
	contactService := services.NewContactService(&services.MockContactStore{}, nil, m, logger)
	t.Cleanup(contactService.Wait)

	cookies := auth.CookiePolicy{Name: "app_session_id", SameSite: "lax"}

	handler := NewRouter(Dependencies{
		Env:            "production",
		Logger:         logger,
		Metrics:        m,
		Registry:       reg,
		Limiter:        limiter,
		LoginPerMinute: 100,
		Cookies:        cookies,
		Introspector:   authService,
		AuthHandler:    handlers.NewAuthHandler(authService, cookies, nil, "production", logger),
		Contact:        handlers.NewContactHandler(contactService, nil, "production", logger),
		HealthHandler:  handlers.NewHealthHandler(&handlers.MockPinger{}, logger),
	})

	return &testServer{handler: handler, store: store, contacts: contactService, cookies: cookies}
}

func (s *testServer) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.50:1234"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "app_session_id" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestRouter_AdminSessionFlow(t *testing.T) {
	srv := newTestServer(t, 500)

	w := srv.do(http.MethodGet, "/api/admin/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())

	w = srv.do(http.MethodPost, "/api/admin/login", `{"email":"A@X.com","password":"secret"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := sessionCookie(t, w)
	assert.True(t, cookie.HttpOnly)

	var login struct {
		Success bool `json:"success"`
		User    struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.True(t, login.Success)
	assert.Equal(t, "user-admin", login.User.ID)
	assert.Equal(t, "a@x.com", login.User.Email)

	w = srv.do(http.MethodGet, "/api/admin/me", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":true`)
	assert.Contains(t, w.Body.String(), `"email":"a@x.com"`)

	w = srv.do(http.MethodGet, "/api/admin/contacts", "", cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(http.MethodGet, "/api/admin/contacts/export.csv", "", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "id,full_name,email,phone,created_at"))

	w = srv.do(http.MethodPost, "/api/admin/logout", "", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, -1, sessionCookie(t, w).MaxAge)
}

func TestRouter_AdminRoutesRejectMissingSession(t *testing.T) {
	srv := newTestServer(t, 500)

	for _, path := range []string{"/api/admin/contacts", "/api/admin/contacts/export.csv"} {
		w := srv.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())
	}

	tampered := &http.Cookie{Name: "app_session_id", Value: "not.a.token"}
	w := srv.do(http.MethodGet, "/api/admin/contacts", "", tampered)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_NonAdminLoginForbidden(t *testing.T) {
	srv := newTestServer(t, 500)

	w := srv.do(http.MethodPost, "/api/admin/login", `{"email":"u@x.com","password":"secret"}`, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestRouter_ContactSubmission(t *testing.T) {
	srv := newTestServer(t, 500)

	w := srv.do(http.MethodPost, "/api/contact", `{"fullName":"Jane Doe","email":"jane@example.com","phone":"0612345678"}`, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestRouter_GlobalRateLimitCoversEveryRoute(t *testing.T) {
	srv := newTestServer(t, 2)

	assert.Equal(t, http.StatusOK, srv.do(http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, srv.do(http.MethodGet, "/api/admin/me", "", nil).Code)

	for _, path := range []string{"/health", "/api/admin/me", "/metrics"} {
		w := srv.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusTooManyRequests, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, 500)

	w := srv.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = srv.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "landing_test_server_requests_total")
}
