package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/landing/internal/auth"
	"github.com/BradenHooton/landing/internal/models"
	"github.com/BradenHooton/landing/internal/services"
	pkghttp "github.com/BradenHooton/landing/pkg/http"
)

// AdminAuthServiceInterface defines the admin authentication operations
type AdminAuthServiceInterface interface {
	Login(ctx context.Context, email, password, clientIP string) (*services.LoginResult, error)
	Introspect(ctx context.Context, token string) auth.Session
}

// AuthHandler serves the admin session endpoints
type AuthHandler struct {
	service  AdminAuthServiceInterface
	cookies  auth.CookiePolicy
	ipConfig *pkghttp.IPConfig
	env      string
	logger   *slog.Logger
}

func NewAuthHandler(service AdminAuthServiceInterface, cookies auth.CookiePolicy, ipConfig *pkghttp.IPConfig, env string, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		service:  service,
		cookies:  cookies,
		ipConfig: ipConfig,
		env:      env,
		logger:   logger,
	}
}

// LoginRequest represents the request body for admin login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,trimmed_email,max=320"`
	Password string `json:"password" validate:"required,max=1024"`
}

// LoginResponse is returned on a successful login; the token travels in the cookie only
type LoginResponse struct {
	Success bool                        `json:"success"`
	User    *services.AdminUserResponse `json:"user"`
}

// MeResponse describes the current admin session
type MeResponse struct {
	Authenticated bool                  `json:"authenticated"`
	User          *models.SessionClaims `json:"user,omitempty"`
}

const invalidCredentialsMessage = "Invalid email or password"

// Login handles POST /api/admin/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteErrorWithDetails(w, http.StatusBadRequest, "validation_error", "Email and password are required", err.Error())
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password, pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Email and password are required")
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, invalidCredentialsMessage)
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "This account does not have administrator rights")
		default:
			h.logger.Error("admin login failed", slog.Any("error", err))
			h.writeInternalError(w, err)
		}
		return
	}

	h.cookies.Set(w, r, result.Token, result.ExpiresAt)
	pkghttp.WriteJSON(w, http.StatusOK, LoginResponse{Success: true, User: result.User})
}

// Me handles GET /api/admin/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := h.service.Introspect(r.Context(), h.cookies.Read(r))
	if !session.Authenticated {
		status := http.StatusUnauthorized
		if session.Reason == auth.ReasonNotAdmin {
			status = http.StatusForbidden
		}
		auth.WriteUnauthenticated(w, status)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MeResponse{Authenticated: true, User: session.Claims})
}

// Logout handles POST /api/admin/logout. Sessions are stateless, so this
// only expires the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w, r)
	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// writeInternalError hides error detail outside development
func (h *AuthHandler) writeInternalError(w http.ResponseWriter, err error) {
	writeInternalError(w, h.env, err)
}

func writeInternalError(w http.ResponseWriter, env string, err error) {
	if env == "development" && err != nil {
		pkghttp.WriteErrorWithDetails(w, http.StatusInternalServerError, "internal_error", "Internal server error", err.Error())
		return
	}
	pkghttp.WriteInternalError(w, "Internal server error")
}
