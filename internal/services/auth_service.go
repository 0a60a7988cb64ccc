package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/landing/internal/auth"
	"github.com/BradenHooton/landing/internal/metrics"
	"github.com/BradenHooton/landing/internal/models"
	pkgauth "github.com/BradenHooton/landing/pkg/auth"
	pkglogger "github.com/BradenHooton/landing/pkg/logger"
)

// CredentialStore is the persistence the admin authenticator needs.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) (*models.User, error)
	TouchLastSignedIn(ctx context.Context, id string) error
}

// SessionTokenCodec signs and verifies admin session tokens
type SessionTokenCodec interface {
	Sign(user *models.User) (string, time.Time, error)
	Verify(token string) (*models.SessionClaims, error)
}

// AdminAuthService authenticates admins against the credential store and
// issues stateless session tokens.
type AdminAuthService struct {
	store       CredentialStore
	hasher      pkgauth.Hasher
	codec       SessionTokenCodec
	timing      *auth.TimingDelay
	metrics     *metrics.Manager
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAdminAuthService creates a new AdminAuthService. timing and metrics may be nil.
func NewAdminAuthService(
	store CredentialStore,
	hasher pkgauth.Hasher,
	codec SessionTokenCodec,
	timing *auth.TimingDelay,
	metricsManager *metrics.Manager,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AdminAuthService {
	return &AdminAuthService{
		store:       store,
		hasher:      hasher,
		codec:       codec,
		timing:      timing,
		metrics:     metricsManager,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// AdminUserResponse is the public view of an authenticated admin
type AdminUserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// LoginResult carries the session token for the cookie and the user for the body
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *AdminUserResponse
}

// Login outcomes recorded in metrics and audit logs
const (
	outcomeSuccess            = "success"
	outcomeInvalidCredentials = "invalid_credentials"
	outcomeNotAdmin           = "not_admin"
	outcomeError              = "error"
)

// Login checks credentials in a fixed order: lookup, password, role, then
// stamps lastSignedIn and signs a session. Unknown email and wrong password
// both return models.ErrInvalidCredentials.
func (s *AdminAuthService) Login(ctx context.Context, email, password, clientIP string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", models.ErrBadRequest)
	}

	start := time.Now()

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.loginFailed(ctx, start, "", email, clientIP, outcomeInvalidCredentials)
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("credential lookup failed", slog.Any("error", err))
		s.loginFailed(ctx, start, "", email, clientIP, outcomeError)
		return nil, infraError(err)
	}

	if user.PasswordDigest == nil || !s.hasher.Verify(password, *user.PasswordDigest) {
		s.loginFailed(ctx, start, user.ID, email, clientIP, outcomeInvalidCredentials)
		return nil, models.ErrInvalidCredentials
	}

	if !user.IsAdmin() {
		s.logger.Info("login refused: account is not admin", slog.String("user_id", user.ID))
		s.loginFailed(ctx, start, user.ID, email, clientIP, outcomeNotAdmin)
		return nil, models.ErrNotAdmin
	}

	if err := s.store.TouchLastSignedIn(ctx, user.ID); err != nil {
		s.logger.Error("failed to record sign-in", slog.String("user_id", user.ID), slog.Any("error", err))
		s.metrics.LoginOutcome(outcomeError)
		return nil, infraError(err)
	}

	token, expiresAt, err := s.codec.Sign(user)
	if err != nil {
		s.logger.Error("failed to sign session", slog.String("user_id", user.ID), slog.Any("error", err))
		s.metrics.LoginOutcome(outcomeError)
		return nil, models.ErrInternalServer
	}

	s.logger.Info("admin logged in", slog.String("user_id", user.ID))
	s.metrics.LoginOutcome(outcomeSuccess)
	s.auditLogger.LogLoginAttempt(ctx, pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Email:     user.Email,
		IPAddress: clientIP,
		Success:   true,
	})

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      userModelToResponse(user),
	}, nil
}

func (s *AdminAuthService) loginFailed(ctx context.Context, start time.Time, userID, email, clientIP, reason string) {
	s.metrics.LoginOutcome(reason)
	s.auditLogger.LogLoginAttempt(ctx, pkglogger.AuditEvent{
		EventType:     "login_failed",
		UserID:        userID,
		Email:         email,
		IPAddress:     clientIP,
		FailureReason: reason,
	})
	s.timing.WaitFrom(ctx, start, false)
}

// Introspect reports whether token is a live admin session. It never touches
// the credential store.
func (s *AdminAuthService) Introspect(ctx context.Context, token string) auth.Session {
	if token == "" {
		return auth.Session{Reason: auth.ReasonMissing}
	}

	claims, err := s.codec.Verify(token)
	if err != nil {
		s.logger.DebugContext(ctx, "session rejected", slog.Any("error", err))
		return auth.Session{Reason: auth.ReasonInvalid}
	}

	if claims.Role != models.RoleAdmin {
		s.logger.InfoContext(ctx, "session rejected: not admin", slog.String("user_id", claims.UserID()))
		return auth.Session{Reason: auth.ReasonNotAdmin}
	}

	return auth.Session{Authenticated: true, Claims: claims}
}

// ProvisionAdmins upserts every configured admin so its row exists with role
// admin and the configured password. Running it twice leaves one row per
// email. Failures are collected and returned together; callers log them and
// keep serving.
func (s *AdminAuthService) ProvisionAdmins(ctx context.Context, accounts []models.AdminAccount) error {
	var errs []error

	for _, account := range accounts {
		email := strings.ToLower(strings.TrimSpace(account.Email))
		if email == "" || account.Password == "" {
			errs = append(errs, fmt.Errorf("%w: admin account needs email and password", models.ErrBadRequest))
			continue
		}

		if err := pkgauth.ValidatePassword(account.Password); err != nil {
			var pve *pkgauth.PasswordValidationError
			if errors.As(err, &pve) {
				s.logger.Warn("configured admin password is weak",
					slog.String("email", pkglogger.SanitizedEmail(email)),
					slog.Any("rules", pve.Errors))
			}
		}

		digest, err := s.hasher.Hash(account.Password)
		if err != nil {
			errs = append(errs, fmt.Errorf("hash password for %s: %w", pkglogger.SanitizedEmail(email), err))
			continue
		}

		user, err := s.store.Upsert(ctx, &models.User{
			Name:           account.Name,
			Email:          email,
			PasswordDigest: &digest,
			LoginMethod:    models.LoginMethodLocal,
			Role:           models.RoleAdmin,
		})
		if err != nil {
			s.auditLogger.LogProvisioning(ctx, "", email, false)
			errs = append(errs, fmt.Errorf("provision %s: %w", pkglogger.SanitizedEmail(email), err))
			continue
		}

		s.auditLogger.LogProvisioning(ctx, user.ID, email, true)
		s.logger.Info("admin account provisioned",
			slog.String("user_id", user.ID),
			slog.String("email", pkglogger.SanitizedEmail(email)))
	}

	return errors.Join(errs...)
}

// infraError keeps already-classified store errors and classifies the rest
func infraError(err error) error {
	if errors.Is(err, models.ErrInfraUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrInfraUnavailable, err)
}

func userModelToResponse(user *models.User) *AdminUserResponse {
	return &AdminUserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
}
