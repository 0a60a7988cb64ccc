package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/BradenHooton/landing/internal/models"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// SessionContextKey is the key for storing session claims in context
	SessionContextKey contextKey = "session"
)

// Introspection reasons. They are logged, never sent to the client.
const (
	ReasonMissing  = "missing"
	ReasonInvalid  = "invalid"
	ReasonNotAdmin = "not_admin"
)

// Session is the result of inspecting a session cookie.
type Session struct {
	Authenticated bool
	Claims        *models.SessionClaims
	Reason        string // set when Authenticated is false
}

// SessionIntrospector decides whether a raw token is an admin session.
type SessionIntrospector interface {
	Introspect(ctx context.Context, token string) Session
}

// RequireAdminSession admits requests carrying a valid admin session cookie
// and stores the claims in the request context.
func RequireAdminSession(introspector SessionIntrospector, cookies CookiePolicy) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := introspector.Introspect(r.Context(), cookies.Read(r))
			if !session.Authenticated {
				status := http.StatusUnauthorized
				if session.Reason == ReasonNotAdmin {
					status = http.StatusForbidden
				}
				WriteUnauthenticated(w, status)
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, session.Claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WriteUnauthenticated writes the {"authenticated": false} body used by
// session endpoints.
func WriteUnauthenticated(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]bool{"authenticated": false})
}

// GetSessionFromContext extracts session claims from request context
func GetSessionFromContext(r *http.Request) *models.SessionClaims {
	claims, ok := r.Context().Value(SessionContextKey).(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}
