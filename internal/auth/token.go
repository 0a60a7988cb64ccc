package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/landing/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultSessionTTL is the fixed lifetime of an admin session token.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionCodec signs and verifies stateless HS256 session tokens.
type SessionCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionCodec requires a non-empty secret. A zero ttl means DefaultSessionTTL.
func NewSessionCodec(secret string, ttl time.Duration) (*SessionCodec, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// SetClock replaces time.Now for signing and expiry checks.
func (c *SessionCodec) SetClock(now func() time.Time) {
	c.now = now
}

func (c *SessionCodec) TTL() time.Duration {
	return c.ttl
}

// Sign issues a token for user and returns it with its expiry.
func (c *SessionCodec) Sign(user *models.User) (string, time.Time, error) {
	if user == nil || user.ID == "" {
		return "", time.Time{}, errors.New("cannot sign session for empty user")
	}

	issuedAt := c.now()
	expiresAt := issuedAt.Add(c.ttl)

	claims := &models.SessionClaims{
		OpenID: user.OpenID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	// NumericDate has second precision
	return token, expiresAt.Truncate(time.Second), nil
}

// Verify checks signature and expiry. Every failure wraps models.ErrTokenInvalid.
func (c *SessionCodec) Verify(tokenString string) (*models.SessionClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", models.ErrTokenInvalid)
	}

	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, models.ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", models.ErrTokenInvalid)
	}

	return claims, nil
}
