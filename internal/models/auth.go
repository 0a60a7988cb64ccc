package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload of an admin session token. The user id travels
// in RegisteredClaims.Subject.
type SessionClaims struct {
	OpenID string `json:"open_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c *SessionClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}
