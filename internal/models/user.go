package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	LoginMethodLocal = "local"
)

// User is a row of the shared user table. Admin identities are the rows with
// Role == RoleAdmin and a local password digest.
type User struct {
	ID             string
	OpenID         string
	Name           string
	Email          string  // always stored lowercased
	PasswordDigest *string // NULL for federated logins
	LoginMethod    string
	Role           string // RoleUser or RoleAdmin
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastSignedIn   *time.Time
}

// IsAdmin reports whether the row may authenticate through the admin login.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// AdminAccount is one configured admin to provision at startup.
type AdminAccount struct {
	Email    string
	Password string
	Name     string
}
