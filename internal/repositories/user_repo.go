package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BradenHooton/landing/internal/database"
	"github.com/BradenHooton/landing/internal/models"
	"github.com/google/uuid"
)

const userColumns = `id, open_id, name, email, password, login_method, role, created_at, updated_at, last_signed_in`

// UserRepository is the pgx-backed credential store over landing_users.
type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// rowScanner is satisfied by pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUserRow handles nullable columns and populates a User from a row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var name *string

	err := scanner.Scan(
		&user.ID, &user.OpenID, &name, &user.Email, &user.PasswordDigest,
		&user.LoginMethod, &user.Role,
		&user.CreatedAt, &user.UpdatedAt, &user.LastSignedIn,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if name != nil {
		user.Name = *name
	}

	return &user, nil
}

// FindByEmail looks up a row by its lowercased email. Missing rows return
// models.ErrNotFound; an unreachable store returns models.ErrInfraUnavailable.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := r.db.WithQueryTimeout(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM landing_users WHERE email = $1`

	return scanUserRow(r.db.Pool.QueryRow(ctx, query, normalizeEmail(email)))
}

// Upsert inserts the user or, when the email already exists, overwrites its
// password, role, login method and name. The returned row keeps the original
// id, open_id and created_at.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	ctx, cancel := r.db.WithQueryTimeout(ctx)
	defer cancel()

	email := normalizeEmail(user.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", models.ErrBadRequest)
	}

	id := user.ID
	if id == "" {
		id = uuid.New().String()
	}
	openID := user.OpenID
	if openID == "" {
		openID = LocalOpenID(email)
	}
	role := user.Role
	if role == "" {
		role = models.RoleUser
	}
	loginMethod := user.LoginMethod
	if loginMethod == "" {
		loginMethod = models.LoginMethodLocal
	}

	var name *string
	if user.Name != "" {
		name = &user.Name
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO landing_users (id, open_id, name, email, password, login_method, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (email) DO UPDATE SET
			password     = EXCLUDED.password,
			role         = EXCLUDED.role,
			login_method = EXCLUDED.login_method,
			name         = COALESCE(EXCLUDED.name, landing_users.name),
			updated_at   = EXCLUDED.updated_at
		RETURNING ` + userColumns

	return scanUserRow(r.db.Pool.QueryRow(ctx, query,
		id, openID, name, email, user.PasswordDigest, loginMethod, role, now,
	))
}

// TouchLastSignedIn stamps the row with the current time.
func (r *UserRepository) TouchLastSignedIn(ctx context.Context, id string) error {
	ctx, cancel := r.db.WithQueryTimeout(ctx)
	defer cancel()

	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE landing_users SET last_signed_in = $2, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// LocalOpenID is the open_id given to password-based accounts.
func LocalOpenID(email string) string {
	return "local_" + normalizeEmail(email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
