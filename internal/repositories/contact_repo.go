package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/landing/internal/database"
	"github.com/BradenHooton/landing/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ContactRepository struct {
	db *database.DB
}

func NewContactRepository(db *database.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func scanContactRow(scanner rowScanner) (*models.ContactSubmission, error) {
	var c models.ContactSubmission
	if err := scanner.Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &c, nil
}

func scanContactRows(rows pgx.Rows) ([]*models.ContactSubmission, error) {
	defer rows.Close()

	contacts := make([]*models.ContactSubmission, 0)
	for rows.Next() {
		c, err := scanContactRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact submission: %w", err)
		}
		contacts = append(contacts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", database.MapPostgresError(err))
	}

	return contacts, nil
}

func (r *ContactRepository) Create(ctx context.Context, c *models.ContactSubmission) (*models.ContactSubmission, error) {
	ctx, cancel := r.db.WithQueryTimeout(ctx)
	defer cancel()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO contact_submissions (id, full_name, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, full_name, email, phone, created_at
	`

	return scanContactRow(r.db.Pool.QueryRow(ctx, query, c.ID, c.FullName, c.Email, c.Phone, c.CreatedAt))
}

// List returns one page, newest first.
func (r *ContactRepository) List(ctx context.Context, limit, offset int) ([]*models.ContactSubmission, error) {
	ctx, cancel := r.db.WithQueryTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, full_name, email, phone, created_at
		FROM contact_submissions
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact submissions: %w", database.MapPostgresError(err))
	}

	return scanContactRows(rows)
}

// ListAll returns every submission, newest first. Used by the CSV export.
func (r *ContactRepository) ListAll(ctx context.Context) ([]*models.ContactSubmission, error) {
	ctx, cancel := r.db.WithQueryTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, full_name, email, phone, created_at
		FROM contact_submissions
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact submissions: %w", database.MapPostgresError(err))
	}

	return scanContactRows(rows)
}

func (r *ContactRepository) Count(ctx context.Context) (int, error) {
	ctx, cancel := r.db.WithQueryTimeout(ctx)
	defer cancel()

	var n int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM contact_submissions`).Scan(&n); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return n, nil
}
