package database

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/BradenHooton/landing/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapPostgresError converts driver errors into model sentinels. Anything that
// means the store could not be reached is reported as ErrInfraUnavailable.
func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return models.ErrConflict
		case "23503", "23502", "23514", "22001": // foreign_key, not_null, check, string_data_right_truncation
			return models.ErrBadRequest
		case "57P01", "57P03", "53300": // admin_shutdown, cannot_connect_now, too_many_connections
			return fmt.Errorf("%w: %s", models.ErrInfraUnavailable, pgErr.Code)
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", models.ErrInfraUnavailable, err)
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) || errors.As(err, &netErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", models.ErrInfraUnavailable, err)
	}

	return err
}
