package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Request gating errors. Each wraps the generic class it is reported as.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrTokenInvalid       = fmt.Errorf("%w: session token invalid", ErrUnauthorized)
	ErrNotAdmin           = fmt.Errorf("%w: account has no admin rights", ErrForbidden)
	ErrInfraUnavailable   = fmt.Errorf("%w: credential store unavailable", ErrInternalServer)
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
)
