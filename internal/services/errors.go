package services

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the services and translated to HTTP statuses by the handlers.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidPayload     = fmt.Errorf("%w: invalid payload", ErrValidation)
	ErrNotFound           = errors.New("not found")
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("missing bearer token")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrDuplicateEmail     = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrStorage            = errors.New("storage error")
)

// Token verification failures. The gate reports all of them as ErrForbidden.
var (
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenInvalid   = errors.New("token signature is invalid")
	ErrTokenExpired   = errors.New("token has expired")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
