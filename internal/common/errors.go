// Package common defines sentinel errors shared by the repositories, the
// discovery reconciler and the CLI. Callers should use errors.Is to match
// these values; the concrete errors are wrapped with the offending id or
// field name.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound   = errors.New("not found")
	ErrorValidation = errors.New("validation error")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Bearer token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Gateway transaction state errors.
	ErrorAlreadyInTransaction = errors.New("already in transaction")
	ErrorNotInTransaction     = errors.New("not in transaction")
)
