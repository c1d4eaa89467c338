package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates the caller has no authenticated session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the caller's permission set lacks the required permission.
	ErrForbidden = errors.New("forbidden")
	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate entry")
)
