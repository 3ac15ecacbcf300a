package errors

import "errors"

// Application-wide sentinel errors.
var (
	// ErrNotFound is returned when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned for failed authentication (bad token,
	// bad credentials).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation is returned for invalid request input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned for state conflicts, e.g. provisioning an
	// account for an email that already has one.
	ErrConflict = errors.New("resource state conflict")
)
