package service

import "errors"

// Sign-up flow specific errors used by handlers for stable error_type mapping.
var (
	ErrInvalidOrExpiredCode = errors.New("invalid_or_expired_code")
	ErrDeliveryFailed       = errors.New("delivery_failed")
	ErrEmailTaken           = errors.New("email_taken")
	ErrInvalidCredentials   = errors.New("invalid_credentials")
)
