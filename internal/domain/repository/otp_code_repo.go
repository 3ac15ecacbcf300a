package repository

import (
	"time"

	"github.com/ejehcaleb2/ease-home-find/internal/domain/entity"
)

// OTPCodeRepository persists issued verification codes.
type OTPCodeRepository interface {
	Create(code *entity.OTPCode) error
	// FindActive returns the first row matching email and code that is
	// unconsumed and unexpired at the given instant.
	FindActive(email, code string, now time.Time) (*entity.OTPCode, error)
	// Consume flips consumed false->true for the given row. It must be a
	// conditional update: if the row was already consumed it returns
	// apperrors.ErrNotFound, so two racing verifications cannot both win.
	Consume(id uint) error
	DeleteExpiredBefore(cutoff time.Time) (int64, error)
}
