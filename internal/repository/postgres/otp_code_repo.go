package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ejehcaleb2/ease-home-find/internal/domain/entity"
	apperrors "github.com/ejehcaleb2/ease-home-find/internal/pkg/errors"
)

// OTPCodeRepo implements repository.OTPCodeRepository.
type OTPCodeRepo struct {
	db *gorm.DB
}

// NewOTPCodeRepo creates a new verification code repository.
func NewOTPCodeRepo(db *gorm.DB) *OTPCodeRepo {
	return &OTPCodeRepo{db: db}
}

// Create inserts a new code row. One row per issuance attempt; resends do not
// touch earlier rows.
func (r *OTPCodeRepo) Create(code *entity.OTPCode) error {
	return r.db.Create(code).Error
}

// FindActive returns the first unconsumed, unexpired row for (email, code).
// The filter matches the exact code supplied, not merely the most recent
// issuance for the email.
func (r *OTPCodeRepo) FindActive(email, code string, now time.Time) (*entity.OTPCode, error) {
	var row entity.OTPCode
	err := r.db.
		Where("email = ? AND code = ? AND consumed = ? AND expires_at > ?", email, code, false, now).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up verification code: %w", err)
	}
	return &row, nil
}

// Consume marks the row consumed with a compare-and-set on the consumed flag.
// Zero rows affected means another request consumed it first (or the id is
// unknown) and is reported as ErrNotFound.
func (r *OTPCodeRepo) Consume(id uint) error {
	res := r.db.Model(&entity.OTPCode{}).
		Where("id = ? AND consumed = ?", id, false).
		Update("consumed", true)
	if res.Error != nil {
		return fmt.Errorf("failed to consume verification code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteExpiredBefore removes rows that expired before the cutoff. Expiry is
// enforced at read time; this only keeps the table from growing unbounded.
func (r *OTPCodeRepo) DeleteExpiredBefore(cutoff time.Time) (int64, error) {
	res := r.db.Where("expires_at < ?", cutoff).Delete(&entity.OTPCode{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete expired verification codes: %w", res.Error)
	}
	return res.RowsAffected, nil
}
