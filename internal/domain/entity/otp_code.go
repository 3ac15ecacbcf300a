package entity

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPCodeTTL is how long an issued code stays verifiable.
const OTPCodeTTL = 10 * time.Minute

// OTPCode stores one issued verification code. Every issuance (including
// resends) creates a new row; old rows are never revoked, they expire
// through the time predicate at lookup.
type OTPCode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:100;not null;index:idx_otp_codes_email_code" json:"email"`
	Code      string    `gorm:"size:6;not null;index:idx_otp_codes_email_code" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	Consumed  bool      `gorm:"not null;default:false" json:"consumed"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the GORM table name.
func (OTPCode) TableName() string {
	return "otp_codes"
}

// IsExpired reports whether the code is past its expiry at the given instant.
func (c *OTPCode) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// GenerateOTPCode returns a fresh 6-digit code drawn uniformly from
// [100000, 999999]. Collisions with outstanding codes are tolerated because
// verification is scoped by (email, code).
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
