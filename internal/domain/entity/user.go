package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User represents a provisioned account. Accounts are only ever created as a
// side effect of successful OTP verification, so EmailVerifiedAt is set at
// creation time.
type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Email           string     `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password        string     `gorm:"size:100;not null" json:"-"`
	FullName        string     `gorm:"size:100;not null;default:''" json:"full_name"`
	EmailVerifiedAt *time.Time `gorm:"type:timestamp" json:"email_verified_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the GORM table name.
func (User) TableName() string {
	return "users"
}

// BeforeSave hashes the password unless it already is a bcrypt hash.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if len(u.Password) > 0 && !strings.HasPrefix(u.Password, "$2a$") &&
		!strings.HasPrefix(u.Password, "$2b$") && !strings.HasPrefix(u.Password, "$2y$") {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[User.BeforeSave] failed to hash password for email=%s: %v", u.Email, err)
			return err
		}
		u.Password = string(hashedPassword)
	}
	return nil
}

// CheckPassword reports whether the given plaintext matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}
