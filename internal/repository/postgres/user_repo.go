package postgres

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/ejehcaleb2/ease-home-find/internal/domain/entity"
	apperrors "github.com/ejehcaleb2/ease-home-find/internal/pkg/errors"
)

// UserRepo implements repository.UserRepository.
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo creates a new user repository.
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new user. A unique index violation on email is translated
// to ErrConflict so the service can report it as a provisioning failure.
func (r *UserRepo) Create(user *entity.User) error {
	err := r.db.Create(user).Error
	if err != nil && isUniqueViolation(err) {
		return apperrors.ErrConflict
	}
	return err
}

// GetByID returns the user with the given id.
func (r *UserRepo) GetByID(id uint) (*entity.User, error) {
	var user entity.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns the user with the given email.
func (r *UserRepo) GetByEmail(email string) (*entity.User, error) {
	var user entity.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// isUniqueViolation detects a unique constraint error without binding to a
// specific driver error type. GORM exposes ErrDuplicatedKey for dialects with
// translation enabled; the message check covers the rest.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
