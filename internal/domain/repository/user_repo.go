package repository

import (
	"github.com/ejehcaleb2/ease-home-find/internal/domain/entity"
)

// UserRepository defines account persistence operations.
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
}
