package service

import (
	"errors"
	"fmt"
	"log"

	"github.com/ejehcaleb2/ease-home-find/internal/domain/entity"
	"github.com/ejehcaleb2/ease-home-find/internal/domain/repository"
	apperrors "github.com/ejehcaleb2/ease-home-find/internal/pkg/errors"
	"github.com/ejehcaleb2/ease-home-find/pkg/auth"
)

// LoginResult bundles the authenticated user with an issued access token.
type LoginResult struct {
	User        *entity.User
	AccessToken string
	ExpiresIn   int
}

// AuthService handles password sign-in for accounts created through the OTP
// flow. Verification never signs the user in, so this is the separate
// authentication step the sign-up flow hands off to.
type AuthService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
}

// NewAuthService creates the sign-in service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService) (*AuthService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if jwtService == nil {
		return nil, fmt.Errorf("jwt service is required")
	}
	return &AuthService{userRepo: userRepo, jwtService: jwtService}, nil
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords both map to ErrInvalidCredentials so the response does not leak
// which one failed.
func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	log.Printf("[AuthService] user id=%d signed in", user.ID)
	return &LoginResult{
		User:        user,
		AccessToken: token,
		ExpiresIn:   int(s.jwtService.Expiry().Seconds()),
	}, nil
}

// GetUserByID returns the user for profile display.
func (s *AuthService) GetUserByID(id uint) (*entity.User, error) {
	return s.userRepo.GetByID(id)
}
