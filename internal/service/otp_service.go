package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ejehcaleb2/ease-home-find/internal/domain/entity"
	"github.com/ejehcaleb2/ease-home-find/internal/domain/repository"
	apperrors "github.com/ejehcaleb2/ease-home-find/internal/pkg/errors"
)

// IssueResult reports the outcome of an issuance attempt. The row is always
// stored by the time a result is returned; Delivered distinguishes
// stored+delivered from stored+delivery-failed. TestCode is populated only
// when the service runs with the explicit test-mode flag and must never
// appear in a production response.
type IssueResult struct {
	Delivered bool
	TestMode  bool
	TestCode  string
}

// VerifyInput carries the pending registration presented for verification.
type VerifyInput struct {
	Email    string
	Code     string
	Password string
	FullName string
}

// OTPService orchestrates code issuance (generate, persist, dispatch) and
// verification (match, consume, provision).
type OTPService struct {
	otpRepo      repository.OTPCodeRepository
	userRepo     repository.UserRepository
	emailService EmailService
	codeTTL      time.Duration
	testMode     bool
}

// NewOTPService builds the service. testMode discloses generated codes in the
// issuance result instead of dispatching them; it exists for environments
// without a delivery provider and is rejected at config load when a provider
// is configured.
func NewOTPService(
	otpRepo repository.OTPCodeRepository,
	userRepo repository.UserRepository,
	emailService EmailService,
	codeTTL time.Duration,
	testMode bool,
) (*OTPService, error) {
	if otpRepo == nil {
		return nil, fmt.Errorf("otp code repository is required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if emailService == nil {
		return nil, fmt.Errorf("email service is required")
	}
	if codeTTL <= 0 {
		codeTTL = entity.OTPCodeTTL
	}
	if testMode {
		log.Printf("[OTPService] WARNING: test mode enabled, verification codes will be returned to callers")
	}

	return &OTPService{
		otpRepo:      otpRepo,
		userRepo:     userRepo,
		emailService: emailService,
		codeTTL:      codeTTL,
		testMode:     testMode,
	}, nil
}

// IssueCode generates a fresh code, stores it and attempts delivery.
// Storage failure is fatal and nothing is dispatched. Delivery failure is
// non-fatal to the stored row: the result still describes a stored code and
// the returned error is ErrDeliveryFailed so the caller can offer a retry.
func (s *OTPService) IssueCode(ctx context.Context, email string) (*IssueResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	}

	code, err := entity.GenerateOTPCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	record := &entity.OTPCode{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(s.codeTTL),
	}
	if err := s.otpRepo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to store verification code: %w", err)
	}

	if s.testMode {
		log.Printf("[OTPService] test mode: disclosing code for email=%s", email)
		return &IssueResult{TestMode: true, TestCode: code}, nil
	}

	idempotencyKey := fmt.Sprintf("otp-send:%d", record.ID)
	if err := s.emailService.SendVerificationCode(ctx, email, code, idempotencyKey); err != nil {
		log.Printf("[OTPService] delivery failed for email=%s: %v (code remains stored)", email, err)
		return &IssueResult{Delivered: false}, ErrDeliveryFailed
	}

	return &IssueResult{Delivered: true}, nil
}

// VerifyCode validates a presented (email, code) pair, consumes the matching
// row and provisions the account. Consumption is a compare-and-set in the
// store: when two requests race on the same code, exactly one provisioning
// happens and the loser gets ErrInvalidOrExpiredCode.
func (s *OTPService) VerifyCode(ctx context.Context, in VerifyInput) (*entity.User, error) {
	if strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.Code) == "" ||
		in.Password == "" || strings.TrimSpace(in.FullName) == "" {
		return nil, fmt.Errorf("%w: email, code, password and full name are required", apperrors.ErrValidation)
	}

	now := time.Now()
	row, err := s.otpRepo.FindActive(strings.TrimSpace(in.Email), strings.TrimSpace(in.Code), now)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidOrExpiredCode
		}
		return nil, fmt.Errorf("failed to look up verification code: %w", err)
	}

	if err := s.otpRepo.Consume(row.ID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Lost the race against a concurrent verification.
			return nil, ErrInvalidOrExpiredCode
		}
		return nil, fmt.Errorf("failed to consume verification code: %w", err)
	}

	verifiedAt := now
	user := &entity.User{
		Email:           strings.TrimSpace(in.Email),
		Password:        in.Password,
		FullName:        strings.TrimSpace(in.FullName),
		EmailVerifiedAt: &verifiedAt,
	}
	if err := s.userRepo.Create(user); err != nil {
		// The code stays consumed: a failed provisioning burns it and the
		// user has to request a new one.
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to provision account: %w", err)
	}

	log.Printf("[OTPService] account provisioned for email=%s (user id=%d)", user.Email, user.ID)
	return user, nil
}
