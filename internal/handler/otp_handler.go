package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ejehcaleb2/ease-home-find/internal/pkg/errors"
	"github.com/ejehcaleb2/ease-home-find/internal/service"
)

// OTPHandler exposes the issuance and verification endpoints of the sign-up
// flow.
type OTPHandler struct {
	otpService *service.OTPService
}

// NewOTPHandler creates the OTP endpoints handler.
func NewOTPHandler(otpService *service.OTPService) *OTPHandler {
	return &OTPHandler{otpService: otpService}
}

// SendOTPRequest is the issuance request body.
type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyOTPRequest carries the pending registration plus the entered code.
type VerifyOTPRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Code     string `json:"code" binding:"required,len=6,numeric"`
	Password string `json:"password" binding:"required,min=6,max=50"`
	FullName string `json:"fullName" binding:"required,min=2,max=100"`
}

// SendOTP handles POST /otp/send. The generated code is stored before any
// delivery attempt, so a delivery failure still leaves a verifiable code; it
// is reported separately so the client can offer a resend.
func (h *OTPHandler) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required", "details": err.Error()})
		return
	}

	res, err := h.otpService.IssueCode(c.Request.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		case errors.Is(err, service.ErrDeliveryFailed):
			c.JSON(http.StatusBadGateway, gin.H{
				"error":      "Failed to deliver the verification code. Please try again.",
				"error_type": "delivery_failed",
			})
		default:
			log.Printf("[OTPHandler] issuance failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate OTP"})
		}
		return
	}

	if res.TestMode {
		c.JSON(http.StatusOK, gin.H{
			"message":  "OTP sent successfully",
			"testMode": true,
			"testCode": res.TestCode,
		})
		return
	}

	// The code itself is never echoed back here.
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent successfully"})
}

// VerifyOTP handles POST /otp/verify. On success the account exists but no
// session is established; the client signs in separately.
func (h *OTPHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email, OTP, password, and full name are required", "details": err.Error()})
		return
	}

	user, err := h.otpService.VerifyCode(c.Request.Context(), service.VerifyInput{
		Email:    req.Email,
		Code:     req.Code,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email, OTP, password, and full name are required"})
		case errors.Is(err, service.ErrInvalidOrExpiredCode):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "Invalid or expired OTP",
				"error_type": "invalid_or_expired_code",
			})
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "An account with this email already exists",
				"error_type": "email_taken",
			})
		default:
			log.Printf("[OTPHandler] verification failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Account created successfully! Please login.",
		"user":    user,
	})
}
