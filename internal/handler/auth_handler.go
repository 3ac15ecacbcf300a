package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ejehcaleb2/ease-home-find/internal/middleware"
	apperrors "github.com/ejehcaleb2/ease-home-find/internal/pkg/errors"
	"github.com/ejehcaleb2/ease-home-find/internal/service"
)

// AuthHandler handles password sign-in and profile retrieval for accounts
// created through the OTP flow.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest is the sign-in request body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	res, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":      "Invalid email or password. Please check your credentials and try again.",
				"error_type": "invalid_credentials",
			})
			return
		}
		log.Printf("[AuthHandler] login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        res.User,
		"accessToken": res.AccessToken,
		"expiresIn":   res.ExpiresIn,
		"tokenType":   "Bearer",
	})
}

// GetMe handles GET /users/me for an authenticated user.
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
		return
	}

	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found", "error_type": "not_found"})
			return
		}
		log.Printf("[AuthHandler] failed to load user id=%d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
