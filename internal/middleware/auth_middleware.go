package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ejehcaleb2/ease-home-find/pkg/auth"
)

const userIDContextKey = "user_id"

// AuthMiddleware validates bearer access tokens.
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates the auth middleware.
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// RequireAuth aborts with 401 unless the request carries a valid
// "Authorization: Bearer <token>" header. On success the user id is stored in
// the gin context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "Unauthorized",
				"error_type": "token_missing",
			})
			return
		}

		claims, err := m.jwtService.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			errorType := "token_invalid"
			if err == auth.ErrExpiredToken {
				errorType = "token_expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "Unauthorized",
				"error_type": errorType,
			})
			return
		}

		c.Set(userIDContextKey, claims.UserID)
		c.Next()
	}
}

// UserIDFromContext extracts the authenticated user id set by RequireAuth.
func UserIDFromContext(c *gin.Context) (uint, bool) {
	v, exists := c.Get(userIDContextKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
