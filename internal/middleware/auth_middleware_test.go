package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejehcaleb2/ease-home-find/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthTestRouter(t *testing.T, jwtService *auth.JWTService) *gin.Engine {
	t.Helper()
	r := gin.New()
	m := NewAuthMiddleware(jwtService)
	r.GET("/protected", m.RequireAuth(), func(c *gin.Context) {
		id, ok := UserIDFromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return r
}

func performGet(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_ValidToken(t *testing.T) {
	jwtService, err := auth.NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)
	r := newAuthTestRouter(t, jwtService)

	token, err := jwtService.GenerateToken(42, "a@example.com")
	require.NoError(t, err)

	w := performGet(r, "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id": 42}`, w.Body.String())
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	jwtService, err := auth.NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)
	r := newAuthTestRouter(t, jwtService)

	for _, header := range []string{"", "Basic abc", "Bearer"} {
		w := performGet(r, header)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "token_missing")
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	jwtService, err := auth.NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)
	r := newAuthTestRouter(t, jwtService)

	w := performGet(r, "Bearer not-a-token")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_invalid")
}

func TestRequireAuth_WrongSecret(t *testing.T) {
	issuing, err := auth.NewJWTService("other-secret", time.Hour)
	require.NoError(t, err)
	verifying, err := auth.NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)
	r := newAuthTestRouter(t, verifying)

	token, err := issuing.GenerateToken(42, "a@example.com")
	require.NoError(t, err)

	w := performGet(r, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_invalid")
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	jwtService, err := auth.NewJWTService("test-secret", time.Millisecond)
	require.NoError(t, err)
	r := newAuthTestRouter(t, jwtService)

	token, err := jwtService.GenerateToken(42, "a@example.com")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	w := performGet(r, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_expired")
}
