package entity

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTPCode_Format(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := GenerateOTPCode()
		require.NoError(t, err)

		assert.Len(t, code, 6, "code must always be 6 characters, got %q", code)

		n, err := strconv.Atoi(code)
		require.NoError(t, err, "code must be numeric, got %q", code)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestGenerateOTPCode_Independent(t *testing.T) {
	// Codes are drawn independently; 20 draws colliding into a single
	// value would mean the random source is broken.
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		code, err := GenerateOTPCode()
		require.NoError(t, err)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "repeated draws should not all be identical")
}

func TestOTPCode_IsExpired(t *testing.T) {
	expiresAt := time.Now().Add(10 * time.Minute)
	code := &OTPCode{Email: "a@example.com", Code: "123456", ExpiresAt: expiresAt}

	assert.False(t, code.IsExpired(expiresAt.Add(-1*time.Second)), "one second before expiry the code is still valid")
	assert.True(t, code.IsExpired(expiresAt.Add(1*time.Second)), "one second after expiry the code is rejected")
	assert.True(t, code.IsExpired(expiresAt), "the expiry instant itself is no longer valid")
}
