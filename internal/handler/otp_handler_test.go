package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ejehcaleb2/ease-home-find/internal/domain/entity"
	apperrors "github.com/ejehcaleb2/ease-home-find/internal/pkg/errors"
	"github.com/ejehcaleb2/ease-home-find/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockOTPCodeRepo struct {
	mock.Mock
}

func (m *mockOTPCodeRepo) Create(code *entity.OTPCode) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *mockOTPCodeRepo) FindActive(email, code string, now time.Time) (*entity.OTPCode, error) {
	args := m.Called(email, code, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.OTPCode), args.Error(1)
}

func (m *mockOTPCodeRepo) Consume(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *mockOTPCodeRepo) DeleteExpiredBefore(cutoff time.Time) (int64, error) {
	args := m.Called(cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

type mockEmailSender struct {
	mock.Mock
}

func (m *mockEmailSender) SendVerificationCode(ctx context.Context, toEmail, code, idempotencyKey string) error {
	args := m.Called(ctx, toEmail, code, idempotencyKey)
	return args.Error(0)
}

func newOTPTestRouter(t *testing.T, otpRepo *mockOTPCodeRepo, userRepo *mockUserRepo, emailSender *mockEmailSender, testMode bool) *gin.Engine {
	t.Helper()
	svc, err := service.NewOTPService(otpRepo, userRepo, emailSender, 10*time.Minute, testMode)
	require.NoError(t, err)
	h := NewOTPHandler(svc)

	r := gin.New()
	r.POST("/otp/send", h.SendOTP)
	r.POST("/otp/verify", h.VerifyOTP)
	return r
}

func performJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// ============================================================================
// SendOTP
// ============================================================================

func TestOTPHandler_SendOTP_Validation(t *testing.T) {
	// Binding failures never reach the service, so a zero handler is enough.
	h := &OTPHandler{}
	r := gin.New()
	r.POST("/otp/send", h.SendOTP)

	tests := []struct {
		name string
		body any
	}{
		{"missing email", gin.H{}},
		{"blank email", gin.H{"email": ""}},
		{"malformed email", gin.H{"email": "not-an-email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(r, http.MethodPost, "/otp/send", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, "Email is required", body["error"])
		})
	}
}

func TestOTPHandler_SendOTP_Success(t *testing.T) {
	otpRepo := new(mockOTPCodeRepo)
	emailSender := new(mockEmailSender)

	otpRepo.On("Create", mock.AnythingOfType("*entity.OTPCode")).Return(nil)
	emailSender.On("SendVerificationCode", mock.Anything, "a@example.com", mock.AnythingOfType("string"), mock.AnythingOfType("string")).Return(nil)

	r := newOTPTestRouter(t, otpRepo, new(mockUserRepo), emailSender, false)

	w := performJSON(r, http.MethodPost, "/otp/send", gin.H{"email": "a@example.com"})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "OTP sent successfully", body["message"])
	assert.NotContains(t, body, "testCode")
	otpRepo.AssertExpectations(t)
	emailSender.AssertExpectations(t)
}

func TestOTPHandler_SendOTP_DeliveryFailure(t *testing.T) {
	otpRepo := new(mockOTPCodeRepo)
	emailSender := new(mockEmailSender)

	otpRepo.On("Create", mock.AnythingOfType("*entity.OTPCode")).Return(nil)
	emailSender.On("SendVerificationCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("resend send failed"))

	r := newOTPTestRouter(t, otpRepo, new(mockUserRepo), emailSender, false)

	w := performJSON(r, http.MethodPost, "/otp/send", gin.H{"email": "a@example.com"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "delivery_failed", body["error_type"])
}

func TestOTPHandler_SendOTP_StorageFailure(t *testing.T) {
	otpRepo := new(mockOTPCodeRepo)
	otpRepo.On("Create", mock.AnythingOfType("*entity.OTPCode")).Return(errors.New("connection refused"))

	r := newOTPTestRouter(t, otpRepo, new(mockUserRepo), new(mockEmailSender), false)

	w := performJSON(r, http.MethodPost, "/otp/send", gin.H{"email": "a@example.com"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Failed to generate OTP", body["error"])
}

func TestOTPHandler_SendOTP_TestMode(t *testing.T) {
	otpRepo := new(mockOTPCodeRepo)
	otpRepo.On("Create", mock.AnythingOfType("*entity.OTPCode")).Return(nil)

	r := newOTPTestRouter(t, otpRepo, new(mockUserRepo), new(mockEmailSender), true)

	w := performJSON(r, http.MethodPost, "/otp/send", gin.H{"email": "a@example.com"})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["testMode"])
	assert.Len(t, body["testCode"], 6)
}

// ============================================================================
// VerifyOTP
// ============================================================================

func TestOTPHandler_VerifyOTP_Validation(t *testing.T) {
	h := &OTPHandler{}
	r := gin.New()
	r.POST("/otp/verify", h.VerifyOTP)

	valid := gin.H{
		"email":    "a@example.com",
		"code":     "123456",
		"password": "password123",
		"fullName": "Ada Lovelace",
	}

	tests := []struct {
		name   string
		mutate func(gin.H)
	}{
		{"missing email", func(b gin.H) { delete(b, "email") }},
		{"missing code", func(b gin.H) { delete(b, "code") }},
		{"short code", func(b gin.H) { b["code"] = "12345" }},
		{"non numeric code", func(b gin.H) { b["code"] = "12a456" }},
		{"short password", func(b gin.H) { b["password"] = "12345" }},
		{"missing full name", func(b gin.H) { delete(b, "fullName") }},
		{"short full name", func(b gin.H) { b["fullName"] = "A" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := gin.H{}
			for k, v := range valid {
				body[k] = v
			}
			tt.mutate(body)

			w := performJSON(r, http.MethodPost, "/otp/verify", body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeBody(t, w)
			assert.Equal(t, "Email, OTP, password, and full name are required", resp["error"])
		})
	}
}

func TestOTPHandler_VerifyOTP_Success(t *testing.T) {
	otpRepo := new(mockOTPCodeRepo)
	userRepo := new(mockUserRepo)

	row := &entity.OTPCode{ID: 3, Email: "a@example.com", Code: "123456", ExpiresAt: time.Now().Add(5 * time.Minute)}
	otpRepo.On("FindActive", "a@example.com", "123456", mock.AnythingOfType("time.Time")).Return(row, nil)
	otpRepo.On("Consume", uint(3)).Return(nil)
	userRepo.On("Create", mock.AnythingOfType("*entity.User")).Run(func(args mock.Arguments) {
		args.Get(0).(*entity.User).ID = 42
	}).Return(nil)

	r := newOTPTestRouter(t, otpRepo, userRepo, new(mockEmailSender), false)

	w := performJSON(r, http.MethodPost, "/otp/verify", gin.H{
		"email":    "a@example.com",
		"code":     "123456",
		"password": "password123",
		"fullName": "Ada Lovelace",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Account created successfully! Please login.", body["message"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a@example.com", user["email"])
	assert.NotContains(t, user, "password", "the hash must never be serialized")
	// No session token in the response; the client signs in separately.
	assert.NotContains(t, body, "accessToken")

	otpRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestOTPHandler_VerifyOTP_InvalidOrExpired(t *testing.T) {
	otpRepo := new(mockOTPCodeRepo)
	otpRepo.On("FindActive", "a@example.com", "123456", mock.AnythingOfType("time.Time")).Return(nil, apperrors.ErrNotFound)

	r := newOTPTestRouter(t, otpRepo, new(mockUserRepo), new(mockEmailSender), false)

	w := performJSON(r, http.MethodPost, "/otp/verify", gin.H{
		"email":    "a@example.com",
		"code":     "123456",
		"password": "password123",
		"fullName": "Ada Lovelace",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "invalid_or_expired_code", body["error_type"])
	assert.Equal(t, "Invalid or expired OTP", body["error"])
}

func TestOTPHandler_VerifyOTP_EmailTaken(t *testing.T) {
	otpRepo := new(mockOTPCodeRepo)
	userRepo := new(mockUserRepo)

	row := &entity.OTPCode{ID: 3, Email: "a@example.com", Code: "123456", ExpiresAt: time.Now().Add(5 * time.Minute)}
	otpRepo.On("FindActive", "a@example.com", "123456", mock.AnythingOfType("time.Time")).Return(row, nil)
	otpRepo.On("Consume", uint(3)).Return(nil)
	userRepo.On("Create", mock.AnythingOfType("*entity.User")).Return(apperrors.ErrConflict)

	r := newOTPTestRouter(t, otpRepo, userRepo, new(mockEmailSender), false)

	w := performJSON(r, http.MethodPost, "/otp/verify", gin.H{
		"email":    "a@example.com",
		"code":     "123456",
		"password": "password123",
		"fullName": "Ada Lovelace",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "email_taken", body["error_type"])
}
