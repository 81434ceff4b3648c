package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nimbusapp/nimbus-api/internal/application/otp"
	"github.com/nimbusapp/nimbus-api/internal/domain"
	"github.com/nimbusapp/nimbus-api/internal/infrastructure/identity"
	"github.com/nimbusapp/nimbus-api/internal/transport/http/cookies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct{ mock.Mock }

func (m *mockService) Signup(ctx context.Context, req otp.SignupRequest) (*otp.SignupResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*otp.SignupResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) Login(ctx context.Context, req otp.LoginRequest, handle string) (*otp.LoginResult, error) {
	args := m.Called(ctx, req, handle)
	if r, _ := args.Get(0).(*otp.LoginResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) VerifyCode(ctx context.Context, accessToken, handle, code string) (*otp.VerifyResult, error) {
	args := m.Called(ctx, accessToken, handle, code)
	if r, _ := args.Get(0).(*otp.VerifyResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) ResendCode(ctx context.Context, handle, email string) (*otp.ResendResult, error) {
	args := m.Called(ctx, handle, email)
	if r, _ := args.Get(0).(*otp.ResendResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) ResetPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockService) UpdatePassword(ctx context.Context, recoveryCode, newPassword, confirmPassword string) (*identity.Session, error) {
	args := m.Called(ctx, recoveryCode, newPassword, confirmPassword)
	if s, _ := args.Get(0).(*identity.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) UpdateEmail(ctx context.Context, accessToken, newEmail string) error {
	return m.Called(ctx, accessToken, newEmail).Error(0)
}

func (m *mockService) WaitForEmailChange(ctx context.Context, accessToken, newEmail string) error {
	return m.Called(ctx, accessToken, newEmail).Error(0)
}

func (m *mockService) CompleteCallback(ctx context.Context, req otp.CallbackRequest) (*otp.CallbackResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*otp.CallbackResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) SignOut(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

var _ otp.Service = (*mockService)(nil)

func newAuthHandler(svc otp.Service) *AuthHandler {
	return NewAuthHandler(svc, cookies.NewManager(false, 10*time.Minute))
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestSignupHandler_SetsSessionAndVerificationCookies(t *testing.T) {
	svc := &mockService{}
	svc.On("Signup", mock.Anything, otp.SignupRequest{Email: "a@x.com", Password: "secret1"}).Return(&otp.SignupResult{
		Session:         &identity.Session{AccessToken: "tok", RefreshToken: "ref", ExpiresIn: 3600},
		ChallengeHandle: "handle-1",
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"email":"a@x.com","password":"secret1"}`))
	rec := httptest.NewRecorder()
	newAuthHandler(svc).Signup(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redirect":"/verify-code"`)

	access := findCookie(t, rec, cookies.AccessToken)
	require.NotNil(t, access)
	assert.Equal(t, "tok", access.Value)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, 3600, access.MaxAge)

	verification := findCookie(t, rec, cookies.Verification)
	require.NotNil(t, verification)
	assert.Equal(t, "handle-1", verification.Value)
	assert.Equal(t, 600, verification.MaxAge)
}

func TestSignupHandler_MalformedBody(t *testing.T) {
	svc := &mockService{}
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	newAuthHandler(svc).Signup(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, len(svc.Calls))
}

func TestLoginHandler_VerifiedSkipsVerificationCookie(t *testing.T) {
	svc := &mockService{}
	svc.On("Login", mock.Anything, mock.Anything, "").Return(&otp.LoginResult{
		Redirect: "/dashboard",
		Session:  &identity.Session{AccessToken: "tok", RefreshToken: "ref", ExpiresIn: 3600},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@x.com","password":"secret1"}`))
	rec := httptest.NewRecorder()
	newAuthHandler(svc).Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redirect":"/dashboard"`)
	assert.Nil(t, findCookie(t, rec, cookies.Verification))
}

func TestLoginHandler_ForwardsExistingHandle(t *testing.T) {
	svc := &mockService{}
	svc.On("Login", mock.Anything, mock.Anything, "old-handle").Return(&otp.LoginResult{
		Redirect:        "/verify-code",
		Session:         &identity.Session{AccessToken: "tok", ExpiresIn: 3600},
		ChallengeHandle: "new-handle",
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@x.com","password":"secret1"}`))
	req.AddCookie(&http.Cookie{Name: cookies.Verification, Value: "old-handle"})
	rec := httptest.NewRecorder()
	newAuthHandler(svc).Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	verification := findCookie(t, rec, cookies.Verification)
	require.NotNil(t, verification)
	assert.Equal(t, "new-handle", verification.Value)
}

func TestVerifyCodeHandler_MismatchKeepsCookie(t *testing.T) {
	svc := &mockService{}
	svc.On("VerifyCode", mock.Anything, "tok", "handle-1", "0000").Return(nil, domain.ErrCodeMismatch)

	req := httptest.NewRequest(http.MethodPost, "/auth/verify-code", strings.NewReader(`{"code":"0000"}`))
	req.AddCookie(&http.Cookie{Name: cookies.AccessToken, Value: "tok"})
	req.AddCookie(&http.Cookie{Name: cookies.Verification, Value: "handle-1"})
	rec := httptest.NewRecorder()
	newAuthHandler(svc).VerifyCode(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// The record stays usable for a retry.
	assert.Nil(t, findCookie(t, rec, cookies.Verification))
}

func TestVerifyCodeHandler_ExpiredClearsCookie(t *testing.T) {
	svc := &mockService{}
	svc.On("VerifyCode", mock.Anything, "tok", "handle-1", "4821").Return(nil, domain.ErrChallengeExpired)

	req := httptest.NewRequest(http.MethodPost, "/auth/verify-code", strings.NewReader(`{"code":"4821"}`))
	req.AddCookie(&http.Cookie{Name: cookies.AccessToken, Value: "tok"})
	req.AddCookie(&http.Cookie{Name: cookies.Verification, Value: "handle-1"})
	rec := httptest.NewRecorder()
	newAuthHandler(svc).VerifyCode(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	cleared := findCookie(t, rec, cookies.Verification)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestVerifyCodeHandler_SuccessClearsCookie(t *testing.T) {
	svc := &mockService{}
	svc.On("VerifyCode", mock.Anything, "tok", "handle-1", "4821").Return(&otp.VerifyResult{Redirect: "/dashboard"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/verify-code", strings.NewReader(`{"code":"4821"}`))
	req.AddCookie(&http.Cookie{Name: cookies.AccessToken, Value: "tok"})
	req.AddCookie(&http.Cookie{Name: cookies.Verification, Value: "handle-1"})
	rec := httptest.NewRecorder()
	newAuthHandler(svc).VerifyCode(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redirect":"/dashboard"`)
	cleared := findCookie(t, rec, cookies.Verification)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestResendHandler_CooldownMapsTo429(t *testing.T) {
	svc := &mockService{}
	svc.On("ResendCode", mock.Anything, "handle-1", "a@x.com").Return(nil, domain.ErrResendCooldown)

	req := httptest.NewRequest(http.MethodPost, "/auth/resend-code", strings.NewReader(`{"email":"a@x.com"}`))
	req.AddCookie(&http.Cookie{Name: cookies.Verification, Value: "handle-1"})
	rec := httptest.NewRecorder()
	newAuthHandler(svc).ResendCode(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestSignOutHandler_ClearsEverything(t *testing.T) {
	svc := &mockService{}
	svc.On("SignOut", mock.Anything, "tok").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	req.AddCookie(&http.Cookie{Name: cookies.AccessToken, Value: "tok"})
	rec := httptest.NewRecorder()
	newAuthHandler(svc).SignOut(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redirect":"/login"`)
	for _, name := range []string{cookies.AccessToken, cookies.RefreshToken, cookies.Verification} {
		ck := findCookie(t, rec, name)
		require.NotNil(t, ck, name)
		assert.Less(t, ck.MaxAge, 0, name)
	}
}

func TestProviderErrorStatusForwarded(t *testing.T) {
	svc := &mockService{}
	svc.On("Login", mock.Anything, mock.Anything, "").Return(nil, &identity.Error{Status: 400, Message: "Invalid login credentials"})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@x.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	newAuthHandler(svc).Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid login credentials")
}
