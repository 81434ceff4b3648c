package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/nimbusapp/nimbus-api/internal/domain"
	"github.com/nimbusapp/nimbus-api/internal/infrastructure/challenge"
	"github.com/nimbusapp/nimbus-api/internal/infrastructure/identity"
	"github.com/nimbusapp/nimbus-api/internal/pkg/validate"
)

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type ResendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type CallbackRequest struct {
	Code      string
	TokenHash string
	Type      string
	Next      string
}

// SignupResult carries the fresh session and the challenge handle the
// transport layer places in the verification cookie.
type SignupResult struct {
	Session         *identity.Session
	ChallengeHandle string
}

// LoginResult's Redirect is either the dashboard (verified) or the
// code-entry screen (unverified, with a freshly issued challenge).
type LoginResult struct {
	Redirect        string
	Session         *identity.Session
	ChallengeHandle string
}

type VerifyResult struct {
	Redirect string
}

type ResendResult struct {
	ChallengeHandle string
}

type CallbackResult struct {
	Redirect string
	Session  *identity.Session
}

// IdentityClient is the slice of the provider's surface the orchestrator uses.
type IdentityClient interface {
	SignUp(ctx context.Context, params identity.SignUpParams) (*identity.SignUpResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*identity.User, error)
	UpdateUser(ctx context.Context, accessToken string, params identity.UpdateUserParams) (*identity.User, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	ExchangeCodeForSession(ctx context.Context, code string) (*identity.Session, error)
	VerifyTokenHash(ctx context.Context, tokenHash, tokenType string) (*identity.Session, error)
}

// Mailer delivers the verification code email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*SignupResult, error)
	Login(ctx context.Context, req LoginRequest, handle string) (*LoginResult, error)
	VerifyCode(ctx context.Context, accessToken, handle, code string) (*VerifyResult, error)
	ResendCode(ctx context.Context, handle, email string) (*ResendResult, error)
	ResetPassword(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, recoveryCode, newPassword, confirmPassword string) (*identity.Session, error)
	UpdateEmail(ctx context.Context, accessToken, newEmail string) error
	WaitForEmailChange(ctx context.Context, accessToken, newEmail string) error
	CompleteCallback(ctx context.Context, req CallbackRequest) (*CallbackResult, error)
	SignOut(ctx context.Context, accessToken string) error
}

// ServiceDeps wires the orchestrator's collaborators.
type ServiceDeps struct {
	Identity   IdentityClient
	Mailer     Mailer
	Challenges challenge.Store

	SiteURL        string
	ChallengeTTL   time.Duration // default 10m
	ResendCooldown time.Duration // default 30s
	PollInterval   time.Duration // email-change polling, default 2s
	PollTimeout    time.Duration // email-change polling cap, default 2m
}

type service struct {
	identity   IdentityClient
	mailer     Mailer
	challenges challenge.Store

	siteURL        string
	challengeTTL   time.Duration
	resendCooldown time.Duration
	pollInterval   time.Duration
	pollTimeout    time.Duration
}

func NewService(deps ServiceDeps) Service {
	if deps.ChallengeTTL == 0 {
		deps.ChallengeTTL = 10 * time.Minute
	}
	if deps.ResendCooldown == 0 {
		deps.ResendCooldown = 30 * time.Second
	}
	if deps.PollInterval == 0 {
		deps.PollInterval = 2 * time.Second
	}
	if deps.PollTimeout == 0 {
		deps.PollTimeout = 2 * time.Minute
	}
	return &service{
		identity:       deps.Identity,
		mailer:         deps.Mailer,
		challenges:     deps.Challenges,
		siteURL:        deps.SiteURL,
		challengeTTL:   deps.ChallengeTTL,
		resendCooldown: deps.ResendCooldown,
		pollInterval:   deps.PollInterval,
		pollTimeout:    deps.PollTimeout,
	}
}

// Signup creates the account, signs in immediately (verification is an extra
// gate layered on top, not a provider precondition), issues a challenge and
// emails the code. Email delivery failure surfaces a generic error; the
// account and session are already committed at that point.
func (s *service) Signup(ctx context.Context, req SignupRequest) (*SignupResult, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("invalid credentials format: %w", domain.ErrBadRequest)
	}

	created, err := s.identity.SignUp(ctx, identity.SignUpParams{
		Email:         req.Email,
		Password:      req.Password,
		Data:          map[string]interface{}{"email_verified": false},
		SuppressEmail: true,
	})
	if err != nil {
		return nil, err
	}
	// A user without a session means the address is already registered.
	if created.User != nil && created.Session == nil {
		return nil, fmt.Errorf("this email is already registered, please try logging in instead: %w", domain.ErrConflict)
	}

	sess, err := s.identity.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	handle, err := s.issueChallenge(ctx, "", req.Email)
	if err != nil {
		return nil, err
	}
	return &SignupResult{Session: sess, ChallengeHandle: handle}, nil
}

// Login authenticates and re-fetches the user to read the verified flag; the
// sign-in response does not carry it reliably. An unverified login issues a
// fresh challenge, invalidating any code the user may still be holding.
func (s *service) Login(ctx context.Context, req LoginRequest, handle string) (*LoginResult, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("invalid credentials format: %w", domain.ErrBadRequest)
	}

	sess, err := s.identity.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.identity.GetUser(ctx, sess.AccessToken)
	if err != nil {
		return nil, err
	}

	if !user.EmailVerified() {
		newHandle, err := s.issueChallenge(ctx, handle, req.Email)
		if err != nil {
			return nil, err
		}
		return &LoginResult{Redirect: "/verify-code", Session: sess, ChallengeHandle: newHandle}, nil
	}
	return &LoginResult{Redirect: "/dashboard", Session: sess}, nil
}

// VerifyCode checks the submitted digits against the stored challenge.
// A mismatch keeps the challenge so the user may retry until expiry; expiry
// and success both destroy it.
func (s *service) VerifyCode(ctx context.Context, accessToken, handle, code string) (*VerifyResult, error) {
	ch, err := s.challenges.Get(ctx, handle)
	if err != nil {
		return nil, domain.ErrChallengeNotFound
	}
	if ch.Expired(time.Now()) {
		s.destroyChallenge(ctx, handle)
		return nil, domain.ErrChallengeExpired
	}
	if ch.Code != code {
		return nil, domain.ErrCodeMismatch
	}

	_, err = s.identity.UpdateUser(ctx, accessToken, identity.UpdateUserParams{
		Data: map[string]interface{}{"email_verified": true},
	})
	// The challenge is destroyed even when the attribute update fails; there
	// is no retry path for a consumed code.
	s.destroyChallenge(ctx, handle)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Redirect: "/dashboard"}, nil
}

// ResendCode overwrites the stored challenge with a fresh one. A code issued
// within the cooldown window for the same address is rejected rather than
// replaced.
func (s *service) ResendCode(ctx context.Context, handle, email string) (*ResendResult, error) {
	req := ResendRequest{Email: email}
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("invalid email: %w", domain.ErrBadRequest)
	}

	if existing, err := s.challenges.Get(ctx, handle); err == nil {
		if existing.Email == email && time.Since(existing.IssuedAt) < s.resendCooldown {
			return nil, domain.ErrResendCooldown
		}
	}

	newHandle, err := s.issueChallenge(ctx, handle, email)
	if err != nil {
		return nil, err
	}
	return &ResendResult{ChallengeHandle: newHandle}, nil
}

// ResetPassword asks the provider to email a recovery link. This path uses
// the provider's own delivery, unlike signup.
func (s *service) ResetPassword(ctx context.Context, email string) error {
	req := ResendRequest{Email: email}
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("invalid email: %w", domain.ErrBadRequest)
	}
	return s.identity.ResetPasswordForEmail(ctx, email, s.siteURL+"/callback?next=/reset-password")
}

// UpdatePassword exchanges the one-time recovery code for a session and sets
// the new password. A confirmation mismatch fails before any network call.
func (s *service) UpdatePassword(ctx context.Context, recoveryCode, newPassword, confirmPassword string) (*identity.Session, error) {
	if newPassword != confirmPassword {
		return nil, fmt.Errorf("passwords do not match: %w", domain.ErrBadRequest)
	}
	if len(newPassword) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters: %w", domain.ErrBadRequest)
	}
	if recoveryCode == "" {
		return nil, fmt.Errorf("invalid reset link: %w", domain.ErrBadRequest)
	}

	sess, err := s.identity.ExchangeCodeForSession(ctx, recoveryCode)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired reset link: %w", domain.ErrUnauthorized)
	}
	if _, err := s.identity.UpdateUser(ctx, sess.AccessToken, identity.UpdateUserParams{
		Password: &newPassword,
	}); err != nil {
		return nil, err
	}
	return sess, nil
}

// UpdateEmail starts the provider's email-change round-trip. Confirmation
// happens out of band via the callback endpoint; the old address is not
// notified.
func (s *service) UpdateEmail(ctx context.Context, accessToken, newEmail string) error {
	if accessToken == "" {
		return fmt.Errorf("authentication required: %w", domain.ErrUnauthorized)
	}
	req := ResendRequest{Email: newEmail}
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("invalid email: %w", domain.ErrBadRequest)
	}

	user, err := s.identity.GetUser(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("authentication required: %w", domain.ErrUnauthorized)
	}
	if user.Email == newEmail {
		return fmt.Errorf("new email cannot be the same as your current email: %w", domain.ErrBadRequest)
	}

	_, err = s.identity.UpdateUser(ctx, accessToken, identity.UpdateUserParams{
		Email:              &newEmail,
		RedirectTo:         s.siteURL + "/callback?type=email_change",
		SkipOldEmailNotice: true,
	})
	return err
}

// WaitForEmailChange polls the provider until the primary email matches
// newEmail. The loop is bounded: it stops at the poll timeout or when the
// caller's context is cancelled.
func (s *service) WaitForEmailChange(ctx context.Context, accessToken, newEmail string) error {
	ctx, cancel := context.WithTimeout(ctx, s.pollTimeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		user, err := s.identity.GetUser(ctx, accessToken)
		if err == nil && user.Email == newEmail {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("email change not confirmed in time: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// CompleteCallback consumes a provider-emailed code or token hash and picks
// the destination. This system only forwards the outcome: on failure nothing
// changed at the provider.
func (s *service) CompleteCallback(ctx context.Context, req CallbackRequest) (*CallbackResult, error) {
	var sess *identity.Session
	var err error
	switch {
	case req.Code != "":
		sess, err = s.identity.ExchangeCodeForSession(ctx, req.Code)
	case req.TokenHash != "":
		sess, err = s.identity.VerifyTokenHash(ctx, req.TokenHash, req.Type)
	default:
		return &CallbackResult{Redirect: "/auth-code-error"}, nil
	}

	if req.Type == "email_change" {
		if err != nil {
			return &CallbackResult{Redirect: "/dashboard/settings?error=email-change"}, nil
		}
		return &CallbackResult{Redirect: "/dashboard/settings?success=email-change", Session: sess}, nil
	}
	if err != nil {
		return &CallbackResult{Redirect: "/auth-code-error"}, nil
	}

	next := req.Next
	// Only same-site destinations; anything else falls back to the dashboard.
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/dashboard"
	}
	return &CallbackResult{Redirect: next, Session: sess}, nil
}

// SignOut revokes the provider session. A revocation failure is logged, not
// surfaced: the transport clears the session cookies either way.
func (s *service) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := s.identity.SignOut(ctx, accessToken); err != nil {
		slog.Warn("provider sign-out failed", "err", err)
	}
	return nil
}

// issueChallenge generates a fresh 4-digit code, overwrites the stored
// challenge and emails the code. Store write precedes the send so a slow
// mailer never leaves a sent code unverifiable.
func (s *service) issueChallenge(ctx context.Context, handle, email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	ch := &domain.VerificationChallenge{
		Email:     email,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.challengeTTL),
	}
	newHandle, err := s.challenges.Set(ctx, handle, ch)
	if err != nil {
		return "", err
	}

	subject, body := codeEmail(code)
	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		slog.Error("verification email delivery failed", "email", email, "err", err)
		return "", domain.ErrEmailDelivery
	}
	return newHandle, nil
}

func (s *service) destroyChallenge(ctx context.Context, handle string) {
	if err := s.challenges.Delete(ctx, handle); err != nil {
		slog.Warn("failed to delete challenge record", "err", err)
	}
}

// generateCode draws a 4-digit code uniformly in [1000, 9999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}
