package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
)

// Verification-state errors. Each maps to a distinct user-facing message and
// a distinct recovery action (restart signup vs. request a new code vs. retry).
var (
	// ErrChallengeNotFound means no challenge record exists for this browser
	// session. The record is not reconstructible; the user must restart.
	ErrChallengeNotFound = errors.New("verification session expired, please sign up again")

	// ErrChallengeExpired means the code outlived its 10-minute window.
	// The stored challenge is destroyed when this is returned.
	ErrChallengeExpired = errors.New("verification code expired, please request a new one")

	// ErrCodeMismatch means the submitted digits did not match. The challenge
	// is kept so the user may retry until expiry.
	ErrCodeMismatch = errors.New("invalid verification code")

	// ErrResendCooldown means a code was issued too recently.
	ErrResendCooldown = errors.New("a code was sent recently, please wait before requesting another")

	// ErrEmailDelivery is the generic delivery failure. Account and session
	// state is already committed when this surfaces.
	ErrEmailDelivery = errors.New("could not send verification email")
)
