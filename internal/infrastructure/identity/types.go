package identity

import (
	"encoding/json"
	"time"
)

// User is the identity record as the provider reports it. The provider owns
// this data; nothing here is persisted locally.
type User struct {
	ID               string                 `json:"id"`
	Email            string                 `json:"email"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at,omitempty"`
	NewEmail         string                 `json:"new_email,omitempty"`
	UserMetadata     map[string]interface{} `json:"user_metadata,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// EmailVerified reads the custom email_verified attribute. This is the extra
// gate layered on top of the provider: the provider considers an account
// usable regardless of this flag.
func (u *User) EmailVerified() bool {
	if u == nil || u.UserMetadata == nil {
		return false
	}
	v, _ := u.UserMetadata["email_verified"].(bool)
	return v
}

// Session is a provider-issued session. The access token authenticates
// follow-up calls; both tokens travel in http-only cookies.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// SignUpParams carries the account-creation request.
type SignUpParams struct {
	Email    string                 `json:"email"`
	Password string                 `json:"password"`
	Data     map[string]interface{} `json:"data,omitempty"`
	// SuppressEmail disables the provider's own confirmation email; the
	// orchestrator delivers its own code instead.
	SuppressEmail bool `json:"disable_email,omitempty"`
}

// SignUpResult distinguishes "new account with session" from "account exists
// but no session was issued" (duplicate signup).
type SignUpResult struct {
	User    *User    `json:"user"`
	Session *Session `json:"session"`
}

// UpdateUserParams carries a partial user update. Nil fields are untouched.
type UpdateUserParams struct {
	Email    *string                `json:"email,omitempty"`
	Password *string                `json:"password,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
	// RedirectTo is where the provider's confirmation link lands, used for
	// email changes.
	RedirectTo string `json:"-"`
	// SkipOldEmailNotice instructs the provider not to notify the previous
	// address about an email change.
	SkipOldEmailNotice bool `json:"skip_old_email_notice,omitempty"`
}

// Error is a structured provider error. The message is treated as opaque and
// forwarded verbatim to the user.
type Error struct {
	Status  int    `json:"code"`
	Message string `json:"msg"`
}

func (e *Error) Error() string { return e.Message }

// UnmarshalJSON accepts the provider's several error envelope spellings.
func (e *Error) UnmarshalJSON(b []byte) error {
	var raw struct {
		Code             int    `json:"code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		ErrorField       string `json:"error"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	e.Status = raw.Code
	switch {
	case raw.Msg != "":
		e.Message = raw.Msg
	case raw.Message != "":
		e.Message = raw.Message
	case raw.ErrorDescription != "":
		e.Message = raw.ErrorDescription
	default:
		e.Message = raw.ErrorField
	}
	return nil
}
