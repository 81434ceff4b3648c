package cookies

import (
	"net/http"
	"time"

	"github.com/nimbusapp/nimbus-api/internal/infrastructure/identity"
)

// Cookie names. The verification cookie holds the challenge handle; for the
// cookie challenge backend the handle is the signed record itself.
const (
	AccessToken  = "nb-access-token"
	RefreshToken = "nb-refresh-token"
	Verification = "verification_data"
)

// Manager writes the session and verification cookies with consistent
// attributes: http-only, SameSite=Lax, Secure outside development.
type Manager struct {
	secure          bool
	verificationTTL time.Duration
}

func NewManager(secure bool, verificationTTL time.Duration) *Manager {
	return &Manager{secure: secure, verificationTTL: verificationTTL}
}

// SetSession stores both provider tokens. The access token's lifetime follows
// the provider's expires_in; the refresh token outlives it.
func (m *Manager) SetSession(w http.ResponseWriter, sess *identity.Session) {
	if sess == nil {
		return
	}
	maxAge := sess.ExpiresIn
	if maxAge <= 0 {
		maxAge = 3600
	}
	m.set(w, AccessToken, sess.AccessToken, maxAge)
	m.set(w, RefreshToken, sess.RefreshToken, 30*24*3600)
}

func (m *Manager) ClearSession(w http.ResponseWriter) {
	m.clear(w, AccessToken)
	m.clear(w, RefreshToken)
}

// SetVerification stores the challenge handle for at most the challenge TTL,
// so the browser drops the record together with the code's validity.
func (m *Manager) SetVerification(w http.ResponseWriter, handle string) {
	m.set(w, Verification, handle, int(m.verificationTTL.Seconds()))
}

func (m *Manager) ClearVerification(w http.ResponseWriter) {
	m.clear(w, Verification)
}

// VerificationHandle reads the challenge handle off the request; empty if absent.
func VerificationHandle(r *http.Request) string {
	if ck, err := r.Cookie(Verification); err == nil {
		return ck.Value
	}
	return ""
}

// AccessTokenValue reads the session access token off the request; empty if absent.
func AccessTokenValue(r *http.Request) string {
	if ck, err := r.Cookie(AccessToken); err == nil {
		return ck.Value
	}
	return ""
}

func (m *Manager) set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
