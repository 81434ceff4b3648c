package middleware

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/nimbusapp/nimbus-api/internal/infrastructure/identity"
)

// pathClass buckets request paths for the guard's decision table.
type pathClass int

const (
	classOther pathClass = iota
	classRoot
	classAuthPage  // /login, /signup
	classVerify    // /verify-code
	classDashboard // /dashboard and below
)

// UserResolver is the slice of the request-scoped identity factory the guard
// needs; it is an interface so tests can script session states.
type UserResolver interface {
	ForRequest(r *http.Request) *identity.RequestClient
}

// Guard is the per-request policy gate. It resolves session and verified
// state from the provider and redirects unauthenticated or unverified
// traffic before any page logic runs:
//
//	login/signup  + verified session   → /dashboard
//	login/signup  + unverified session → /verify-code
//	dashboard/*   + no session         → /login
//	verify-code   + no session         → /login
//	verify-code   + verified session   → /dashboard
//	/             + any session        → /dashboard
//
// Anything else is allowed through. On an internal error while resolving the
// user the guard fails open: availability is preferred over strict
// enforcement here, with per-page checks acting as a second gate.
func Guard(factory UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isStaticAsset(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			class := classify(r.URL.Path)
			if class == classOther {
				next.ServeHTTP(w, r)
				return
			}

			rc := factory.ForRequest(r)
			hasSession := rc.HasSession()
			verified := false
			if hasSession {
				user, err := rc.User(r.Context())
				switch {
				case err == nil:
					verified = user.EmailVerified()
				case isAuthRejection(err):
					// The provider recognized the token and rejected it:
					// treat as no session.
					hasSession = false
				default:
					// Provider unreachable or misbehaving — fail open.
					next.ServeHTTP(w, r)
					return
				}
			}

			switch class {
			case classAuthPage:
				if hasSession && verified {
					http.Redirect(w, r, "/dashboard", http.StatusFound)
					return
				}
				if hasSession {
					http.Redirect(w, r, "/verify-code", http.StatusFound)
					return
				}
			case classDashboard:
				if !hasSession {
					http.Redirect(w, r, "/login", http.StatusFound)
					return
				}
			case classVerify:
				if !hasSession {
					http.Redirect(w, r, "/login", http.StatusFound)
					return
				}
				if verified {
					http.Redirect(w, r, "/dashboard", http.StatusFound)
					return
				}
			case classRoot:
				if hasSession {
					http.Redirect(w, r, "/dashboard", http.StatusFound)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func classify(p string) pathClass {
	switch {
	case p == "/":
		return classRoot
	case p == "/login" || strings.HasPrefix(p, "/login/"),
		p == "/signup" || strings.HasPrefix(p, "/signup/"):
		return classAuthPage
	case p == "/verify-code":
		return classVerify
	case p == "/dashboard" || strings.HasPrefix(p, "/dashboard/"):
		return classDashboard
	default:
		return classOther
	}
}

// isStaticAsset mirrors the matcher exclusions: static files, favicon and
// image files bypass the guard entirely.
func isStaticAsset(p string) bool {
	if p == "/favicon.ico" || strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/assets/") {
		return true
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp", ".ico", ".css", ".js":
		return true
	}
	return false
}

// isAuthRejection reports whether the provider explicitly rejected the
// session token, as opposed to an internal failure.
func isAuthRejection(err error) bool {
	var perr *identity.Error
	return errors.As(err, &perr) && (perr.Status == http.StatusUnauthorized || perr.Status == http.StatusForbidden)
}
