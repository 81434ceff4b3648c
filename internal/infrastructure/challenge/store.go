package challenge

import (
	"context"
	"time"

	"github.com/nimbusapp/nimbus-api/internal/domain"
)

// Store keeps at most one live VerificationChallenge per browser session,
// addressed by an opaque handle the transport layer carries in a cookie.
//
// For server-side backends the handle is a random key and the cookie holds
// only the key. For the cookie backend the handle IS the payload: Set signs
// the challenge and returns the token, Get verifies it, and Delete is a
// no-op because clearing the cookie removes the record.
//
// Set always overwrites; there is no append. Concurrent writers race on
// last-write-wins, which is acceptable for a record scoped to one user's
// one browser.
type Store interface {
	// Set stores ch under handle and returns the handle to place in the
	// cookie. An empty handle asks the store to mint a fresh one.
	Set(ctx context.Context, handle string, ch *domain.VerificationChallenge) (string, error)
	// Get returns the challenge for handle, or an error wrapping
	// domain.ErrNotFound when no live record exists.
	Get(ctx context.Context, handle string) (*domain.VerificationChallenge, error)
	// Delete destroys the record. Deleting an absent record is not an error.
	Delete(ctx context.Context, handle string) error
}

// ttlUntil clamps the remaining lifetime of a challenge to a positive
// duration for backends that expire by TTL.
func ttlUntil(ch *domain.VerificationChallenge, now time.Time) time.Duration {
	d := ch.ExpiresAt.Sub(now)
	if d < time.Second {
		d = time.Second
	}
	return d
}
