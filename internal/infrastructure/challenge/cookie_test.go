package challenge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nimbusapp/nimbus-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCookieStore(t *testing.T) *CookieStore {
	t.Helper()
	s, err := NewCookieStore("test-secret-0123456789")
	require.NoError(t, err)
	return s
}

func TestNewCookieStore_RequiresSecret(t *testing.T) {
	_, err := NewCookieStore("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingSecret))
}

func TestCookieStore_RoundTrip(t *testing.T) {
	s := newCookieStore(t)
	issued := time.Now().UTC().Truncate(time.Second)
	ch := &domain.VerificationChallenge{
		Email:     "a@x.com",
		Code:      "4821",
		IssuedAt:  issued,
		ExpiresAt: issued.Add(10 * time.Minute),
	}

	handle, err := s.Set(context.Background(), "", ch)
	require.NoError(t, err)
	require.NotEmpty(t, handle)

	got, err := s.Get(context.Background(), handle)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, "4821", got.Code)
	assert.True(t, got.IssuedAt.Equal(issued))
	assert.True(t, got.ExpiresAt.Equal(issued.Add(10*time.Minute)))
}

func TestCookieStore_EmptyHandle(t *testing.T) {
	s := newCookieStore(t)
	_, err := s.Get(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCookieStore_TamperedRecordRejected(t *testing.T) {
	s := newCookieStore(t)
	ch := &domain.VerificationChallenge{
		Email:     "a@x.com",
		Code:      "4821",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	handle, err := s.Set(context.Background(), "", ch)
	require.NoError(t, err)

	// Flip a character in the signature segment.
	parts := strings.Split(handle, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = s.Get(context.Background(), tampered)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCookieStore_ForeignKeyRejected(t *testing.T) {
	s := newCookieStore(t)
	other, err := NewCookieStore("another-secret-entirely")
	require.NoError(t, err)

	handle, err := other.Set(context.Background(), "", &domain.VerificationChallenge{
		Email:     "a@x.com",
		Code:      "4821",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(10 * time.Minute),
	})
	require.NoError(t, err)

	_, err = s.Get(context.Background(), handle)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCookieStore_ExpiredRecordStillReadable(t *testing.T) {
	s := newCookieStore(t)
	issued := time.Now().Add(-20 * time.Minute)
	handle, err := s.Set(context.Background(), "", &domain.VerificationChallenge{
		Email:     "a@x.com",
		Code:      "4821",
		IssuedAt:  issued,
		ExpiresAt: issued.Add(10 * time.Minute),
	})
	require.NoError(t, err)

	// Parsing must not reject on exp; expiry is a caller-level decision.
	got, err := s.Get(context.Background(), handle)
	require.NoError(t, err)
	assert.True(t, got.Expired(time.Now()))
}
