package challenge

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nimbusapp/nimbus-api/internal/domain"
)

// ErrMissingSecret guards against running the cookie backend unsigned.
var ErrMissingSecret = errors.New("challenge cookie secret is required")

// cookieClaims serializes a challenge into a signed token. iat/exp double as
// the challenge's issued/expiry instants.
type cookieClaims struct {
	Email string `json:"email"`
	Code  string `json:"code"`
	jwt.RegisteredClaims
}

// CookieStore holds the challenge entirely client-side as an HS256-signed
// token. The server keeps no state; losing the cookie loses the challenge.
type CookieStore struct {
	secret []byte
	parser *jwt.Parser
}

func NewCookieStore(secret string) (*CookieStore, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &CookieStore{
		secret: []byte(secret),
		// Expiry is the orchestrator's decision, not the parser's: an
		// expired challenge must be distinguishable from an absent one.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

func (s *CookieStore) Set(ctx context.Context, _ string, ch *domain.VerificationChallenge) (string, error) {
	claims := cookieClaims{
		Email: ch.Email,
		Code:  ch.Code,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(ch.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(ch.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign challenge: %w", err)
	}
	return signed, nil
}

func (s *CookieStore) Get(ctx context.Context, handle string) (*domain.VerificationChallenge, error) {
	if handle == "" {
		return nil, fmt.Errorf("no challenge record: %w", domain.ErrNotFound)
	}
	var claims cookieClaims
	token, err := s.parser.ParseWithClaims(handle, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		// A tampered or unreadable record is the same as no record.
		return nil, fmt.Errorf("unreadable challenge record: %w", domain.ErrNotFound)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("malformed challenge record: %w", domain.ErrNotFound)
	}
	return &domain.VerificationChallenge{
		Email:     claims.Email,
		Code:      claims.Code,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Delete is a no-op: the record lives in the cookie and the transport layer
// clears it.
func (s *CookieStore) Delete(ctx context.Context, handle string) error {
	return nil
}

var _ Store = (*CookieStore)(nil)
