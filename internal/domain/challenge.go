package domain

import "time"

// VerificationChallenge binds an email address to a one-time numeric code.
// At most one live challenge exists per browser session: a new challenge
// always overwrites the old one, never appends.
type VerificationChallenge struct {
	Email     string    `json:"email" dynamodbav:"email"`
	Code      string    `json:"code" dynamodbav:"code"`
	IssuedAt  time.Time `json:"issued_at" dynamodbav:"issued_at,unixtime"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at,unixtime"`
}

// Expired reports whether the challenge is past its expiry at the given instant.
func (c *VerificationChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
