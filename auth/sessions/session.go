package sessions

import (
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// Session is an authenticated login session. Only the hash of the bearer
// token is stored; the plaintext token exists client-side only.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	IPAddress string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// New creates a session expiring after the given duration, measured from
// the caller's clock.
func New(userID uuid.UUID, tokenHash string, now time.Time, duration time.Duration, ipAddress, userAgent string) *Session {
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		ExpiresAt: now.Add(duration),
		CreatedAt: now,
	}
}

// IsExpired reports whether the session has passed its absolute expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// HashToken derives the storage hash of a bearer token. The token itself
// carries 256 bits of entropy, so a deterministic SHA-256 digest is enough
// to make a stolen sessions table useless.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
