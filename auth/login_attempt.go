package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LoginAttempt is an append-only audit record feeding the rate limiter.
// Attempts are never mutated or deleted by this service.
type LoginAttempt struct {
	ID          uuid.UUID
	Email       string
	IPAddress   string
	Success     bool
	AttemptedAt time.Time
}

func newLoginAttempt(email, ipAddress string, success bool, now time.Time) *LoginAttempt {
	return &LoginAttempt{
		ID:          uuid.New(),
		Email:       email,
		IPAddress:   ipAddress,
		Success:     success,
		AttemptedAt: now,
	}
}

// LoginAttemptRepo is the persistence boundary for the attempt log. Counting
// runs against durable storage so limits survive restarts and apply across
// concurrent instances.
type LoginAttemptRepo interface {
	Create(ctx context.Context, attempt *LoginAttempt) error
	CountFailuresByEmail(ctx context.Context, email string, since time.Time) (int, error)
	CountFailuresByIP(ctx context.Context, ipAddress string, since time.Time) (int, error)
}
