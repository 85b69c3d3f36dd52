package oauthflow

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PendingState tracks one in-flight authorization attempt between the
// redirect to the provider and the callback. Consumed exactly once.
type PendingState struct {
	State        string
	CodeVerifier string
	CompanyID    uuid.UUID
	UserID       uuid.UUID
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// IsExpired reports whether the pending state has outlived its TTL.
func (p *PendingState) IsExpired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}

// PendingStateRepo is the persistence boundary for in-flight authorization
// state. Consume must be atomic (delete-and-return): of two concurrent
// callbacks presenting the same state, exactly one receives the row.
type PendingStateRepo interface {
	Create(ctx context.Context, state *PendingState) error
	Consume(ctx context.Context, state string) (*PendingState, error)
	DeleteAllForCompany(ctx context.Context, companyID uuid.UUID) error
}
