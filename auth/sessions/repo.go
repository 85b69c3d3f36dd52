package sessions

import (
	"context"

	"github.com/google/uuid"
)

// Repo is the persistence boundary for login sessions. FindByTokenHash
// returns (nil, nil) when no session matches; Delete of a missing session
// is not an error. DeleteAllForUser reports how many sessions it removed.
type Repo interface {
	Create(ctx context.Context, session *Session) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int, error)
}
