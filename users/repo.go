package users

import (
	"context"

	"github.com/google/uuid"
)

// Repo is the persistence boundary for users. FindByEmail looks up by the
// normalized form and must exclude soft-deleted users; Create must reject a
// duplicate email among non-deleted users.
type Repo interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
}
