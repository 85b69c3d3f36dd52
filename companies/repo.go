package companies

import (
	"context"

	"github.com/google/uuid"
)

// Repo is the persistence boundary for companies. FindByID returns
// (nil, nil) when no company matches. ClearConnection hard-deletes all
// connection fields; no history is retained.
type Repo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)
	UpdateConnection(ctx context.Context, companyID uuid.UUID, fields ConnectionFields) error
	ClearConnection(ctx context.Context, companyID uuid.UUID) error
}

// MemberRepo resolves a user's role within a company. FindMember returns
// (nil, nil) when the user is not a member.
type MemberRepo interface {
	FindMember(ctx context.Context, companyID, userID uuid.UUID) (*Member, error)
}
