package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/taxbyte/go-identity-server/oauthflow"
)

type PendingStateRepo struct {
	db *sql.DB
}

var _ oauthflow.PendingStateRepo = (*PendingStateRepo)(nil)

func NewPendingStateRepo(db *sql.DB) *PendingStateRepo {
	return &PendingStateRepo{db: db}
}

func (r *PendingStateRepo) Create(ctx context.Context, state *oauthflow.PendingState) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO oauth_pending_states (state, code_verifier, company_id, user_id, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		state.State, state.CodeVerifier, state.CompanyID, state.UserID,
		state.CreatedAt, state.ExpiresAt,
	)
	if err != nil {
		return errors.Wrap(err, "[PendingStateRepo.Create] insert")
	}
	return nil
}

// Consume deletes and returns the row in one statement, so of two concurrent
// callbacks presenting the same state exactly one receives it.
func (r *PendingStateRepo) Consume(ctx context.Context, state string) (*oauthflow.PendingState, error) {
	pending := &oauthflow.PendingState{}
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM oauth_pending_states WHERE state = $1
		 RETURNING state, code_verifier, company_id, user_id, created_at, expires_at`,
		state,
	).Scan(
		&pending.State, &pending.CodeVerifier, &pending.CompanyID, &pending.UserID,
		&pending.CreatedAt, &pending.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[PendingStateRepo.Consume] delete returning")
	}
	return pending, nil
}

func (r *PendingStateRepo) DeleteAllForCompany(ctx context.Context, companyID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM oauth_pending_states WHERE company_id = $1`, companyID)
	if err != nil {
		return errors.Wrap(err, "[PendingStateRepo.DeleteAllForCompany] delete")
	}
	return nil
}
