package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/taxbyte/go-identity-server/auth/sessions"
)

type SessionRepo struct {
	db *sql.DB
}

var _ sessions.Repo = (*SessionRepo)(nil)

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Create(ctx context.Context, session *sessions.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token_hash, ip_address, user_agent, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		session.ID, session.UserID, session.TokenHash,
		session.IPAddress, session.UserAgent, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "[SessionRepo.Create] insert")
	}
	return nil
}

func (r *SessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*sessions.Session, error) {
	session := &sessions.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, ip_address, user_agent, expires_at, created_at
		 FROM sessions WHERE token_hash = $1`,
		tokenHash,
	).Scan(
		&session.ID, &session.UserID, &session.TokenHash,
		&session.IPAddress, &session.UserAgent, &session.ExpiresAt, &session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[SessionRepo.FindByTokenHash] scan")
	}
	return session, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "[SessionRepo.Delete] delete")
	}
	return nil
}

func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, errors.Wrap(err, "[SessionRepo.DeleteAllForUser] delete")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "[SessionRepo.DeleteAllForUser] rows affected")
	}
	return int(affected), nil
}
