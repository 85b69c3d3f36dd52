package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/taxbyte/go-identity-server/auth"
)

type LoginAttemptRepo struct {
	db *sql.DB
}

var _ auth.LoginAttemptRepo = (*LoginAttemptRepo)(nil)

func NewLoginAttemptRepo(db *sql.DB) *LoginAttemptRepo {
	return &LoginAttemptRepo{db: db}
}

func (r *LoginAttemptRepo) Create(ctx context.Context, attempt *auth.LoginAttempt) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_attempts (id, email, ip_address, success, attempted_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		attempt.ID, attempt.Email, attempt.IPAddress, attempt.Success, attempt.AttemptedAt,
	)
	if err != nil {
		return errors.Wrap(err, "[LoginAttemptRepo.Create] insert")
	}
	return nil
}

func (r *LoginAttemptRepo) CountFailuresByEmail(ctx context.Context, email string, since time.Time) (int, error) {
	return r.countFailures(ctx,
		`SELECT count(*) FROM login_attempts
		 WHERE email = $1 AND success = FALSE AND attempted_at >= $2`,
		email, since,
	)
}

func (r *LoginAttemptRepo) CountFailuresByIP(ctx context.Context, ipAddress string, since time.Time) (int, error) {
	return r.countFailures(ctx,
		`SELECT count(*) FROM login_attempts
		 WHERE ip_address = $1 AND success = FALSE AND attempted_at >= $2`,
		ipAddress, since,
	)
}

func (r *LoginAttemptRepo) countFailures(ctx context.Context, query, key string, since time.Time) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, query, key, since).Scan(&count); err != nil && err != sql.ErrNoRows {
		return 0, errors.Wrap(err, "[LoginAttemptRepo.countFailures] scan")
	}
	return count, nil
}
