package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/taxbyte/go-identity-server/users"
)

// DuplicateEmailErr reports a unique-constraint violation on the email
// column among non-deleted users.
var DuplicateEmailErr = errors.New("email already registered")

type UserRepo struct {
	db *sql.DB
}

var _ users.Repo = (*UserRepo)(nil)

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, email, password_hash, full_name, email_verified,
	email_verification_token, email_verification_expires_at,
	password_reset_token, password_reset_token_expires_at,
	created_at, updated_at, deleted_at`

func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		user.ID, user.Email, user.PasswordHash, user.FullName, user.EmailVerified,
		user.EmailVerificationToken, user.EmailVerificationExpiresAt,
		user.PasswordResetToken, user.PasswordResetTokenExpiresAt,
		user.CreatedAt, user.UpdatedAt, user.DeletedAt,
	)
	if isUniqueViolation(err) {
		return DuplicateEmailErr
	}
	if err != nil {
		return errors.Wrap(err, "[UserRepo.Create] insert")
	}
	return nil
}

func (r *UserRepo) Update(ctx context.Context, user *users.User) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = $2, password_hash = $3, full_name = $4,
		    email_verified = $5, email_verification_token = $6,
		    email_verification_expires_at = $7, password_reset_token = $8,
		    password_reset_token_expires_at = $9, updated_at = $10,
		    deleted_at = $11
		 WHERE id = $1`,
		user.ID, user.Email, user.PasswordHash, user.FullName, user.EmailVerified,
		user.EmailVerificationToken, user.EmailVerificationExpiresAt,
		user.PasswordResetToken, user.PasswordResetTokenExpiresAt,
		user.UpdatedAt, user.DeletedAt,
	)
	if isUniqueViolation(err) {
		return DuplicateEmailErr
	}
	if err != nil {
		return errors.Wrap(err, "[UserRepo.Update] update")
	}
	return nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.findOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND deleted_at IS NULL`,
		email,
	)
}

func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return r.findOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
}

func (r *UserRepo) findOne(ctx context.Context, query string, arg interface{}) (*users.User, error) {
	user := &users.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.EmailVerified,
		&user.EmailVerificationToken, &user.EmailVerificationExpiresAt,
		&user.PasswordResetToken, &user.PasswordResetTokenExpiresAt,
		&user.CreatedAt, &user.UpdatedAt, &user.DeletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[UserRepo.findOne] scan")
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
