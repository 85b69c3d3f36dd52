package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/taxbyte/go-identity-server/companies"
)

type CompanyRepo struct {
	db *sql.DB
}

var _ companies.Repo = (*CompanyRepo)(nil)

func NewCompanyRepo(db *sql.DB) *CompanyRepo {
	return &CompanyRepo{db: db}
}

func (r *CompanyRepo) FindByID(ctx context.Context, id uuid.UUID) (*companies.Company, error) {
	company := &companies.Company{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, drive_access_token, drive_refresh_token,
		    drive_token_expires_at, drive_connected_by, drive_connected_at,
		    drive_account_email, created_at, updated_at
		 FROM companies WHERE id = $1`,
		id,
	).Scan(
		&company.ID, &company.Name, &company.DriveAccessToken, &company.DriveRefreshToken,
		&company.DriveTokenExpiresAt, &company.DriveConnectedBy, &company.DriveConnectedAt,
		&company.DriveAccountEmail, &company.CreatedAt, &company.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[CompanyRepo.FindByID] scan")
	}
	return company, nil
}

func (r *CompanyRepo) UpdateConnection(ctx context.Context, id uuid.UUID, fields companies.ConnectionFields) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE companies SET drive_access_token = $2, drive_refresh_token = $3,
		    drive_token_expires_at = $4, drive_connected_by = $5,
		    drive_connected_at = $6, drive_account_email = $7, updated_at = now()
		 WHERE id = $1`,
		id, fields.AccessToken, fields.RefreshToken, fields.ExpiresAt,
		fields.ConnectedBy, fields.ConnectedAt, fields.AccountEmail,
	)
	if err != nil {
		return errors.Wrap(err, "[CompanyRepo.UpdateConnection] update")
	}
	return requireRow(result, companies.CompanyNotFoundErr)
}

// ClearConnection hard-deletes the token fields; nothing recoverable stays
// behind.
func (r *CompanyRepo) ClearConnection(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE companies SET drive_access_token = '', drive_refresh_token = '',
		    drive_token_expires_at = NULL, drive_connected_by = NULL,
		    drive_connected_at = NULL, drive_account_email = '', updated_at = now()
		 WHERE id = $1`,
		id,
	)
	if err != nil {
		return errors.Wrap(err, "[CompanyRepo.ClearConnection] update")
	}
	return requireRow(result, companies.CompanyNotFoundErr)
}

func requireRow(result sql.Result, missing error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[requireRow] rows affected")
	}
	if affected == 0 {
		return missing
	}
	return nil
}

type MemberRepo struct {
	db *sql.DB
}

var _ companies.MemberRepo = (*MemberRepo)(nil)

func NewMemberRepo(db *sql.DB) *MemberRepo {
	return &MemberRepo{db: db}
}

func (r *MemberRepo) FindMember(ctx context.Context, companyID, userID uuid.UUID) (*companies.Member, error) {
	member := &companies.Member{}
	err := r.db.QueryRowContext(ctx,
		`SELECT company_id, user_id, role, joined_at
		 FROM company_members WHERE company_id = $1 AND user_id = $2`,
		companyID, userID,
	).Scan(&member.CompanyID, &member.UserID, &member.Role, &member.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[MemberRepo.FindMember] scan")
	}
	return member, nil
}
