package companies

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/taxbyte/go-identity-server/oauthflow"
)

// ProbeResult describes the remote end of a tested connection.
type ProbeResult struct {
	AccountEmail string
	QuotaUsed    int64
	QuotaLimit   int64
}

// ConnectionProber checks that a decrypted access token actually works
// against the storage provider.
type ConnectionProber interface {
	Probe(ctx context.Context, accessToken string) (*ProbeResult, error)
}

// ConnectionSummary is the caller-facing view of a connection; it never
// carries token material.
type ConnectionSummary struct {
	CompanyID    uuid.UUID
	AccountEmail string
	ExpiresAt    time.Time
	ConnectedAt  time.Time
}

// Metrics receives token refresh outcomes. A noop is used when no collector
// is wired.
type Metrics interface {
	RecordTokenRefresh(outcome string)
}

type noopMetrics struct{}

func (noopMetrics) RecordTokenRefresh(string) {}

// ConnectService sequences the OAuth flow manager against the company
// aggregate. Authorization (owner/admin only) is enforced here, not in the
// flow manager.
type ConnectService struct {
	companies Repos
	flow      *oauthflow.Manager
	prober    ConnectionProber
	metrics   Metrics
}

// Repos holds the repository dependencies for the ConnectService.
type Repos struct {
	Companies Repo
	Members   MemberRepo
}

type ConnectServiceOption func(*ConnectService)

// WithConnectMetrics wires a metrics collector.
func WithConnectMetrics(m Metrics) ConnectServiceOption {
	return func(s *ConnectService) {
		s.metrics = m
	}
}

func NewConnectService(repos Repos, flow *oauthflow.Manager, prober ConnectionProber, options ...ConnectServiceOption) (*ConnectService, error) {
	if repos.Companies == nil {
		return nil, errors.New("[NewConnectService] Companies repo is required")
	}
	if repos.Members == nil {
		return nil, errors.New("[NewConnectService] Members repo is required")
	}
	if flow == nil {
		return nil, errors.New("[NewConnectService] flow manager is required")
	}

	s := &ConnectService{companies: repos, flow: flow, prober: prober, metrics: noopMetrics{}}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// InitiateOAuth starts a connection attempt and returns the provider
// authorization URL.
func (s *ConnectService) InitiateOAuth(ctx context.Context, companyID, userID uuid.UUID) (string, error) {
	if _, err := s.authorize(ctx, companyID, userID); err != nil {
		return "", err
	}

	authURL, err := s.flow.Initiate(ctx, companyID, userID)
	if err != nil {
		return "", errors.Wrap(err, "[ConnectService.InitiateOAuth] flow.Initiate")
	}
	return authURL, nil
}

// CompleteOAuth handles the provider callback and persists the encrypted
// connection against the company identified by the consumed pending state.
func (s *ConnectService) CompleteOAuth(ctx context.Context, code, state string) (*ConnectionSummary, error) {
	connection, err := s.flow.Complete(ctx, code, state)
	if err != nil {
		return nil, errors.Wrap(err, "[ConnectService.CompleteOAuth] flow.Complete")
	}

	fields := ConnectionFields{
		AccessToken:  connection.EncryptedAccessToken,
		RefreshToken: connection.EncryptedRefreshToken,
		ExpiresAt:    connection.AccessTokenExpiresAt,
		ConnectedBy:  connection.ConnectedBy,
		ConnectedAt:  connection.ConnectedAt,
		AccountEmail: connection.AccountEmail,
	}
	if err := s.companies.Companies.UpdateConnection(ctx, connection.CompanyID, fields); err != nil {
		return nil, errors.Wrap(err, "[ConnectService.CompleteOAuth] UpdateConnection")
	}

	log.Info().
		Str("company_id", connection.CompanyID.String()).
		Str("account", connection.AccountEmail).
		Msg("storage connected")

	return &ConnectionSummary{
		CompanyID:    connection.CompanyID,
		AccountEmail: connection.AccountEmail,
		ExpiresAt:    connection.AccessTokenExpiresAt,
		ConnectedAt:  connection.ConnectedAt,
	}, nil
}

// RefreshToken refreshes the company's access token and persists the
// updated fields.
func (s *ConnectService) RefreshToken(ctx context.Context, companyID uuid.UUID) (*ConnectionSummary, error) {
	company, err := s.findConnected(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return s.refreshAndPersist(ctx, company)
}

// Disconnect hard-deletes the connection fields and purges any in-flight
// authorization attempts.
func (s *ConnectService) Disconnect(ctx context.Context, companyID, userID uuid.UUID) error {
	if _, err := s.authorize(ctx, companyID, userID); err != nil {
		return err
	}

	if err := s.flow.Disconnect(ctx, companyID); err != nil {
		return errors.Wrap(err, "[ConnectService.Disconnect] flow.Disconnect")
	}
	if err := s.companies.Companies.ClearConnection(ctx, companyID); err != nil {
		return errors.Wrap(err, "[ConnectService.Disconnect] ClearConnection")
	}

	log.Info().Str("company_id", companyID.String()).Msg("storage disconnected")
	return nil
}

// TestConnection verifies the stored connection end to end, refreshing
// proactively when the access token is due.
func (s *ConnectService) TestConnection(ctx context.Context, companyID uuid.UUID) (*ProbeResult, error) {
	if s.prober == nil {
		return nil, errors.New("[ConnectService.TestConnection] no prober configured")
	}

	company, err := s.findConnected(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if s.flow.NeedsRefresh(*company.DriveTokenExpiresAt) {
		if _, err := s.refreshAndPersist(ctx, company); err != nil {
			return nil, err
		}
		company, err = s.findConnected(ctx, companyID)
		if err != nil {
			return nil, err
		}
	}

	accessToken, err := s.flow.DecryptAccessToken(company.DriveAccessToken)
	if err != nil {
		return nil, err
	}

	result, err := s.prober.Probe(ctx, accessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[ConnectService.TestConnection] prober.Probe")
	}
	return result, nil
}

func (s *ConnectService) refreshAndPersist(ctx context.Context, company *Company) (*ConnectionSummary, error) {
	refreshed, err := s.flow.Refresh(ctx, company.ID, company.DriveRefreshToken)
	if err != nil {
		s.metrics.RecordTokenRefresh("error")
		return nil, errors.Wrap(err, "[ConnectService.refreshAndPersist] flow.Refresh")
	}

	fields := ConnectionFields{
		AccessToken:  refreshed.EncryptedAccessToken,
		RefreshToken: refreshed.EncryptedRefreshToken,
		ExpiresAt:    refreshed.AccessTokenExpiresAt,
		AccountEmail: company.DriveAccountEmail,
	}
	// Refresh keeps the original connection attribution.
	if company.DriveConnectedBy != nil {
		fields.ConnectedBy = *company.DriveConnectedBy
	}
	if company.DriveConnectedAt != nil {
		fields.ConnectedAt = *company.DriveConnectedAt
	}

	if err := s.companies.Companies.UpdateConnection(ctx, company.ID, fields); err != nil {
		s.metrics.RecordTokenRefresh("error")
		return nil, errors.Wrap(err, "[ConnectService.refreshAndPersist] UpdateConnection")
	}

	s.metrics.RecordTokenRefresh("ok")
	return &ConnectionSummary{
		CompanyID:    company.ID,
		AccountEmail: company.DriveAccountEmail,
		ExpiresAt:    refreshed.AccessTokenExpiresAt,
		ConnectedAt:  fields.ConnectedAt,
	}, nil
}

func (s *ConnectService) authorize(ctx context.Context, companyID, userID uuid.UUID) (*Company, error) {
	company, err := s.companies.Companies.FindByID(ctx, companyID)
	if err != nil {
		return nil, errors.Wrap(err, "[ConnectService.authorize] FindByID")
	}
	if company == nil {
		return nil, CompanyNotFoundErr
	}

	member, err := s.companies.Members.FindMember(ctx, companyID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "[ConnectService.authorize] FindMember")
	}
	if member == nil || !member.Role.CanManageStorage() {
		return nil, NotAuthorizedErr
	}
	return company, nil
}

func (s *ConnectService) findConnected(ctx context.Context, companyID uuid.UUID) (*Company, error) {
	company, err := s.companies.Companies.FindByID(ctx, companyID)
	if err != nil {
		return nil, errors.Wrap(err, "[ConnectService.findConnected] FindByID")
	}
	if company == nil {
		return nil, CompanyNotFoundErr
	}
	if !company.IsDriveConnected() || company.DriveRefreshToken == "" {
		return nil, NotConnectedErr
	}
	return company, nil
}
