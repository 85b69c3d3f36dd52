package oauthflow

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/taxbyte/go-identity-server/internal/config"
	"github.com/taxbyte/go-identity-server/security"
	"golang.org/x/sync/singleflight"
)

// Connection is the encrypted result of a completed exchange or refresh,
// returned for the caller to persist. Tokens leave the manager encrypted;
// storage mechanics stay outside.
type Connection struct {
	CompanyID             uuid.UUID
	EncryptedAccessToken  string
	EncryptedRefreshToken string
	AccessTokenExpiresAt  time.Time
	AccountEmail          string
	ConnectedBy           uuid.UUID
	ConnectedAt           time.Time
}

// Manager drives the authorization-code-with-PKCE flow and the token
// lifecycle around it.
type Manager struct {
	pending  PendingStateRepo
	provider Provider
	codec    *security.Codec
	tokens   *security.TokenGenerator
	cfg      config.OAuthConfig
	group    singleflight.Group
	nowTime  func() time.Time
}

type ManagerOption func(*Manager)

// WithManagerNowTime sets the now time function (primarily for testing).
func WithManagerNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

func NewManager(
	pending PendingStateRepo,
	provider Provider,
	codec *security.Codec,
	tokens *security.TokenGenerator,
	cfg config.OAuthConfig,
	options ...ManagerOption,
) (*Manager, error) {
	if pending == nil {
		return nil, errors.New("[NewManager] pending state repo is required")
	}
	if provider == nil {
		return nil, errors.New("[NewManager] provider is required")
	}
	if codec == nil {
		return nil, errors.New("[NewManager] codec is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewManager] token generator is required")
	}
	if cfg == nil {
		return nil, errors.New("[NewManager] config is required")
	}

	m := &Manager{
		pending:  pending,
		provider: provider,
		codec:    codec,
		tokens:   tokens,
		cfg:      cfg,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Initiate generates the PKCE verifier and state, persists the pending
// attempt, and returns the provider authorization URL.
func (m *Manager) Initiate(ctx context.Context, companyID, userID uuid.UUID) (string, error) {
	verifier, err := m.tokens.Generate()
	if err != nil {
		return "", errors.Wrap(err, "[Manager.Initiate] generate verifier")
	}
	state, err := m.tokens.Generate()
	if err != nil {
		return "", errors.Wrap(err, "[Manager.Initiate] generate state")
	}

	now := m.nowTime()
	if err := m.pending.Create(ctx, &PendingState{
		State:        state,
		CodeVerifier: verifier,
		CompanyID:    companyID,
		UserID:       userID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.cfg.GetPendingStateTTL()),
	}); err != nil {
		return "", errors.Wrap(err, "[Manager.Initiate] pending.Create")
	}

	return m.provider.AuthCodeURL(state, verifier), nil
}

// Complete consumes the pending state and exchanges the code. The consume
// happens before any exchange: a state that is absent, already consumed or
// expired fails closed with StateMismatchErr and no provider call is made.
func (m *Manager) Complete(ctx context.Context, code, returnedState string) (*Connection, error) {
	pending, err := m.pending.Consume(ctx, returnedState)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Complete] pending.Consume")
	}
	if pending == nil || pending.IsExpired(m.nowTime()) {
		return nil, StateMismatchErr
	}

	exchanged, err := m.provider.Exchange(ctx, code, pending.CodeVerifier)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Complete] provider.Exchange")
	}

	encryptedAccess, err := m.codec.Encrypt(exchanged.AccessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Complete] encrypt access token")
	}
	encryptedRefresh, err := m.codec.Encrypt(exchanged.RefreshToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Complete] encrypt refresh token")
	}

	return &Connection{
		CompanyID:             pending.CompanyID,
		EncryptedAccessToken:  encryptedAccess,
		EncryptedRefreshToken: encryptedRefresh,
		AccessTokenExpiresAt:  exchanged.Expiry,
		AccountEmail:          accountEmail(exchanged.IDToken),
		ConnectedBy:           pending.UserID,
		ConnectedAt:           m.nowTime(),
	}, nil
}

// Refresh mints a new access token from the stored refresh token.
// Refreshes for the same company are collapsed through singleflight so two
// concurrent callers never race the provider with the same refresh token.
func (m *Manager) Refresh(ctx context.Context, companyID uuid.UUID, encryptedRefreshToken string) (*Connection, error) {
	result, err, _ := m.group.Do(companyID.String(), func() (interface{}, error) {
		return m.refresh(ctx, companyID, encryptedRefreshToken)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Connection), nil
}

func (m *Manager) refresh(ctx context.Context, companyID uuid.UUID, encryptedRefreshToken string) (*Connection, error) {
	// A decrypt failure here means key rotation or corruption, never "not
	// connected" - security.DecryptErr is surfaced as-is for the operator.
	refreshToken, err := m.codec.Decrypt(encryptedRefreshToken)
	if err != nil {
		return nil, err
	}

	refreshed, err := m.provider.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.refresh] provider.Refresh")
	}

	encryptedAccess, err := m.codec.Encrypt(refreshed.AccessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.refresh] encrypt access token")
	}

	// Providers may rotate the refresh token; keep the stored one otherwise.
	encryptedRefresh := encryptedRefreshToken
	if refreshed.RefreshToken != "" {
		encryptedRefresh, err = m.codec.Encrypt(refreshed.RefreshToken)
		if err != nil {
			return nil, errors.Wrap(err, "[Manager.refresh] encrypt refresh token")
		}
	}

	return &Connection{
		CompanyID:             companyID,
		EncryptedAccessToken:  encryptedAccess,
		EncryptedRefreshToken: encryptedRefresh,
		AccessTokenExpiresAt:  refreshed.Expiry,
	}, nil
}

// NeedsRefresh reports whether an access token expiring at expiresAt is due
// for proactive refresh. Callers consult this before using a token, never
// after a provider auth failure.
func (m *Manager) NeedsRefresh(expiresAt time.Time) bool {
	return !expiresAt.After(m.nowTime().Add(m.cfg.GetRefreshLookahead()))
}

// Disconnect purges any pending authorization attempts for the company.
// The caller is responsible for hard-deleting the stored token fields.
func (m *Manager) Disconnect(ctx context.Context, companyID uuid.UUID) error {
	if err := m.pending.DeleteAllForCompany(ctx, companyID); err != nil {
		return errors.Wrap(err, "[Manager.Disconnect] pending.DeleteAllForCompany")
	}
	return nil
}

// DecryptAccessToken recovers the plaintext access token for an outbound
// provider call (e.g. the Drive connection probe).
func (m *Manager) DecryptAccessToken(encrypted string) (string, error) {
	return m.codec.Decrypt(encrypted)
}

// accountEmail pulls the email claim out of the provider ID token, if one
// was issued. The token arrived over the provider's TLS channel moments
// ago, so the claim is read without signature verification.
func accountEmail(idToken string) string {
	if idToken == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return ""
	}
	email, _ := claims["email"].(string)
	return email
}
