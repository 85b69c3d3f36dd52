package oauthflow_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxbyte/go-identity-server/oauthflow"
	fakependingstaterepo "github.com/taxbyte/go-identity-server/oauthflow/repofakes"
	"github.com/taxbyte/go-identity-server/security"
)

// testOAuthConfig satisfies config.OAuthConfig with test-friendly values.
type testOAuthConfig struct{}

func (testOAuthConfig) GetOAuthClientID() string           { return "test-client-id" }
func (testOAuthConfig) GetOAuthClientSecret() string       { return "test-client-secret" }
func (testOAuthConfig) GetOAuthRedirectURL() string        { return "http://localhost:8080/oauth/callback" }
func (testOAuthConfig) GetOAuthScope() string              { return "https://www.googleapis.com/auth/drive.file" }
func (testOAuthConfig) GetPendingStateTTL() time.Duration  { return 10 * time.Minute }
func (testOAuthConfig) GetRefreshLookahead() time.Duration { return 5 * time.Minute }
func (testOAuthConfig) GetProviderTimeout() time.Duration  { return time.Second }
func (testOAuthConfig) GetMockOAuth() bool                 { return false }

// fakeProvider records calls and returns scripted tokens.
type fakeProvider struct {
	lock          sync.Mutex
	exchanges     int
	refreshes     int
	lastState     string
	lastVerifier  string
	rotateRefresh bool
	now           func() time.Time
}

func (p *fakeProvider) AuthCodeURL(state, codeVerifier string) string {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.lastState = state
	p.lastVerifier = codeVerifier
	return "https://provider.example.com/auth?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code, codeVerifier string) (*oauthflow.Tokens, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.exchanges++
	idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "books@example.com",
	}).SignedString([]byte("test-key"))
	if err != nil {
		return nil, err
	}
	return &oauthflow.Tokens{
		AccessToken:  fmt.Sprintf("access-%d", p.exchanges),
		RefreshToken: "refresh-initial",
		IDToken:      idToken,
		Expiry:       p.now().Add(time.Hour),
	}, nil
}

func (p *fakeProvider) Refresh(_ context.Context, refreshToken string) (*oauthflow.Tokens, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.refreshes++
	tokens := &oauthflow.Tokens{
		AccessToken: fmt.Sprintf("refreshed-access-%d", p.refreshes),
		Expiry:      p.now().Add(2 * time.Hour),
	}
	if p.rotateRefresh {
		tokens.RefreshToken = fmt.Sprintf("refresh-rotated-%d", p.refreshes)
	}
	return tokens, nil
}

type managerFixture struct {
	pending  *fakependingstaterepo.FakePendingStateRepo
	provider *fakeProvider
	codec    *security.Codec
	manager  *oauthflow.Manager
	now      time.Time
}

func setupManagerFixture(t *testing.T) *managerFixture {
	t.Helper()

	f := &managerFixture{
		pending: fakependingstaterepo.NewFakePendingStateRepo(),
		now:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.provider = &fakeProvider{now: func() time.Time { return f.now }}

	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	codec, err := security.NewCodec(key)
	require.NoError(t, err)
	f.codec = codec

	manager, err := oauthflow.NewManager(
		f.pending,
		f.provider,
		codec,
		security.NewTokenGenerator(),
		testOAuthConfig{},
		oauthflow.WithManagerNowTime(func() time.Time { return f.now }),
	)
	require.NoError(t, err)
	f.manager = manager
	return f
}

func TestInitiatePersistsPendingState(t *testing.T) {
	f := setupManagerFixture(t)
	companyID, userID := uuid.New(), uuid.New()

	authURL, err := f.manager.Initiate(context.Background(), companyID, userID)
	require.NoError(t, err)

	assert.Contains(t, authURL, f.provider.lastState)
	assert.NotEmpty(t, f.provider.lastVerifier)
	assert.GreaterOrEqual(t, len(f.provider.lastVerifier), 43)
	assert.Equal(t, 1, f.pending.Len())

	// Initiating again issues fresh values.
	firstState := f.provider.lastState
	_, err = f.manager.Initiate(context.Background(), companyID, userID)
	require.NoError(t, err)
	assert.NotEqual(t, firstState, f.provider.lastState)
}

func TestCompleteUnknownState(t *testing.T) {
	f := setupManagerFixture(t)

	_, err := f.manager.Complete(context.Background(), "any-code", "never-issued-state")
	assert.ErrorIs(t, err, oauthflow.StateMismatchErr)
	assert.Equal(t, 0, f.provider.exchanges, "no exchange may happen on a state mismatch")
}

func TestCompleteExpiredState(t *testing.T) {
	f := setupManagerFixture(t)

	_, err := f.manager.Initiate(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)

	f.now = f.now.Add(11 * time.Minute)

	_, err = f.manager.Complete(context.Background(), "any-code", f.provider.lastState)
	assert.ErrorIs(t, err, oauthflow.StateMismatchErr)
	assert.Equal(t, 0, f.provider.exchanges)
}

func TestCompleteExchangesAndEncrypts(t *testing.T) {
	f := setupManagerFixture(t)
	companyID, userID := uuid.New(), uuid.New()

	_, err := f.manager.Initiate(context.Background(), companyID, userID)
	require.NoError(t, err)

	connection, err := f.manager.Complete(context.Background(), "auth-code", f.provider.lastState)
	require.NoError(t, err)

	assert.Equal(t, companyID, connection.CompanyID)
	assert.Equal(t, userID, connection.ConnectedBy)
	assert.Equal(t, "books@example.com", connection.AccountEmail)
	assert.Equal(t, f.now.Add(time.Hour), connection.AccessTokenExpiresAt)

	access, err := f.codec.Decrypt(connection.EncryptedAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "access-1", access)

	refresh, err := f.codec.Decrypt(connection.EncryptedRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh-initial", refresh)

	// The state is consumed: replaying the callback fails closed.
	_, err = f.manager.Complete(context.Background(), "auth-code", f.provider.lastState)
	assert.ErrorIs(t, err, oauthflow.StateMismatchErr)
	assert.Equal(t, 1, f.provider.exchanges)
}

func TestCompleteConcurrentSameState(t *testing.T) {
	f := setupManagerFixture(t)

	_, err := f.manager.Initiate(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	state := f.provider.lastState

	results := make(chan error, 2)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < 2; i++ {
		go func() {
			start.Wait()
			_, err := f.manager.Complete(context.Background(), "auth-code", state)
			results <- err
		}()
	}
	start.Done()

	var failures, successes int
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			assert.ErrorIs(t, err, oauthflow.StateMismatchErr)
			failures++
		} else {
			successes++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)
	assert.Equal(t, 1, f.provider.exchanges)
}

func TestRefreshAdvancesExpiry(t *testing.T) {
	f := setupManagerFixture(t)
	companyID := uuid.New()

	_, err := f.manager.Initiate(context.Background(), companyID, uuid.New())
	require.NoError(t, err)
	connection, err := f.manager.Complete(context.Background(), "auth-code", f.provider.lastState)
	require.NoError(t, err)

	refreshed, err := f.manager.Refresh(context.Background(), companyID, connection.EncryptedRefreshToken)
	require.NoError(t, err)

	assert.True(t, refreshed.AccessTokenExpiresAt.After(connection.AccessTokenExpiresAt),
		"refresh must advance the access token expiry")

	newAccess, err := f.codec.Decrypt(refreshed.EncryptedAccessToken)
	require.NoError(t, err)
	oldAccess, err := f.codec.Decrypt(connection.EncryptedAccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, oldAccess, newAccess)

	// The provider did not rotate: the stored refresh token is unchanged.
	assert.Equal(t, connection.EncryptedRefreshToken, refreshed.EncryptedRefreshToken)
}

func TestRefreshRotatesRefreshToken(t *testing.T) {
	f := setupManagerFixture(t)
	f.provider.rotateRefresh = true
	companyID := uuid.New()

	_, err := f.manager.Initiate(context.Background(), companyID, uuid.New())
	require.NoError(t, err)
	connection, err := f.manager.Complete(context.Background(), "auth-code", f.provider.lastState)
	require.NoError(t, err)

	refreshed, err := f.manager.Refresh(context.Background(), companyID, connection.EncryptedRefreshToken)
	require.NoError(t, err)

	rotated, err := f.codec.Decrypt(refreshed.EncryptedRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh-rotated-1", rotated)
}

func TestRefreshSurfacesDecryptFailure(t *testing.T) {
	f := setupManagerFixture(t)

	_, err := f.manager.Refresh(context.Background(), uuid.New(), "not-an-envelope")
	assert.ErrorIs(t, err, security.DecryptErr,
		"a decrypt failure must never look like a missing connection")
	assert.Equal(t, 0, f.provider.refreshes)
}

func TestNeedsRefresh(t *testing.T) {
	f := setupManagerFixture(t)

	assert.False(t, f.manager.NeedsRefresh(f.now.Add(time.Hour)))
	assert.True(t, f.manager.NeedsRefresh(f.now.Add(4*time.Minute)))
	assert.True(t, f.manager.NeedsRefresh(f.now.Add(-time.Minute)))
}

func TestDisconnectPurgesPendingStates(t *testing.T) {
	f := setupManagerFixture(t)
	companyID := uuid.New()

	_, err := f.manager.Initiate(context.Background(), companyID, uuid.New())
	require.NoError(t, err)
	_, err = f.manager.Initiate(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)

	require.NoError(t, f.manager.Disconnect(context.Background(), companyID))
	assert.Equal(t, 1, f.pending.Len(), "only the disconnected company's rows are purged")
}
