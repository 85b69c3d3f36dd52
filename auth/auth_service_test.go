package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxbyte/go-identity-server/auth"
	fakeattemptrepo "github.com/taxbyte/go-identity-server/auth/repofakes"
	"github.com/taxbyte/go-identity-server/auth/sessions"
	fakesessionrepo "github.com/taxbyte/go-identity-server/auth/sessions/repofakes"
	"github.com/taxbyte/go-identity-server/security"
	fakeuserrepo "github.com/taxbyte/go-identity-server/users/repofake"
)

const (
	testEmail    = "john.doe@example.com"
	testPassword = "correct-horse-battery"
	testIP       = "203.0.113.7"
)

// testSecurityConfig satisfies config.SecurityConfig with test-friendly values.
type testSecurityConfig struct{}

func (testSecurityConfig) GetMinPasswordLength() int         { return 8 }
func (testSecurityConfig) GetSessionTTL() time.Duration      { return 24 * time.Hour }
func (testSecurityConfig) GetRememberMeTTL() time.Duration   { return 30 * 24 * time.Hour }
func (testSecurityConfig) GetRateLimitMaxAttempts() int      { return 5 }
func (testSecurityConfig) GetRateLimitWindow() time.Duration { return 5 * time.Minute }
func (testSecurityConfig) GetEncryptionKey() string          { return "" }

type testFixture struct {
	userRepo    *fakeuserrepo.FakeUserRepo
	sessionRepo *fakesessionrepo.FakeSessionRepo
	attemptRepo *fakeattemptrepo.FakeLoginAttemptRepo
	service     *auth.Service
	now         time.Time
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		userRepo:    fakeuserrepo.NewFakeUserRepo(),
		sessionRepo: fakesessionrepo.NewFakeSessionRepo(),
		attemptRepo: fakeattemptrepo.NewFakeLoginAttemptRepo(),
		now:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	cfg := testSecurityConfig{}
	limiter := auth.NewRateLimiter(
		f.attemptRepo,
		cfg.GetRateLimitMaxAttempts(),
		cfg.GetRateLimitWindow(),
		auth.WithRateLimiterNowTime(func() time.Time { return f.now }),
	)

	service, err := auth.NewService(
		auth.Repos{Users: f.userRepo, Sessions: f.sessionRepo, Attempts: f.attemptRepo},
		security.NewPasswordHasher(),
		security.NewTokenGenerator(),
		limiter,
		cfg,
		auth.WithNowTime(func() time.Time { return f.now }),
	)
	require.NoError(t, err)

	f.service = service
	return f
}

func (f *testFixture) registerTestUser(t *testing.T) {
	t.Helper()
	_, err := f.service.Register(context.Background(), testEmail, testPassword, "John Doe")
	require.NoError(t, err)
}

func TestRegisterNormalizesEmail(t *testing.T) {
	f := setupTestFixture(t)

	user, err := f.service.Register(context.Background(), "  John.Doe@Example.COM ", testPassword, "John Doe")
	require.NoError(t, err)
	assert.Equal(t, testEmail, user.Email)
	assert.NotEqual(t, testPassword, user.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := setupTestFixture(t)
	f.registerTestUser(t)

	_, err := f.service.Register(context.Background(), "John.Doe@example.com", "another-password", "Imposter")
	assert.ErrorIs(t, err, auth.EmailAlreadyExistsErr)
}

func TestRegisterValidation(t *testing.T) {
	f := setupTestFixture(t)

	var validationErr *auth.ValidationError

	_, err := f.service.Register(context.Background(), "not-an-email", testPassword, "John")
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "email", validationErr.Field)

	_, err = f.service.Register(context.Background(), testEmail, "short", "John")
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "password", validationErr.Field)
}

func TestLoginAndValidateSession(t *testing.T) {
	f := setupTestFixture(t)
	f.registerTestUser(t)

	result, err := f.service.Login(context.Background(), auth.LoginParams{
		Email:     testEmail,
		Password:  testPassword,
		IPAddress: testIP,
		UserAgent: "test-agent",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.Equal(t, f.now.Add(24*time.Hour), result.ExpiresAt)

	user, err := f.service.ValidateSession(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, testEmail, user.Email)
}

func TestLoginSessionTimesFollowServiceClock(t *testing.T) {
	f := setupTestFixture(t)
	f.registerTestUser(t)

	result, err := f.service.Login(context.Background(), auth.LoginParams{
		Email:     testEmail,
		Password:  testPassword,
		IPAddress: testIP,
	})
	require.NoError(t, err)

	// The persisted row must be stamped from the injected clock, not the
	// wall clock.
	session, err := f.sessionRepo.FindByTokenHash(context.Background(), sessions.HashToken(result.Token))
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, f.now, session.CreatedAt)
	assert.Equal(t, f.now.Add(24*time.Hour), session.ExpiresAt)
	assert.Equal(t, session.ExpiresAt, result.ExpiresAt)
}

func TestLoginRememberMeExtendsTTL(t *testing.T) {
	f := setupTestFixture(t)
	f.registerTestUser(t)

	result, err := f.service.Login(context.Background(), auth.LoginParams{
		Email:      testEmail,
		Password:   testPassword,
		RememberMe: true,
		IPAddress:  testIP,
	})
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(30*24*time.Hour), result.ExpiresAt)
}

func TestLoginIndistinguishableFailures(t *testing.T) {
	f := setupTestFixture(t)
	f.registerTestUser(t)

	_, wrongPasswordErr := f.service.Login(context.Background(), auth.LoginParams{
		Email:     testEmail,
		Password:  "wrong-password",
		IPAddress: testIP,
	})
	_, unknownUserErr := f.service.Login(context.Background(), auth.LoginParams{
		Email:     "nobody@example.com",
		Password:  testPassword,
		IPAddress: testIP,
	})

	assert.ErrorIs(t, wrongPasswordErr, auth.InvalidCredentialsErr)
	assert.ErrorIs(t, unknownUserErr, auth.InvalidCredentialsErr)

	// Both failures land in the attempt log.
	attempts := f.attemptRepo.All()
	require.Len(t, attempts, 2)
	for _, attempt := range attempts {
		assert.False(t, attempt.Success)
	}
}

func TestLoginRateLimited(t *testing.T) {
	f := setupTestFixture(t)
	f.registerTestUser(t)

	for i := 0; i < 5; i++ {
		_, err := f.service.Login(context.Background(), auth.LoginParams{
			Email:     testEmail,
			Password:  "wrong-password",
			IPAddress: testIP,
		})
		require.ErrorIs(t, err, auth.InvalidCredentialsErr)
	}

	// Correct password, but the throttle has tripped.
	_, err := f.service.Login(context.Background(), auth.LoginParams{
		Email:     testEmail,
		Password:  testPassword,
		IPAddress: testIP,
	})
	assert.ErrorIs(t, err, auth.RateLimitedErr)

	// A blocked attempt is not recorded against the user again.
	require.Len(t, f.attemptRepo.All(), 5)

	// Once the window slides past the failures, the correct password works.
	f.now = f.now.Add(6 * time.Minute)
	result, err := f.service.Login(context.Background(), auth.LoginParams{
		Email:     testEmail,
		Password:  testPassword,
		IPAddress: testIP,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestLoginRateLimitedByIP(t *testing.T) {
	f := setupTestFixture(t)
	f.registerTestUser(t)

	// Failures across many emails from a single IP trip the IP limit.
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com"} {
		_, err := f.service.Login(context.Background(), auth.LoginParams{
			Email:     email,
			Password:  "wrong-password",
			IPAddress: testIP,
		})
		require.ErrorIs(t, err, auth.InvalidCredentialsErr)
	}

	_, err := f.service.Login(context.Background(), auth.LoginParams{
		Email:     testEmail,
		Password:  testPassword,
		IPAddress: testIP,
	})
	assert.ErrorIs(t, err, auth.RateLimitedErr)

	// A different IP is unaffected.
	result, err := f.service.Login(context.Background(), auth.LoginParams{
		Email:     testEmail,
		Password:  testPassword,
		IPAddress: "198.51.100.9",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	f.registerTestUser(t)

	result, err := f.service.Login(context.Background(), auth.LoginParams{
		Email:     testEmail,
		Password:  testPassword,
		IPAddress: testIP,
	})
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(context.Background(), result.Token))

	_, err = f.service.ValidateSession(context.Background(), result.Token)
	assert.ErrorIs(t, err, auth.SessionExpiredErr)

	// Logout is idempotent.
	assert.NoError(t, f.service.Logout(context.Background(), result.Token))
	assert.NoError(t, f.service.Logout(context.Background(), "never-issued-token"))
}

func TestLogoutAll(t *testing.T) {
	f := setupTestFixture(t)

	user, err := f.service.Register(context.Background(), testEmail, testPassword, "John Doe")
	require.NoError(t, err)
	other, err := f.service.Register(context.Background(), "jane@example.com", testPassword, "Jane Doe")
	require.NoError(t, err)
	_ = other

	var tokens []string
	for i := 0; i < 3; i++ {
		result, err := f.service.Login(context.Background(), auth.LoginParams{
			Email:     testEmail,
			Password:  testPassword,
			IPAddress: testIP,
		})
		require.NoError(t, err)
		tokens = append(tokens, result.Token)
	}
	otherResult, err := f.service.Login(context.Background(), auth.LoginParams{
		Email:     "jane@example.com",
		Password:  testPassword,
		IPAddress: testIP,
	})
	require.NoError(t, err)

	deleted, err := f.service.LogoutAll(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	for _, token := range tokens {
		_, err := f.service.ValidateSession(context.Background(), token)
		assert.ErrorIs(t, err, auth.SessionExpiredErr)
	}

	// The unrelated user's session survives.
	validated, err := f.service.ValidateSession(context.Background(), otherResult.Token)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", validated.Email)
}

func TestValidateSessionExpiry(t *testing.T) {
	f := setupTestFixture(t)
	f.registerTestUser(t)

	result, err := f.service.Login(context.Background(), auth.LoginParams{
		Email:     testEmail,
		Password:  testPassword,
		IPAddress: testIP,
	})
	require.NoError(t, err)

	f.now = f.now.Add(25 * time.Hour)

	_, err = f.service.ValidateSession(context.Background(), result.Token)
	assert.ErrorIs(t, err, auth.SessionExpiredErr)

	// The expired row is cleaned up opportunistically.
	assert.Equal(t, 0, f.sessionRepo.Count())
}
