package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/taxbyte/go-identity-server/auth/sessions"
	"github.com/taxbyte/go-identity-server/internal/config"
	"github.com/taxbyte/go-identity-server/security"
	"github.com/taxbyte/go-identity-server/users"
)

// Metrics receives login outcome counts. A nil-safe noop is used when no
// collector is wired in.
type Metrics interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordLoginRateLimited()
}

type noopMetrics struct{}

func (noopMetrics) RecordLoginSuccess()     {}
func (noopMetrics) RecordLoginFailure()     {}
func (noopMetrics) RecordLoginRateLimited() {}

// Repos holds all repository dependencies for the Service.
type Repos struct {
	Users    users.Repo
	Sessions sessions.Repo
	Attempts LoginAttemptRepo
}

// Service orchestrates registration, login, logout and session validation.
type Service struct {
	repos   Repos
	hasher  *security.PasswordHasher
	tokens  *security.TokenGenerator
	limiter *RateLimiter
	cfg     config.SecurityConfig
	metrics Metrics
	nowTime func() time.Time // nowTime function (injectable for testing)
}

type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithMetrics wires a metrics collector.
func WithMetrics(m Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService initializes the authentication service with its required
// dependencies. Optional configuration is provided via options.
func NewService(
	repos Repos,
	hasher *security.PasswordHasher,
	tokens *security.TokenGenerator,
	limiter *RateLimiter,
	cfg config.SecurityConfig,
	options ...ServiceOption,
) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions repo is required")
	}
	if repos.Attempts == nil {
		return nil, errors.New("[NewService] Attempts repo is required")
	}
	if hasher == nil {
		return nil, errors.New("[NewService] hasher is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] token generator is required")
	}
	if limiter == nil {
		return nil, errors.New("[NewService] rate limiter is required")
	}
	if cfg == nil {
		return nil, errors.New("[NewService] config is required")
	}

	service := &Service{
		repos:   repos,
		hasher:  hasher,
		tokens:  tokens,
		limiter: limiter,
		cfg:     cfg,
		metrics: noopMetrics{},
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(service)
	}
	return service, nil
}

// Register creates a new user. No session is created implicitly; the caller
// logs in separately.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (*users.User, error) {
	normalized, err := users.NormalizeEmail(email)
	if err != nil {
		return nil, &ValidationError{Field: "email", Reason: err.Error()}
	}
	if err := users.ValidatePasswordStrength(password, s.cfg.GetMinPasswordLength()); err != nil {
		return nil, &ValidationError{Field: "password", Reason: err.Error()}
	}

	existing, err := s.repos.Users.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register] FindByEmail")
	}
	if existing != nil {
		return nil, EmailAlreadyExistsErr
	}

	plaintext := security.NewPassword(password)
	defer plaintext.Zero()

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register] hasher.Hash")
	}

	user := users.New(normalized, hash, fullName)
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, errors.Wrap(err, "[Service.Register] Users.Create")
	}
	return user, nil
}

// LoginParams carries the caller-supplied inputs for Login.
type LoginParams struct {
	Email      string
	Password   string
	RememberMe bool
	IPAddress  string
	UserAgent  string
}

// LoginResult carries the plaintext bearer token back to the caller. Only
// the token's hash is persisted.
type LoginResult struct {
	User      *users.User
	Token     string
	ExpiresAt time.Time
}

// Login authenticates a user and mints a session. Rate limiting runs before
// any password verification so blocked attempts spend no hashing work.
// Unknown email and wrong password are deliberately indistinguishable.
func (s *Service) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	normalized, err := users.NormalizeEmail(params.Email)
	if err != nil {
		return nil, &ValidationError{Field: "email", Reason: err.Error()}
	}

	allowed, err := s.limiter.Allow(ctx, normalized, params.IPAddress)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] limiter.Allow")
	}
	if !allowed {
		s.metrics.RecordLoginRateLimited()
		return nil, RateLimitedErr
	}

	user, err := s.repos.Users.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] FindByEmail")
	}

	if user == nil {
		if err := s.recordAttempt(ctx, normalized, params.IPAddress, false); err != nil {
			return nil, err
		}
		s.metrics.RecordLoginFailure()
		return nil, InvalidCredentialsErr
	}

	plaintext := security.NewPassword(params.Password)
	defer plaintext.Zero()

	match, err := s.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] hasher.Verify")
	}
	if !match {
		if err := s.recordAttempt(ctx, normalized, params.IPAddress, false); err != nil {
			return nil, err
		}
		s.metrics.RecordLoginFailure()
		return nil, InvalidCredentialsErr
	}

	if err := s.recordAttempt(ctx, normalized, params.IPAddress, true); err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate()
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] tokens.Generate")
	}

	ttl := s.cfg.GetSessionTTL()
	if params.RememberMe {
		ttl = s.cfg.GetRememberMeTTL()
	}

	session := sessions.New(user.ID, sessions.HashToken(token), s.nowTime().UTC(), ttl, params.IPAddress, params.UserAgent)
	if err := s.repos.Sessions.Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, "[Service.Login] Sessions.Create")
	}

	s.metrics.RecordLoginSuccess()
	return &LoginResult{User: user, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// RetryAfter exposes the rate limit window for RateLimited responses.
func (s *Service) RetryAfter() time.Duration {
	return s.limiter.RetryAfter()
}

// Logout deletes the session matching the presented token. Idempotent:
// logging out an unknown token is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	session, err := s.repos.Sessions.FindByTokenHash(ctx, sessions.HashToken(token))
	if err != nil {
		return errors.Wrap(err, "[Service.Logout] FindByTokenHash")
	}
	if session == nil {
		return nil
	}
	if err := s.repos.Sessions.Delete(ctx, session.ID); err != nil {
		return errors.Wrap(err, "[Service.Logout] Sessions.Delete")
	}
	return nil
}

// LogoutAll deletes every session belonging to the user and reports the
// count deleted.
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) (int, error) {
	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "[Service.LogoutAll] FindByID")
	}
	if user == nil {
		return 0, UserNotFoundErr
	}

	deleted, err := s.repos.Sessions.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "[Service.LogoutAll] DeleteAllForUser")
	}
	return deleted, nil
}

// ValidateSession resolves a bearer token to its user. Missing and expired
// sessions return the same error so callers cannot probe which it was.
func (s *Service) ValidateSession(ctx context.Context, token string) (*users.User, error) {
	session, err := s.repos.Sessions.FindByTokenHash(ctx, sessions.HashToken(token))
	if err != nil {
		return nil, errors.Wrap(err, "[Service.ValidateSession] FindByTokenHash")
	}
	if session == nil {
		return nil, SessionExpiredErr
	}

	if session.IsExpired(s.nowTime()) {
		// Storage hygiene; correctness never depends on this delete.
		_ = s.repos.Sessions.Delete(ctx, session.ID)
		return nil, SessionExpiredErr
	}

	user, err := s.repos.Users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.ValidateSession] FindByID")
	}
	if user == nil {
		return nil, SessionExpiredErr
	}
	return user, nil
}

func (s *Service) recordAttempt(ctx context.Context, email, ipAddress string, success bool) error {
	attempt := newLoginAttempt(email, ipAddress, success, s.nowTime())
	if err := s.repos.Attempts.Create(ctx, attempt); err != nil {
		return errors.Wrap(err, "[Service.recordAttempt] Attempts.Create")
	}
	return nil
}
