package config

import "time"

type OAuthConfig interface {
	GetOAuthClientID() string
	GetOAuthClientSecret() string
	GetOAuthRedirectURL() string
	GetOAuthScope() string
	GetPendingStateTTL() time.Duration
	GetRefreshLookahead() time.Duration
	GetProviderTimeout() time.Duration
	GetMockOAuth() bool
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetOAuthClientID() string {
	return GetEnv("OAUTH_CLIENT_ID", "")
}

func (OAuth) GetOAuthClientSecret() string {
	return GetEnv("OAUTH_CLIENT_SECRET", "")
}

func (OAuth) GetOAuthRedirectURL() string {
	return GetEnv("OAUTH_REDIRECT_URL", "http://localhost:8080/oauth/callback")
}

// GetOAuthScope defaults to drive.file: access to files this application
// created, never the whole Drive.
func (OAuth) GetOAuthScope() string {
	return GetEnv("OAUTH_SCOPE", "https://www.googleapis.com/auth/drive.file")
}

func (OAuth) GetPendingStateTTL() time.Duration {
	return getDurationEnv("OAUTH_STATE_TTL", 10*time.Minute)
}

func (OAuth) GetRefreshLookahead() time.Duration {
	return getDurationEnv("OAUTH_REFRESH_LOOKAHEAD", 5*time.Minute)
}

func (OAuth) GetProviderTimeout() time.Duration {
	return getDurationEnv("OAUTH_PROVIDER_TIMEOUT", 30*time.Second)
}

// GetMockOAuth gates the fake provider used for local development and CI.
// It must be explicitly enabled; production configurations never set it.
func (OAuth) GetMockOAuth() bool {
	return GetEnv("MOCK_OAUTH", "false") == "true"
}
