package oauthflow

import (
	"context"
	"time"
)

// Tokens is the plaintext result of a code exchange or refresh. It never
// leaves this package unencrypted except through the Provider boundary.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	Expiry       time.Time
}

// Provider is the transport boundary to the identity provider. The
// authorization URL is constructed locally; Exchange and Refresh are
// outbound calls carrying their own bounded timeout.
type Provider interface {
	// AuthCodeURL builds the provider consent URL embedding the state and
	// the S256 challenge derived from codeVerifier, requesting offline
	// access with forced consent so a refresh token is issued every time.
	AuthCodeURL(state, codeVerifier string) string

	// Exchange redeems an authorization code together with the PKCE
	// verifier at the provider's token endpoint.
	Exchange(ctx context.Context, code, codeVerifier string) (*Tokens, error)

	// Refresh mints a new access token. The returned RefreshToken is empty
	// when the provider did not rotate it.
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
}
