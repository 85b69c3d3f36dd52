package oauthflow

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/taxbyte/go-identity-server/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleProvider talks to Google's OAuth 2.0 endpoints for Drive access.
type GoogleProvider struct {
	conf    *oauth2.Config
	timeout time.Duration
}

var _ Provider = (*GoogleProvider)(nil)

func NewGoogleProvider(cfg config.OAuthConfig) (*GoogleProvider, error) {
	if cfg.GetOAuthClientID() == "" || cfg.GetOAuthClientSecret() == "" {
		return nil, errors.New("[NewGoogleProvider] client id and secret are required")
	}
	return &GoogleProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.GetOAuthClientID(),
			ClientSecret: cfg.GetOAuthClientSecret(),
			RedirectURL:  cfg.GetOAuthRedirectURL(),
			Scopes:       strings.Fields(cfg.GetOAuthScope()),
			Endpoint:     google.Endpoint,
		},
		timeout: cfg.GetProviderTimeout(),
	}, nil
}

func (p *GoogleProvider) AuthCodeURL(state, codeVerifier string) string {
	return p.conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.S256ChallengeOption(codeVerifier),
	)
}

func (p *GoogleProvider) Exchange(ctx context.Context, code, codeVerifier string) (*Tokens, error) {
	ctx, cancel := p.boundedContext(ctx)
	defer cancel()

	token, err := p.conf.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, errors.Wrap(ExchangeFailedErr, err.Error())
	}
	if token.RefreshToken == "" {
		return nil, NoRefreshTokenErr
	}

	idToken, _ := token.Extra("id_token").(string)
	return &Tokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		IDToken:      idToken,
		Expiry:       token.Expiry,
	}, nil
}

func (p *GoogleProvider) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	ctx, cancel := p.boundedContext(ctx)
	defer cancel()

	source := p.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, errors.Wrap(ExchangeFailedErr, err.Error())
	}

	rotated := token.RefreshToken
	if rotated == refreshToken {
		rotated = ""
	}
	return &Tokens{
		AccessToken:  token.AccessToken,
		RefreshToken: rotated,
		Expiry:       token.Expiry,
	}, nil
}

// boundedContext applies the configured provider timeout and pins the HTTP
// client so the oauth2 package never falls back to an unbounded default.
func (p *GoogleProvider) boundedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: p.timeout})
	return context.WithTimeout(ctx, p.timeout)
}
