package oauthflow

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// MockProvider simulates the identity provider for local development and
// tests: the authorization URL points at a local fake consent page and
// exchanges return pre-issued tokens. Its registration is gated behind the
// MOCK_OAUTH startup flag; it is never reachable in a production
// configuration.
type MockProvider struct {
	redirectURL string
	nowTime     func() time.Time
}

var _ Provider = (*MockProvider)(nil)

func NewMockProvider(redirectURL string) *MockProvider {
	return &MockProvider{redirectURL: redirectURL, nowTime: time.Now}
}

func (p *MockProvider) AuthCodeURL(state, codeVerifier string) string {
	params := url.Values{
		"state":        {state},
		"redirect_uri": {p.redirectURL},
	}
	return "/dev/mock-oauth?" + params.Encode()
}

func (p *MockProvider) Exchange(_ context.Context, code, codeVerifier string) (*Tokens, error) {
	return &Tokens{
		AccessToken:  fmt.Sprintf("mock-access-token-%s", uuid.New()),
		RefreshToken: fmt.Sprintf("mock-refresh-token-%s", uuid.New()),
		Expiry:       p.nowTime().Add(time.Hour),
	}, nil
}

func (p *MockProvider) Refresh(_ context.Context, refreshToken string) (*Tokens, error) {
	return &Tokens{
		AccessToken: fmt.Sprintf("mock-refreshed-access-token-%s", uuid.New()),
		// Empty refresh token: the mock never rotates it.
		Expiry: p.nowTime().Add(time.Hour),
	}, nil
}
