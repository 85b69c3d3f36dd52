package oauthflow

import "github.com/pkg/errors"

var (
	// StateMismatchErr means the callback presented a state value that was
	// never issued, already consumed, or expired. The CSRF defense: no token
	// exchange happens after this.
	StateMismatchErr = errors.New("oauth state mismatch")

	// ExchangeFailedErr wraps transport and provider failures during code
	// exchange or refresh. The caller decides whether to restart the flow;
	// nothing is retried here.
	ExchangeFailedErr = errors.New("token exchange failed")

	NoRefreshTokenErr = errors.New("provider returned no refresh token")
)
