package auth

import "github.com/pkg/errors"

var (
	// InvalidCredentialsErr covers both unknown email and wrong password so
	// responses cannot be used to enumerate accounts.
	InvalidCredentialsErr = errors.New("invalid credentials")

	// SessionExpiredErr covers both expired and never-issued tokens, again to
	// avoid enumeration.
	SessionExpiredErr = errors.New("session expired")

	EmailAlreadyExistsErr = errors.New("email already registered")
	RateLimitedErr        = errors.New("too many login attempts")
	UserNotFoundErr       = errors.New("user not found")
)

// ValidationError is a malformed-input failure whose message is safe to
// surface verbatim to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}
