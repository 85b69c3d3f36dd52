package security

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"
)

const tokenByteLength = 32

// TokenGenerator produces opaque, unguessable token values for session
// bearer tokens, OAuth state values and PKCE verifier entropy.
type TokenGenerator struct{}

func NewTokenGenerator() *TokenGenerator {
	return &TokenGenerator{}
}

// Generate returns 32 bytes from the OS CSPRNG encoded as unpadded
// URL-safe base64 (43 characters).
func (g *TokenGenerator) Generate() (string, error) {
	bytes := make([]byte, tokenByteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.Wrap(err, "[TokenGenerator.Generate] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
