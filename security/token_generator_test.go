package security_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxbyte/go-identity-server/security"
)

func TestGenerateTokens(t *testing.T) {
	generator := security.NewTokenGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := generator.Generate()
		require.NoError(t, err)

		// 32 bytes as unpadded base64url.
		assert.Len(t, token, 43)
		for _, c := range token {
			urlSafe := c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_'
			assert.True(t, urlSafe, "unexpected character %q in token", c)
		}

		assert.False(t, seen[token], "token generated twice")
		seen[token] = true
	}
}
