package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxbyte/go-identity-server/security"
)

func TestHashAndVerify(t *testing.T) {
	hasher := security.NewPasswordHasher()

	password := security.NewPassword("correct horse battery staple")
	defer password.Zero()

	hash, err := hasher.Hash(password)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := hasher.Verify(password, hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyWrongPassword(t *testing.T) {
	hasher := security.NewPasswordHasher()

	password := security.NewPassword("right-password")
	defer password.Zero()

	hash, err := hasher.Hash(password)
	require.NoError(t, err)

	wrong := security.NewPassword("wrong-password")
	defer wrong.Zero()

	ok, err := hasher.Verify(wrong, hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashUsesFreshSalt(t *testing.T) {
	hasher := security.NewPasswordHasher()

	password := security.NewPassword("same-password")
	defer password.Zero()

	hash1, err := hasher.Hash(password)
	require.NoError(t, err)
	hash2, err := hasher.Hash(password)
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)

	for _, hash := range []string{hash1, hash2} {
		ok, err := hasher.Verify(password, hash)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher := security.NewPasswordHasher()

	password := security.NewPassword("whatever")
	defer password.Zero()

	for _, malformed := range []string{
		"",
		"not-a-hash",
		"$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA",
	} {
		_, err := hasher.Verify(password, malformed)
		assert.ErrorIs(t, err, security.MalformedHashErr, "hash: %q", malformed)
	}
}

func TestPasswordZero(t *testing.T) {
	password := security.NewPassword("sensitive")
	buf := password.Bytes()

	password.Zero()

	assert.Equal(t, 0, password.Len())
	for _, b := range buf[:cap(buf)] {
		assert.Equal(t, byte(0), b)
	}
}
