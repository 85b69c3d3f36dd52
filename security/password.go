package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. 19 MiB / 2 iterations / 1 lane matches the OWASP
// recommended minimum for interactive logins.
const (
	argonMemoryKiB   = 19456
	argonIterations  = 2
	argonParallelism = 1
	argonSaltLength  = 16
	argonKeyLength   = 32
)

var (
	// MalformedHashErr indicates a stored hash that cannot be parsed. This is
	// corruption or misconfiguration, not a normal credential rejection.
	MalformedHashErr = errors.New("malformed password hash")
)

// Password holds plaintext password material for the shortest possible
// lifetime. Callers must Zero it once the hash or verification is done,
// on every exit path.
type Password struct {
	buf []byte
}

// NewPassword copies the plaintext into an owned buffer.
func NewPassword(plaintext string) *Password {
	return &Password{buf: []byte(plaintext)}
}

// Bytes exposes the raw password material.
func (p *Password) Bytes() []byte {
	return p.buf
}

// Len reports the password length in bytes.
func (p *Password) Len() int {
	return len(p.buf)
}

// Zero overwrites the password material. Safe to call more than once.
func (p *Password) Zero() {
	for i := range p.buf {
		p.buf[i] = 0
	}
	p.buf = p.buf[:0]
}

// String implements fmt.Stringer without exposing the password.
func (p *Password) String() string { return "***" }

// PasswordHasher hashes and verifies passwords using Argon2id. Hashes are
// emitted in PHC string format so the parameters and salt travel with the
// hash itself.
type PasswordHasher struct{}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{}
}

// Hash derives an Argon2id hash of the password under a fresh random salt.
func (h *PasswordHasher) Hash(password *Password) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "[PasswordHasher.Hash] rand.Read")
	}

	key := argon2.IDKey(password.Bytes(), salt, argonIterations, argonMemoryKiB, argonParallelism, argonKeyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemoryKiB,
		argonIterations,
		argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify recomputes the hash under the stored parameters and compares in
// constant time. A mismatch returns (false, nil); a hash that cannot be
// parsed returns MalformedHashErr.
func (h *PasswordHasher) Verify(password *Password, encodedHash string) (bool, error) {
	params, salt, key, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey(password.Bytes(), salt, params.iterations, params.memoryKiB, params.parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

type argonParams struct {
	memoryKiB   uint32
	iterations  uint32
	parallelism uint8
}

func decodeHash(encoded string) (argonParams, []byte, []byte, error) {
	var params argonParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return params, nil, nil, MalformedHashErr
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params, nil, nil, MalformedHashErr
	}

	var parallelism uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memoryKiB, &params.iterations, &parallelism); err != nil {
		return params, nil, nil, MalformedHashErr
	}
	params.parallelism = uint8(parallelism)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, MalformedHashErr
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, MalformedHashErr
	}
	return params, salt, key, nil
}
