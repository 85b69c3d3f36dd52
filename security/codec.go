package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"
)

var (
	// DecryptErr covers tampering, truncation and wrong-key failures.
	// Decryption never silently returns garbage.
	DecryptErr = errors.New("decryption failed")

	InvalidKeyErr = errors.New("encryption key must be 32 bytes, base64 encoded")
)

// Codec encrypts and decrypts opaque secret blobs (OAuth tokens at rest)
// with AES-256-GCM. The envelope is base64(nonce || ciphertext || tag).
// The key is process-wide configuration: loaded once, never logged.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a Codec from a base64-encoded 256-bit key
// (generate one with: openssl rand -base64 32).
func NewCodec(keyBase64 string) (*Codec, error) {
	key, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, errors.Wrap(InvalidKeyErr, "[NewCodec] base64 decode")
	}
	if len(key) != 32 {
		return nil, InvalidKeyErr
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "[NewCodec] aes.NewCipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "[NewCodec] cipher.NewGCM")
	}
	return &Codec{aead: aead}, nil
}

// Encrypt seals the plaintext under a fresh random nonce.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, "[Codec.Encrypt] rand.Read")
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an envelope produced by Encrypt. Any authentication or
// framing failure returns DecryptErr.
func (c *Codec) Decrypt(envelope string) (string, error) {
	combined, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", errors.Wrap(DecryptErr, "base64 decode")
	}
	if len(combined) < c.aead.NonceSize() {
		return "", errors.Wrap(DecryptErr, "envelope too short")
	}

	nonce, ciphertext := combined[:c.aead.NonceSize()], combined[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.Wrap(DecryptErr, "authentication")
	}
	return string(plaintext), nil
}
