// crypto.go - secret-derived authenticated encryption for short strings.
//
// One configured secret is stretched into an AES-256 key once at startup;
// every token the service mints or verifies goes through this layer.
package server

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// kdfSalt is a fixed constant shared by every deployment so that the
	// same secret always derives the same key across restarts and hosts.
	// Known limitation carried over from the first version of this
	// service: a fixed salt gives up cross-deployment dictionary
	// resistance. Changing it invalidates every outstanding token.
	kdfSalt = "salt_"

	kdfIterations = 100000
	kdfKeyLen     = 32
)

// Crypter seals and opens short strings with AES-256-GCM under a key
// derived from a configured secret. Construct with NewCrypter; the key is
// derived once and never mutated, so a Crypter is safe for concurrent use.
type Crypter struct {
	aead cipher.AEAD
}

// NewCrypter derives the key from secret via PBKDF2-SHA256. Deterministic:
// two Crypters built from equal secrets are interchangeable (one can open
// what the other sealed).
func NewCrypter(secret string) *Crypter {
	key := pbkdf2.Key([]byte(secret), []byte(kdfSalt), kdfIterations, kdfKeyLen, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		// key length is fixed at 32 bytes above
		panic(err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		panic(err)
	}
	return &Crypter{aead: aead}
}

// Encrypt seals plaintext and returns URL-safe base64 of
// nonce(12B) || ciphertext || tag(16B). It never fails for valid input.
func (c *Crypter) Encrypt(plaintext string) string {
	nonce := make([]byte, c.aead.NonceSize())
	_, _ = rand.Read(nonce)

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed)
}

// Decrypt reverses Encrypt. The second return is false whenever the input
// is not valid base64, is too short, or fails authentication; callers
// cannot tell those cases apart, and no partial plaintext ever escapes.
func (c *Crypter) Decrypt(token string) (string, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", false
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize+c.aead.Overhead() {
		return "", false
	}

	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", false
	}
	return string(plaintext), true
}
