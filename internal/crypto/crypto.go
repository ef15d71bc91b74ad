// Package crypto seals source API credentials so a run config can be
// committed without plaintext tokens. Sealed values carry an "enc:"
// prefix and are opened at load time with a passphrase from the
// environment.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	sealedPrefix = "enc:"
	iterations   = 100000
	keySize      = 32 // AES-256
)

// IsSealed reports whether a config value is a sealed credential.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, sealedPrefix)
}

// Sealer encrypts and decrypts credential values with a passphrase-
// derived key.
type Sealer struct {
	key []byte
}

// NewSealer derives an AES key from the passphrase. Returns nil for an
// empty passphrase; a nil Sealer passes unsealed values through and
// refuses sealed ones.
func NewSealer(passphrase string) *Sealer {
	if passphrase == "" {
		return nil
	}
	// The salt only needs to differ between passphrases; there is no
	// per-value record to store one in.
	salt := sha256.Sum256([]byte("gigs-sealed-credential/" + passphrase))
	return &Sealer{key: pbkdf2.Key([]byte(passphrase), salt[:], iterations, keySize, sha256.New)}
}

// Seal encrypts a plaintext credential with AES-GCM.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if s == nil {
		return "", errors.New("no passphrase configured")
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a sealed value. Unsealed values pass through untouched,
// so configs can mix plain and sealed entries. A sealed value with the
// wrong passphrase is a hard error, never silent garbage.
func (s *Sealer) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	if s == nil {
		return "", errors.New("sealed value present but no passphrase configured")
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("sealed value is not valid base64: %w", err)
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize() {
		return "", errors.New("sealed value too short")
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.New("opening sealed value failed: wrong passphrase or corrupted value")
	}
	return string(plaintext), nil
}

// OpenMap opens every sealed value in a header map, returning a new map.
func (s *Sealer) OpenMap(m map[string]string) (map[string]string, error) {
	if len(m) == 0 {
		return m, nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		opened, err := s.Open(v)
		if err != nil {
			return nil, fmt.Errorf("header %s: %w", k, err)
		}
		out[k] = opened
	}
	return out, nil
}

func (s *Sealer) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
