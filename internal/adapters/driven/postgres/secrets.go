package postgres

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// sealedPrefix marks a column value produced by SecretBox.Seal.
// Values without it are read back as plaintext.
const sealedPrefix = "enc:v1:"

const (
	nonceSize = 12
	keySize   = 32
)

var (
	// ErrInvalidKeySize is returned when the encryption key is not 32 bytes.
	ErrInvalidKeySize = errors.New("encryption key must be 32 bytes")

	// ErrDecryptionFailed is returned for a wrong key or corrupted value.
	ErrDecryptionFailed = errors.New("failed to decrypt secret")
)

// SecretBox seals provider API keys with AES-256-GCM before they reach the
// ai_settings table. A nil *SecretBox stores values as given.
type SecretBox struct {
	gcm cipher.AEAD
}

// NewSecretBox creates a box from a 32-byte key.
func NewSecretBox(key []byte) (*SecretBox, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &SecretBox{gcm: gcm}, nil
}

// NewSecretBoxFromString decodes a base64 key. An empty key disables sealing.
func NewSecretBoxFromString(encoded string) (*SecretBox, error) {
	if encoded == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode secret key: %w", err)
	}
	return NewSecretBox(key)
}

// Seal returns prefix || base64(nonce || ciphertext). Empty input stays empty.
func (b *SecretBox) Seal(plaintext string) (string, error) {
	if b == nil || plaintext == "" {
		return plaintext, nil
	}
	nonce := make([]byte, nonceSize, nonceSize+len(plaintext)+b.gcm.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := b.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Unsealed values pass through unchanged, so rows written
// before a key was configured stay readable.
func (b *SecretBox) Open(value string) (string, error) {
	if !strings.HasPrefix(value, sealedPrefix) {
		return value, nil
	}
	if b == nil {
		return "", fmt.Errorf("%w: value is sealed but no key is configured", ErrDecryptionFailed)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil || len(raw) < nonceSize+b.gcm.Overhead() {
		return "", ErrDecryptionFailed
	}
	plain, err := b.gcm.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plain), nil
}
