package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"

	"github.com/gomantics/gitdesk/config"
)

var (
	ErrInvalidKey    = errors.New("encryption key must be 32 bytes")
	ErrInvalidCipher = errors.New("invalid ciphertext")
	ErrMissingKey    = errors.New("auth.encryption_key is not configured")
)

// encryptionKey accepts either 32 raw bytes or their base64 encoding.
func encryptionKey() ([]byte, error) {
	key := config.Auth.EncryptionKey()
	if key == "" {
		return nil, ErrMissingKey
	}

	if decoded, err := base64.StdEncoding.DecodeString(key); err == nil && len(decoded) == 32 {
		return decoded, nil
	}

	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	return []byte(key), nil
}

func newGCM() (cipher.AEAD, error) {
	key, err := encryptionKey()
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}

// encrypt seals plaintext with AES-256-GCM; the nonce is prepended.
func encrypt(plaintext string) (string, error) {
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func decrypt(ciphertext string) (string, error) {
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrInvalidCipher
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", ErrInvalidCipher
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrInvalidCipher
	}

	return string(plaintext), nil
}
