// Package cryptox obscures secrets stored at rest (refresh tokens).
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

var ErrCiphertext = errors.New("cryptox: invalid ciphertext")

// Encryptor encrypts short text values with AES-256-GCM.
// The output is base64url(nonce || sealed) so it fits in a text column.
type Encryptor struct {
	aead cipher.AEAD
}

// DeriveKey stretches a passphrase and salt into a 32-byte AES key.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, 32)
}

func NewEncryptor(passphrase, salt string) (*Encryptor, error) {
	if passphrase == "" || salt == "" {
		return nil, errors.New("cryptox: passphrase and salt are required")
	}
	block, err := aes.NewCipher(DeriveKey([]byte(passphrase), []byte(salt)))
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Encryptor{aead: aead}, nil
}

func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("cryptox: nonce: %w", err)
	}
	out := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (e *Encryptor) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrCiphertext
	}
	ns := e.aead.NonceSize()
	if len(raw) < ns {
		return "", ErrCiphertext
	}
	plain, err := e.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", ErrCiphertext
	}
	return string(plain), nil
}
