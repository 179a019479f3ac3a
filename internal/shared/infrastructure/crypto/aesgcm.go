// Package crypto seals sensitive column values at rest with AES-256-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	keySize = 32
	// sealedPrefix tags column values produced by SealString.
	sealedPrefix = "sealed:v1:"
)

var (
	// ErrNoKey means a sealed value was read while no key is configured.
	ErrNoKey = errors.New("value is sealed but no encryption key is configured")

	errShortCiphertext = errors.New("ciphertext too short")
)

// Encrypter is a symmetric byte cipher.
type Encrypter interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// AESEncrypter is AES-256-GCM. Each ciphertext is nonce || sealed data, with
// a fresh random nonce per call.
type AESEncrypter struct {
	gcm cipher.AEAD
}

// NewAESGCMFromBase64Key builds an AESEncrypter from a standard-base64
// 32-byte key, the form DOCUMENT_ENCRYPTION_KEY is configured in.
func NewAESGCMFromBase64Key(encoded string) (*AESEncrypter, error) {
	if encoded == "" {
		return nil, errors.New("encryption key is empty")
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not base64: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", keySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESEncrypter{gcm: gcm}, nil
}

func (e *AESEncrypter) Encrypt(plaintext []byte) ([]byte, error) {
	out := make([]byte, e.gcm.NonceSize(), e.gcm.NonceSize()+len(plaintext)+e.gcm.Overhead())
	if _, err := rand.Read(out); err != nil {
		return nil, err
	}
	return e.gcm.Seal(out, out, plaintext, nil), nil
}

func (e *AESEncrypter) Decrypt(ciphertext []byte) ([]byte, error) {
	n := e.gcm.NonceSize()
	if len(ciphertext) < n+e.gcm.Overhead() {
		return nil, errShortCiphertext
	}
	return e.gcm.Open(nil, ciphertext[:n], ciphertext[n:], nil)
}

// SealString turns s into a tagged base64 column value. Empty strings and a
// nil enc leave s as it is.
func SealString(enc Encrypter, s string) (string, error) {
	if s == "" || enc == nil {
		return s, nil
	}
	data, err := enc.Encrypt([]byte(s))
	if err != nil {
		return "", fmt.Errorf("seal value: %w", err)
	}
	return sealedPrefix + base64.StdEncoding.EncodeToString(data), nil
}

// OpenString undoes SealString. Untagged values are plaintext written before
// a key existed and come back unchanged.
func OpenString(enc Encrypter, s string) (string, error) {
	encoded, sealed := strings.CutPrefix(s, sealedPrefix)
	switch {
	case !sealed:
		return s, nil
	case enc == nil:
		return "", ErrNoKey
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err == nil {
		data, err = enc.Decrypt(data)
	}
	if err != nil {
		return "", fmt.Errorf("open value: %w", err)
	}
	return string(data), nil
}
