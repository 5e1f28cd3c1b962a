// Package security provides the data key and value cipher behind the
// encrypted-at-rest preference tier.
// Values are sealed with XChaCha20-Poly1305; the row key is bound as
// additional data so a sealed value cannot be replayed under another key.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the data key length in bytes.
const KeySize = chacha20poly1305.KeySize

// Argon2id parameters for passphrase-derived keys.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 2
	saltSize     = 16
)

// LoadOrCreateDataKey loads the random data key from disk, or generates
// one on first run. Keys are stored hex-encoded in home/keys/.
func LoadOrCreateDataKey(home string) ([]byte, error) {
	keyDir := filepath.Join(home, "keys")
	keyPath := filepath.Join(keyDir, "data.key")

	if raw, err := os.ReadFile(keyPath); err == nil {
		key, err := hex.DecodeString(string(raw))
		if err != nil {
			return nil, fmt.Errorf("decode data key: %w", err)
		}
		if len(key) != KeySize {
			return nil, fmt.Errorf("data key is %d bytes, want %d", len(key), KeySize)
		}
		return key, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read data key: %w", err)
	}

	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate data key: %w", err)
	}

	if err := os.MkdirAll(keyDir, 0700); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0600); err != nil {
		return nil, fmt.Errorf("write data key: %w", err)
	}
	return key, nil
}

// DeriveDataKey stretches passphrase into a data key with argon2id.
// The salt is created once and kept next to where a random key would live.
func DeriveDataKey(home, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, errors.New("empty passphrase")
	}

	keyDir := filepath.Join(home, "keys")
	saltPath := filepath.Join(keyDir, "data.salt")

	salt, err := os.ReadFile(saltPath)
	switch {
	case err == nil:
		salt, err = hex.DecodeString(string(salt))
		if err != nil {
			return nil, fmt.Errorf("decode salt: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		salt = make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("generate salt: %w", err)
		}
		if err := os.MkdirAll(keyDir, 0700); err != nil {
			return nil, fmt.Errorf("create key dir: %w", err)
		}
		if err := os.WriteFile(saltPath, []byte(hex.EncodeToString(salt)), 0600); err != nil {
			return nil, fmt.Errorf("write salt: %w", err)
		}
	default:
		return nil, fmt.Errorf("read salt: %w", err)
	}

	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, KeySize), nil
}

// Cipher seals preference values. It satisfies sqlite.Codec.
type Cipher struct {
	key []byte
}

// NewCipher validates key and returns a value cipher.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("data key must be %d bytes, got %d", KeySize, len(key))
	}
	// Copy so the caller may zero its slice.
	k := make([]byte, len(key))
	copy(k, key)
	return &Cipher{key: k}, nil
}

// Seal encrypts plaintext bound to rowKey and returns base64(nonce||ciphertext).
func (c *Cipher) Seal(rowKey, plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), []byte(rowKey))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. A value sealed under a different row key fails.
func (c *Cipher) Open(rowKey, sealed string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decode sealed value: %w", err)
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}

	nonceSize := aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	plain, err := aead.Open(nil, data[:nonceSize], data[nonceSize:], []byte(rowKey))
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
