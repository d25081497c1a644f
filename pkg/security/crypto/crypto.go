package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"insider-hq/relay/pkg/config"
)

// EncryptedPrefix marks a value produced by Seal.
const EncryptedPrefix = "enc_"

// KeySize is the key length in bytes.
const KeySize = chacha20poly1305.KeySize

var (
	// ErrNoKey is returned by FromConfig when no key is configured.
	ErrNoKey = errors.New("no encryption key configured")

	// ErrInvalidKey is returned for keys that are not KeySize bytes of hex.
	ErrInvalidKey = fmt.Errorf("key must be %d bytes, hex encoded", KeySize)

	// ErrCiphertext is returned when a ciphertext is truncated or fails
	// authentication.
	ErrCiphertext = errors.New("ciphertext is malformed or was not produced with this key")
)

// Service encrypts and decrypts small values with XChaCha20-Poly1305.
// Ciphertexts are nonce || sealed box. Service is safe for concurrent use.
type Service struct {
	aead cipher.AEAD
}

// New creates a Service from a raw key.
func New(key []byte) (*Service, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return &Service{aead: aead}, nil
}

// FromConfig creates a Service from crypto.key, or from crypto.key_file when
// no inline key is set.
func FromConfig(cfg config.CryptoConfig) (*Service, error) {
	encoded := strings.TrimSpace(cfg.Key)
	if encoded == "" && cfg.KeyFile != "" {
		data, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		encoded = strings.TrimSpace(string(data))
	}
	if encoded == "" {
		return nil, ErrNoKey
	}

	key, err := DecodeKey(encoded)
	if err != nil {
		return nil, err
	}
	return New(key)
}

// Encrypt seals plaintext under a fresh random nonce.
func (s *Service) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a ciphertext produced by Encrypt.
func (s *Service) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < s.aead.NonceSize()+s.aead.Overhead() {
		return nil, ErrCiphertext
	}
	nonce, box := ciphertext[:s.aead.NonceSize()], ciphertext[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, box, nil)
	if err != nil {
		return nil, ErrCiphertext
	}
	return plaintext, nil
}

// Encrypter is the part of Service needed by Seal.
type Encrypter interface {
	Encrypt(plaintext []byte) ([]byte, error)
}

// Seal encrypts value and returns it as "enc_" + base64.
func Seal(e Encrypter, value string) (string, error) {
	ciphertext, err := e.Encrypt([]byte(value))
	if err != nil {
		return "", err
	}
	return EncryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// IsSealed reports whether value carries the encryption marker.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, EncryptedPrefix)
}

// GenerateKey returns a new random key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// EncodeKey hex encodes key.
func EncodeKey(key []byte) string {
	return hex.EncodeToString(key)
}

// DecodeKey parses a hex encoded key.
func DecodeKey(encoded string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(encoded))
	if err != nil || len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}
