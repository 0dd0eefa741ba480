package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

const (
	// AES-256 requires 32-byte keys
	SessionKeySize = 32

	// AES-GCM nonce size (96 bits / 12 bytes is standard)
	NonceSize = 12
)

// Session holds one connection's symmetric key. Every sealed payload is
// nonce || AES-256-GCM ciphertext. A Session is safe for concurrent use.
type Session struct {
	key  []byte
	aead cipher.AEAD
}

// NewSessionKey generates a fresh random session key
func NewSessionKey() ([]byte, error) {
	key := make([]byte, SessionKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate session key: %w", err)
	}
	return key, nil
}

// NewSession creates a session from a 32-byte key
func NewSession(key []byte) (*Session, error) {
	if len(key) != SessionKeySize {
		return nil, fmt.Errorf("%w: session key is %d bytes, want %d", ErrInvalidKey, len(key), SessionKeySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	k := make([]byte, len(key))
	copy(k, key)

	return &Session{key: k, aead: aead}, nil
}

// GenerateSession creates a session with a fresh random key
func GenerateSession() (*Session, error) {
	key, err := NewSessionKey()
	if err != nil {
		return nil, err
	}
	return NewSession(key)
}

// Key returns a copy of the session key
func (s *Session) Key() []byte {
	k := make([]byte, len(s.key))
	copy(k, s.key)
	return k
}

// Seal encrypts plaintext under the session key
func (s *Session) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, NonceSize, NonceSize+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", ErrEncryptionFailed, err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a payload produced by Seal
func (s *Session) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < NonceSize+s.aead.Overhead() {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrDecryptionFailed, len(sealed))
	}

	plaintext, err := s.aead.Open(nil, sealed[:NonceSize], sealed[NonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w (wrong key or corrupted data)", ErrDecryptionFailed)
	}
	return plaintext, nil
}

// Fingerprint returns a short printable fingerprint of the session key
func (s *Session) Fingerprint() string {
	return Fingerprint(s.key)
}
