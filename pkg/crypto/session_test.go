package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSealOpen(t *testing.T) {
	s, err := GenerateSession()
	require.NoError(t, err)

	plaintext := []byte("hello through the relay")

	sealed, err := s.Seal(plaintext)
	require.NoError(t, err)
	assert.Len(t, sealed, NonceSize+len(plaintext)+16)

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestSessionNoncesDiffer(t *testing.T) {
	s, err := GenerateSession()
	require.NoError(t, err)

	a, err := s.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := s.Seal([]byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, a[:NonceSize], b[:NonceSize])
}

func TestSessionOpenFailures(t *testing.T) {
	s, err := GenerateSession()
	require.NoError(t, err)
	other, err := GenerateSession()
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("secret"))
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrDecryptionFailed, "wrong key")

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0x01
	_, err = s.Open(tampered)
	assert.ErrorIs(t, err, ErrDecryptionFailed, "tampered ciphertext")

	_, err = s.Open(sealed[:NonceSize])
	assert.ErrorIs(t, err, ErrDecryptionFailed, "truncated")
}

func TestNewSessionKeySize(t *testing.T) {
	_, err := NewSession(make([]byte, 16))
	assert.ErrorIs(t, err, ErrInvalidKey)

	key, err := NewSessionKey()
	require.NoError(t, err)

	s, err := NewSession(key)
	require.NoError(t, err)
	assert.Equal(t, key, s.Key())
	assert.Equal(t, Fingerprint(key), s.Fingerprint())

	// Key returns a copy
	s.Key()[0] ^= 0xFF
	assert.Equal(t, key, s.Key())
}
