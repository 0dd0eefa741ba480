package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrInvalidKey       = errors.New("invalid key")
	ErrKeyTooSmall      = errors.New("key too small")
	ErrEncryptionFailed = errors.New("encryption failed")
	ErrDecryptionFailed = errors.New("decryption failed")
)

// DefaultRSABits is the client key size used by the reference client
const DefaultRSABits = 2048

// GenerateRSAKeyPair generates a new RSA key pair of the given size
func GenerateRSAKeyPair(bits int) (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, bits)
}

// PublicKeyParams returns the big-endian exponent and modulus of a public key,
// the form carried by AssignRequest and Handshake packets
func PublicKeyParams(key *rsa.PublicKey) (e []byte, n []byte) {
	return big.NewInt(int64(key.E)).Bytes(), key.N.Bytes()
}

// PublicKeyFromParams rebuilds an RSA public key from big-endian parameters.
// Keys below minBits are rejected with ErrKeyTooSmall.
func PublicKeyFromParams(e, n []byte, minBits int) (*rsa.PublicKey, error) {
	if len(e) == 0 || len(n) == 0 {
		return nil, ErrInvalidKey
	}

	exp := new(big.Int).SetBytes(e)
	if !exp.IsInt64() || exp.Int64() < 3 || exp.Int64() > 1<<31-1 || exp.Bit(0) == 0 {
		return nil, fmt.Errorf("%w: exponent %s", ErrInvalidKey, exp)
	}

	mod := new(big.Int).SetBytes(n)
	if mod.BitLen() < minBits {
		return nil, fmt.Errorf("%w: %d bits, need %d", ErrKeyTooSmall, mod.BitLen(), minBits)
	}

	return &rsa.PublicKey{N: mod, E: int(exp.Int64())}, nil
}

// RSAEncrypt encrypts data with RSA public key using OAEP
func RSAEncrypt(data []byte, publicKey *rsa.PublicKey) ([]byte, error) {
	hash := sha256.New()
	ciphertext, err := rsa.EncryptOAEP(hash, rand.Reader, publicKey, data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	return ciphertext, nil
}

// RSADecrypt decrypts data with RSA private key using OAEP
func RSADecrypt(ciphertext []byte, privateKey *rsa.PrivateKey) ([]byte, error) {
	hash := sha256.New()
	plaintext, err := rsa.DecryptOAEP(hash, rand.Reader, privateKey, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
