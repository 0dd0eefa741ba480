package crypto

import (
	"crypto/rsa"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// FingerprintSize is the number of hash bytes shown in a fingerprint
const FingerprintSize = 8

// Hash generates a BLAKE2b-256 hash
func Hash(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}

// Fingerprint returns the hex encoded prefix of the BLAKE2b hash of data.
// It is meant for log lines, never for comparisons.
func Fingerprint(data []byte) string {
	return hex.EncodeToString(Hash(data)[:FingerprintSize])
}

// PublicKeyFingerprint fingerprints an RSA public key by its parameters
func PublicKeyFingerprint(key *rsa.PublicKey) string {
	e, n := PublicKeyParams(key)
	return Fingerprint(append(e, n...))
}
