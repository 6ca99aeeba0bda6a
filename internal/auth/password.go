// ABOUTME: Password hashing and verification using PBKDF2-HMAC-SHA256
// ABOUTME: Stored format is "saltHex:hashHex" with a per-password random salt

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 iteration count for new hashes.
	DefaultIterations = 100_000

	saltBytes = 32
	keyBytes  = 32
)

// dummyHash is a well-formed hash of a random throwaway password. Login
// verifies against it when the username is unknown so that failed lookups
// take the same time as failed password checks.
const dummyHash = "f3c8a1be59d204e7b6afc90312d8e5746b1f0c2a9d83e47586f1b0a2c3d4e5f6:" +
	"9a7b3c1d5e2f4a6b8c0d1e3f5a7b9c2d4e6f8a0b1c3d5e7f9a2b4c6d8e0f1a3b"

// HashPassword derives a PBKDF2 hash from a password with a fresh random
// salt, returning the stored "saltHex:hashHex" form.
func HashPassword(password string, iterations int) (string, error) {
	if iterations <= 0 {
		iterations = DefaultIterations
	}

	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, iterations, keyBytes, sha256.New)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// VerifyPassword checks a password against a stored "saltHex:hashHex"
// value in constant time. A malformed stored value never verifies.
func VerifyPassword(stored, password string, iterations int) bool {
	if iterations <= 0 {
		iterations = DefaultIterations
	}

	saltHex, hashHex, ok := strings.Cut(stored, ":")
	if !ok {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(hashHex)
	if err != nil || len(want) == 0 {
		return false
	}

	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
