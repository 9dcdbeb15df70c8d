package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	DefaultCodeDigits = 6
	DefaultSaltLength = 32

	// minSaltLength keeps salts at or above 128 bits.
	minSaltLength = 16
)

// GenerateCode draws a uniformly random numeric code of the given width from
// crypto/rand, left-zero-padded. rand.Int performs rejection sampling, so
// there is no modulo bias.
func GenerateCode(digits int) (string, error) {
	if digits <= 0 {
		digits = DefaultCodeDigits
	}

	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}

// GenerateSalt returns length random bytes from crypto/rand, base64 encoded
// for storage. Salts shorter than 16 bytes are rejected.
func GenerateSalt(length int) (string, error) {
	if length <= 0 {
		length = DefaultSaltLength
	}
	if length < minSaltLength {
		return "", fmt.Errorf("salt length %d below minimum of %d bytes", length, minSaltLength)
	}

	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	return base64.StdEncoding.EncodeToString(bytes), nil
}

// HashCode returns the hex SHA-256 digest of salt || code. The concatenation
// order is fixed; generation and verification must agree on it.
func HashCode(code, salt string) string {
	digest := sha256.Sum256([]byte(salt + code))
	return hex.EncodeToString(digest[:])
}

// ConstantTimeEquals compares two digests without short-circuiting on the
// first differing byte. Differing lengths fail closed; digests are
// fixed-length so the length check itself reveals nothing useful.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
