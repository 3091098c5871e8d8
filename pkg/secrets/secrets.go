// Package secrets draws random values from crypto/rand.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"

	dErrors "socialkyc/pkg/domain-errors"
)

// Generate creates a 32-byte random secret encoded as unpadded base64url.
// Suitable for signing keys generated at startup.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate secret")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Numeric returns n uniformly distributed decimal digits. Digits-only values
// survive URLs, form fields and OAuth state without escaping.
func Numeric(n int) (string, error) {
	if n <= 0 {
		return "", dErrors.New(dErrors.CodeValidation, "length must be positive")
	}
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate secret")
		}
		for _, b := range buf {
			// 250 is the largest multiple of 10 below 256; rejecting the rest keeps digits unbiased.
			if b >= 250 {
				continue
			}
			out = append(out, '0'+b%10)
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// Nonce returns size random bytes hex encoded.
func Nonce(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate nonce")
	}
	return hex.EncodeToString(buf), nil
}
