package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
)

// GenerateNumericCode returns a random numeric one-time code of the given
// number of digits (e.g. "4831" for digits=4). Codes can start with zero.
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 {
		return "", fmt.Errorf("cryptox: code digits must be positive, got %d", digits)
	}
	raw := make([]byte, digits)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate code: %w", err)
	}
	code := make([]byte, digits)
	for i := range raw {
		code[i] = '0' + raw[i]%10
	}
	return string(code), nil
}

// CodeEqual compares the fingerprint of a submitted code against a stored
// fingerprint in constant time.
func CodeEqual(code, storedFingerprint string) bool {
	got := FingerprintToken(code)
	return subtle.ConstantTimeCompare([]byte(got), []byte(storedFingerprint)) == 1
}
