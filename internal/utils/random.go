package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// RandomString creates a random base64url string from length bytes of entropy
func RandomString(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
