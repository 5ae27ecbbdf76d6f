package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// GenerateCode returns an uppercase hex string built from n random bytes.
// Used for the per-ticket component of final keys and for reference codes.
func GenerateCode(n int) (string, error) {
	// Make a slice of n random bytes.
	byt := make([]byte, n)

	// Read into the slice.
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	// Return the hexadecimal string.
	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// GenerateSecretKey returns the per-user secret seed combined into every
// final key the user's tickets receive. Stable once assigned.
func GenerateSecretKey() (string, error) {
	return GenerateCode(16)
}
