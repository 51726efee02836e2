package utils

import (
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
)

// GenerateReferenceCode creates a short listing reference in the format
// "RE-XXXXXXXXX". Base58 keeps the code free of ambiguous characters so it
// can be read over the phone.
func GenerateReferenceCode() (string, error) {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate reference code: %w", err)
	}

	return fmt.Sprintf("RE-%s", base58.Encode(bytes)), nil
}
