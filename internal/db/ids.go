package db

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const tokenRandomBytes = 20

// GenerateToken returns an unguessable opaque token for download artifacts.
// Approval correlation keys are minted separately as UUIDs.
func GenerateToken() (string, error) {
	b := make([]byte, tokenRandomBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
