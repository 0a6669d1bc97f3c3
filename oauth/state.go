package oauth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// GenerateState creates a random state string for CSRF protection
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// VerifyState compares the returned state against the issued one in constant
// time. An empty issued state never matches.
func VerifyState(issued, returned string) bool {
	if issued == "" || returned == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(issued), []byte(returned)) == 1
}
