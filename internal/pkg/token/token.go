package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// AccessTokenBytes is the entropy of an access token.
const AccessTokenBytes = 32

// NewAccessToken generates a cryptographically random URL-safe token
// carrying AccessTokenBytes bytes of entropy (43 characters, unpadded).
func NewAccessToken() (string, error) {
	b := make([]byte, AccessTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
