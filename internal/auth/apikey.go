package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
)

// APIKeyVerifier checks client API keys against the configured key using a
// constant-time comparison. Keys are compared as SHA-256 digests so length
// differences leak nothing.
type APIKeyVerifier struct {
	keyDigest [32]byte
}

// NewAPIKeyVerifier creates a verifier for the configured API key
func NewAPIKeyVerifier(apiKey string) (*APIKeyVerifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	return &APIKeyVerifier{keyDigest: sha256.Sum256([]byte(apiKey))}, nil
}

// Verify reports whether the candidate matches the configured key
func (v *APIKeyVerifier) Verify(candidate string) bool {
	digest := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(v.keyDigest[:], digest[:]) == 1
}
