package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GuestTokenBytes is the entropy of a guest session token: 32 bytes, 256 bits.
const GuestTokenBytes = 32

// MinGuestTokenLength is the shortest token ValidTokenFormat accepts.
const MinGuestTokenLength = 32

// GenerateGuestToken returns a URL-safe random session token.
func GenerateGuestToken() (string, error) {
	buf := make([]byte, GuestTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ValidTokenFormat checks token shape without touching any store: minimum
// length and the base64url alphabet only.
func ValidTokenFormat(token string) bool {
	if len(token) < MinGuestTokenLength {
		return false
	}
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
