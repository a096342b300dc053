package utils

import (
	"crypto/rand"
	"encoding/base64"
	"log"

	"github.com/google/uuid"
)

// GenerateSessionID creates a URL-safe session id for events that arrive
// without one.
func GenerateSessionID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Printf("ERROR: Failed to generate random bytes for session ID: %v", err)
		return "session_" + uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
