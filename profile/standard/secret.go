package standard

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// newSecret returns a fresh lockfile secret: cryptographically random
// bytes, URL-safe base64 encoded, per spec §4.5's startup sequence.
func newSecret() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("standard: generating secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
