package hub

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// nextPublicID allocates the next public id from the registry's
// monotonic counter. Callers must hold r.mu. Ids take the form
// "c0001", "c0002", ... per spec §4.4 ("a short alphanumeric
// prefix").
func (r *Registry) nextPublicID() string {
	r.counter++
	return fmt.Sprintf("c%04d", r.counter)
}

// newPrivateKey returns a fresh private key: prefix followed by 20
// cryptographically random bytes, URL-safe base64 encoded. 20 bytes
// sits inside spec §4.4's "16-24 bytes" requirement.
func newPrivateKey(prefix string) (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("samp: generating private key: %w", err)
	}
	return prefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// newSecret returns a fresh Standard Profile lockfile secret: the same
// shape as a private key but without a profile prefix, since it is
// never presented as a client-facing identity token.
func newSecret() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("samp: generating secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// newMsgID mints a msg-id opaquely wrapping a fresh UUID. The hub
// never parses its own msg-ids back apart — the call tracking table
// is the source of truth for sender/tag/recipient — so the encoding
// only needs to be unique, not secret; a private key or lockfile
// secret needs a cryptographic RNG, a msg-id doesn't, so this is the
// one id kind minted with google/uuid rather than crypto/rand.
func newMsgID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("samp: generating msg-id: %w", err)
	}
	return "m" + id.String(), nil
}
