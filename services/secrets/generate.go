package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// DefaultTokenBytes is the token size used when the caller has no preference.
const DefaultTokenBytes = 32 // 256 bits

// Generate returns numBytes random bytes encoded as unpadded URL-safe base64,
// so the token can travel in a query string like hub.verify_token.
func Generate(numBytes int) (string, error) {
	if numBytes <= 0 {
		return "", fmt.Errorf("invalid token size: %d", numBytes)
	}
	buf := make([]byte, numBytes)
	n, err := io.ReadFull(rand.Reader, buf)
	if err != nil {
		return "", fmt.Errorf("error reading %d bytes from crypto/rand: %w", numBytes, err)
	}
	if n != numBytes {
		return "", fmt.Errorf("unexpected number of bytes read from crypto/rand, want %d, got %d", numBytes, n)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
