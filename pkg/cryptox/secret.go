package cryptox

import (
	"crypto/rand"
	"fmt"
)

// SecretSize256 is the recommended size for HMAC signing secrets.
const SecretSize256 = 32

// GenerateSecret returns size cryptographically secure random bytes.
func GenerateSecret(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cryptox: secret size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("cryptox: generate secret: %w", err)
	}
	return buf, nil
}
