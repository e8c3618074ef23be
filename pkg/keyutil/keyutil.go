// Package keyutil creates and imports key material as JSON Web Keys.
package keyutil

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"github.com/google/uuid"
)

// SymmetricKeysEqual checks if the given keys are the same.
func SymmetricKeysEqual(key1 []byte, key2 []byte) bool {
	return subtle.ConstantTimeCompare(key1, key2) == 1
}

// NewSymmetricKey generates a new symmetric key of the given size.
func NewSymmetricKey(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid symmetric key size %d", size)
	}

	key := make([]byte, size)

	_, err := rand.Read(key)
	if err != nil {
		return nil, fmt.Errorf("failed to generate new symmetric key: %w", err)
	}

	return key, nil
}

// NewKeyID returns a random key id.
func NewKeyID() string {
	return uuid.NewString()
}
