// Package constraints selects the keys of a key set that may verify a JWS,
// given what its header declares.
package constraints

import (
	"github.com/commune-sh/matrix-authentication-service/pkg/header"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwa"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwk"
)

// Set is the conjunction of constraints a key must satisfy to be tried
// against a message.
type Set struct {
	// Algorithm must be among the key's own possible algorithms.
	Algorithm jwa.Algorithm

	// KeyID, when non-empty, must equal the key's id exactly. Keys
	// without an id never match a non-empty KeyID.
	KeyID string

	// Use is the intended use. Keys that declare a different use are
	// excluded, keys that declare none are allowed.
	Use string
}

// FromHeader derives the constraints for verifying a JWS with header h.
func FromHeader(h header.Header) Set {
	return Set{
		Algorithm: h.Algorithm,
		KeyID:     h.KeyID,
		Use:       jwk.UseSignature,
	}
}

// Matches reports whether key satisfies every constraint in s.
func (s Set) Matches(key jwk.Key) bool {
	if !s.Algorithm.Valid() || !key.Supports(s.Algorithm) {
		return false
	}
	if s.KeyID != "" && key.ID != s.KeyID {
		return false
	}
	if key.Use != "" && key.Use != s.Use {
		return false
	}
	return true
}

// Filter returns the keys of ks that match s, in key set order.
func (s Set) Filter(ks jwk.KeySet) []jwk.Key {
	var keys []jwk.Key
	for _, key := range ks.Keys {
		if s.Matches(key) {
			keys = append(keys, key)
		}
	}
	return keys
}
