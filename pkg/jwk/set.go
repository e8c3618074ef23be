package jwk

import (
	"errors"
	"fmt"

	"github.com/commune-sh/matrix-authentication-service/pkg/jwa"
)

// ErrEmptySet is returned when validating a key set without keys.
var ErrEmptySet = errors.New("jwk: no keys in set")

// KeySet is a JWK set as defined in RFC 7517. Key order is preserved.
//
// https://datatracker.ietf.org/doc/html/rfc7517#section-5
type KeySet struct {
	// Keys is the list of JWKs in the set.
	//
	// https://datatracker.ietf.org/doc/html/rfc7517#section-5.1
	Keys []Key `json:"keys"`
}

// NewKeySet returns a set holding keys in the given order.
func NewKeySet(keys ...Key) KeySet {
	return KeySet{Keys: keys}
}

// Len returns the number of keys in the set.
func (s KeySet) Len() int {
	return len(s.Keys)
}

// Validate validates the key set, returning an error if it is empty or
// any of the keys are invalid.
func (s KeySet) Validate() error {
	if len(s.Keys) == 0 {
		return ErrEmptySet
	}

	for i, key := range s.Keys {
		if err := key.Validate(); err != nil {
			return fmt.Errorf("key set validation error at index %d: %w", i, err)
		}
	}

	return nil
}

// Find returns every key with the given id, in set order. Ids are
// compared exactly.
func (s KeySet) Find(kid string) []Key {
	var keys []Key
	for _, key := range s.Keys {
		if key.ID == kid {
			keys = append(keys, key)
		}
	}
	return keys
}

// Public returns the set with every key narrowed to its public form.
// Keys without a public form, such as shared secrets, are dropped.
func (s KeySet) Public() KeySet {
	public := KeySet{Keys: make([]Key, 0, len(s.Keys))}
	for _, key := range s.Keys {
		if pub, ok := key.Public(); ok {
			public.Keys = append(public.Keys, pub)
		}
	}
	return public
}

// SigningKeyForAlgorithm returns the first private key that can sign
// with alg. Keys meant for encryption are skipped.
func (s KeySet) SigningKeyForAlgorithm(alg jwa.Algorithm) (Key, bool) {
	for _, key := range s.Keys {
		if key.Use == UseEncryption || !key.IsPrivate() {
			continue
		}
		if key.Supports(alg) {
			return key, true
		}
	}
	return Key{}, false
}

// Clone returns a copy of the set whose key slice can be modified
// independently. Parameters are immutable and shared.
func (s KeySet) Clone() KeySet {
	if s.Keys == nil {
		return KeySet{}
	}
	return KeySet{Keys: append([]Key(nil), s.Keys...)}
}
