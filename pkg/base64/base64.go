package base64

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when decoding an empty string.
var ErrEmptyInput = errors.New("base64: input cannot be empty")

// encoding is the unpadded base64url alphabet in strict mode, so the
// unused trailing bits of the final character must be zero. Without
// strict mode two different encodings can decode to the same bytes.
var encoding = base64.RawURLEncoding.Strict()

// Decode returns the base64url decoded bytes from the given input.
// This function implements base64url decoding as defined in RFC 4648 Section 5,
// which is used in JWT and JWS specifications (RFC 7515).
//
// Padding characters are not accepted, JWS forbids them.
func Decode(input string) ([]byte, error) {
	if len(input) == 0 {
		return nil, ErrEmptyInput
	}

	result, err := encoding.DecodeString(input)
	if err != nil {
		return nil, fmt.Errorf("base64: invalid base64url input: %w", err)
	}
	return result, nil
}

// Encode returns the unpadded base64url encoded string from the given input.
func Encode(input []byte) string {
	return encoding.EncodeToString(input)
}

// IsURLSafe reports whether every byte of s belongs to the base64url
// alphabet. It does not check that s has a decodable length.
func IsURLSafe(s string) bool {
	for i := 0; i < len(s); i++ {
		if !IsURLSafeByte(s[i]) {
			return false
		}
	}
	return true
}

// IsURLSafeByte reports whether c belongs to the base64url alphabet.
func IsURLSafeByte(c byte) bool {
	return 'A' <= c && c <= 'Z' ||
		'a' <= c && c <= 'z' ||
		'0' <= c && c <= '9' ||
		c == '-' || c == '_'
}
