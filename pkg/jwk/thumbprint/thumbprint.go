package thumbprint

import (
	"bytes"
	"crypto"
	_ "crypto/sha256"
	"errors"
	"fmt"

	"github.com/commune-sh/matrix-authentication-service/pkg/base64"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwk"
)

var (
	ErrInvalidKey = errors.New("thumbprint: invalid key")
)

type member struct {
	name  string
	value string
}

// requiredMembers returns the members RFC 7638 section 3.2 (and RFC 8037
// section 2 for OKP keys) require, already ordered lexicographically.
func requiredMembers(key jwk.Key) ([]member, error) {
	switch params := key.Parameters.(type) {
	case *jwk.RSAParameters:
		if params.N == nil || params.E == nil {
			return nil, ErrInvalidKey
		}
		return []member{
			{"e", base64.Encode(params.E.Bytes())},
			{"kty", string(jwk.KeyTypeRSA)},
			{"n", base64.Encode(params.N.Bytes())},
		}, nil
	case *jwk.ECParameters:
		if len(params.X) == 0 || len(params.Y) == 0 {
			return nil, ErrInvalidKey
		}
		return []member{
			{"crv", string(params.Curve)},
			{"kty", string(jwk.KeyTypeEC)},
			{"x", base64.Encode(params.X)},
			{"y", base64.Encode(params.Y)},
		}, nil
	case *jwk.OKPParameters:
		if len(params.X) == 0 {
			return nil, ErrInvalidKey
		}
		return []member{
			{"crv", string(params.Curve)},
			{"kty", string(jwk.KeyTypeOKP)},
			{"x", base64.Encode(params.X)},
		}, nil
	case *jwk.SymmetricParameters:
		if len(params.K) == 0 {
			return nil, ErrInvalidKey
		}
		return []member{
			{"k", base64.Encode(params.K)},
			{"kty", string(jwk.KeyTypeSymmetric)},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported parameters %T", ErrInvalidKey, key.Parameters)
	}
}

// Generate returns the JWK Thumbprint for the given JWK following
// the steps defined in RFC 7638. Private members never contribute, so a
// private key and its public form share a thumbprint.
func Generate(key jwk.Key, h crypto.Hash) ([]byte, error) {
	// 1. Construct a JSON object [RFC7159] containing only the required
	// members of a JWK representing the key and with no whitespace or
	// line breaks before or after any syntactic elements and with the
	// required members ordered lexicographically by the Unicode
	// [UNICODE] code points of the member names.
	members, err := requiredMembers(key)
	if err != nil {
		return nil, err
	}

	// Every value is a base64url string or a registered name, so none of
	// them need escaping.
	b := bytes.NewBuffer(nil)

	b.WriteRune('{')
	for i, m := range members {
		if i > 0 {
			b.WriteRune(',')
		}
		b.WriteRune('"')
		b.WriteString(m.name)
		b.WriteString(`":"`)
		b.WriteString(m.value)
		b.WriteRune('"')
	}
	b.WriteRune('}')

	// 2. Hash the octets of the UTF-8 representation of this JSON object
	// with a cryptographic hash function H.
	//
	// If none is specified, SHA-256 is used.
	if h == 0 {
		h = crypto.SHA256
	}
	if !h.Available() {
		return nil, fmt.Errorf("thumbprint: hash function %v is not available", h)
	}

	hash := h.New()

	_, err = hash.Write(b.Bytes())
	if err != nil {
		return nil, err
	}

	return hash.Sum(nil), nil
}

// GenerateString returns the JWK Thumbprint for the given JWK following
// the steps defined in RFC 7638 as a base64url encoded string.
func GenerateString(key jwk.Key, h crypto.Hash) (string, error) {
	thumbprint, err := Generate(key, h)
	if err != nil {
		return "", err
	}

	return base64.Encode(thumbprint), nil
}
