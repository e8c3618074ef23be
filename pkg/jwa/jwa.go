package jwa

import (
	"crypto"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

// ErrUnsupportedAlgorithm is returned for any "alg" value outside the
// closed set below, including "none".
var ErrUnsupportedAlgorithm = errors.New("jwa: unsupported algorithm")

// Algorithm is a JWS "alg" value.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.1
type Algorithm string

// HMAC with SHA-2 Functions
//
// These algorithms are used to construct a MAC using a shared secret
// and the Hash-based Message Authentication Code (HMAC) construction
// [RFC2104] employing SHA-2 [SHS] hash functions.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.2
const (
	HS256 Algorithm = "HS256"
	HS384 Algorithm = "HS384"
	HS512 Algorithm = "HS512"
)

// RSASSA-PKCS1-v1_5
//
// These algorithms are used to digitally sign a JWS and produce a
// JWS Signature using PKCS #1 v1.5 methods.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.3
const (
	RS256 Algorithm = "RS256"
	RS384 Algorithm = "RS384"
	RS512 Algorithm = "RS512"
)

// ECDSA
//
// These algorithms are used to digitally sign a JWS and produce a
// JWS Signature using ECDSA algorithms.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.4
const (
	ES256 Algorithm = "ES256"
	ES384 Algorithm = "ES384"
	ES512 Algorithm = "ES512"
)

// ES256K is ECDSA using secp256k1 and SHA-256.
//
// https://datatracker.ietf.org/doc/html/rfc8812#section-3.2
const ES256K Algorithm = "ES256K"

// RSASSA-PSS
//
// These algorithms are used to digitally sign a JWS and produce a
// JWS Signature using the RSASSA-PSS algorithms. The salt length
// equals the hash output length.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.5
const (
	PS256 Algorithm = "PS256"
	PS384 Algorithm = "PS384"
	PS512 Algorithm = "PS512"
)

// EdDSA is the polymorphic Edwards-curve algorithm identifier, the
// curve comes from the key.
//
// https://datatracker.ietf.org/doc/html/rfc8037#section-3.1
const EdDSA Algorithm = "EdDSA"

// Fully specified Edwards-curve identifiers.
//
// https://datatracker.ietf.org/doc/html/rfc9864
const (
	Ed25519 Algorithm = "Ed25519"
	Ed448   Algorithm = "Ed448"
)

// Family groups algorithms which share a signature primitive.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyHMAC
	FamilyRSAPKCS1
	FamilyRSAPSS
	FamilyECDSA
	FamilyEdDSA
)

func (f Family) String() string {
	switch f {
	case FamilyHMAC:
		return "HMAC"
	case FamilyRSAPKCS1:
		return "RSASSA-PKCS1-v1_5"
	case FamilyRSAPSS:
		return "RSASSA-PSS"
	case FamilyECDSA:
		return "ECDSA"
	case FamilyEdDSA:
		return "EdDSA"
	default:
		return "unknown"
	}
}

var all = []Algorithm{
	HS256, HS384, HS512,
	RS256, RS384, RS512,
	PS256, PS384, PS512,
	ES256, ES384, ES512, ES256K,
	EdDSA, Ed25519, Ed448,
}

// All returns every supported algorithm.
func All() []Algorithm {
	return slices.Clone(all)
}

// Parse returns the algorithm named by s, or ErrUnsupportedAlgorithm.
func Parse(s string) (Algorithm, error) {
	alg := Algorithm(s)
	if !alg.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
	}
	return alg, nil
}

// Valid reports whether alg is a member of the supported set.
func (alg Algorithm) Valid() bool {
	return slices.Contains(all, alg)
}

// Family returns the signature family of alg.
func (alg Algorithm) Family() Family {
	switch alg {
	case HS256, HS384, HS512:
		return FamilyHMAC
	case RS256, RS384, RS512:
		return FamilyRSAPKCS1
	case PS256, PS384, PS512:
		return FamilyRSAPSS
	case ES256, ES384, ES512, ES256K:
		return FamilyECDSA
	case EdDSA, Ed25519, Ed448:
		return FamilyEdDSA
	default:
		return FamilyUnknown
	}
}

// Hash returns the digest used by alg. EdDSA signs the message
// directly and returns zero.
func (alg Algorithm) Hash() crypto.Hash {
	switch alg {
	case HS256, RS256, PS256, ES256, ES256K:
		return crypto.SHA256
	case HS384, RS384, PS384, ES384:
		return crypto.SHA384
	case HS512, RS512, PS512, ES512:
		return crypto.SHA512
	default:
		return 0
	}
}

// Symmetric reports whether alg uses a shared secret.
func (alg Algorithm) Symmetric() bool {
	return alg.Family() == FamilyHMAC
}

func (alg Algorithm) String() string {
	return string(alg)
}

// UnmarshalJSON rejects any value which is not a supported algorithm.
func (alg *Algorithm) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: alg must be a string", ErrUnsupportedAlgorithm)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*alg = parsed
	return nil
}

// MarshalJSON refuses to encode an unsupported algorithm.
func (alg Algorithm) MarshalJSON() ([]byte, error) {
	if !alg.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(alg))
	}
	return json.Marshal(string(alg))
}
