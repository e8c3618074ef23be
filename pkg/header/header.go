package header

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/commune-sh/matrix-authentication-service/pkg/base64"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwa"
)

// There are three classes of Header Parameter names: Registered Header
// Parameter names, Public Header Parameter names, and Private Header
// Parameter names.
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-4
type (
	ParameterName = string

	Registered = ParameterName
	Public     = ParameterName
	Private    = ParameterName
)

// Registered Header Parameter Names
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-4.1
const (
	Type                            Registered = "typ"
	Algorithm                       Registered = "alg"
	JWKSetURL                       Registered = "jku"
	JSONWebKey                      Registered = "jwk"
	X509URL                         Registered = "x5u"
	X509CertificateChain            Registered = "x5c"
	X509CertificateSHA1Thumbprint   Registered = "x5t"
	X509CertificateSHA256Thumbprint Registered = "x5t#S256"
	ContentType                     Registered = "cty"
	Critical                        Registered = "crit"
	KeyID                           Registered = "kid"
)

// TypeJWT is the "typ" value for JSON Web Tokens.
const TypeJWT = "JWT"

var (
	// ErrMissingAlgorithm is returned when a header has no "alg".
	ErrMissingAlgorithm = errors.New("header: missing \"alg\" parameter")

	// ErrCriticalUnsupported is returned when a header lists extensions
	// in "crit". None are understood, so such a header must be rejected.
	//
	// https://datatracker.ietf.org/doc/html/rfc7515#section-4.1.11
	ErrCriticalUnsupported = errors.New("header: critical extensions are not supported")

	// ErrInvalidParameterType is returned when a known parameter has the
	// wrong JSON type.
	ErrInvalidParameterType = errors.New("header: invalid parameter type")

	// ErrBase64 and ErrJSON tell apart the two ways [Decode] can fail.
	ErrBase64 = errors.New("header: invalid base64")
	ErrJSON   = errors.New("header: invalid JSON")
)

// Header is the JOSE header of a JWS.
//
// The JOSE (JSON Object Signing and Encryption) Header is comprised
// of a set of Header Parameters.
type Header struct {
	// Algorithm identifies the cryptographic algorithm used to secure
	// the JWS. Always present.
	Algorithm jwa.Algorithm `json:"alg"`

	// KeyID is a hint indicating which key was used to secure the JWS.
	KeyID string `json:"kid,omitempty"`

	// Type declares the media type of the complete JWS.
	Type string `json:"typ,omitempty"`

	// ContentType declares the media type of the secured payload.
	ContentType string `json:"cty,omitempty"`
}

// New returns a header for alg.
func New(alg jwa.Algorithm) Header {
	return Header{Algorithm: alg}
}

// WithKeyID returns a copy of h with the given key id.
func (h Header) WithKeyID(kid string) Header {
	h.KeyID = kid
	return h
}

// WithType returns a copy of h with the given type.
func (h Header) WithType(typ string) Header {
	h.Type = typ
	return h
}

// WithContentType returns a copy of h with the given content type.
func (h Header) WithContentType(cty string) Header {
	h.ContentType = cty
	return h
}

// UnmarshalJSON decodes a header, requiring a supported "alg" and
// rejecting "crit". Unknown parameters are ignored.
func (h *Header) UnmarshalJSON(b []byte) error {
	var raw map[ParameterName]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("%w: header must be a JSON object", ErrInvalidParameterType)
	}

	if _, ok := raw[Critical]; ok {
		return ErrCriticalUnsupported
	}

	algValue, ok := raw[Algorithm]
	if !ok {
		return ErrMissingAlgorithm
	}

	var out Header
	if err := json.Unmarshal(algValue, &out.Algorithm); err != nil {
		return err
	}
	if !out.Algorithm.Valid() {
		return fmt.Errorf("%w: %s", jwa.ErrUnsupportedAlgorithm, algValue)
	}

	for name, dst := range map[ParameterName]*string{
		KeyID:       &out.KeyID,
		Type:        &out.Type,
		ContentType: &out.ContentType,
	} {
		value, ok := raw[name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, dst); err != nil {
			return fmt.Errorf("%w: %q must be a string", ErrInvalidParameterType, name)
		}
	}

	*h = out
	return nil
}

// Decode decodes a base64url header segment.
func Decode(segment string) (Header, error) {
	b, err := base64.Decode(segment)
	if err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrBase64, err)
	}

	var h Header
	if err := json.Unmarshal(b, &h); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrJSON, err)
	}
	return h, nil
}

// Encode returns the base64url encoded JSON form of the header.
func (h Header) Encode() (string, error) {
	b, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("failed to encode JOSE header: %w", err)
	}
	return base64.Encode(b), nil
}
