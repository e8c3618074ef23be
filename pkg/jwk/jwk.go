package jwk

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/commune-sh/matrix-authentication-service/pkg/base64"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwa"
	"golang.org/x/exp/slices"
)

// https://datatracker.ietf.org/doc/html/rfc7517#section-4
type ParameterName = string

const (
	KeyTypeParameter     ParameterName = "kty"      // https://datatracker.ietf.org/doc/html/rfc7517#section-4.1
	PublicKeyUse         ParameterName = "use"      // https://datatracker.ietf.org/doc/html/rfc7517#section-4.2
	KeyOperations        ParameterName = "key_ops"  // https://datatracker.ietf.org/doc/html/rfc7517#section-4.3
	Algorithm            ParameterName = "alg"      // https://datatracker.ietf.org/doc/html/rfc7517#section-4.4
	KeyID                ParameterName = "kid"      // https://datatracker.ietf.org/doc/html/rfc7517#section-4.5
	X509URL              ParameterName = "x5u"      // https://datatracker.ietf.org/doc/html/rfc7517#section-4.6
	X509CertificateChain ParameterName = "x5c"      // https://datatracker.ietf.org/doc/html/rfc7517#section-4.7
	X509SHA1Thumbprint   ParameterName = "x5t"      // https://datatracker.ietf.org/doc/html/rfc7517#section-4.8
	X509SHA256Thumbprint ParameterName = "x5t#S256" // https://datatracker.ietf.org/doc/html/rfc7517#section-4.9
)

// KeyType is the "kty" discriminant of a JWK.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-6.1
type KeyType string

const (
	KeyTypeRSA       KeyType = "RSA"
	KeyTypeEC        KeyType = "EC"
	KeyTypeOKP       KeyType = "OKP" // https://datatracker.ietf.org/doc/html/rfc8037#section-2
	KeyTypeSymmetric KeyType = "oct"
)

// Curve names an elliptic curve used by EC and OKP keys.
type Curve string

const (
	P256      Curve = "P-256"
	P384      Curve = "P-384"
	P521      Curve = "P-521"
	Secp256k1 Curve = "secp256k1" // https://datatracker.ietf.org/doc/html/rfc8812#section-3.1
	Ed25519   Curve = "Ed25519"
	Ed448     Curve = "Ed448"
)

// Values for the "use" parameter.
const (
	UseSignature  = "sig"
	UseEncryption = "enc"
)

var (
	// ErrInvalidKey is returned when key material is inconsistent, such as
	// a point that is not on its curve or coordinates of the wrong length.
	ErrInvalidKey = errors.New("jwk: invalid key")

	// ErrUnsupportedKeyType is returned for an unknown "kty".
	ErrUnsupportedKeyType = errors.New("jwk: unsupported key type")

	// ErrUnsupportedCurve is returned for an unknown "crv".
	ErrUnsupportedCurve = errors.New("jwk: unsupported curve")

	// ErrIncompatibleAlgorithm is returned when a key is pinned to an
	// algorithm its type and curve cannot produce.
	ErrIncompatibleAlgorithm = errors.New("jwk: algorithm is not compatible with key")
)

// Parameters holds the type-specific material of a key. It is implemented
// only by [*RSAParameters], [*ECParameters], [*OKPParameters] and
// [*SymmetricParameters].
type Parameters interface {
	// KeyType returns the "kty" of the parameters.
	KeyType() KeyType

	// PossibleAlgorithms returns the signature algorithms this key
	// material can be used with. The result is fixed by the key type and
	// curve, and the caller may modify it.
	PossibleAlgorithms() []jwa.Algorithm

	// IsPrivate reports whether the parameters hold secret material.
	IsPrivate() bool

	// PublicParameters returns the parameters with all secret material
	// removed. It reports false when no public form exists.
	PublicParameters() (Parameters, bool)

	validate() error
}

// Key is a JSON Web Key.
//
// https://datatracker.ietf.org/doc/html/rfc7517#section-4
type Key struct {
	// ID is the optional "kid" of the key.
	ID string

	// Use is the optional "use" of the key, "sig" or "enc".
	Use string

	// Algorithm is the optional "alg" the key is intended for. When set,
	// the key may only be used with that algorithm.
	Algorithm jwa.Algorithm

	// Parameters holds the key material.
	Parameters Parameters
}

// KeyOption configures a key built with [NewKey].
type KeyOption func(*Key)

// WithKeyID sets the "kid" of the key.
func WithKeyID(kid string) KeyOption {
	return func(k *Key) {
		k.ID = kid
	}
}

// WithUse sets the "use" of the key.
func WithUse(use string) KeyOption {
	return func(k *Key) {
		k.Use = use
	}
}

// WithAlgorithm pins the key to a single algorithm.
func WithAlgorithm(alg jwa.Algorithm) KeyOption {
	return func(k *Key) {
		k.Algorithm = alg
	}
}

// NewKey returns a validated key for the given parameters.
func NewKey(params Parameters, opts ...KeyOption) (Key, error) {
	key := Key{Parameters: params}
	for _, opt := range opts {
		opt(&key)
	}
	if err := key.Validate(); err != nil {
		return Key{}, err
	}
	return key, nil
}

// Validate checks that the key material is consistent and that a pinned
// algorithm is compatible with it.
func (k Key) Validate() error {
	if k.Parameters == nil {
		return fmt.Errorf("%w: missing key parameters", ErrInvalidKey)
	}
	if err := k.Parameters.validate(); err != nil {
		return err
	}
	switch k.Use {
	case "", UseSignature, UseEncryption:
	default:
		return fmt.Errorf("%w: unknown use %q", ErrInvalidKey, k.Use)
	}
	if k.Algorithm != "" && !slices.Contains(k.Parameters.PossibleAlgorithms(), k.Algorithm) {
		return fmt.Errorf("%w: %s cannot be used with %s key", ErrIncompatibleAlgorithm, k.Algorithm, k.Parameters.KeyType())
	}
	return nil
}

// KeyType returns the "kty" of the key, or the empty string if it has
// no parameters.
func (k Key) KeyType() KeyType {
	if k.Parameters == nil {
		return ""
	}
	return k.Parameters.KeyType()
}

// PossibleAlgorithms returns the algorithms this key can be used with.
// A key pinned to an algorithm its material does not support has none.
func (k Key) PossibleAlgorithms() []jwa.Algorithm {
	if k.Parameters == nil {
		return nil
	}
	algs := k.Parameters.PossibleAlgorithms()
	if k.Algorithm == "" {
		return algs
	}
	if slices.Contains(algs, k.Algorithm) {
		return []jwa.Algorithm{k.Algorithm}
	}
	return nil
}

// Supports reports whether the key can be used with alg.
func (k Key) Supports(alg jwa.Algorithm) bool {
	return slices.Contains(k.PossibleAlgorithms(), alg)
}

// IsPrivate reports whether the key holds secret material.
func (k Key) IsPrivate() bool {
	return k.Parameters != nil && k.Parameters.IsPrivate()
}

// Public returns the key with secret material removed, keeping its id,
// use and algorithm. Symmetric keys have no public form.
func (k Key) Public() (Key, bool) {
	if k.Parameters == nil {
		return Key{}, false
	}
	params, ok := k.Parameters.PublicParameters()
	if !ok {
		return Key{}, false
	}
	k.Parameters = params
	return k, true
}

// rawKey is the JSON form of every supported key type.
type rawKey struct {
	KeyType   KeyType `json:"kty"`
	KeyID     string  `json:"kid,omitempty"`
	Use       string  `json:"use,omitempty"`
	Algorithm string  `json:"alg,omitempty"`
	Curve     Curve   `json:"crv,omitempty"`

	N  string `json:"n,omitempty"`
	E  string `json:"e,omitempty"`
	X  string `json:"x,omitempty"`
	Y  string `json:"y,omitempty"`
	D  string `json:"d,omitempty"`
	P  string `json:"p,omitempty"`
	Q  string `json:"q,omitempty"`
	DP string `json:"dp,omitempty"`
	DQ string `json:"dq,omitempty"`
	QI string `json:"qi,omitempty"`
	K  string `json:"k,omitempty"`
}

// MarshalJSON encodes the key as a JWK.
func (k Key) MarshalJSON() ([]byte, error) {
	raw := rawKey{
		KeyID:     k.ID,
		Use:       k.Use,
		Algorithm: string(k.Algorithm),
	}

	switch params := k.Parameters.(type) {
	case *RSAParameters:
		raw.KeyType = KeyTypeRSA
		raw.N = encodeInt(params.N)
		raw.E = encodeInt(params.E)
		raw.D = encodeInt(params.D)
		raw.P = encodeInt(params.P)
		raw.Q = encodeInt(params.Q)
		raw.DP = encodeInt(params.DP)
		raw.DQ = encodeInt(params.DQ)
		raw.QI = encodeInt(params.QI)
	case *ECParameters:
		raw.KeyType = KeyTypeEC
		raw.Curve = params.Curve
		raw.X = encodeBytes(params.X)
		raw.Y = encodeBytes(params.Y)
		raw.D = encodeBytes(params.D)
	case *OKPParameters:
		raw.KeyType = KeyTypeOKP
		raw.Curve = params.Curve
		raw.X = encodeBytes(params.X)
		raw.D = encodeBytes(params.D)
	case *SymmetricParameters:
		raw.KeyType = KeyTypeSymmetric
		raw.K = encodeBytes(params.K)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, k.Parameters)
	}

	return json.Marshal(raw)
}

// UnmarshalJSON decodes and validates a JWK. An "alg" that is not a
// supported signature algorithm is kept, and leaves the key with no
// possible algorithms.
func (k *Key) UnmarshalJSON(b []byte) error {
	var raw rawKey
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	params, err := raw.parameters()
	if err != nil {
		return err
	}
	if err := params.validate(); err != nil {
		return err
	}

	*k = Key{
		ID:         raw.KeyID,
		Use:        raw.Use,
		Algorithm:  jwa.Algorithm(raw.Algorithm),
		Parameters: params,
	}
	return nil
}

func (raw rawKey) parameters() (Parameters, error) {
	switch raw.KeyType {
	case KeyTypeRSA:
		var (
			params RSAParameters
			err    error
		)
		if params.N, err = decodeInt("n", raw.N, true); err != nil {
			return nil, err
		}
		if params.E, err = decodeInt("e", raw.E, true); err != nil {
			return nil, err
		}
		for _, field := range []struct {
			name  string
			value string
			dst   **big.Int
		}{
			{"d", raw.D, &params.D},
			{"p", raw.P, &params.P},
			{"q", raw.Q, &params.Q},
			{"dp", raw.DP, &params.DP},
			{"dq", raw.DQ, &params.DQ},
			{"qi", raw.QI, &params.QI},
		} {
			if *field.dst, err = decodeInt(field.name, field.value, false); err != nil {
				return nil, err
			}
		}
		return &params, nil
	case KeyTypeEC:
		var (
			params = ECParameters{Curve: raw.Curve}
			err    error
		)
		if params.X, err = decodeBytes("x", raw.X, true); err != nil {
			return nil, err
		}
		if params.Y, err = decodeBytes("y", raw.Y, true); err != nil {
			return nil, err
		}
		if params.D, err = decodeBytes("d", raw.D, false); err != nil {
			return nil, err
		}
		return &params, nil
	case KeyTypeOKP:
		var (
			params = OKPParameters{Curve: raw.Curve}
			err    error
		)
		if params.X, err = decodeBytes("x", raw.X, true); err != nil {
			return nil, err
		}
		if params.D, err = decodeBytes("d", raw.D, false); err != nil {
			return nil, err
		}
		return &params, nil
	case KeyTypeSymmetric:
		k, err := decodeBytes("k", raw.K, true)
		if err != nil {
			return nil, err
		}
		return &SymmetricParameters{K: k}, nil
	case "":
		return nil, fmt.Errorf("%w: missing required parameter %q", ErrInvalidKey, KeyTypeParameter)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKeyType, raw.KeyType)
	}
}

func encodeInt(i *big.Int) string {
	if i == nil {
		return ""
	}
	return base64.Encode(i.Bytes())
}

func encodeBytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return base64.Encode(b)
}

func decodeBytes(name, value string, required bool) ([]byte, error) {
	if value == "" {
		if required {
			return nil, fmt.Errorf("%w: missing required parameter %q", ErrInvalidKey, name)
		}
		return nil, nil
	}
	b, err := base64.Decode(value)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 encoding for %q: %w", ErrInvalidKey, name, err)
	}
	return b, nil
}

func decodeInt(name, value string, required bool) (*big.Int, error) {
	b, err := decodeBytes(name, value, required)
	if err != nil || b == nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}
