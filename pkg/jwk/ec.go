package jwk

import (
	"bytes"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"math/big"

	"github.com/commune-sh/matrix-authentication-service/pkg/jwa"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// ECParameters are the parameters of an elliptic curve key. X, Y and D
// are big-endian and exactly as long as the curve's field size.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-6.2
type ECParameters struct {
	Curve Curve
	X     []byte
	Y     []byte
	D     []byte // nil for a public key
}

// NewECParameters returns validated EC parameters. d may be nil.
func NewECParameters(crv Curve, x, y, d []byte) (*ECParameters, error) {
	params := &ECParameters{
		Curve: crv,
		X:     bytes.Clone(x),
		Y:     bytes.Clone(y),
		D:     bytes.Clone(d),
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// FieldSize returns the coordinate length in bytes for crv, or 0 if crv
// is not an EC curve.
func FieldSize(crv Curve) int {
	switch crv {
	case P256, Secp256k1:
		return 32
	case P384:
		return 48
	case P521:
		return 66
	default:
		return 0
	}
}

func (*ECParameters) KeyType() KeyType { return KeyTypeEC }

func (p *ECParameters) PossibleAlgorithms() []jwa.Algorithm {
	switch p.Curve {
	case P256:
		return []jwa.Algorithm{jwa.ES256}
	case P384:
		return []jwa.Algorithm{jwa.ES384}
	case P521:
		return []jwa.Algorithm{jwa.ES512}
	case Secp256k1:
		return []jwa.Algorithm{jwa.ES256K}
	default:
		return nil
	}
}

func (p *ECParameters) IsPrivate() bool { return p.D != nil }

func (p *ECParameters) PublicParameters() (Parameters, bool) {
	return &ECParameters{
		Curve: p.Curve,
		X:     bytes.Clone(p.X),
		Y:     bytes.Clone(p.Y),
	}, true
}

// uncompressed returns the SEC 1 uncompressed point encoding.
func (p *ECParameters) uncompressed() []byte {
	point := make([]byte, 0, 1+len(p.X)+len(p.Y))
	point = append(point, 4)
	point = append(point, p.X...)
	return append(point, p.Y...)
}

func (p *ECParameters) validate() error {
	size := FieldSize(p.Curve)
	if size == 0 {
		return fmt.Errorf("%w: %q", ErrUnsupportedCurve, p.Curve)
	}
	if len(p.X) != size || len(p.Y) != size {
		return fmt.Errorf("%w: %s coordinates must be %d bytes", ErrInvalidKey, p.Curve, size)
	}
	if p.D != nil && len(p.D) != size {
		return fmt.Errorf("%w: %s private scalar must be %d bytes", ErrInvalidKey, p.Curve, size)
	}

	point := p.uncompressed()

	if p.Curve == Secp256k1 {
		if _, err := secp256k1.ParsePubKey(point); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		if p.D == nil {
			return nil
		}
		var scalar secp256k1.ModNScalar
		if overflow := scalar.SetByteSlice(p.D); overflow || scalar.IsZero() {
			return fmt.Errorf("%w: secp256k1 private scalar out of range", ErrInvalidKey)
		}
		priv := secp256k1.NewPrivateKey(&scalar)
		if !bytes.Equal(priv.PubKey().SerializeUncompressed(), point) {
			return fmt.Errorf("%w: private scalar does not match public point", ErrInvalidKey)
		}
		return nil
	}

	curve := p.ecdhCurve()
	if _, err := curve.NewPublicKey(point); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if p.D == nil {
		return nil
	}
	priv, err := curve.NewPrivateKey(p.D)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if !bytes.Equal(priv.PublicKey().Bytes(), point) {
		return fmt.Errorf("%w: private scalar does not match public point", ErrInvalidKey)
	}
	return nil
}

func (p *ECParameters) ecdhCurve() ecdh.Curve {
	switch p.Curve {
	case P256:
		return ecdh.P256()
	case P384:
		return ecdh.P384()
	case P521:
		return ecdh.P521()
	default:
		return nil
	}
}

func (p *ECParameters) ellipticCurve() elliptic.Curve {
	switch p.Curve {
	case P256:
		return elliptic.P256()
	case P384:
		return elliptic.P384()
	case P521:
		return elliptic.P521()
	default:
		return nil
	}
}

// ECDSAPublicKey returns a NIST curve key as an *ecdsa.PublicKey.
func (p *ECParameters) ECDSAPublicKey() (*ecdsa.PublicKey, error) {
	curve := p.ellipticCurve()
	if curve == nil {
		return nil, fmt.Errorf("%w: %q is not a NIST curve", ErrUnsupportedCurve, p.Curve)
	}
	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(p.X),
		Y:     new(big.Int).SetBytes(p.Y),
	}, nil
}

// ECDSAPrivateKey returns a NIST curve key as an *ecdsa.PrivateKey.
func (p *ECParameters) ECDSAPrivateKey() (*ecdsa.PrivateKey, error) {
	if !p.IsPrivate() {
		return nil, fmt.Errorf("%w: EC key has no private scalar", ErrInvalidKey)
	}
	pub, err := p.ECDSAPublicKey()
	if err != nil {
		return nil, err
	}
	return &ecdsa.PrivateKey{
		PublicKey: *pub,
		D:         new(big.Int).SetBytes(p.D),
	}, nil
}

// Secp256k1PublicKey returns a secp256k1 key.
func (p *ECParameters) Secp256k1PublicKey() (*secp256k1.PublicKey, error) {
	if p.Curve != Secp256k1 {
		return nil, fmt.Errorf("%w: %q is not secp256k1", ErrUnsupportedCurve, p.Curve)
	}
	pub, err := secp256k1.ParsePubKey(p.uncompressed())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return pub, nil
}

// Secp256k1PrivateKey returns a secp256k1 private key.
func (p *ECParameters) Secp256k1PrivateKey() (*secp256k1.PrivateKey, error) {
	if p.Curve != Secp256k1 {
		return nil, fmt.Errorf("%w: %q is not secp256k1", ErrUnsupportedCurve, p.Curve)
	}
	if !p.IsPrivate() {
		return nil, fmt.Errorf("%w: EC key has no private scalar", ErrInvalidKey)
	}
	return secp256k1.PrivKeyFromBytes(p.D), nil
}
