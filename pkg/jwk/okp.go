package jwk

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/cloudflare/circl/sign/ed448"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwa"
)

// OKPParameters are the parameters of an octet key pair. D is the private
// seed, not the expanded key.
//
// https://datatracker.ietf.org/doc/html/rfc8037#section-2
type OKPParameters struct {
	Curve Curve
	X     []byte
	D     []byte // nil for a public key
}

// NewOKPParameters returns validated OKP parameters. d may be nil.
func NewOKPParameters(crv Curve, x, d []byte) (*OKPParameters, error) {
	params := &OKPParameters{
		Curve: crv,
		X:     bytes.Clone(x),
		D:     bytes.Clone(d),
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return params, nil
}

func (*OKPParameters) KeyType() KeyType { return KeyTypeOKP }

func (p *OKPParameters) PossibleAlgorithms() []jwa.Algorithm {
	switch p.Curve {
	case Ed25519:
		return []jwa.Algorithm{jwa.EdDSA, jwa.Ed25519}
	case Ed448:
		return []jwa.Algorithm{jwa.EdDSA, jwa.Ed448}
	default:
		return nil
	}
}

func (p *OKPParameters) IsPrivate() bool { return p.D != nil }

func (p *OKPParameters) PublicParameters() (Parameters, bool) {
	return &OKPParameters{
		Curve: p.Curve,
		X:     bytes.Clone(p.X),
	}, true
}

func (p *OKPParameters) validate() error {
	var publicSize, seedSize int
	switch p.Curve {
	case Ed25519:
		publicSize, seedSize = ed25519.PublicKeySize, ed25519.SeedSize
	case Ed448:
		publicSize, seedSize = ed448.PublicKeySize, ed448.SeedSize
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedCurve, p.Curve)
	}

	if len(p.X) != publicSize {
		return fmt.Errorf("%w: %s public key must be %d bytes", ErrInvalidKey, p.Curve, publicSize)
	}
	if p.D == nil {
		return nil
	}
	if len(p.D) != seedSize {
		return fmt.Errorf("%w: %s private key must be %d bytes", ErrInvalidKey, p.Curve, seedSize)
	}

	var derived []byte
	switch p.Curve {
	case Ed25519:
		derived = ed25519.NewKeyFromSeed(p.D).Public().(ed25519.PublicKey)
	case Ed448:
		derived = ed448.NewKeyFromSeed(p.D).Public().(ed448.PublicKey)
	}
	if !bytes.Equal(derived, p.X) {
		return fmt.Errorf("%w: private key does not match public key", ErrInvalidKey)
	}
	return nil
}

// Ed25519PublicKey returns an Ed25519 key.
func (p *OKPParameters) Ed25519PublicKey() (ed25519.PublicKey, error) {
	if p.Curve != Ed25519 {
		return nil, fmt.Errorf("%w: %q is not Ed25519", ErrUnsupportedCurve, p.Curve)
	}
	return ed25519.PublicKey(bytes.Clone(p.X)), nil
}

// Ed25519PrivateKey returns an Ed25519 private key expanded from the seed.
func (p *OKPParameters) Ed25519PrivateKey() (ed25519.PrivateKey, error) {
	if p.Curve != Ed25519 {
		return nil, fmt.Errorf("%w: %q is not Ed25519", ErrUnsupportedCurve, p.Curve)
	}
	if !p.IsPrivate() {
		return nil, fmt.Errorf("%w: OKP key has no private key", ErrInvalidKey)
	}
	return ed25519.NewKeyFromSeed(p.D), nil
}

// Ed448PublicKey returns an Ed448 key.
func (p *OKPParameters) Ed448PublicKey() (ed448.PublicKey, error) {
	if p.Curve != Ed448 {
		return nil, fmt.Errorf("%w: %q is not Ed448", ErrUnsupportedCurve, p.Curve)
	}
	return ed448.PublicKey(bytes.Clone(p.X)), nil
}

// Ed448PrivateKey returns an Ed448 private key expanded from the seed.
func (p *OKPParameters) Ed448PrivateKey() (ed448.PrivateKey, error) {
	if p.Curve != Ed448 {
		return nil, fmt.Errorf("%w: %q is not Ed448", ErrUnsupportedCurve, p.Curve)
	}
	if !p.IsPrivate() {
		return nil, fmt.Errorf("%w: OKP key has no private key", ErrInvalidKey)
	}
	return ed448.NewKeyFromSeed(p.D), nil
}
