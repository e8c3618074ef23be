package jwk

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"
	"math/big"

	"github.com/cloudflare/circl/sign/ed448"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

func curveName(c elliptic.Curve) (Curve, error) {
	switch c {
	case elliptic.P256():
		return P256, nil
	case elliptic.P384():
		return P384, nil
	case elliptic.P521():
		return P521, nil
	default:
		return "", fmt.Errorf("%w: %v", ErrUnsupportedCurve, c.Params().Name)
	}
}

// FromPublicKey returns the parameters of a Go public key. Supported types
// are *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey,
// ed448.PublicKey and *secp256k1.PublicKey.
func FromPublicKey(pub any) (Parameters, error) {
	switch pub := pub.(type) {
	case *rsa.PublicKey:
		return NewRSAPublicParameters(new(big.Int).Set(pub.N), big.NewInt(int64(pub.E)))
	case *ecdsa.PublicKey:
		crv, err := curveName(pub.Curve)
		if err != nil {
			return nil, err
		}
		point, err := pub.ECDH()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		return fromUncompressed(crv, point.Bytes(), nil)
	case *secp256k1.PublicKey:
		return fromUncompressed(Secp256k1, pub.SerializeUncompressed(), nil)
	case ed25519.PublicKey:
		return NewOKPParameters(Ed25519, pub, nil)
	case ed448.PublicKey:
		return NewOKPParameters(Ed448, pub, nil)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, pub)
	}
}

// FromPrivateKey returns the parameters of a Go private key. Supported
// types are *rsa.PrivateKey, *ecdsa.PrivateKey, ed25519.PrivateKey,
// ed448.PrivateKey, *secp256k1.PrivateKey and []byte for a shared secret.
func FromPrivateKey(priv any) (Parameters, error) {
	switch priv := priv.(type) {
	case *rsa.PrivateKey:
		return NewRSAPrivateParameters(priv)
	case *ecdsa.PrivateKey:
		crv, err := curveName(priv.Curve)
		if err != nil {
			return nil, err
		}
		key, err := priv.ECDH()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		return fromUncompressed(crv, key.PublicKey().Bytes(), key.Bytes())
	case *secp256k1.PrivateKey:
		return fromUncompressed(Secp256k1, priv.PubKey().SerializeUncompressed(), priv.Serialize())
	case ed25519.PrivateKey:
		return NewOKPParameters(Ed25519, priv.Public().(ed25519.PublicKey), priv.Seed())
	case ed448.PrivateKey:
		return NewOKPParameters(Ed448, priv.Public().(ed448.PublicKey), priv.Seed())
	case []byte:
		return NewSymmetricParameters(priv)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, priv)
	}
}

func fromUncompressed(crv Curve, point, d []byte) (*ECParameters, error) {
	size := FieldSize(crv)
	if len(point) != 1+2*size || point[0] != 4 {
		return nil, fmt.Errorf("%w: malformed %s point", ErrInvalidKey, crv)
	}
	return NewECParameters(crv, point[1:1+size], point[1+size:], d)
}
