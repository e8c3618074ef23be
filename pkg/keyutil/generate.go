package keyutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"fmt"

	"github.com/cloudflare/circl/sign/ed448"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwa"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwk"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwk/thumbprint"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// RSAKeySize is the modulus size, in bits, of generated RSA keys.
const RSAKeySize = 2048

// NewPrivateKey generates a Go private key suitable for alg.
//
// HMAC algorithms yield a []byte secret as long as the hash output.
func NewPrivateKey(alg jwa.Algorithm) (any, error) {
	switch alg {
	case jwa.HS256, jwa.HS384, jwa.HS512:
		return NewSymmetricKey(alg.Hash().Size())
	case jwa.RS256, jwa.RS384, jwa.RS512, jwa.PS256, jwa.PS384, jwa.PS512:
		return rsa.GenerateKey(rand.Reader, RSAKeySize)
	case jwa.ES256:
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case jwa.ES384:
		return ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	case jwa.ES512:
		return ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	case jwa.ES256K:
		return secp256k1.GeneratePrivateKey()
	case jwa.EdDSA, jwa.Ed25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		return priv, err
	case jwa.Ed448:
		_, priv, err := ed448.GenerateKey(rand.Reader)
		return priv, err
	default:
		return nil, fmt.Errorf("%w: %q", jwa.ErrUnsupportedAlgorithm, alg)
	}
}

// Generate returns a new private signing key usable with alg.
//
// The key has use "sig" and, unless a key id option is given, its SHA-256
// thumbprint as key id. Options are applied after those defaults.
func Generate(alg jwa.Algorithm, opts ...jwk.KeyOption) (jwk.Key, error) {
	priv, err := NewPrivateKey(alg)
	if err != nil {
		return jwk.Key{}, fmt.Errorf("failed to generate %s key: %w", alg, err)
	}

	params, err := jwk.FromPrivateKey(priv)
	if err != nil {
		return jwk.Key{}, err
	}

	return newKey(params, append([]jwk.KeyOption{jwk.WithUse(jwk.UseSignature)}, opts...)...)
}

// GenerateKeySet returns a set holding one new private key per algorithm.
func GenerateKeySet(algs ...jwa.Algorithm) (jwk.KeySet, error) {
	keys := make([]jwk.Key, 0, len(algs))
	for _, alg := range algs {
		key, err := Generate(alg)
		if err != nil {
			return jwk.KeySet{}, err
		}
		keys = append(keys, key)
	}
	return jwk.NewKeySet(keys...), nil
}

// newKey builds a key from params and fills in a thumbprint key id when
// none was set.
func newKey(params jwk.Parameters, opts ...jwk.KeyOption) (jwk.Key, error) {
	key, err := jwk.NewKey(params, opts...)
	if err != nil {
		return jwk.Key{}, err
	}

	if key.ID == "" {
		kid, err := thumbprint.GenerateString(key, crypto.SHA256)
		if err != nil {
			return jwk.Key{}, fmt.Errorf("failed to compute key id: %w", err)
		}
		key.ID = kid
	}

	return key, nil
}
