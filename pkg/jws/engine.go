package jws

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/cloudflare/circl/sign/ed448"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwa"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwk"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	k1ecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

var (
	errKeyMismatch      = errors.New("key type does not match algorithm family")
	errInvalidSignature = errors.New("invalid signature")
	errNotPrivate       = errors.New("key has no private material")
)

var pssOptions = &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash}

func digest(h crypto.Hash, input []byte) []byte {
	hash := h.New()
	hash.Write(input)
	return hash.Sum(nil)
}

// sign computes the signature of input with key. The caller has already
// checked that key supports alg.
func sign(alg jwa.Algorithm, key jwk.Key, input []byte, rng io.Reader) ([]byte, error) {
	if !key.IsPrivate() {
		return nil, errNotPrivate
	}
	if rng == nil {
		rng = rand.Reader
	}

	switch alg.Family() {
	case jwa.FamilyHMAC:
		params, ok := key.Parameters.(*jwk.SymmetricParameters)
		if !ok {
			return nil, errKeyMismatch
		}
		mac := hmac.New(alg.Hash().New, params.K)
		mac.Write(input)
		return mac.Sum(nil), nil
	case jwa.FamilyRSAPKCS1, jwa.FamilyRSAPSS:
		params, ok := key.Parameters.(*jwk.RSAParameters)
		if !ok {
			return nil, errKeyMismatch
		}
		priv, err := params.PrivateKey()
		if err != nil {
			return nil, err
		}
		if alg.Family() == jwa.FamilyRSAPSS {
			return rsa.SignPSS(rng, priv, alg.Hash(), digest(alg.Hash(), input), pssOptions)
		}
		return rsa.SignPKCS1v15(rng, priv, alg.Hash(), digest(alg.Hash(), input))
	case jwa.FamilyECDSA:
		params, ok := key.Parameters.(*jwk.ECParameters)
		if !ok {
			return nil, errKeyMismatch
		}
		if params.Curve == jwk.Secp256k1 {
			priv, err := params.Secp256k1PrivateKey()
			if err != nil {
				return nil, err
			}
			// The compact form is a recovery byte followed by R || S.
			compact := k1ecdsa.SignCompact(priv, digest(alg.Hash(), input), false)
			return compact[1:], nil
		}
		priv, err := params.ECDSAPrivateKey()
		if err != nil {
			return nil, err
		}
		r, s, err := ecdsa.Sign(rng, priv, digest(alg.Hash(), input))
		if err != nil {
			return nil, err
		}
		size := jwk.FieldSize(params.Curve)
		out := make([]byte, 2*size)
		r.FillBytes(out[:size])
		s.FillBytes(out[size:])
		return out, nil
	case jwa.FamilyEdDSA:
		params, ok := key.Parameters.(*jwk.OKPParameters)
		if !ok {
			return nil, errKeyMismatch
		}
		switch params.Curve {
		case jwk.Ed25519:
			priv, err := params.Ed25519PrivateKey()
			if err != nil {
				return nil, err
			}
			return ed25519.Sign(priv, input), nil
		case jwk.Ed448:
			priv, err := params.Ed448PrivateKey()
			if err != nil {
				return nil, err
			}
			return ed448.Sign(priv, input, ""), nil
		}
		return nil, errKeyMismatch
	default:
		return nil, fmt.Errorf("%w: %s", jwa.ErrUnsupportedAlgorithm, alg)
	}
}

// verify checks sig over input with key. Only public members of the key
// are used. The caller has already checked that key supports alg.
func verify(alg jwa.Algorithm, key jwk.Key, input, sig []byte) error {
	switch alg.Family() {
	case jwa.FamilyHMAC:
		params, ok := key.Parameters.(*jwk.SymmetricParameters)
		if !ok {
			return errKeyMismatch
		}
		mac := hmac.New(alg.Hash().New, params.K)
		mac.Write(input)
		if !hmac.Equal(mac.Sum(nil), sig) {
			return errInvalidSignature
		}
		return nil
	case jwa.FamilyRSAPKCS1, jwa.FamilyRSAPSS:
		params, ok := key.Parameters.(*jwk.RSAParameters)
		if !ok {
			return errKeyMismatch
		}
		pub := params.PublicKey()
		if alg.Family() == jwa.FamilyRSAPSS {
			return rsa.VerifyPSS(pub, alg.Hash(), digest(alg.Hash(), input), sig, pssOptions)
		}
		return rsa.VerifyPKCS1v15(pub, alg.Hash(), digest(alg.Hash(), input), sig)
	case jwa.FamilyECDSA:
		params, ok := key.Parameters.(*jwk.ECParameters)
		if !ok {
			return errKeyMismatch
		}
		size := jwk.FieldSize(params.Curve)
		if len(sig) != 2*size {
			return fmt.Errorf("%w: expected %d bytes, got %d", errInvalidSignature, 2*size, len(sig))
		}
		if params.Curve == jwk.Secp256k1 {
			return verifySecp256k1(params, digest(alg.Hash(), input), sig)
		}
		pub, err := params.ECDSAPublicKey()
		if err != nil {
			return err
		}
		r := new(big.Int).SetBytes(sig[:size])
		s := new(big.Int).SetBytes(sig[size:])
		if !ecdsa.Verify(pub, digest(alg.Hash(), input), r, s) {
			return errInvalidSignature
		}
		return nil
	case jwa.FamilyEdDSA:
		params, ok := key.Parameters.(*jwk.OKPParameters)
		if !ok {
			return errKeyMismatch
		}
		var valid bool
		switch params.Curve {
		case jwk.Ed25519:
			pub, err := params.Ed25519PublicKey()
			if err != nil {
				return err
			}
			valid = len(sig) == ed25519.SignatureSize && ed25519.Verify(pub, input, sig)
		case jwk.Ed448:
			pub, err := params.Ed448PublicKey()
			if err != nil {
				return err
			}
			valid = len(sig) == ed448.SignatureSize && ed448.Verify(pub, input, sig, "")
		default:
			return errKeyMismatch
		}
		if !valid {
			return errInvalidSignature
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", jwa.ErrUnsupportedAlgorithm, alg)
	}
}

func verifySecp256k1(params *jwk.ECParameters, hash, sig []byte) error {
	pub, err := params.Secp256k1PublicKey()
	if err != nil {
		return err
	}
	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow || r.IsZero() {
		return errInvalidSignature
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow || s.IsZero() {
		return errInvalidSignature
	}
	if !k1ecdsa.NewSignature(&r, &s).Verify(hash, pub) {
		return errInvalidSignature
	}
	return nil
}
