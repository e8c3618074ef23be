package jwk

import (
	"crypto/rsa"
	"fmt"
	"math"
	"math/big"

	"github.com/commune-sh/matrix-authentication-service/pkg/jwa"
)

// RSAParameters are the parameters of an RSA key.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-6.3
type RSAParameters struct {
	N *big.Int // modulus
	E *big.Int // public exponent

	// Private members, all nil for a public key. The CRT values are
	// optional and recomputed from P and Q when absent.
	D  *big.Int
	P  *big.Int
	Q  *big.Int
	DP *big.Int
	DQ *big.Int
	QI *big.Int
}

var rsaAlgorithms = []jwa.Algorithm{
	jwa.RS256, jwa.RS384, jwa.RS512,
	jwa.PS256, jwa.PS384, jwa.PS512,
}

// NewRSAPublicParameters returns validated public RSA parameters.
func NewRSAPublicParameters(n, e *big.Int) (*RSAParameters, error) {
	params := &RSAParameters{N: n, E: e}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// NewRSAPrivateParameters returns the parameters of the given private key.
func NewRSAPrivateParameters(key *rsa.PrivateKey) (*RSAParameters, error) {
	if key == nil || len(key.Primes) != 2 {
		return nil, fmt.Errorf("%w: RSA private key must have exactly two primes", ErrInvalidKey)
	}

	// Precompute on a copy, the caller's key is left untouched.
	local := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: key.N, E: key.E},
		D:         key.D,
		Primes:    []*big.Int{key.Primes[0], key.Primes[1]},
	}
	local.Precompute()
	if local.Precomputed.Dp == nil {
		return nil, fmt.Errorf("%w: RSA CRT values cannot be computed", ErrInvalidKey)
	}

	params := &RSAParameters{
		N:  new(big.Int).Set(key.N),
		E:  big.NewInt(int64(key.E)),
		D:  new(big.Int).Set(key.D),
		P:  new(big.Int).Set(key.Primes[0]),
		Q:  new(big.Int).Set(key.Primes[1]),
		DP: new(big.Int).Set(local.Precomputed.Dp),
		DQ: new(big.Int).Set(local.Precomputed.Dq),
		QI: new(big.Int).Set(local.Precomputed.Qinv),
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return params, nil
}

func (*RSAParameters) KeyType() KeyType { return KeyTypeRSA }

func (*RSAParameters) PossibleAlgorithms() []jwa.Algorithm {
	return append([]jwa.Algorithm(nil), rsaAlgorithms...)
}

func (p *RSAParameters) IsPrivate() bool { return p.D != nil }

func (p *RSAParameters) PublicParameters() (Parameters, bool) {
	return &RSAParameters{
		N: new(big.Int).Set(p.N),
		E: new(big.Int).Set(p.E),
	}, true
}

func (p *RSAParameters) validate() error {
	if p.N == nil || p.N.Sign() <= 0 {
		return fmt.Errorf("%w: RSA modulus must be positive", ErrInvalidKey)
	}
	if p.E == nil || p.E.Cmp(big.NewInt(1)) <= 0 || p.E.Cmp(big.NewInt(math.MaxInt32)) > 0 {
		return fmt.Errorf("%w: RSA exponent %v out of range", ErrInvalidKey, p.E)
	}
	if p.E.Cmp(p.N) >= 0 {
		return fmt.Errorf("%w: RSA exponent must be smaller than the modulus", ErrInvalidKey)
	}
	if p.D == nil {
		if p.P != nil || p.Q != nil || p.DP != nil || p.DQ != nil || p.QI != nil {
			return fmt.Errorf("%w: RSA private members without %q", ErrInvalidKey, "d")
		}
		return nil
	}
	if p.P == nil || p.Q == nil {
		return fmt.Errorf("%w: RSA private key requires %q and %q", ErrInvalidKey, "p", "q")
	}
	if new(big.Int).Mul(p.P, p.Q).Cmp(p.N) != 0 {
		return fmt.Errorf("%w: RSA primes do not match the modulus", ErrInvalidKey)
	}
	return nil
}

// PublicKey returns the key as an *rsa.PublicKey.
func (p *RSAParameters) PublicKey() *rsa.PublicKey {
	return &rsa.PublicKey{
		N: new(big.Int).Set(p.N),
		E: int(p.E.Int64()),
	}
}

// PrivateKey returns the key as a validated *rsa.PrivateKey.
func (p *RSAParameters) PrivateKey() (*rsa.PrivateKey, error) {
	if !p.IsPrivate() {
		return nil, fmt.Errorf("%w: RSA key has no private members", ErrInvalidKey)
	}
	key := &rsa.PrivateKey{
		PublicKey: *p.PublicKey(),
		D:         new(big.Int).Set(p.D),
		Primes:    []*big.Int{new(big.Int).Set(p.P), new(big.Int).Set(p.Q)},
	}
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	key.Precompute()
	return key, nil
}
