package jwk

import (
	"bytes"
	"fmt"

	"github.com/commune-sh/matrix-authentication-service/pkg/jwa"
)

// SymmetricParameters hold a shared secret.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-6.4
type SymmetricParameters struct {
	K []byte
}

// NewSymmetricParameters returns parameters for the given secret.
func NewSymmetricParameters(k []byte) (*SymmetricParameters, error) {
	params := &SymmetricParameters{K: bytes.Clone(k)}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return params, nil
}

func (*SymmetricParameters) KeyType() KeyType { return KeyTypeSymmetric }

func (*SymmetricParameters) PossibleAlgorithms() []jwa.Algorithm {
	return []jwa.Algorithm{jwa.HS256, jwa.HS384, jwa.HS512}
}

func (*SymmetricParameters) IsPrivate() bool { return true }

// PublicParameters always reports false, a shared secret has no public part.
func (*SymmetricParameters) PublicParameters() (Parameters, bool) { return nil, false }

func (p *SymmetricParameters) validate() error {
	if len(p.K) == 0 {
		return fmt.Errorf("%w: symmetric key must not be empty", ErrInvalidKey)
	}
	return nil
}
