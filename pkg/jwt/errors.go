package jwt

import (
	"errors"

	"github.com/commune-sh/matrix-authentication-service/pkg/jws"
)

var (
	ErrMissingAuthorization = errors.New("missing authorization header")
	ErrInvalidAuthorization = errors.New("invalid authorization header format")
)

// The errors returned by decoding and verification are those of the jws
// package, repeated here so callers need only one import.
var (
	ErrFormat       = jws.ErrFormat
	ErrDecode       = jws.ErrDecode
	ErrVerification = jws.ErrVerification
	ErrNoKeyWorked  = jws.ErrNoKeyWorked
	ErrSigning      = jws.ErrSigning
)
