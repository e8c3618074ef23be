package jwt

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/commune-sh/matrix-authentication-service/pkg/header"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwk"
	"github.com/commune-sh/matrix-authentication-service/pkg/jws"
)

// Type "JWT" is the media type used by JSON Web Token (JWT).
//
// # Example
//
//	h := header.New(jwa.HS256).WithType(jwt.Type)
//
// https://www.rfc-editor.org/rfc/rfc7515.html#section-3.3
const Type = header.TypeJWT

// JWT is a decoded JSON Web Token whose payload is decoded into T.
//
// At this time, only JWS JWTs are supported. In other words,
// these tokens are only signed, not encrypted.
//
// JWTs contain three parts, separated by dots (".") which are:
//
//  1. Header
//  2. Claims (Payload)
//  3. Signature
//
// A decoded JWT is not trusted until one of its Verify methods succeeds.
// Claims such as "exp" are never checked here.
//
// https://datatracker.ietf.org/doc/html/rfc7519#section-1
type JWT[T any] struct {
	message *jws.Message
	payload T
}

// Decode parses input and decodes its payload as JSON into T, without
// verifying the signature.
func Decode[T any](input string) (*JWT[T], error) {
	msg, err := jws.Parse(input)
	if err != nil {
		return nil, err
	}

	var payload T
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		return nil, &jws.DecodeError{Part: jws.PartPayload, Kind: jws.DecodeJSON, Inner: err}
	}

	return &JWT[T]{message: msg, payload: payload}, nil
}

// Sign signs payload with key, using crypto/rand for randomized schemes.
func Sign[T any](h header.Header, payload T, key jwk.Key) (*JWT[T], error) {
	return SignWithRand(rand.Reader, h, payload, key)
}

// SignWithRand signs payload with key, reading randomness from rng.
func SignWithRand[T any](rng io.Reader, h header.Header, payload T, key jwk.Key) (*JWT[T], error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, &jws.SignatureError{Algorithm: h.Algorithm, Inner: fmt.Errorf("failed to encode payload: %w", err)}
	}

	msg, err := jws.Sign(h, b, key, rng)
	if err != nil {
		return nil, err
	}

	return &JWT[T]{message: msg, payload: payload}, nil
}

// Header returns the decoded JOSE header.
func (t *JWT[T]) Header() header.Header {
	return t.message.Header()
}

// Payload returns the decoded payload.
func (t *JWT[T]) Payload() T {
	return t.payload
}

// Signature returns the raw signature bytes.
func (t *JWT[T]) Signature() []byte {
	return t.message.Signature()
}

// Parts returns the header and payload.
func (t *JWT[T]) Parts() (header.Header, T) {
	return t.message.Header(), t.payload
}

// String returns the compact serialization.
func (t *JWT[T]) String() string {
	return t.message.String()
}

// Message returns the underlying JWS.
func (t *JWT[T]) Message() *jws.Message {
	return t.message
}

// Verify verifies the signature with key.
func (t *JWT[T]) Verify(key jwk.Key) error {
	return t.message.Verify(key)
}

// VerifyWithKeySet verifies the signature with the keys of ks that match
// the header's algorithm and key id.
func (t *JWT[T]) VerifyWithKeySet(ks jwk.KeySet) error {
	return jws.VerifyWithKeySet(t.message, ks)
}

// VerifyWithSharedSecret verifies an HMAC signature with secret.
func (t *JWT[T]) VerifyWithSharedSecret(secret []byte) error {
	return jws.VerifyWithSharedSecret(t.message, secret)
}

// FromHTTPAuthorizationHeader extracts a JWT string from the Authorization header of an HTTP request.
// If the Authorization header is not set, then an error is returned.
//
// # Warning
//
// This value needs to be decoded and verified before it can be used safely.
func FromHTTPAuthorizationHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthorization
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[1] == "" {
		return "", ErrInvalidAuthorization
	}

	if !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidAuthorization
	}

	return parts[1], nil
}

// SetHTTPAuthorizationHeader sets the Authorization header of an HTTP request
// to the given JWT. The JWT is prefixed with "Bearer ", as required by the
// HTTP Authorization header specification.
//
// https://tools.ietf.org/html/rfc6750#section-2.1
func SetHTTPAuthorizationHeader[T ~string](r *http.Request, jwt T) {
	r.Header.Set("Authorization", fmt.Sprintf("Bearer %s", jwt))
}
