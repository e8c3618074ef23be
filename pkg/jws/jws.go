package jws

import (
	"errors"
	"fmt"
	"io"

	"github.com/commune-sh/matrix-authentication-service/pkg/base64"
	"github.com/commune-sh/matrix-authentication-service/pkg/constraints"
	"github.com/commune-sh/matrix-authentication-service/pkg/header"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwa"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwk"
)

// Message is a decoded JWS. The payload is kept as raw bytes, see the jwt
// package for typed payloads.
type Message struct {
	header    header.Header
	payload   []byte
	signature []byte
	compact   Compact
}

// Parse parses and decodes a compact JWS without verifying it.
func Parse(input string) (*Message, error) {
	compact, err := ParseCompact(input)
	if err != nil {
		return nil, err
	}
	return Decode(compact)
}

// Decode decodes the segments of a compact JWS without verifying it.
func Decode(compact Compact) (*Message, error) {
	h, err := DecodeHeader(compact.Header())
	if err != nil {
		return nil, err
	}

	payload, err := base64.Decode(compact.Payload())
	if err != nil {
		return nil, &DecodeError{Part: PartPayload, Kind: DecodeBase64, Inner: err}
	}

	signature, err := base64.Decode(compact.Signature())
	if err != nil {
		return nil, &DecodeError{Part: PartSignature, Kind: DecodeBase64, Inner: err}
	}

	return &Message{
		header:    h,
		payload:   payload,
		signature: signature,
		compact:   compact,
	}, nil
}

// DecodeHeader decodes an encoded header segment.
func DecodeHeader(segment string) (header.Header, error) {
	h, err := header.Decode(segment)
	switch {
	case errors.Is(err, header.ErrBase64):
		return header.Header{}, &DecodeError{Part: PartHeader, Kind: DecodeBase64, Inner: err}
	case err != nil:
		return header.Header{}, &DecodeError{Part: PartHeader, Kind: DecodeJSON, Inner: err}
	}
	return h, nil
}

// Header returns the decoded JOSE header.
func (m *Message) Header() header.Header {
	return m.header
}

// Payload returns the decoded payload.
func (m *Message) Payload() []byte {
	return m.payload
}

// Signature returns the decoded signature.
func (m *Message) Signature() []byte {
	return m.signature
}

// Compact returns the compact serialization the message was built from.
func (m *Message) Compact() Compact {
	return m.compact
}

// String returns the compact serialization.
func (m *Message) String() string {
	return m.compact.String()
}

// Sign signs payload with key, producing a message with header h. rng is
// used by randomized schemes, and defaults to crypto/rand.Reader when nil.
//
// The key must be private and able to produce h.Algorithm.
func Sign(h header.Header, payload []byte, key jwk.Key, rng io.Reader) (*Message, error) {
	alg := h.Algorithm
	if !alg.Valid() {
		return nil, &SignatureError{Algorithm: alg, Inner: fmt.Errorf("%w: %q", jwa.ErrUnsupportedAlgorithm, alg)}
	}
	if !key.Supports(alg) {
		return nil, &SignatureError{Algorithm: alg, Inner: fmt.Errorf("%w: %s cannot be used with %s key", jwk.ErrIncompatibleAlgorithm, alg, key.KeyType())}
	}

	encodedHeader, err := h.Encode()
	if err != nil {
		return nil, &SignatureError{Algorithm: alg, Inner: err}
	}
	encodedPayload := base64.Encode(payload)
	signingInput := encodedHeader + "." + encodedPayload

	signature, err := sign(alg, key, []byte(signingInput), rng)
	if err != nil {
		return nil, &SignatureError{Algorithm: alg, Inner: err}
	}

	compact, err := Join(encodedHeader, encodedPayload, base64.Encode(signature))
	if err != nil {
		return nil, &SignatureError{Algorithm: alg, Inner: err}
	}

	return &Message{
		header:    h,
		payload:   append([]byte(nil), payload...),
		signature: signature,
		compact:   compact,
	}, nil
}

// Verify verifies the message signature with key. The key must be able to
// produce the header algorithm, otherwise no primitive is run.
func (m *Message) Verify(key jwk.Key) error {
	alg := m.header.Algorithm
	if !key.Supports(alg) {
		return &VerificationError{
			Algorithm: alg,
			Reason:    fmt.Sprintf("%s key cannot be used with this algorithm", key.KeyType()),
		}
	}

	if err := verify(alg, key, []byte(m.compact.SignedPart()), m.signature); err != nil {
		return &VerificationError{Algorithm: alg, Reason: "signature mismatch", Inner: err}
	}
	return nil
}

// VerifyWithKeySet verifies m with the first key of ks that satisfies the
// constraints derived from its header. It only ever returns
// [ErrNoKeyWorked] on failure.
func VerifyWithKeySet(m *Message, ks jwk.KeySet) error {
	for _, key := range constraints.FromHeader(m.header).Filter(ks) {
		if m.Verify(key) == nil {
			return nil
		}
	}
	return ErrNoKeyWorked
}

// VerifyWithSharedSecret verifies m with an HMAC secret. Messages signed
// with any other family never verify. It only ever returns
// [ErrNoKeyWorked] on failure.
func VerifyWithSharedSecret(m *Message, secret []byte) error {
	if m.header.Algorithm.Family() != jwa.FamilyHMAC {
		return ErrNoKeyWorked
	}
	params, err := jwk.NewSymmetricParameters(secret)
	if err != nil {
		return ErrNoKeyWorked
	}
	if m.Verify(jwk.Key{Parameters: params}) != nil {
		return ErrNoKeyWorked
	}
	return nil
}
