package jws

import (
	"errors"
	"fmt"

	"github.com/commune-sh/matrix-authentication-service/pkg/jwa"
)

var (
	// ErrDecode is matched by every [*DecodeError].
	ErrDecode = errors.New("jws: decode failed")

	// ErrVerification is matched by every [*VerificationError].
	ErrVerification = errors.New("jws: verification failed")

	// ErrNoKeyWorked is returned when no candidate key verified a
	// message. It carries no detail about the candidate keys.
	ErrNoKeyWorked = errors.New("jws: no key could verify the signature")

	// ErrSigning is matched by every [*SignatureError].
	ErrSigning = errors.New("jws: signing failed")
)

// Part names the decoded part of a JWS that failed.
type Part string

const (
	PartHeader    Part = "header"
	PartPayload   Part = "payload"
	PartSignature Part = "signature"
)

// DecodeKind is the stage of decoding that failed.
type DecodeKind string

const (
	DecodeBase64 DecodeKind = "base64"
	DecodeJSON   DecodeKind = "json"
)

// DecodeError is returned when a well-formed segment cannot be decoded.
type DecodeError struct {
	Part  Part
	Kind  DecodeKind
	Inner error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("jws: failed to decode %s %s: %v", e.Part, e.Kind, e.Inner)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Inner}
}

// VerificationError is returned when a message does not verify with a
// given key.
type VerificationError struct {
	Algorithm jwa.Algorithm
	Reason    string
	Inner     error
}

func (e *VerificationError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("jws: %s verification failed: %s: %v", e.Algorithm, e.Reason, e.Inner)
	}
	return fmt.Sprintf("jws: %s verification failed: %s", e.Algorithm, e.Reason)
}

func (e *VerificationError) Unwrap() []error {
	if e.Inner == nil {
		return []error{ErrVerification}
	}
	return []error{ErrVerification, e.Inner}
}

// SignatureError is returned when a message cannot be signed.
type SignatureError struct {
	Algorithm jwa.Algorithm
	Inner     error
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("jws: %s signing failed: %v", e.Algorithm, e.Inner)
}

func (e *SignatureError) Unwrap() []error {
	return []error{ErrSigning, e.Inner}
}
