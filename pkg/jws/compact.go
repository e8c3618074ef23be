package jws

import (
	"errors"
	"fmt"

	"github.com/commune-sh/matrix-authentication-service/pkg/base64"
)

// MaxCompactLength bounds the size of a compact token accepted by
// [ParseCompact].
const MaxCompactLength = 64 << 10

// ErrFormat is matched by every [*FormatError].
var ErrFormat = errors.New("jws: malformed compact serialization")

// Segment names a part of a compact token.
type Segment string

const (
	SegmentToken     Segment = "token"
	SegmentHeader    Segment = "header"
	SegmentPayload   Segment = "payload"
	SegmentSignature Segment = "signature"
)

// FormatError describes a structurally invalid compact token.
type FormatError struct {
	Segment Segment
	Reason  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("jws: malformed %s: %s", e.Segment, e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// Compact is a JWS in compact serialization. It keeps the original
// string and the offsets of its two separators, so the signed part is
// always the exact bytes that were received.
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-7.1
type Compact struct {
	raw    string
	first  int
	second int
}

// ParseCompact splits input into its three segments. Each segment must be
// non-empty and use only the unpadded base64url alphabet. Segments are
// not decoded.
func ParseCompact(input string) (Compact, error) {
	if input == "" {
		return Compact{}, &FormatError{Segment: SegmentToken, Reason: "empty input"}
	}
	if len(input) > MaxCompactLength {
		return Compact{}, &FormatError{Segment: SegmentToken, Reason: fmt.Sprintf("longer than %d bytes", MaxCompactLength)}
	}

	first, second := -1, -1
	for i := 0; i < len(input); i++ {
		c := input[i]
		if c == '.' {
			switch {
			case first < 0:
				first = i
			case second < 0:
				second = i
			default:
				return Compact{}, &FormatError{Segment: SegmentToken, Reason: "more than two separators"}
			}
			continue
		}
		if !base64.IsURLSafeByte(c) {
			return Compact{}, &FormatError{
				Segment: segmentAt(first, second),
				Reason:  fmt.Sprintf("invalid character %q at offset %d", c, i),
			}
		}
	}

	if second < 0 {
		return Compact{}, &FormatError{Segment: SegmentToken, Reason: "expected two separators"}
	}

	switch {
	case first == 0:
		return Compact{}, &FormatError{Segment: SegmentHeader, Reason: "empty segment"}
	case second == first+1:
		return Compact{}, &FormatError{Segment: SegmentPayload, Reason: "empty segment"}
	case second == len(input)-1:
		return Compact{}, &FormatError{Segment: SegmentSignature, Reason: "empty segment"}
	}

	return Compact{raw: input, first: first, second: second}, nil
}

func segmentAt(first, second int) Segment {
	switch {
	case first < 0:
		return SegmentHeader
	case second < 0:
		return SegmentPayload
	default:
		return SegmentSignature
	}
}

// Header returns the encoded header segment.
func (c Compact) Header() string {
	return c.raw[:c.first]
}

// Payload returns the encoded payload segment.
func (c Compact) Payload() string {
	return c.raw[c.first+1 : c.second]
}

// Signature returns the encoded signature segment.
func (c Compact) Signature() string {
	return c.raw[c.second+1:]
}

// SignedPart returns the JWS signing input, the header and payload
// segments joined by their separator exactly as received.
func (c Compact) SignedPart() string {
	return c.raw[:c.second]
}

// String returns the full token.
func (c Compact) String() string {
	return c.raw
}

// IsZero reports whether c holds no token.
func (c Compact) IsZero() bool {
	return c.raw == ""
}

// Join builds a compact token from already encoded segments.
func Join(header, payload, signature string) (Compact, error) {
	return ParseCompact(header + "." + payload + "." + signature)
}
