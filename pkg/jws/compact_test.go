package jws

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCompact(t *testing.T) {
	c, err := ParseCompact("aGVhZGVy.cGF5bG9hZA.c2ln")
	require.NoError(t, err)
	require.Equal(t, "aGVhZGVy", c.Header())
	require.Equal(t, "cGF5bG9hZA", c.Payload())
	require.Equal(t, "c2ln", c.Signature())
	require.Equal(t, "aGVhZGVy.cGF5bG9hZA", c.SignedPart())
	require.Equal(t, "aGVhZGVy.cGF5bG9hZA.c2ln", c.String())
	require.False(t, c.IsZero())
	require.True(t, Compact{}.IsZero())
}

func TestParseCompactErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		segment Segment
	}{
		{"empty", "", SegmentToken},
		{"one segment", "abc", SegmentToken},
		{"two segments", "abc.def", SegmentToken},
		{"four segments", "a.b.c.d", SegmentToken},
		{"empty header", ".b.c", SegmentHeader},
		{"empty payload", "a..c", SegmentPayload},
		{"empty signature", "a.b.", SegmentSignature},
		{"only separators", "..", SegmentHeader},
		{"padding", "a=.b.c", SegmentHeader},
		{"standard alphabet", "a.b+.c", SegmentPayload},
		{"whitespace", "a.b.c ", SegmentSignature},
		{"non ascii", "a.b.cé", SegmentSignature},
		{"too long", strings.Repeat("a", MaxCompactLength) + ".b.c", SegmentToken},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseCompact(test.input)
			require.ErrorIs(t, err, ErrFormat)

			var ferr *FormatError
			require.ErrorAs(t, err, &ferr)
			require.Equal(t, test.segment, ferr.Segment)
		})
	}
}

func TestJoin(t *testing.T) {
	c, err := Join("a", "b", "c")
	require.NoError(t, err)
	require.Equal(t, "a.b.c", c.String())

	_, err = Join("a", "", "c")
	require.ErrorIs(t, err, ErrFormat)
}
