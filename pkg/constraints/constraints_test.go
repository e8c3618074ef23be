package constraints

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"

	"github.com/commune-sh/matrix-authentication-service/pkg/header"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwa"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwk"
	"github.com/stretchr/testify/require"
)

func publicKey(t *testing.T, pub any, kid string) jwk.Key {
	t.Helper()

	params, err := jwk.FromPublicKey(pub)
	require.NoError(t, err)
	key, err := jwk.NewKey(params, jwk.WithKeyID(kid))
	require.NoError(t, err)
	return key
}

var rsaKey = sync.OnceValue(func() *rsa.PrivateKey {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	return key
})

func testKeys(t *testing.T) (ec, rs jwk.Key) {
	t.Helper()

	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	return publicKey(t, &ecKey.PublicKey, "ec"), publicKey(t, &rsaKey().PublicKey, "rsa")
}

func TestFilterByAlgorithm(t *testing.T) {
	ec, rs := testKeys(t)
	set := jwk.NewKeySet(rs, ec)

	candidates := FromHeader(header.New(jwa.ES256)).Filter(set)
	require.Equal(t, []jwk.Key{ec}, candidates)

	candidates = FromHeader(header.New(jwa.PS384)).Filter(set)
	require.Equal(t, []jwk.Key{rs}, candidates)

	require.Empty(t, FromHeader(header.New(jwa.ES384)).Filter(set))
	require.Empty(t, FromHeader(header.New(jwa.HS256)).Filter(set))
	require.Empty(t, FromHeader(header.Header{}).Filter(set))
}

func TestHMACAndRSAStaySeparate(t *testing.T) {
	_, rs := testKeys(t)
	secret, err := jwk.NewKey(&jwk.SymmetricParameters{K: []byte("secret")}, jwk.WithKeyID("rsa"))
	require.NoError(t, err)
	set := jwk.NewKeySet(rs, secret)

	require.Equal(t, []jwk.Key{secret}, FromHeader(header.New(jwa.HS256).WithKeyID("rsa")).Filter(set))
	require.Equal(t, []jwk.Key{rs}, FromHeader(header.New(jwa.RS256).WithKeyID("rsa")).Filter(set))
}

func TestKeyIDRule(t *testing.T) {
	ec, _ := testKeys(t)
	anonymous := ec
	anonymous.ID = ""

	tests := []struct {
		name  string
		kid   string
		key   jwk.Key
		match bool
	}{
		{"both declare, equal", "ec", ec, true},
		{"both declare, different", "other", ec, false},
		{"case sensitive", "EC", ec, false},
		{"header only", "ec", anonymous, false},
		{"key only", "", ec, true},
		{"neither", "", anonymous, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			set := FromHeader(header.New(jwa.ES256).WithKeyID(test.kid))
			require.Equal(t, test.match, set.Matches(test.key))
		})
	}
}

func TestUse(t *testing.T) {
	ec, _ := testKeys(t)

	for use, match := range map[string]bool{
		"":                true,
		jwk.UseSignature:  true,
		jwk.UseEncryption: false,
	} {
		key := ec
		key.Use = use
		require.Equal(t, match, FromHeader(header.New(jwa.ES256)).Matches(key), "use %q", use)
	}
}

func TestPinnedAlgorithm(t *testing.T) {
	_, rs := testKeys(t)
	rs.Algorithm = jwa.RS256

	require.True(t, FromHeader(header.New(jwa.RS256)).Matches(rs))
	require.False(t, FromHeader(header.New(jwa.PS256)).Matches(rs))
}
