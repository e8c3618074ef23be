package jwt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/commune-sh/matrix-authentication-service/pkg/base64"
)

// There are three classes of JWT Claim Names:
// 1. Registered Claim Names
// 2. Public Claim Names
// 3. Private Claim Names
type (
	ClaimName string

	Registered = ClaimName
	Public     = ClaimName
	Private    = ClaimName
)

// ClaimValue is a piece of information asserted about a subject, represented
// as a name/value pair consisting of a ClaimName and a ClaimValue.
type ClaimValue interface{}

// Registered Claim Names
//
// https://datatracker.ietf.org/doc/html/rfc7519#section-4.1
const (
	Issuer         Registered = "iss"
	Subject        Registered = "sub"
	Audience       Registered = "aud"
	ExpirationTime Registered = "exp"
	NotBefore      Registered = "nbf"
	IssuedAt       Registered = "iat"
	JWTID          Registered = "jti"
)

// ClaimsSet is a JSON object that contains the claims conveyed by the JWT.
//
// A claim is a piece of information asserted about a subject, represented
// as a name/value pair consisting of a Claim Name and a Claim Value.
type ClaimsSet map[ClaimName]ClaimValue

func (claims ClaimsSet) String() string {
	buff := bytes.NewBuffer(nil)

	err := json.NewEncoder(buff).Encode(claims)
	if err != nil {
		return fmt.Sprintf("<invalid-claims-set %q: %#v>", err, claims)
	}

	return base64.Encode(buff.Bytes())
}

func (claims ClaimsSet) Get(name ClaimName) (ClaimValue, error) {
	value, ok := claims[name]
	if !ok {
		return nil, fmt.Errorf("claim %q not found in claims set", name)
	}
	return value, nil
}

func (claims ClaimsSet) Set(name ClaimName, value ClaimValue) {
	claims[name] = value
}

func (claims ClaimsSet) Names() []ClaimName {
	var names []ClaimName

	for name := range claims {
		names = append(names, name)
	}

	sort.SliceStable(names, func(i, j int) bool {
		return names[i] > names[j]
	})

	return names
}

// Time returns a NumericDate claim such as "exp" as a time. Values decoded
// from JSON are float64, values set in Go may also be integers or times.
//
// https://datatracker.ietf.org/doc/html/rfc7519#section-2
func (claims ClaimsSet) Time(name ClaimName) (time.Time, error) {
	value, err := claims.Get(name)
	if err != nil {
		return time.Time{}, err
	}

	switch v := value.(type) {
	case time.Time:
		return v, nil
	case float64:
		sec, frac := math.Modf(v)
		return time.Unix(int64(sec), int64(frac*1e9)), nil
	case int64:
		return time.Unix(v, 0), nil
	case int:
		return time.Unix(int64(v), 0), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("claim %q is not a numeric date: %w", name, err)
		}
		return time.Unix(n, 0), nil
	default:
		return time.Time{}, fmt.Errorf("claim %q has invalid type %T for a numeric date", name, value)
	}
}

// NumericDate returns t as a NumericDate claim value.
func NumericDate(t time.Time) int64 {
	return t.Unix()
}
