// Package jwt provides a simple and easy-to-use interface
// for working with JSON Web Tokens (JWTs).
//
// It supports signing, decoding and verifying JWTs with a
// payload of any JSON-serializable type. Registered claims
// such as expiration times are carried but never enforced,
// that is left to the caller.
package jwt
