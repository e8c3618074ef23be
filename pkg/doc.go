// Package jose implements JavaScript Object Signing and Encryption (JOSE) related functionality.
//
// The packages below it sign and verify compact JSON Web Signatures with
// keys described as JSON Web Keys:
//
//   - base64: strict unpadded base64url
//   - jwa: the supported signature algorithms
//   - header: the JOSE header
//   - jwk: keys, key sets and their conversion to Go crypto keys
//   - constraints: which keys of a set may verify a given header
//   - jws: compact parsing, signing and verification
//   - jwt: typed JWT payloads on top of jws
//   - keyutil: key generation and PEM import
//   - keystore: rotating and remote key sets
//
// Related RFCs:
//   - RFC7515 https://datatracker.ietf.org/doc/html/rfc7515 JWS, JSON Web Signature
//   - RFC7517 https://datatracker.ietf.org/doc/html/rfc7517 JWK, JSON Web Key
//   - RFC7518 https://datatracker.ietf.org/doc/html/rfc7518 JWA, JSON Web Algorithms
//   - RFC7519 https://datatracker.ietf.org/doc/html/rfc7519 JWT, JSON Web Token
//   - RFC7638 https://datatracker.ietf.org/doc/html/rfc7638 JWK Thumbprint
//   - RFC8037 https://datatracker.ietf.org/doc/html/rfc8037 CFRG curves in JOSE
//
// Related Information:
//   - https://datatracker.ietf.org/wg/jose/charter/
package jose
