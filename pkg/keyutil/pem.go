package keyutil

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"

	"github.com/commune-sh/matrix-authentication-service/pkg/jwk"
)

// ErrNoPEMBlock is returned when the input holds no PEM data.
var ErrNoPEMBlock = errors.New("keyutil: no PEM block found")

func readBlock(r io.Reader) (*pem.Block, error) {
	keyBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read key from reader: %w", err)
	}

	block, _ := pem.Decode(keyBytes)
	if block == nil {
		return nil, ErrNoPEMBlock
	}
	return block, nil
}

// ParsePrivateKey parses a PEM encoded PKCS #8, PKCS #1 or SEC 1 private
// key from the given reader.
//
// The returned key is one of *rsa.PrivateKey, *ecdsa.PrivateKey or
// ed25519.PrivateKey.
func ParsePrivateKey(r io.Reader) (any, error) {
	block, err := readBlock(r)
	if err != nil {
		return nil, err
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to decode RSA private key: %w", err)
		}
		return key, nil
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to decode EC private key: %w", err)
		}
		return key, nil
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to decode PKCS #8 private key: %w", err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unsupported PEM block type %q", block.Type)
	}
}

// ParsePublicKey parses a PEM encoded PKIX or PKCS #1 public key, or the
// public key of a certificate, from the given reader.
//
// The returned key is one of *rsa.PublicKey, *ecdsa.PublicKey or
// ed25519.PublicKey.
func ParsePublicKey(r io.Reader) (any, error) {
	block, err := readBlock(r)
	if err != nil {
		return nil, err
	}

	switch block.Type {
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to decode RSA public key: %w", err)
		}
		return key, nil
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to decode public key: %w", err)
		}
		return key, nil
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to decode certificate: %w", err)
		}
		return cert.PublicKey, nil
	default:
		return nil, fmt.Errorf("unsupported PEM block type %q", block.Type)
	}
}

// ParsePrivateKeyJWK parses a PEM encoded private key into a JSON Web Key.
// When no key id option is given, the key id is the key's SHA-256
// thumbprint.
func ParsePrivateKeyJWK(r io.Reader, opts ...jwk.KeyOption) (jwk.Key, error) {
	priv, err := ParsePrivateKey(r)
	if err != nil {
		return jwk.Key{}, err
	}

	params, err := jwk.FromPrivateKey(priv)
	if err != nil {
		return jwk.Key{}, err
	}

	return newKey(params, opts...)
}

// ParsePublicKeyJWK parses a PEM encoded public key into a JSON Web Key.
// When no key id option is given, the key id is the key's SHA-256
// thumbprint.
func ParsePublicKeyJWK(r io.Reader, opts ...jwk.KeyOption) (jwk.Key, error) {
	pub, err := ParsePublicKey(r)
	if err != nil {
		return jwk.Key{}, err
	}

	params, err := jwk.FromPublicKey(pub)
	if err != nil {
		return jwk.Key{}, err
	}

	return newKey(params, opts...)
}
