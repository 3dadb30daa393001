package jwtx

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// EdDSASigner implements the Signer interface with an Ed25519 key pair.
// Its public half is published in the JWKS so other processes can verify
// tokens without sharing a secret.
type EdDSASigner struct {
	kid string
	key ed25519.PrivateKey
	pub ed25519.PublicKey
}

// newEdDSASigner parses a PKCS#8 "PRIVATE KEY" PEM block holding an
// Ed25519 key.
func newEdDSASigner(kid string, pemKey []byte) (*EdDSASigner, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: EdDSA key is not PEM encoded")
	}
	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("jwtx: EdDSA key must be a PKCS8 PRIVATE KEY block, got %q", block.Type)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse EdDSA key: %w", err)
	}
	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("jwtx: EdDSA key has type %T, want ed25519.PrivateKey", parsed)
	}

	s := &EdDSASigner{kid: kid, key: key, pub: key.Public().(ed25519.PublicKey)}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *EdDSASigner) Alg() string { return jwt.SigningMethodEdDSA.Alg() }
func (s *EdDSASigner) KID() string { return s.kid }

// Sign encodes claims as a compact JWS with the signer's kid in the header.
func (s *EdDSASigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

func (s *EdDSASigner) VerificationKey() any { return s.pub }

// PublicJWK returns the OKP key served from /.well-known/jwks.json.
func (s *EdDSASigner) PublicJWK() (JWK, bool) {
	return NewEd25519JWK(s.kid, "sig", s.Alg(), s.pub), true
}

func (s *EdDSASigner) Validate() error {
	switch {
	case len(s.key) != ed25519.PrivateKeySize:
		return errors.New("jwtx: invalid Ed25519 private key size")
	case len(s.pub) != ed25519.PublicKeySize:
		return errors.New("jwtx: invalid Ed25519 public key size")
	}
	return nil
}
