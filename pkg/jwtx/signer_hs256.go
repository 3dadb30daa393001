package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// minHS256SecretLen follows RFC 7518 §3.2: the key must be at least as
// long as the hash output.
const minHS256SecretLen = 32

// HS256Signer implements the Signer interface with a shared secret. Any
// process holding the same secret can verify its tokens.
type HS256Signer struct {
	kid    string
	secret []byte
}

func newHS256Signer(kid string, secret []byte) (*HS256Signer, error) {
	s := &HS256Signer{kid: kid, secret: append([]byte(nil), secret...)}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }
func (s *HS256Signer) KID() string { return s.kid }

// Sign encodes claims as a compact JWS with the signer's kid in the header.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.secret)
}

func (s *HS256Signer) VerificationKey() any { return s.secret }

func (s *HS256Signer) PublicJWK() (JWK, bool) { return JWK{}, false }

func (s *HS256Signer) Validate() error {
	if len(s.secret) < minHS256SecretLen {
		return errors.New("jwtx: HS256 secret must be at least 32 bytes")
	}
	return nil
}
