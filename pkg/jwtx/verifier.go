package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures fall into three classes. Callers reject all of
// them the same way; the distinction exists for logging.
var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")
	ErrExpired    = errors.New("jwtx: token expired")
)

// Verifier validates a JWT against a KeySet and gives you back the claims
// if it's legit.
type Verifier struct {
	keys   *KeySet
	issuer string
	leeway time.Duration

	// Now overrides the clock used for exp/nbf checks. Nil means time.Now.
	Now func() time.Time
}

// NewVerifier creates a verifier for tokens signed by any key in keys.
// An empty issuer skips the "iss" check.
func NewVerifier(keys *KeySet, issuer string, leeway time.Duration) *Verifier {
	return &Verifier{keys: keys, issuer: issuer, leeway: leeway}
}

// Verify validates the JWT string and returns its parsed Claims. Errors
// wrap exactly one of ErrMalformed, ErrInvalidSig or ErrExpired.
func (v *Verifier) Verify(tokenStr string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodEdDSA.Alg(),
		}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(v.Now))
	}

	var claims Claims
	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenStr, &claims, v.keyFunc)
	if err != nil {
		return Claims{}, classify(err)
	}
	return claims, nil
}

func (v *Verifier) keyFunc(t *jwt.Token) (any, error) {
	// Need the kid to know which key to use
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("jwtx: missing kid")
	}

	alg, key, err := v.keys.Get(kid)
	if err != nil {
		return nil, fmt.Errorf("jwtx: unknown kid %q: %w", kid, err)
	}

	// A token must be signed with the algorithm its key was registered
	// for, otherwise an HMAC token could be checked against a public key.
	if t.Method.Alg() != alg {
		return nil, fmt.Errorf("jwtx: alg %q does not match key %q", t.Method.Alg(), kid)
	}
	return key, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrInvalidSig, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
