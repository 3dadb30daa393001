package jwtx

import (
	"errors"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds the verification keys in memory, keyed by kid. It's
// thread-safe so the router can publish the JWKS while verifiers read.
type KeySet struct {
	mu   sync.RWMutex
	jwks JWKS
	keys map[string]entry
}

type entry struct {
	alg string
	key any
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{
		jwks: JWKS{Keys: []JWK{}},
		keys: make(map[string]entry),
	}
}

// AddSigner registers a Signer's verification key. Asymmetric keys are
// also added to the public JWKS.
func (k *KeySet) AddSigner(s Signer) error {
	if err := s.Validate(); err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.keys[s.KID()] = entry{alg: s.Alg(), key: s.VerificationKey()}
	if jwk, ok := s.PublicJWK(); ok {
		k.jwks.Keys = append(k.jwks.Keys, jwk)
	}
	return nil
}

// AddJWK registers a published Ed25519 key, e.g. one fetched from another
// instance's JWKS endpoint.
func (k *KeySet) AddJWK(j JWK) error {
	pub, err := j.PublicKey()
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.keys[j.Kid] = entry{alg: j.Alg, key: pub}
	k.jwks.Keys = append(k.jwks.Keys, j)
	return nil
}

// Get returns the algorithm and verification key for the given kid.
func (k *KeySet) Get(kid string) (string, any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if e, ok := k.keys[kid]; ok {
		return e.alg, e.key, nil
	}
	return "", nil, ErrNoKey
}

// PublicJWKS returns a snapshot of the publishable keys for HTTP serving.
func (k *KeySet) PublicJWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()
	keys := make([]JWK, len(k.jwks.Keys))
	copy(keys, k.jwks.Keys)
	return JWKS{Keys: keys}
}

// IsReady returns true if the KeySet has at least one key loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys) > 0
}
