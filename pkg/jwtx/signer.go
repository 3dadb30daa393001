package jwtx

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)

	// VerificationKey is the key a Verifier needs for tokens from this
	// signer: the shared secret for HMAC, the public key otherwise.
	VerificationKey() any

	// PublicJWK returns the publishable key, or false for symmetric
	// signers whose key must never leave the process.
	PublicJWK() (JWK, bool)

	Validate() error
}

// NewSignerHS256 creates an HMAC-SHA256 signer from a shared secret.
func NewSignerHS256(kid string, secret []byte) (Signer, error) {
	return newHS256Signer(kid, secret)
}

// NewSignerEdDSA creates an EdDSA signer from PEM bytes.
// Ed25519 keys must be in PKCS8 format.
func NewSignerEdDSA(kid string, pemKey []byte) (Signer, error) {
	return newEdDSASigner(kid, pemKey)
}
