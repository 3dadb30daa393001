package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// VerifyResult is the outcome of comparing a password against a stored hash.
type VerifyResult int

const (
	// Mismatch is the zero value so an unset result never reads as a match.
	Mismatch VerifyResult = iota
	Match
	MalformedHash
)

func (r VerifyResult) String() string {
	switch r {
	case Match:
		return "match"
	case MalformedHash:
		return "malformed_hash"
	default:
		return "mismatch"
	}
}

var ErrMalformedHash = errors.New("cryptox: malformed password hash")

// Params are the Argon2id cost parameters. They are embedded in every hash
// produced so verification never needs them separately.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
	SaltLength  uint32
}

// DefaultParams matches the argon2-cffi defaults (RFC 9106 low-memory
// profile), which is what existing forum hashes were created with.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		KeyLength:   32,
		SaltLength:  16,
	}
}

// Validate rejects parameter sets argon2 cannot run with.
func (p Params) Validate() error {
	switch {
	case p.Iterations < 1:
		return fmt.Errorf("cryptox: argon2 iterations must be >= 1, got %d", p.Iterations)
	case p.Parallelism < 1:
		return fmt.Errorf("cryptox: argon2 parallelism must be >= 1, got %d", p.Parallelism)
	case p.Memory < 8*uint32(p.Parallelism):
		return fmt.Errorf("cryptox: argon2 memory must be >= 8*parallelism KiB, got %d", p.Memory)
	case p.KeyLength < 16:
		return fmt.Errorf("cryptox: argon2 key length must be >= 16, got %d", p.KeyLength)
	case p.SaltLength < 8:
		return fmt.Errorf("cryptox: argon2 salt length must be >= 8, got %d", p.SaltLength)
	}
	return nil
}

// Hasher hashes and verifies passwords with Argon2id in PHC string format.
// The zero value is not usable; build one with NewHasher.
type Hasher struct {
	params Params
	pepper string
}

// NewHasher returns a Hasher producing hashes with params. A non-empty
// pepper is appended to every password before hashing.
func NewHasher(params Params, pepper string) (*Hasher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Hasher{params: params, pepper: pepper}, nil
}

// Params returns the target parameters new hashes are created with.
func (h *Hasher) Params() Params { return h.params }

// Hash generates a PHC-format Argon2id hash string including salt and parameters.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: generate salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(password+h.pepper),
		salt,
		h.params.Iterations,
		h.params.Memory,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	return encodePHC(h.params, salt, key), nil
}

// Verify compares a plaintext password against a PHC-style Argon2id hash.
// A hash that cannot be parsed yields MalformedHash, never an error.
func (h *Hasher) Verify(encodedHash, password string) VerifyResult {
	decoded, err := decodePHC(encodedHash)
	if err != nil {
		return MalformedHash
	}

	computed := argon2.IDKey(
		[]byte(password+h.pepper),
		decoded.salt,
		decoded.params.Iterations,
		decoded.params.Memory,
		decoded.params.Parallelism,
		decoded.params.KeyLength,
	)

	if subtle.ConstantTimeCompare(computed, decoded.key) == 1 {
		return Match
	}
	return Mismatch
}

// NeedsRehash reports whether the hash was created with weaker parameters
// than the hasher's target, or cannot be parsed at all.
func (h *Hasher) NeedsRehash(encodedHash string) bool {
	decoded, err := decodePHC(encodedHash)
	if err != nil {
		return true
	}

	p := decoded.params
	return p.Memory < h.params.Memory ||
		p.Iterations < h.params.Iterations ||
		p.Parallelism < h.params.Parallelism ||
		p.KeyLength < h.params.KeyLength
}

type phcHash struct {
	params Params
	salt   []byte
	key    []byte
}

func encodePHC(p Params, salt, key []byte) string {
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Iterations,
		p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

// decodePHC parses $argon2id$v=19$m=X,t=Y,p=Z$salt$hash.
func decodePHC(encoded string) (phcHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return phcHash{}, fmt.Errorf("%w: expected 6 parts", ErrMalformedHash)
	}
	if parts[1] != "argon2id" {
		return phcHash{}, fmt.Errorf("%w: not argon2id", ErrMalformedHash)
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return phcHash{}, fmt.Errorf("%w: unsupported version %q", ErrMalformedHash, parts[2])
	}

	var p Params
	for _, kv := range strings.Split(parts[3], ",") {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return phcHash{}, fmt.Errorf("%w: bad parameter %q", ErrMalformedHash, kv)
		}
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return phcHash{}, fmt.Errorf("%w: bad parameter %q", ErrMalformedHash, kv)
		}
		switch name {
		case "m":
			p.Memory = uint32(n)
		case "t":
			p.Iterations = uint32(n)
		case "p":
			if n > 255 {
				return phcHash{}, fmt.Errorf("%w: parallelism out of range", ErrMalformedHash)
			}
			p.Parallelism = uint8(n)
		default:
			return phcHash{}, fmt.Errorf("%w: unknown parameter %q", ErrMalformedHash, name)
		}
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return phcHash{}, fmt.Errorf("%w: missing m/t/p", ErrMalformedHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return phcHash{}, fmt.Errorf("%w: failed to decode salt", ErrMalformedHash)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return phcHash{}, fmt.Errorf("%w: failed to decode hash", ErrMalformedHash)
	}

	p.SaltLength = uint32(len(salt)) // #nosec G115 - bounded by the stored string
	p.KeyLength = uint32(len(key))   // #nosec G115

	return phcHash{params: p, salt: salt, key: key}, nil
}
