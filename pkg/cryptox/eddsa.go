package cryptox

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// GenerateEd25519Key generates a new Ed25519 private key.
// Returns the private key in PEM format (PKCS8).
func GenerateEd25519Key() ([]byte, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate Ed25519 key: %w", err)
	}

	privateKeyBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal PKCS8 key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: privateKeyBytes,
	}), nil
}

// LoadOrCreateEd25519Key reads a PEM encoded Ed25519 key from path, writing
// a freshly generated one first if the file is missing. The second return
// value reports whether a new key was created.
func LoadOrCreateEd25519Key(path string) ([]byte, bool, error) {
	path = filepath.Clean(path)

	pemKey, err := os.ReadFile(path)
	if err == nil {
		return pemKey, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, fmt.Errorf("cryptox: read signing key: %w", err)
	}

	pemKey, err = GenerateEd25519Key()
	if err != nil {
		return nil, false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, false, fmt.Errorf("cryptox: create signing key dir: %w", err)
	}
	if err := os.WriteFile(path, pemKey, 0600); err != nil {
		return nil, false, fmt.Errorf("cryptox: write signing key: %w", err)
	}
	return pemKey, true, nil
}
