package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/forum/pkg/cryptox"
	"github.com/aussiebroadwan/forum/pkg/jwtx"
)

// InitSigningKey builds the token signer for the configured algorithm and a
// KeySet holding its verification key.
//
// HS256 uses FORUM_JWT_SECRET. Without one a random secret is generated,
// so every token becomes invalid when the process restarts.
//
// EdDSA loads FORUM_SIGNING_KEY_FILE, creating it on first start. The
// public half is published through the JWKS endpoint.
func InitSigningKey(cfg Config, logger *slog.Logger) (jwtx.Signer, *jwtx.KeySet, error) {
	var (
		signer jwtx.Signer
		err    error
	)

	switch cfg.JWTAlgorithm {
	case "HS256":
		secret := []byte(cfg.JWTSecret)
		if len(secret) == 0 {
			secret, err = cryptox.GenerateSecret(cryptox.SecretSize256)
			if err != nil {
				return nil, nil, err
			}
			logger.Warn("FORUM_JWT_SECRET not set, using an ephemeral signing secret")
		}
		signer, err = jwtx.NewSignerHS256(cfg.SigningKeyID, secret)

	case "EdDSA":
		var (
			pemKey  []byte
			created bool
		)
		pemKey, created, err = cryptox.LoadOrCreateEd25519Key(cfg.SigningKeyFile)
		if err != nil {
			return nil, nil, err
		}
		if created {
			logger.Info("generated new signing key", "path", cfg.SigningKeyFile)
		}
		signer, err = jwtx.NewSignerEdDSA(cfg.SigningKeyID, pemKey)

	default:
		return nil, nil, fmt.Errorf("unsupported algorithm %q", cfg.JWTAlgorithm)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create %s signer: %w", cfg.JWTAlgorithm, err)
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, nil, fmt.Errorf("register signing key: %w", err)
	}

	logger.Info("signing key ready", "alg", signer.Alg(), "kid", signer.KID())
	return signer, keys, nil
}
