package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env                 string        `env:"ENV" envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"json"`
	Port                int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	DatabaseDriver string `env:"FORUM_DATABASE_DRIVER" envDefault:"sqlite"` // sqlite or postgres
	DatabaseFile   string `env:"FORUM_DATABASE_FILE" envDefault:"forum.db"`
	DatabaseURL    string `env:"FORUM_DATABASE_URL"` // required for postgres

	PepperFile        string `env:"FORUM_PEPPER_FILE"` // empty disables the pepper
	Argon2MemoryKiB   uint32 `env:"FORUM_ARGON2_MEMORY_KIB" envDefault:"65536"`
	Argon2Iterations  uint32 `env:"FORUM_ARGON2_ITERATIONS" envDefault:"3"`
	Argon2Parallelism uint8  `env:"FORUM_ARGON2_PARALLELISM" envDefault:"4"`

	Issuer          string        `env:"FORUM_ISSUER" envDefault:"forum"`
	JWTAlgorithm    string        `env:"FORUM_JWT_ALGORITHM" envDefault:"HS256"` // HS256 or EdDSA
	JWTSecret       string        `env:"FORUM_JWT_SECRET"`                       // HS256; empty means ephemeral
	SigningKeyFile  string        `env:"FORUM_SIGNING_KEY_FILE" envDefault:"signing.pem"`
	SigningKeyID    string        `env:"FORUM_SIGNING_KEY_ID" envDefault:"forum-1"`
	AccessTokenTTL  time.Duration `env:"FORUM_ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"FORUM_REFRESH_TOKEN_TTL" envDefault:"720h"`

	RecaptchaSecretKey string        `env:"FORUM_RECAPTCHA_SECRET_KEY"`
	RecaptchaVerifyURL string        `env:"FORUM_RECAPTCHA_VERIFY_URL" envDefault:"https://www.google.com/recaptcha/api/siteverify"`
	RecaptchaTimeout   time.Duration `env:"FORUM_RECAPTCHA_TIMEOUT" envDefault:"5s"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"` // empty disables tracing
}

// LoadConfig reads the configuration from the environment. Variables from
// FORUM_ENV_FILE (or ./.env when unset) fill in anything not already set.
func LoadConfig() (Config, error) {
	if err := loadEnvFile(os.Getenv("FORUM_ENV_FILE")); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadEnvFile loads path, or an optional ./.env when path is empty.
func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case "sqlite":
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("FORUM_DATABASE_FILE is required for sqlite"))
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("FORUM_DATABASE_URL is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("FORUM_DATABASE_DRIVER must be sqlite or postgres, got %q", c.DatabaseDriver))
	}

	switch c.JWTAlgorithm {
	case "HS256":
		if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
			errs = append(errs, errors.New("FORUM_JWT_SECRET must be at least 32 bytes"))
		}
	case "EdDSA":
		if c.SigningKeyFile == "" {
			errs = append(errs, errors.New("FORUM_SIGNING_KEY_FILE is required for EdDSA"))
		}
	default:
		errs = append(errs, fmt.Errorf("FORUM_JWT_ALGORITHM must be HS256 or EdDSA, got %q", c.JWTAlgorithm))
	}

	if c.SigningKeyID == "" {
		errs = append(errs, errors.New("FORUM_SIGNING_KEY_ID must not be empty"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.RecaptchaSecretKey == "" {
		errs = append(errs, errors.New("FORUM_RECAPTCHA_SECRET_KEY is required"))
	}
	if c.RecaptchaTimeout <= 0 {
		errs = append(errs, errors.New("FORUM_RECAPTCHA_TIMEOUT must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}

	return errors.Join(errs...)
}
