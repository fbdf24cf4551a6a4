package authkit

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/edusuite/authkit/password"
)

// Config carries every tunable of the engine. Instances are configured
// before [Builder.Build] and treated as immutable afterwards.
type Config struct {
	JWT       JWTConfig
	Challenge ChallengeConfig
	Password  password.Config
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// JWTConfig configures the token codec. Secret is the process-wide
// HMAC signing key, supplied at startup and never rotated at runtime.
type JWTConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

// ChallengeConfig configures the 2FA one-time-code store.
//
// MaxAttempts bounds wrong guesses per challenge; zero means unlimited
// retries until expiry, which matches the historical behavior. The
// 6-digit space over a 5-minute window is guessable without a bound,
// so production deployments should set it.
type ChallengeConfig struct {
	TTL         time.Duration
	MaxAttempts int
}

// AuditConfig controls the buffered audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
}

// MetricsConfig controls the in-process atomic counters.
type MetricsConfig struct {
	Enabled bool
}

const minSecretBytes = 32

// DefaultConfig returns the baseline configuration: one-hour access
// tokens, seven-day refresh tokens, five-minute challenge TTL with
// unlimited retries, audit and metrics enabled.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
			Issuer:     "authkit",
		},
		Challenge: ChallengeConfig{
			TTL: 5 * time.Minute,
		},
		Password: password.DefaultConfig(),
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for values the engine cannot run
// with. It is called by [Builder.Build].
func (c Config) Validate() error {
	if len(c.JWT.Secret) < minSecretBytes {
		return fmt.Errorf("jwt secret must be at least %d bytes", minSecretBytes)
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("access TTL must be positive")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("refresh TTL must exceed access TTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("invalid leeway configuration")
	}
	if c.Challenge.TTL <= 0 {
		return errors.New("challenge TTL must be positive")
	}
	if c.Challenge.MaxAttempts < 0 {
		return errors.New("challenge max attempts must not be negative")
	}
	if err := c.Password.Validate(); err != nil {
		return err
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive")
	}
	return nil
}

type envConfig struct {
	JWTSecret    string        `env:"AUTHKIT_JWT_SECRET,notEmpty"`
	AccessTTL    time.Duration `env:"AUTHKIT_ACCESS_TTL" envDefault:"1h"`
	RefreshTTL   time.Duration `env:"AUTHKIT_REFRESH_TTL" envDefault:"168h"`
	Issuer       string        `env:"AUTHKIT_ISSUER" envDefault:"authkit"`
	ChallengeTTL time.Duration `env:"AUTHKIT_CHALLENGE_TTL" envDefault:"5m"`
	MaxAttempts  int           `env:"AUTHKIT_CHALLENGE_MAX_ATTEMPTS" envDefault:"0"`
}

// ConfigFromEnv builds a Config from the process environment on top of
// [DefaultConfig]. AUTHKIT_JWT_SECRET is required and base64-encoded;
// the TTL variables accept Go duration strings.
func ConfigFromEnv() (Config, error) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return Config{}, err
	}

	secret, err := base64.StdEncoding.DecodeString(ec.JWTSecret)
	if err != nil {
		return Config{}, fmt.Errorf("AUTHKIT_JWT_SECRET is not valid base64: %w", err)
	}

	cfg := DefaultConfig()
	cfg.JWT.Secret = secret
	cfg.JWT.AccessTTL = ec.AccessTTL
	cfg.JWT.RefreshTTL = ec.RefreshTTL
	cfg.JWT.Issuer = ec.Issuer
	cfg.Challenge.TTL = ec.ChallengeTTL
	cfg.Challenge.MaxAttempts = ec.MaxAttempts

	return cfg, cfg.Validate()
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.JWT.Secret != nil {
		out.JWT.Secret = append([]byte(nil), cfg.JWT.Secret...)
	}
	return out
}
