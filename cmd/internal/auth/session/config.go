package session

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Jager4561/car-case-auth/cmd/security/token"
)

// Config holds token keys, lifetimes and session housekeeping settings.
//
// Keys and TTLs are read once at startup and never change afterwards.
type Config struct {
	AccessTokenKey  string    `env:"ACCESS_TOKEN_KEY,required,notEmpty"`
	AccessTokenTTL  token.TTL `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenKey string    `env:"REFRESH_TOKEN_KEY,required,notEmpty"`
	RefreshTokenTTL token.TTL `env:"REFRESH_TOKEN_TTL" envDefault:"7d"`

	// Issuer, when set, is written as iss and required on verified parses.
	Issuer string `env:"TOKEN_ISSUER"`

	// VerifyRefreshSignature makes Refresh verify the refresh token with the
	// refresh key instead of only decoding its expiry.
	VerifyRefreshSignature bool `env:"REFRESH_VERIFY_SIGNATURE" envDefault:"false"`

	// ReapInterval is how often expired sessions are swept. Zero disables it.
	ReapInterval time.Duration `env:"SESSION_REAP_INTERVAL" envDefault:"0"`
}

// DefaultConfig returns the non-secret defaults. Keys are left empty.
func DefaultConfig() Config {
	return Config{
		AccessTokenTTL:  token.TTL(15 * time.Minute),
		RefreshTokenTTL: token.TTL(7 * 24 * time.Hour),
	}
}

// LoadConfigFromEnv reads Config from the environment.
// Every failure wraps ErrConfig.
func LoadConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks invariants that struct tags cannot express.
func (c Config) Validate() error {
	switch {
	case c.AccessTokenKey == "" || c.RefreshTokenKey == "":
		return fmt.Errorf("%w: token keys are required", ErrConfig)
	case c.AccessTokenKey == c.RefreshTokenKey:
		return fmt.Errorf("%w: ACCESS_TOKEN_KEY and REFRESH_TOKEN_KEY must differ", ErrConfig)
	case c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0:
		return fmt.Errorf("%w: token ttl must be positive", ErrConfig)
	case c.ReapInterval < 0:
		return fmt.Errorf("%w: SESSION_REAP_INTERVAL must not be negative", ErrConfig)
	}
	return nil
}

// NewCodec builds the token codec described by c.
func (c Config) NewCodec() (*token.Codec, error) {
	return token.NewCodec(
		token.Signer{Key: []byte(c.AccessTokenKey), TTL: c.AccessTokenTTL.Duration()},
		token.Signer{Key: []byte(c.RefreshTokenKey), TTL: c.RefreshTokenTTL.Duration()},
		c.Issuer,
	)
}
