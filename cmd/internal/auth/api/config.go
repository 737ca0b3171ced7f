package authapi

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config controls the auth HTTP surface.
type Config struct {
	// RoutePrefix is prepended to every auth route ("" serves /login, /refresh, ...).
	RoutePrefix string `env:"AUTH_ROUTE_PREFIX"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `env:"AUTH_MAX_BODY_BYTES" envDefault:"1048576"`

	// TrustProxy makes audit events read the client IP from X-Forwarded-For / X-Real-IP.
	TrustProxy bool `env:"AUTH_TRUST_PROXY" envDefault:"false"`
}

func DefaultConfig() Config {
	return Config{MaxBodyBytes: 1 << 20}
}

// LoadConfigFromEnv loads auth API config from the environment.
func LoadConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("auth api config: %w", err)
	}
	return cfg.normalized()
}

func (c Config) normalized() (Config, error) {
	p := strings.TrimRight(strings.TrimSpace(c.RoutePrefix), "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if strings.ContainsAny(p, " {}") {
		return Config{}, fmt.Errorf("AUTH_ROUTE_PREFIX: invalid value %q", c.RoutePrefix)
	}
	c.RoutePrefix = p

	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
	return c, nil
}
