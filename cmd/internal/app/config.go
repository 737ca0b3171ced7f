package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Session backends.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config contains the runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxHeaderBytes    int           `env:"HTTP_MAX_HEADER_BYTES" envDefault:"1048576"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"0"`

	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	DBMaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`

	// SessionBackend is postgres, redis or memory. Empty picks postgres when
	// DATABASE_URL is set and memory otherwise.
	SessionBackend string `env:"SESSION_BACKEND"`
	RedisURL       string `env:"REDIS_URL"`
	RedisPrefix    string `env:"REDIS_KEY_PREFIX" envDefault:"cauth:"`

	// If true, /readyz returns 503 unless a database is configured and reachable.
	ReadinessRequireDB bool `env:"READINESS_REQUIRE_DB" envDefault:"false"`

	// MinTokenKeyBytes is the minimum signing key length. 0 disables the check.
	MinTokenKeyBytes int `env:"MIN_TOKEN_KEY_BYTES" envDefault:"32"`

	// SeedPrincipals preloads the in-memory principal store when no database
	// is configured. Format: email:password[:inactive], comma separated.
	SeedPrincipals string `env:"SEED_PRINCIPALS"`
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("app config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("HTTP_ADDR: must not be empty")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT: want json or text, got %q", c.LogFormat)
	}
	if c.DBMinConns < 0 || (c.DBMaxConns > 0 && c.DBMinConns > c.DBMaxConns) {
		return fmt.Errorf("DB_MIN_CONNS: out of range [0..%d]", c.DBMaxConns)
	}
	if c.MinTokenKeyBytes < 0 {
		return errors.New("MIN_TOKEN_KEY_BYTES: must be >= 0")
	}

	backend, err := c.Backend()
	if err != nil {
		return err
	}
	switch backend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("SESSION_BACKEND=postgres requires DATABASE_URL")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("SESSION_BACKEND=redis requires REDIS_URL")
		}
	}
	return nil
}

// Backend resolves the session backend name.
func (c Config) Backend() (string, error) {
	b := strings.ToLower(strings.TrimSpace(c.SessionBackend))
	switch b {
	case "":
		if c.DatabaseURL != "" {
			return BackendPostgres, nil
		}
		return BackendMemory, nil
	case BackendPostgres, BackendRedis, BackendMemory:
		return b, nil
	default:
		return "", fmt.Errorf("SESSION_BACKEND: unknown backend %q", c.SessionBackend)
	}
}
