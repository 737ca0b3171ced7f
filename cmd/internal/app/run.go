package app

import (
	"context"
	"errors"
	"io/fs"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	authapi "github.com/Jager4561/car-case-auth/cmd/internal/auth/api"
	"github.com/Jager4561/car-case-auth/cmd/internal/auth/session"
	"github.com/Jager4561/car-case-auth/cmd/security/password"
)

// LoadDotEnv loads .env into the process environment. A missing file is not
// an error and variables already set are left alone.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// LoadSettings reads every package config from the environment.
func LoadSettings() (Settings, error) {
	sess, err := session.LoadConfigFromEnv()
	if err != nil {
		return Settings{}, err
	}
	auth, err := authapi.LoadConfigFromEnv()
	if err != nil {
		return Settings{}, err
	}
	pw, err := password.FromEnv()
	if err != nil {
		return Settings{}, err
	}
	return Settings{Session: sess, Auth: auth, Password: pw}, nil
}

// Run is the CLI entrypoint used by cmd/cauth.
// It returns an error instead of calling os.Exit to keep defers effective.
func Run() error {
	if err := LoadDotEnv(".env"); err != nil {
		return err
	}

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	log := NewLogger(cfg.LogLevel, cfg.LogFormat)

	set, err := LoadSettings()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := New(ctx, cfg, set, log)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
