// Package app wires the cauth server runtime: config, logging, metrics,
// backend selection, HTTP routes and the session reaper.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jager4561/car-case-auth/cmd/identity"
	authapi "github.com/Jager4561/car-case-auth/cmd/internal/auth/api"
	"github.com/Jager4561/car-case-auth/cmd/internal/auth/session"
	"github.com/Jager4561/car-case-auth/cmd/security/password"
)

// Settings bundles the per-package configs the runtime is built from.
type Settings struct {
	Session  session.Config
	Auth     authapi.Config
	Password password.Config
}

// probe is one readiness dependency.
type probe struct {
	name  string
	check func(context.Context) error
}

// App is the cauth runtime: it owns the HTTP server, backends and reaper.
type App struct {
	cfg Config
	log Logger

	metrics  *Metrics
	sessions *session.Service
	reaper   *session.Reaper
	handler  http.Handler

	dbPool  *pgxpool.Pool
	probes  []probe
	closers []func()
}

// New constructs a fully wired App from config. On error every resource
// opened so far is released.
func New(ctx context.Context, cfg Config, set Settings, log Logger) (_ *App, err error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := set.Session.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateSecurityConfig(cfg, set.Session); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log, metrics: NewMetrics()}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	if cfg.DatabaseURL != "" {
		pool, err := NewDBPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("db: %w", err)
		}
		a.dbPool = pool
		a.closers = append(a.closers, pool.Close)
		a.probes = append(a.probes, probe{name: "db", check: func(ctx context.Context) error {
			return PingDB(ctx, pool, 2*time.Second)
		}})
	}

	principals, err := a.newPrincipalStore(set.Password)
	if err != nil {
		return nil, err
	}
	store, err := a.newSessionStore(ctx)
	if err != nil {
		return nil, err
	}

	codec, err := set.Session.NewCodec()
	if err != nil {
		return nil, err
	}
	verifier := identity.NewArgon2idVerifier(set.Password, log)
	a.sessions = session.NewService(set.Session, codec, store, principals, verifier)

	if set.Session.ReapInterval > 0 {
		a.reaper = session.NewReaper(store, set.Session.ReapInterval, log)
		a.reaper.OnReap = a.metrics.SessionsReaped
	}

	auth, err := authapi.NewHandler(log, set.Auth, a.sessions, authapi.WithEventRecorder(a.metrics))
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerHTTP(mux, a, auth)
	route := func(r *http.Request) string {
		_, pattern := mux.Handler(r)
		return pattern
	}
	a.handler = WithRequestID(WithRequestLogging(mux, log, a.metrics, route))

	return a, nil
}

func (a *App) newPrincipalStore(pw password.Config) (identity.Store, error) {
	if a.dbPool != nil {
		st, err := identity.NewPostgresStore(a.dbPool)
		if err != nil {
			return nil, err
		}
		a.log.Info("principals.postgres")
		return st, nil
	}

	seeds, err := identity.ParseSeeds(a.cfg.SeedPrincipals)
	if err != nil {
		return nil, fmt.Errorf("SEED_PRINCIPALS: %w", err)
	}
	st := identity.NewMemoryStore()
	if _, err := identity.SeedMemory(st, pw, seeds); err != nil {
		return nil, fmt.Errorf("SEED_PRINCIPALS: %w", err)
	}
	a.log.Info("principals.memory", "seeded", len(seeds))
	return st, nil
}

func (a *App) newSessionStore(ctx context.Context) (session.Store, error) {
	backend, err := a.cfg.Backend()
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendPostgres:
		st, err := session.NewPostgresStore(a.dbPool)
		if err != nil {
			return nil, err
		}
		a.log.Info("sessions.postgres")
		return st, nil

	case BackendRedis:
		client, err := NewRedisClient(ctx, a.cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		st := session.NewRedisStore(client, session.WithRedisPrefix(a.cfg.RedisPrefix))
		a.probes = append(a.probes, probe{name: "redis", check: func(ctx context.Context) error {
			pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return st.Ping(pctx)
		}})
		a.log.Info("sessions.redis", "prefix", a.cfg.RedisPrefix)
		return st, nil

	default:
		a.log.Info("sessions.memory")
		return session.NewMemoryStore(), nil
	}
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Run starts the HTTP server and the reaper, and blocks until context
// cancellation or a fatal server error.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	reapCtx, stopReaper := context.WithCancel(ctx)
	var wg sync.WaitGroup
	if a.reaper != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.reaper.Run(reapCtx)
		}()
	}
	defer func() {
		stopReaper()
		wg.Wait()
	}()

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbPool != nil)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.log.Info("server.stopped")
	return nil
}

// close releases backends in reverse order of acquisition.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
