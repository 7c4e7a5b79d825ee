// Package app wires the toroauthd runtime: config, logging, metrics, the
// storage backend, and the auth provider's HTTP routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"toroauth/backend/memory"
	"toroauth/backend/postgres"
	"toroauth/backend/sqlite"
	"toroauth/password"
	"toroauth/provider"
	"toroauth/session"
)

// store is the app-level view of a backend: the combined auth contract plus
// lifecycle.
type store interface {
	provider.Backend[User]
	Ping(ctx context.Context) error
	Close() error
}

// App is the toroauthd runtime.
type App struct {
	cfg Config
	log Logger

	store store
	auth  *provider.AuthProvider[User, PublicUser]

	registry *prometheus.Registry
	metrics  *metrics
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	st, err := newStore(ctx, cfg, log, sessCfg)
	if err != nil {
		return nil, err
	}

	if cfg.Backend == BackendMemory && cfg.SeedUsername != "" {
		if err := seedUser(ctx, st, cfg, log); err != nil {
			_ = st.Close()
			return nil, err
		}
	}

	auth := provider.New[User, PublicUser](st,
		provider.WithLogger(log),
		provider.WithSessionConfig(sessCfg),
	)

	a := &App{
		cfg:   cfg,
		log:   log,
		store: st,
		auth:  auth,
	}

	if cfg.MetricsEnabled {
		a.registry = prometheus.NewRegistry()
		a.metrics = newMetrics(a.registry)
	}

	return a, nil
}

// newStore selects and constructs the storage backend.
func newStore(ctx context.Context, cfg Config, log Logger, sessCfg session.Config) (store, error) {
	switch cfg.Backend {
	case BackendMemory:
		log.Info("store.memory")
		return memory.New[User](log, sessCfg), nil

	case BackendSQLite:
		log.Info("store.sqlite", "path", cfg.SQLitePath)
		return sqlite.Open[User](cfg.SQLitePath, log, sessCfg)

	case BackendPostgres:
		log.Info("store.postgres")
		pool, err := NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b, err := postgres.New[User](log, pool, sessCfg)
		if err != nil {
			pool.Close()
			return nil, err
		}
		if err := b.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		if err := b.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return b, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// seedUser creates the dev identity on a fresh memory backend. The seed
// password is hashed before storage like any other credential.
func seedUser(ctx context.Context, st store, cfg Config, log Logger) error {
	hash, err := password.Hash(cfg.SeedPassword)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	u, err := st.Create(ctx, User{Name: cfg.SeedUsername, Password: hash})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	log.Info("seed.user.created", "id", u.ID(), "username", u.Username())
	return nil
}

// Run starts the HTTP server and blocks until context cancellation or a
// fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a)

	var handler http.Handler = mux
	if a.metrics != nil {
		handler = a.metrics.WithMetrics(handler)
	}
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.ReadTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "backend", a.cfg.Backend)

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if err := a.store.Close(); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}
