// Package postgres is the pgx-backed reference backend. The application
// record is stored as a JSONB document with the identifier, username and
// secret extracted into columns for lookup, so the backend stays generic
// over the record type while queries stay indexed.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"toroauth"
	"toroauth/session"
)

// Backend implements the combined storage contract on a shared pgx pool.
// The pool carries its own synchronization; one Backend is shared across all
// façades and concurrent requests for the process lifetime.
type Backend[T toroauth.Identity[T]] struct {
	log  *slog.Logger
	pool *pgxpool.Pool
	cfg  session.Config
}

// New wraps an existing pool. The caller keeps ownership of the pool's
// lifecycle unless it uses Close.
func New[T toroauth.Identity[T]](log *slog.Logger, pool *pgxpool.Pool, cfg session.Config) (*Backend[T], error) {
	if pool == nil {
		return nil, errors.New("postgres: nil pool")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Backend[T]{log: log, pool: pool, cfg: cfg}, nil
}

// Connect builds a pool from a connection URL, validates connectivity, and
// ensures the schema exists.
func Connect[T toroauth.Identity[T]](ctx context.Context, url string, log *slog.Logger, cfg session.Config) (*Backend[T], error) {
	pcfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	b, err := New[T](log, pool, cfg)
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
}

// EnsureSchema creates the backing tables if they do not exist.
func (b *Backend[T]) EnsureSchema(ctx context.Context) error {
	_, err := b.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS toroauth_identities (
			id         TEXT PRIMARY KEY,
			username   TEXT NOT NULL,
			secret     TEXT NOT NULL,
			doc        JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS toroauth_identities_username_idx
			ON toroauth_identities (username);

		CREATE TABLE IF NOT EXISTS toroauth_sessions (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS toroauth_sessions_user_idx
			ON toroauth_sessions (user_id);
	`)
	if err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

// Ping checks whether a connection can be acquired within a short timeout.
func (b *Backend[T]) Ping(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, 3*time.Second)
	defer cancel()

	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("postgres: ping: %w", toroauth.ErrServiceUnavailable)
	}
	conn.Release()
	return nil
}

// Close releases the pool.
func (b *Backend[T]) Close() error {
	b.pool.Close()
	return nil
}

// fail logs the raw driver error server-side and returns the taxonomy
// classification that crosses the façade boundary: reachability faults map
// to ErrServiceUnavailable, everything else to ErrInternal.
func (b *Backend[T]) fail(op string, err error) error {
	kind := toroauth.ErrInternal
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		kind = toroauth.ErrServiceUnavailable
	}
	b.log.Error(op, "err", err)
	return fmt.Errorf("%s: %w", op, kind)
}
