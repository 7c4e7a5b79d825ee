// Package sqlite is a file-backed reference backend on modernc.org/sqlite.
// It uses the same document model as the postgres backend: the record is
// stored as a JSON document with id, username and secret extracted into
// columns for lookup.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"toroauth"
	"toroauth/session"
)

// Backend stores identities and sessions in one SQLite database. database/sql
// serializes access internally; the handle is shared for the process
// lifetime.
type Backend[T toroauth.Identity[T]] struct {
	log *slog.Logger
	db  *sql.DB
	cfg session.Config
}

// Open opens (or creates) the database at path and ensures the schema.
func Open[T toroauth.Identity[T]](path string, log *slog.Logger, cfg session.Config) (*Backend[T], error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite: storage path is required")
	}
	if log == nil {
		log = slog.Default()
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	b := &Backend[T]{log: log, db: db, cfg: cfg}
	if err := b.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backend[T]) ensureSchema(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS toroauth_identities (
			id         TEXT PRIMARY KEY,
			username   TEXT NOT NULL,
			secret     TEXT NOT NULL,
			doc        TEXT NOT NULL,
			created_at INTEGER NOT NULL DEFAULT (unixepoch())
		);
		CREATE INDEX IF NOT EXISTS toroauth_identities_username_idx
			ON toroauth_identities (username);

		CREATE TABLE IF NOT EXISTS toroauth_sessions (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS toroauth_sessions_user_idx
			ON toroauth_sessions (user_id);
	`)
	if err != nil {
		return fmt.Errorf("sqlite: ensure schema: %w", err)
	}
	return nil
}

// Ping checks database reachability.
func (b *Backend[T]) Ping(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", toroauth.ErrServiceUnavailable)
	}
	return nil
}

// Close closes the database handle.
func (b *Backend[T]) Close() error {
	return b.db.Close()
}

// fail logs the raw driver error server-side and returns the taxonomy
// classification that crosses the façade boundary.
func (b *Backend[T]) fail(op string, err error) error {
	kind := toroauth.ErrInternal
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		kind = toroauth.ErrServiceUnavailable
	}
	b.log.Error(op, "err", err)
	return fmt.Errorf("%s: %w", op, kind)
}
