package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"toroauth"
	"toroauth/password"
	"toroauth/session"
)

// Login verifies credentials against the identity table and persists a new
// session row for the matching identity.
func (b *Backend[T]) Login(ctx context.Context, username, pass string) (session.Session, error) {
	var userID, secret string

	err := b.pool.QueryRow(ctx, `
		SELECT id, secret FROM toroauth_identities WHERE username = $1
	`, username).Scan(&userID, &secret)
	if errors.Is(err, pgx.ErrNoRows) {
		return session.Session{}, fmt.Errorf("postgres.session.login %q: %w", username, toroauth.ErrInvalidLogin)
	}
	if err != nil {
		return session.Session{}, b.fail("postgres.session.login", err)
	}

	if !password.Check(pass, secret) {
		return session.Session{}, fmt.Errorf("postgres.session.login %q: %w", username, toroauth.ErrInvalidLogin)
	}

	sess, err := session.New(userID, time.Now().UTC(), b.cfg)
	if err != nil {
		return session.Session{}, b.fail("postgres.session.login", err)
	}

	_, err = b.pool.Exec(ctx, `
		INSERT INTO toroauth_sessions (id, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`, sess.ID, sess.UserID, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return session.Session{}, b.fail("postgres.session.login", err)
	}

	return sess, nil
}

// Validate resolves token to the owning identity. Expiry is a timestamp
// comparison against the stored deadline; the expired row is left in place.
func (b *Backend[T]) Validate(ctx context.Context, token string) (T, error) {
	var zero T
	var sess session.Session

	err := b.pool.QueryRow(ctx, `
		SELECT id, user_id, created_at, expires_at
		FROM toroauth_sessions WHERE id = $1
	`, token).Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, fmt.Errorf("postgres.session.validate: %w", toroauth.ErrInvalidOrMissingSession)
	}
	if err != nil {
		return zero, b.fail("postgres.session.validate", err)
	}

	if sess.Expired(time.Now().UTC()) {
		return zero, fmt.Errorf("postgres.session.validate: expired: %w", toroauth.ErrInvalidOrMissingSession)
	}

	rec, err := b.GetByID(ctx, sess.UserID)
	if errors.Is(err, toroauth.ErrNotFound) {
		// The session outlived its identity; that is a server fault, not a
		// bad credential.
		return zero, fmt.Errorf("postgres.session.validate: orphaned session: %w", toroauth.ErrInternal)
	}
	if err != nil {
		return zero, err
	}
	return rec, nil
}

// Revoke deletes the session row for token. Unknown tokens are a no-op.
func (b *Backend[T]) Revoke(ctx context.Context, token string) error {
	_, err := b.pool.Exec(ctx, `
		DELETE FROM toroauth_sessions WHERE id = $1
	`, token)
	if err != nil {
		return b.fail("postgres.session.revoke", err)
	}
	return nil
}
