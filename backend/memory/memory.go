// Package memory is an in-process reference backend. It implements the full
// combined contract (identity + session storage, revocation, search) behind
// one mutex, which makes it the default for development and the workhorse
// for tests.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"toroauth"
	"toroauth/ids"
	"toroauth/password"
	"toroauth/session"
)

// Backend stores identities and sessions in maps. All state is guarded by
// mu; the handle is shared across concurrent requests.
type Backend[T toroauth.Identity[T]] struct {
	log *slog.Logger
	cfg session.Config

	// now is the clock used for session lifetimes; tests override it.
	now func() time.Time

	mu         sync.RWMutex
	identities map[string]T
	order      []string
	sessions   map[string]session.Session
}

// New constructs an empty in-memory backend using cfg's session policy.
func New[T toroauth.Identity[T]](log *slog.Logger, cfg session.Config) *Backend[T] {
	if log == nil {
		log = slog.Default()
	}
	return &Backend[T]{
		log:        log,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
		identities: make(map[string]T),
		sessions:   make(map[string]session.Session),
	}
}

// List returns all identities in insertion order.
func (b *Backend[T]) List(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]T, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.identities[id])
	}
	return out, nil
}

// Create stores rec under a fresh server-assigned identifier.
func (b *Backend[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		id, err := ids.NewULID(b.now())
		if err != nil {
			return zero, fmt.Errorf("memory: create: %w", toroauth.ErrInternal)
		}
		if _, taken := b.identities[id]; taken {
			continue
		}
		rec = rec.WithID(id)
		b.identities[id] = rec
		b.order = append(b.order, id)
		return rec, nil
	}
}

// GetByID returns the identity stored under id.
func (b *Backend[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.identities[id]
	if !ok {
		return zero, fmt.Errorf("memory: get %s: %w", id, toroauth.ErrNotFound)
	}
	return rec, nil
}

// UpdateByID replaces the identity stored under id, preserving id itself.
func (b *Backend[T]) UpdateByID(ctx context.Context, id string, rec T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.identities[id]; !ok {
		return fmt.Errorf("memory: update %s: %w", id, toroauth.ErrNotFound)
	}
	b.identities[id] = rec.WithID(id)
	return nil
}

// DeleteByID removes the identity stored under id.
func (b *Backend[T]) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.identities[id]; !ok {
		return fmt.Errorf("memory: delete %s: %w", id, toroauth.ErrNotFound)
	}
	delete(b.identities, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

// SearchByUsername returns identities whose username contains fragment,
// case-insensitively, in insertion order.
func (b *Backend[T]) SearchByUsername(ctx context.Context, fragment string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]T, 0)
	for _, id := range b.order {
		rec := b.identities[id]
		if containsFold(rec.Username(), fragment) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Login verifies credentials and persists a new session for the matching
// identity.
func (b *Backend[T]) Login(ctx context.Context, username, pass string) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return session.Session{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, id := range b.order {
		rec := b.identities[id]
		if rec.Username() != username {
			continue
		}
		if !password.Check(pass, rec.Secret()) {
			break
		}

		sess, err := session.New(rec.ID(), b.now(), b.cfg)
		if err != nil {
			return session.Session{}, fmt.Errorf("memory: login: %w", toroauth.ErrInternal)
		}
		b.sessions[sess.ID] = sess
		return sess, nil
	}

	return session.Session{}, fmt.Errorf("memory: login %q: %w", username, toroauth.ErrInvalidLogin)
}

// Validate resolves token to the owning identity, enforcing expiry by
// timestamp comparison. The expired record is left in place.
func (b *Backend[T]) Validate(ctx context.Context, token string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	sess, ok := b.sessions[token]
	if !ok || sess.Expired(b.now()) {
		return zero, fmt.Errorf("memory: validate: %w", toroauth.ErrInvalidOrMissingSession)
	}

	rec, ok := b.identities[sess.UserID]
	if !ok {
		// The session outlived its identity; that is a server fault, not a
		// bad credential.
		return zero, fmt.Errorf("memory: validate: orphaned session: %w", toroauth.ErrInternal)
	}
	return rec, nil
}

// Revoke deletes the session stored under token. Unknown tokens are a no-op.
func (b *Backend[T]) Revoke(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.sessions, token)
	return nil
}

// Ping reports backend health (always healthy in-process).
func (b *Backend[T]) Ping(_ context.Context) error { return nil }

// Close releases the backend (noop for in-memory).
func (b *Backend[T]) Close() error { return nil }

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
