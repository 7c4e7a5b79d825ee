package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"toroauth"
	"toroauth/ids"
)

// List returns all identities ordered by creation.
func (b *Backend[T]) List(ctx context.Context) ([]T, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT doc FROM toroauth_identities ORDER BY id
	`)
	if err != nil {
		return nil, b.fail("postgres.identity.list", err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, b.fail("postgres.identity.list", err)
		}
		rec, err := decodeDoc[T](doc)
		if err != nil {
			return nil, b.fail("postgres.identity.list", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, b.fail("postgres.identity.list", err)
	}
	if out == nil {
		out = make([]T, 0)
	}
	return out, nil
}

// Create assigns a fresh ULID to rec, overwriting any client-supplied id,
// and inserts it.
func (b *Backend[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T

	id, err := ids.NewULID(time.Now().UTC())
	if err != nil {
		return zero, b.fail("postgres.identity.create", err)
	}
	rec = rec.WithID(id)

	doc, err := json.Marshal(rec)
	if err != nil {
		return zero, b.fail("postgres.identity.create", err)
	}

	_, err = b.pool.Exec(ctx, `
		INSERT INTO toroauth_identities (id, username, secret, doc)
		VALUES ($1, $2, $3, $4)
	`, id, rec.Username(), rec.Secret(), doc)
	if err != nil {
		return zero, b.fail("postgres.identity.create", err)
	}
	return rec, nil
}

// GetByID loads one identity document.
func (b *Backend[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	var doc []byte

	err := b.pool.QueryRow(ctx, `
		SELECT doc FROM toroauth_identities WHERE id = $1
	`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, fmt.Errorf("postgres.identity.get %s: %w", id, toroauth.ErrNotFound)
	}
	if err != nil {
		return zero, b.fail("postgres.identity.get", err)
	}

	rec, err := decodeDoc[T](doc)
	if err != nil {
		return zero, b.fail("postgres.identity.get", err)
	}
	return rec, nil
}

// UpdateByID replaces the stored document, preserving the row id.
func (b *Backend[T]) UpdateByID(ctx context.Context, id string, rec T) error {
	rec = rec.WithID(id)
	doc, err := json.Marshal(rec)
	if err != nil {
		return b.fail("postgres.identity.update", err)
	}

	tag, err := b.pool.Exec(ctx, `
		UPDATE toroauth_identities
		SET username = $2, secret = $3, doc = $4
		WHERE id = $1
	`, id, rec.Username(), rec.Secret(), doc)
	if err != nil {
		return b.fail("postgres.identity.update", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres.identity.update %s: %w", id, toroauth.ErrNotFound)
	}
	return nil
}

// DeleteByID removes one identity row.
func (b *Backend[T]) DeleteByID(ctx context.Context, id string) error {
	tag, err := b.pool.Exec(ctx, `
		DELETE FROM toroauth_identities WHERE id = $1
	`, id)
	if err != nil {
		return b.fail("postgres.identity.delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres.identity.delete %s: %w", id, toroauth.ErrNotFound)
	}
	return nil
}

// SearchByUsername returns identities whose username contains fragment,
// case-insensitively.
func (b *Backend[T]) SearchByUsername(ctx context.Context, fragment string) ([]T, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT doc FROM toroauth_identities
		WHERE username ILIKE '%' || $1 || '%'
		ORDER BY id
	`, fragment)
	if err != nil {
		return nil, b.fail("postgres.identity.search", err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, b.fail("postgres.identity.search", err)
		}
		rec, err := decodeDoc[T](doc)
		if err != nil {
			return nil, b.fail("postgres.identity.search", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, b.fail("postgres.identity.search", err)
	}
	return out, nil
}

func decodeDoc[T any](doc []byte) (T, error) {
	var rec T
	if err := json.Unmarshal(doc, &rec); err != nil {
		return rec, fmt.Errorf("decode doc: %w", err)
	}
	return rec, nil
}
