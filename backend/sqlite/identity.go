package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"toroauth"
	"toroauth/ids"
)

// List returns all identities ordered by creation.
func (b *Backend[T]) List(ctx context.Context) ([]T, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT doc FROM toroauth_identities ORDER BY id
	`)
	if err != nil {
		return nil, b.fail("sqlite.identity.list", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]T, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, b.fail("sqlite.identity.list", err)
		}
		rec, err := decodeDoc[T](doc)
		if err != nil {
			return nil, b.fail("sqlite.identity.list", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, b.fail("sqlite.identity.list", err)
	}
	return out, nil
}

// Create assigns a fresh ULID to rec, overwriting any client-supplied id,
// and inserts it.
func (b *Backend[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T

	id, err := ids.NewULID(time.Now().UTC())
	if err != nil {
		return zero, b.fail("sqlite.identity.create", err)
	}
	rec = rec.WithID(id)

	doc, err := json.Marshal(rec)
	if err != nil {
		return zero, b.fail("sqlite.identity.create", err)
	}

	_, err = b.db.ExecContext(ctx, `
		INSERT INTO toroauth_identities (id, username, secret, doc)
		VALUES (?, ?, ?, ?)
	`, id, rec.Username(), rec.Secret(), string(doc))
	if err != nil {
		return zero, b.fail("sqlite.identity.create", err)
	}
	return rec, nil
}

// GetByID loads one identity document.
func (b *Backend[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	var doc string

	err := b.db.QueryRowContext(ctx, `
		SELECT doc FROM toroauth_identities WHERE id = ?
	`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, fmt.Errorf("sqlite.identity.get %s: %w", id, toroauth.ErrNotFound)
	}
	if err != nil {
		return zero, b.fail("sqlite.identity.get", err)
	}

	rec, err := decodeDoc[T](doc)
	if err != nil {
		return zero, b.fail("sqlite.identity.get", err)
	}
	return rec, nil
}

// UpdateByID replaces the stored document, preserving the row id.
func (b *Backend[T]) UpdateByID(ctx context.Context, id string, rec T) error {
	rec = rec.WithID(id)
	doc, err := json.Marshal(rec)
	if err != nil {
		return b.fail("sqlite.identity.update", err)
	}

	res, err := b.db.ExecContext(ctx, `
		UPDATE toroauth_identities
		SET username = ?, secret = ?, doc = ?
		WHERE id = ?
	`, rec.Username(), rec.Secret(), string(doc), id)
	if err != nil {
		return b.fail("sqlite.identity.update", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return b.fail("sqlite.identity.update", err)
	} else if n == 0 {
		return fmt.Errorf("sqlite.identity.update %s: %w", id, toroauth.ErrNotFound)
	}
	return nil
}

// DeleteByID removes one identity row.
func (b *Backend[T]) DeleteByID(ctx context.Context, id string) error {
	res, err := b.db.ExecContext(ctx, `
		DELETE FROM toroauth_identities WHERE id = ?
	`, id)
	if err != nil {
		return b.fail("sqlite.identity.delete", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return b.fail("sqlite.identity.delete", err)
	} else if n == 0 {
		return fmt.Errorf("sqlite.identity.delete %s: %w", id, toroauth.ErrNotFound)
	}
	return nil
}

// SearchByUsername returns identities whose username contains fragment,
// case-insensitively.
func (b *Backend[T]) SearchByUsername(ctx context.Context, fragment string) ([]T, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT doc FROM toroauth_identities
		WHERE username LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY id
	`, fragment)
	if err != nil {
		return nil, b.fail("sqlite.identity.search", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]T, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, b.fail("sqlite.identity.search", err)
		}
		rec, err := decodeDoc[T](doc)
		if err != nil {
			return nil, b.fail("sqlite.identity.search", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, b.fail("sqlite.identity.search", err)
	}
	return out, nil
}

func decodeDoc[T any](doc string) (T, error) {
	var rec T
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return rec, fmt.Errorf("decode doc: %w", err)
	}
	return rec, nil
}
