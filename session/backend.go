package session

import "context"

// Backend is the session storage capability a backend must provide.
//
// Login verifies credentials against the identity store, persists a new
// session, and returns it. It fails with toroauth.ErrInvalidLogin when the
// credentials match no identity and toroauth.ErrInternal on a storage fault.
//
// Validate resolves a token to the owning identity, enforcing expiry by
// timestamp comparison. It fails with toroauth.ErrInvalidOrMissingSession
// when the token is unknown or expired, and toroauth.ErrInternal when the
// session points at an identity that no longer exists.
//
// Implementations own all query construction and must be safe for
// concurrent use; the façade never serializes access.
type Backend[T any] interface {
	Login(ctx context.Context, username, password string) (Session, error)
	Validate(ctx context.Context, token string) (T, error)
}

// Revoker is the optional revocation facet. Backends that implement it get a
// logout route registered by the composition root. Revoke deletes the
// session record; revoking an unknown token is not an error.
type Revoker interface {
	Revoke(ctx context.Context, token string) error
}
