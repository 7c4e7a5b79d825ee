package identity

import "context"

// Backend is the identity storage capability a backend must provide.
//
// Create assigns the identifier server-side, overwriting any client-supplied
// value, and returns the stored record. GetByID, UpdateByID and DeleteByID
// fail with toroauth.ErrNotFound when nothing matches the id. Storage faults
// are classified into the toroauth taxonomy before they cross this boundary;
// the façade never sees driver errors.
//
// Implementations must be safe for concurrent use.
type Backend[T any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, rec T) (T, error)
	GetByID(ctx context.Context, id string) (T, error)
	UpdateByID(ctx context.Context, id string, rec T) error
	DeleteByID(ctx context.Context, id string) error
}

// Searcher is the optional username-search facet. Backends that implement it
// get a search route registered by the façade. The match is a
// case-insensitive substring match on the username.
type Searcher[T any] interface {
	SearchByUsername(ctx context.Context, fragment string) ([]T, error)
}
