// Package toroauth is a reusable authentication and identity substrate for
// HTTP services.
//
// It issues and validates opaque session tokens and exposes generic CRUD
// operations over an application-defined identity record, while delegating
// all persistence to a pluggable storage backend. The package tree is split
// the same way the contract is:
//
//   - toroauth (this package) holds the identity capability contract and the
//     closed error taxonomy shared by every façade and backend.
//   - identity and session hold the storage contracts and the generic
//     operation façades (including HTTP handlers).
//   - provider is the composition root that binds one shared backend to both
//     façades and registers the full route table.
//   - backend/memory, backend/postgres and backend/sqlite are reference
//     implementations of the combined contract.
//
// The application binds the generic parameters exactly once, at the
// composition root, by supplying its own record type.
package toroauth

// Identity is the minimal capability an application user record must expose
// to the auth core: a server-assigned unique identifier and enough identity
// to authorize against.
//
// Records are treated as values. WithID returns a copy carrying the given
// identifier; backends use it to overwrite any client-supplied id on create.
// Secret is the stored credential compared at login. It must never appear in
// a public view and façades never serialize a raw record on projected routes.
type Identity[T any] interface {
	ID() string
	WithID(id string) T
	Username() string
	Secret() string
}

// Record is the full contract the façades require: an Identity plus a
// public-view projection safe to return over the network. The projection is
// an explicit mapping, not a subtype relationship, so the compiler enforces
// that sensitive fields can only leak if Public itself copies them.
type Record[T, P any] interface {
	Identity[T]
	Public() P
}
