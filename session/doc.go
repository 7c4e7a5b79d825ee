// Package session implements the session half of the auth substrate: the
// session entity, opaque token minting, the storage contract a backend must
// satisfy, and the generic façade exposing login/validate over HTTP.
//
// Sessions are created only by a successful login and are never mutated.
// Expiry is enforced by comparing timestamps at validate time; there is no
// background eviction. Every validate call re-checks the backend, so
// revocation takes effect immediately.
//
// The façade's FromRequest is the only code path that turns a raw transport
// credential (the session cookie) into a trusted identity. All authorization
// logic composes on its result.
package session
