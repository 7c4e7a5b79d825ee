// Package identity implements the identity half of the auth substrate: the
// storage contract for application user records and the generic CRUD façade
// exposing them over HTTP.
//
// The façade adds two guarantees on top of plain pass-through: every read
// that leaves the process applies the record's public-view projection, and
// every mutation of /identity/{id} requires a resolved session whose
// identity matches the target id, checked before the backend is touched.
package identity
