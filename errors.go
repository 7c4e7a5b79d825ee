package toroauth

import (
	"errors"
	"net/http"
)

// Closed error taxonomy. Backends classify storage faults into these
// sentinels at the façade boundary; raw driver errors never cross it.
// Callers test membership with errors.Is.
var (
	// ErrNotFound reports that the addressed identity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized reports a failed ownership check: the request carried a
	// valid session, but for a different identity than the target.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidLogin reports that login credentials matched no identity.
	ErrInvalidLogin = errors.New("invalid login")

	// ErrInvalidOrMissingSession reports an absent, unknown or expired
	// session token. A missing token is deliberately indistinguishable from
	// an invalid one.
	ErrInvalidOrMissingSession = errors.New("invalid or missing session")

	// ErrServiceUnavailable reports that the storage backend is unreachable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInternal reports an unexpected fault. It is also the mapping target
	// for any error outside the taxonomy.
	ErrInternal = errors.New("internal error")

	// ErrInvalidID reports a malformed identity identifier.
	ErrInvalidID = errors.New("invalid id")
)

// HTTPStatus maps a taxonomy member to its transport status code.
// Errors outside the taxonomy map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidLogin),
		errors.Is(err, ErrInvalidOrMissingSession):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode maps a taxonomy member to the stable machine-readable code used
// in error response envelopes. The client-facing message is the sentinel
// text; wrapped detail stays server-side.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidLogin):
		return "invalid_login"
	case errors.Is(err, ErrInvalidOrMissingSession):
		return "invalid_session"
	case errors.Is(err, ErrInvalidID):
		return "invalid_id"
	case errors.Is(err, ErrServiceUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}

// ErrorMessage returns the client-safe message for err: the taxonomy
// sentinel's own text, never the wrapped internal detail.
func ErrorMessage(err error) string {
	for _, kind := range []error{
		ErrNotFound, ErrUnauthorized, ErrInvalidLogin,
		ErrInvalidOrMissingSession, ErrInvalidID, ErrServiceUnavailable,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return ErrInternal.Error()
}
