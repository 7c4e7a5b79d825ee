// Package provider is the composition root of the auth substrate. It binds
// one shared backend instance to a session façade and an identity façade and
// registers the full route table. This is the only place the generic
// parameters (record type, public view, backend) meet concretely.
package provider

import (
	"context"
	"log/slog"
	"net/http"

	"toroauth"
	"toroauth/identity"
	"toroauth/session"
)

// Backend is the combined capability contract: one storage implementation
// providing both the identity and the session facets over one underlying
// handle. The handle is shared across all façades and concurrent requests;
// implementations carry their own synchronization.
type Backend[T any] interface {
	identity.Backend[T]
	session.Backend[T]
}

// AuthProvider wires the two façades over one backend.
type AuthProvider[T toroauth.Record[T, P], P any] struct {
	log        *slog.Logger
	sessions   *session.Provider[T]
	identities *identity.Provider[T, P]
}

type settings struct {
	log *slog.Logger
	cfg session.Config
}

// Option configures the provider.
type Option func(*settings)

// WithLogger sets the logger shared by both façades.
func WithLogger(log *slog.Logger) Option {
	return func(s *settings) {
		if log != nil {
			s.log = log
		}
	}
}

// WithSessionConfig overrides the default session lifecycle policy. The
// backend must be constructed with the same policy; the façade only uses it
// for transport.
func WithSessionConfig(cfg session.Config) Option {
	return func(s *settings) { s.cfg = cfg }
}

// New builds an AuthProvider over backend.
func New[T toroauth.Record[T, P], P any](backend Backend[T], opts ...Option) *AuthProvider[T, P] {
	s := settings{log: slog.Default(), cfg: session.DefaultConfig()}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}

	sessions := session.NewProvider[T](s.log, backend, s.cfg)
	identities := identity.NewProvider[T, P](s.log, backend, sessions)

	return &AuthProvider[T, P]{
		log:        s.log,
		sessions:   sessions,
		identities: identities,
	}
}

// Register wires all routes onto mux:
//
//	GET    /identity
//	POST   /identity
//	GET    /identity/{id}
//	PUT    /identity/{id}        (owner session required)
//	DELETE /identity/{id}        (owner session required)
//	POST   /session/login
//	GET    /session/validate     (session required)
//	POST   /session/logout       (when the backend supports revocation)
//	GET    /identity/search      (when the backend supports search)
func (p *AuthProvider[T, P]) Register(mux *http.ServeMux) {
	p.identities.Register(mux)
	p.sessions.Register(mux)
}

// Sessions returns the session façade.
func (p *AuthProvider[T, P]) Sessions() *session.Provider[T] { return p.sessions }

// Identities returns the identity façade.
func (p *AuthProvider[T, P]) Identities() *identity.Provider[T, P] { return p.identities }

// ValidateSession resolves a raw token to an authenticated identity. It is
// the programmatic form of the request-scoped resolver, for callers that
// gate non-HTTP work on a session.
func (p *AuthProvider[T, P]) ValidateSession(ctx context.Context, token string) (T, error) {
	return p.sessions.Validate(ctx, token)
}
