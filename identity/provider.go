package identity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"toroauth"
	"toroauth/internal/httpx"
)

// maxIDLen bounds path identifiers before they reach a backend.
const maxIDLen = 128

// Authenticator resolves a request's transport credential to an
// authenticated identity. The session façade implements it; the identity
// façade depends only on this seam, never on the cookie itself.
type Authenticator[T any] interface {
	FromRequest(r *http.Request) (T, error)
}

// Provider is the generic identity façade: a CRUD surface over the backend
// contract with projection and ownership enforcement. It is stateless per
// call and safe for concurrent use.
type Provider[T toroauth.Record[T, P], P any] struct {
	log     *slog.Logger
	backend Backend[T]
	auth    Authenticator[T]
}

// NewProvider constructs an identity façade over backend. auth gates the
// mutation routes; a nil log falls back to slog.Default().
func NewProvider[T toroauth.Record[T, P], P any](log *slog.Logger, backend Backend[T], auth Authenticator[T]) *Provider[T, P] {
	if log == nil {
		log = slog.Default()
	}
	return &Provider[T, P]{log: log, backend: backend, auth: auth}
}

// List returns all identities. Callers serializing the result to the network
// must project; the HTTP handler below does.
func (p *Provider[T, P]) List(ctx context.Context) ([]T, error) {
	return p.backend.List(ctx)
}

// Create stores a new identity. Any client-supplied identifier is stripped
// here and reassigned by the backend.
func (p *Provider[T, P]) Create(ctx context.Context, rec T) (T, error) {
	return p.backend.Create(ctx, rec.WithID(""))
}

// GetByID returns the identity with the given id.
func (p *Provider[T, P]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	if err := validID(id); err != nil {
		return zero, err
	}
	return p.backend.GetByID(ctx, id)
}

// UpdateByID replaces the identity with the given id. The stored identifier
// is preserved regardless of what the replacement record carries.
func (p *Provider[T, P]) UpdateByID(ctx context.Context, id string, rec T) error {
	if err := validID(id); err != nil {
		return err
	}
	return p.backend.UpdateByID(ctx, id, rec.WithID(id))
}

// DeleteByID removes the identity with the given id.
func (p *Provider[T, P]) DeleteByID(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	return p.backend.DeleteByID(ctx, id)
}

func validID(id string) error {
	if strings.TrimSpace(id) == "" || len(id) > maxIDLen {
		return fmt.Errorf("identity: bad identifier: %w", toroauth.ErrInvalidID)
	}
	return nil
}

// Register wires the identity routes onto mux. The search route is only
// registered when the backend supports it.
func (p *Provider[T, P]) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /identity", p.handleList)
	mux.HandleFunc("POST /identity", p.handleCreate)
	mux.HandleFunc("GET /identity/{id}", p.handleGet)
	mux.HandleFunc("PUT /identity/{id}", p.handleUpdate)
	mux.HandleFunc("DELETE /identity/{id}", p.handleDelete)
	if _, ok := p.backend.(Searcher[T]); ok {
		mux.HandleFunc("GET /identity/search", p.handleSearch)
	}
}

func project[T toroauth.Record[T, P], P any](recs []T) []P {
	out := make([]P, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Public())
	}
	return out
}

func (p *Provider[T, P]) handleList(w http.ResponseWriter, r *http.Request) {
	recs, err := p.List(r.Context())
	if err != nil {
		p.log.Error("identity.list.fail", "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, project[T, P](recs))
}

func (p *Provider[T, P]) handleCreate(w http.ResponseWriter, r *http.Request) {
	var rec T
	if err := httpx.DecodeJSON(w, r, httpx.DefaultMaxBody, &rec); err != nil {
		p.log.Warn("identity.create.bad_request", "err", err)
		httpx.WriteError(w, fmt.Errorf("identity.create: %w", toroauth.ErrInvalidID))
		return
	}

	if _, err := p.Create(r.Context(), rec); err != nil {
		p.log.Error("identity.create.fail", "err", err)
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (p *Provider[T, P]) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := p.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		p.log.Warn("identity.get.fail", "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rec.Public())
}

func (p *Provider[T, P]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !p.authorizeOwner(w, r, id, "identity.update") {
		return
	}

	var rec T
	if err := httpx.DecodeJSON(w, r, httpx.DefaultMaxBody, &rec); err != nil {
		p.log.Warn("identity.update.bad_request", "err", err)
		httpx.WriteError(w, fmt.Errorf("identity.update: %w", toroauth.ErrInvalidID))
		return
	}

	if err := p.UpdateByID(r.Context(), id, rec); err != nil {
		p.log.Error("identity.update.fail", "id", id, "err", err)
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (p *Provider[T, P]) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !p.authorizeOwner(w, r, id, "identity.delete") {
		return
	}

	if err := p.DeleteByID(r.Context(), id); err != nil {
		p.log.Error("identity.delete.fail", "id", id, "err", err)
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (p *Provider[T, P]) handleSearch(w http.ResponseWriter, r *http.Request) {
	searcher := p.backend.(Searcher[T])
	recs, err := searcher.SearchByUsername(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		p.log.Error("identity.search.fail", "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, project[T, P](recs))
}

// authorizeOwner enforces the mutation rule: a resolved session whose
// identity id equals the target id. It fails closed before any backend
// mutation and writes the rejection itself.
func (p *Provider[T, P]) authorizeOwner(w http.ResponseWriter, r *http.Request, id, op string) bool {
	if err := validID(id); err != nil {
		httpx.WriteError(w, err)
		return false
	}

	caller, err := p.auth.FromRequest(r)
	if err != nil {
		p.log.Warn(op+".unauthenticated", "id", id, "err", err)
		httpx.WriteError(w, err)
		return false
	}
	if caller.ID() != id {
		p.log.Warn(op+".forbidden", "id", id, "caller_id", caller.ID())
		httpx.WriteError(w, fmt.Errorf("%s: owner mismatch: %w", op, toroauth.ErrUnauthorized))
		return false
	}
	return true
}
