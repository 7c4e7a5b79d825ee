package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"toroauth"
	"toroauth/internal/httpx"
)

// Provider is the generic session façade. It delegates to one shared backend
// and holds no state beyond configuration, so it is safe for concurrent use.
type Provider[T any] struct {
	log     *slog.Logger
	cfg     Config
	backend Backend[T]
}

// NewProvider constructs a session façade over backend. A nil log falls back
// to slog.Default().
func NewProvider[T any](log *slog.Logger, backend Backend[T], cfg Config) *Provider[T] {
	if log == nil {
		log = slog.Default()
	}
	return &Provider[T]{log: log, cfg: cfg.withDefaults(), backend: backend}
}

// Config returns the effective session configuration.
func (p *Provider[T]) Config() Config { return p.cfg }

// Login delegates credential verification and session creation to the
// backend. Encoding the returned token as a transport credential is the
// caller's concern; the handler below does it for HTTP.
func (p *Provider[T]) Login(ctx context.Context, username, password string) (Session, error) {
	sess, err := p.backend.Login(ctx, username, password)
	if err != nil {
		p.log.Warn("session.login.fail", "username", username, "err", err)
		return Session{}, err
	}
	p.log.Info("session.login.ok", "user_id", sess.UserID)
	return sess, nil
}

// Validate resolves a token to its identity. This is the sole trust
// boundary: every authorization decision in the system derives from a
// successful call here. A missing or empty token fails identically to an
// invalid one, without reaching the backend.
func (p *Provider[T]) Validate(ctx context.Context, token string) (T, error) {
	var zero T
	if strings.TrimSpace(token) == "" {
		return zero, fmt.Errorf("session.validate: empty token: %w", toroauth.ErrInvalidOrMissingSession)
	}
	rec, err := p.backend.Validate(ctx, token)
	if err != nil {
		return zero, err
	}
	return rec, nil
}

// FromRequest is the request-scoped resolver: it reads the session cookie
// and validates it, yielding the authenticated identity or a rejection. An
// absent cookie fails closed without a backend call.
func (p *Provider[T]) FromRequest(r *http.Request) (T, error) {
	var zero T
	c, err := r.Cookie(p.cfg.CookieName)
	if err != nil {
		return zero, fmt.Errorf("session.resolve: no cookie: %w", toroauth.ErrInvalidOrMissingSession)
	}
	return p.Validate(r.Context(), c.Value)
}

// Register wires the session routes onto mux. The logout route is only
// registered when the backend supports revocation.
func (p *Provider[T]) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /session/login", p.handleLogin)
	mux.HandleFunc("GET /session/validate", p.handleValidate)
	if _, ok := p.backend.(Revoker); ok {
		mux.HandleFunc("POST /session/logout", p.handleLogout)
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (p *Provider[T]) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, httpx.DefaultMaxBody, &req); err != nil {
		p.log.Warn("session.login.bad_request", "err", err)
		httpx.WriteError(w, toroauth.ErrInvalidLogin)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		httpx.WriteError(w, toroauth.ErrInvalidLogin)
		return
	}

	sess, err := p.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     p.cfg.CookieName,
		Value:    sess.ID,
		Path:     p.cfg.CookiePath,
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
	})
	httpx.WriteJSON(w, http.StatusOK, loginResponse{UserID: sess.UserID, ExpiresAt: sess.ExpiresAt})
}

func (p *Provider[T]) handleValidate(w http.ResponseWriter, r *http.Request) {
	rec, err := p.FromRequest(r)
	if err != nil {
		p.log.Warn("session.validate.fail", "err", err)
		httpx.WriteError(w, err)
		return
	}
	// The validate route returns the full identity to its owner, by
	// contract. Projected views belong to the identity routes.
	httpx.WriteJSON(w, http.StatusOK, rec)
}

func (p *Provider[T]) handleLogout(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(p.cfg.CookieName)
	if err != nil || strings.TrimSpace(c.Value) == "" {
		httpx.WriteError(w, toroauth.ErrInvalidOrMissingSession)
		return
	}

	rev := p.backend.(Revoker)
	if err := rev.Revoke(r.Context(), c.Value); err != nil {
		p.log.Error("session.logout.fail", "err", err)
		httpx.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     p.cfg.CookieName,
		Value:    "",
		Path:     p.cfg.CookiePath,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}
