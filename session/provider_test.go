package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"toroauth"
)

type stubUser struct {
	UserID string `json:"id"`
	Name   string `json:"username"`
}

type stubBackend struct {
	sess     Session
	loginErr error
	rec      stubUser
	valErr   error

	logins    int
	validates int
}

func (s *stubBackend) Login(_ context.Context, _, _ string) (Session, error) {
	s.logins++
	if s.loginErr != nil {
		return Session{}, s.loginErr
	}
	return s.sess, nil
}

func (s *stubBackend) Validate(_ context.Context, _ string) (stubUser, error) {
	s.validates++
	if s.valErr != nil {
		return stubUser{}, s.valErr
	}
	return s.rec, nil
}

type revokingBackend struct {
	stubBackend
	revoked []string
}

func (r *revokingBackend) Revoke(_ context.Context, token string) error {
	r.revoked = append(r.revoked, token)
	return nil
}

func newTestMux(backend Backend[stubUser]) (*Provider[stubUser], *http.ServeMux) {
	p := NewProvider(nil, backend, DefaultConfig())
	mux := http.NewServeMux()
	p.Register(mux)
	return p, mux
}

func TestLoginSetsCookie(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	backend := &stubBackend{
		sess: Session{ID: "tok-1", UserID: "u-1", CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute)},
	}
	_, mux := newTestMux(backend)

	req := httptest.NewRequest(http.MethodPost, "/session/login", strings.NewReader(`{"username":"ada","password":"hunter2"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies", len(cookies))
	}
	c := cookies[0]
	if c.Name != "sessionId" || c.Value != "tok-1" || c.Path != "/" {
		t.Fatalf("cookie=%+v", c)
	}
	if !c.HttpOnly {
		t.Fatal("cookie not HttpOnly")
	}
	if c.Expires.Unix() != backend.sess.ExpiresAt.Unix() {
		t.Fatalf("cookie expires=%v want=%v", c.Expires, backend.sess.ExpiresAt)
	}

	if !strings.Contains(rec.Body.String(), `"user_id":"u-1"`) {
		t.Fatalf("body=%s", rec.Body.String())
	}
}

func TestLoginRejectsBlankCredentials(t *testing.T) {
	backend := &stubBackend{}
	_, mux := newTestMux(backend)

	for _, body := range []string{
		`{"username":"","password":"x"}`,
		`{"username":"ada","password":""}`,
		`{"username":`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/session/login", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("body %q: status=%d", body, rec.Code)
		}
	}
	if backend.logins != 0 {
		t.Fatalf("backend reached %d times for bad requests", backend.logins)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	backend := &stubBackend{loginErr: toroauth.ErrInvalidLogin}
	_, mux := newTestMux(backend)

	req := httptest.NewRequest(http.MethodPost, "/session/login", strings.NewReader(`{"username":"ada","password":"wrong"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("cookie set on failed login")
	}
}

func TestValidateMissingCookieFailsClosed(t *testing.T) {
	backend := &stubBackend{rec: stubUser{UserID: "u-1", Name: "ada"}}
	_, mux := newTestMux(backend)

	req := httptest.NewRequest(http.MethodGet, "/session/validate", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rec.Code)
	}
	if backend.validates != 0 {
		t.Fatal("backend reached without a token")
	}
}

func TestValidateEmptyTokenSkipsBackend(t *testing.T) {
	backend := &stubBackend{}
	p := NewProvider(nil, backend, DefaultConfig())

	_, err := p.Validate(context.Background(), "   ")
	if !errors.Is(err, toroauth.ErrInvalidOrMissingSession) {
		t.Fatalf("err=%v", err)
	}
	if backend.validates != 0 {
		t.Fatal("backend reached for empty token")
	}
}

func TestValidateReturnsFullIdentity(t *testing.T) {
	backend := &stubBackend{rec: stubUser{UserID: "u-1", Name: "ada"}}
	_, mux := newTestMux(backend)

	req := httptest.NewRequest(http.MethodGet, "/session/validate", nil)
	req.AddCookie(&http.Cookie{Name: "sessionId", Value: "tok-1"})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"id":"u-1"`) || !strings.Contains(body, `"username":"ada"`) {
		t.Fatalf("body=%s", body)
	}
}

func TestValidateExpiredOrUnknownToken(t *testing.T) {
	backend := &stubBackend{valErr: toroauth.ErrInvalidOrMissingSession}
	_, mux := newTestMux(backend)

	req := httptest.NewRequest(http.MethodGet, "/session/validate", nil)
	req.AddCookie(&http.Cookie{Name: "sessionId", Value: "stale"})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestLogoutRequiresRevoker(t *testing.T) {
	_, mux := newTestMux(&stubBackend{})

	req := httptest.NewRequest(http.MethodPost, "/session/logout", nil)
	req.AddCookie(&http.Cookie{Name: "sessionId", Value: "tok-1"})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("logout route registered without revocation support: status=%d", rec.Code)
	}
}

func TestLogoutRevokesAndClearsCookie(t *testing.T) {
	backend := &revokingBackend{}
	p := NewProvider[stubUser](nil, backend, DefaultConfig())
	mux := http.NewServeMux()
	p.Register(mux)

	req := httptest.NewRequest(http.MethodPost, "/session/logout", nil)
	req.AddCookie(&http.Cookie{Name: "sessionId", Value: "tok-1"})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status=%d", rec.Code)
	}
	if len(backend.revoked) != 1 || backend.revoked[0] != "tok-1" {
		t.Fatalf("revoked=%v", backend.revoked)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %+v", cookies)
	}
}

func TestLogoutWithoutCookie(t *testing.T) {
	backend := &revokingBackend{}
	p := NewProvider[stubUser](nil, backend, DefaultConfig())
	mux := http.NewServeMux()
	p.Register(mux)

	req := httptest.NewRequest(http.MethodPost, "/session/logout", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rec.Code)
	}
	if len(backend.revoked) != 0 {
		t.Fatal("revoke called without a token")
	}
}
