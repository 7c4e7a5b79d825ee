package provider_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"toroauth/backend/memory"
	"toroauth/password"
	"toroauth/provider"
	"toroauth/session"
)

type testUser struct {
	UserID   string `json:"id,omitempty"`
	Name     string `json:"username"`
	Password string `json:"password,omitempty"`
}

func (u testUser) ID() string       { return u.UserID }
func (u testUser) Username() string { return u.Name }
func (u testUser) Secret() string   { return u.Password }

func (u testUser) WithID(id string) testUser {
	u.UserID = id
	return u
}

func (u testUser) Public() publicUser {
	return publicUser{ID: u.UserID, Username: u.Name}
}

type publicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// newService stands up the full route table over a memory backend with one
// seeded identity, plus a client carrying cookies like a browser would.
func newService(t *testing.T) (*httptest.Server, *http.Client, testUser) {
	t.Helper()

	backend := memory.New[testUser](nil, session.DefaultConfig())

	hash, err := password.Hash("hunter2secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	seeded, err := backend.Create(context.Background(), testUser{Name: "ada", Password: hash})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	auth := provider.New[testUser, publicUser](backend)
	mux := http.NewServeMux()
	auth.Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	client := &http.Client{Jar: jar}

	return srv, client, seeded
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, raw
}

func TestLoginValidateDeleteFlow(t *testing.T) {
	srv, client, seeded := newService(t)

	// Login with bad credentials: no cookie, no session.
	res, _ := doJSON(t, client, http.MethodPost, srv.URL+"/session/login",
		map[string]string{"username": "ada", "password": "wrong"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status=%d", res.StatusCode)
	}

	// Validate without a session: fails closed.
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/session/validate", nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated validate status=%d", res.StatusCode)
	}

	// Login for real: 200 plus the session cookie.
	res, raw := doJSON(t, client, http.MethodPost, srv.URL+"/session/login",
		map[string]string{"username": "ada", "password": "hunter2secret"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status=%d body=%s", res.StatusCode, raw)
	}

	u, _ := url.Parse(srv.URL)
	var sessionCookie *http.Cookie
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == "sessionId" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("no session cookie after login")
	}

	// Validate returns the full identity.
	res, raw = doJSON(t, client, http.MethodGet, srv.URL+"/session/validate", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("validate status=%d body=%s", res.StatusCode, raw)
	}
	var me testUser
	if err := json.Unmarshal(raw, &me); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if me.ID() != seeded.ID() || me.Username() != "ada" {
		t.Fatalf("me=%+v want id=%s", me, seeded.ID())
	}

	// The session owner may delete their own identity.
	res, _ = doJSON(t, client, http.MethodDelete, srv.URL+"/identity/"+seeded.ID(), nil)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status=%d", res.StatusCode)
	}

	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/identity/"+seeded.ID(), nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status=%d", res.StatusCode)
	}
}

func TestMutationByNonOwnerLeavesRecordIntact(t *testing.T) {
	srv, client, _ := newService(t)

	// Create a second identity through the public route.
	res, _ := doJSON(t, client, http.MethodPost, srv.URL+"/identity",
		testUser{Name: "eve", Password: "pw"})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status=%d", res.StatusCode)
	}

	res, raw := doJSON(t, client, http.MethodGet, srv.URL+"/identity", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list status=%d", res.StatusCode)
	}
	var all []publicUser
	if err := json.Unmarshal(raw, &all); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("listed %d identities", len(all))
	}
	var eveID string
	for _, pu := range all {
		if pu.Username == "eve" {
			eveID = pu.ID
		}
	}
	if eveID == "" {
		t.Fatal("eve not listed")
	}

	// Log in as ada and try to rewrite eve.
	res, _ = doJSON(t, client, http.MethodPost, srv.URL+"/session/login",
		map[string]string{"username": "ada", "password": "hunter2secret"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status=%d", res.StatusCode)
	}

	res, _ = doJSON(t, client, http.MethodPut, srv.URL+"/identity/"+eveID,
		testUser{Name: "owned", Password: "pw"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("cross-owner update status=%d", res.StatusCode)
	}

	res, raw = doJSON(t, client, http.MethodGet, srv.URL+"/identity/"+eveID, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get status=%d", res.StatusCode)
	}
	if !strings.Contains(string(raw), `"eve"`) {
		t.Fatalf("record changed: %s", raw)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	srv, client, _ := newService(t)

	res, _ := doJSON(t, client, http.MethodPost, srv.URL+"/session/login",
		map[string]string{"username": "ada", "password": "hunter2secret"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status=%d", res.StatusCode)
	}

	res, _ = doJSON(t, client, http.MethodPost, srv.URL+"/session/logout", nil)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status=%d", res.StatusCode)
	}

	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/session/validate", nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("validate after logout status=%d", res.StatusCode)
	}
}

func TestListNeverLeaksCredentials(t *testing.T) {
	srv, client, _ := newService(t)

	res, raw := doJSON(t, client, http.MethodGet, srv.URL+"/identity", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list status=%d", res.StatusCode)
	}
	if strings.Contains(string(raw), "argon2id") || strings.Contains(string(raw), "password") {
		t.Fatalf("credential leaked: %s", raw)
	}
}

func TestValidateSessionProgrammatic(t *testing.T) {
	backend := memory.New[testUser](nil, session.DefaultConfig())

	hash, err := password.Hash("hunter2secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	seeded, err := backend.Create(context.Background(), testUser{Name: "ada", Password: hash})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	auth := provider.New[testUser, publicUser](backend)

	sess, err := auth.Sessions().Login(context.Background(), "ada", "hunter2secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	got, err := auth.ValidateSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if got.ID() != seeded.ID() {
		t.Fatalf("got id=%q want=%q", got.ID(), seeded.ID())
	}
}
