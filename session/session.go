package session

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// Session is a time-bounded credential binding an opaque token to one
// identity. ID is the token itself: cryptographically unpredictable and
// unique among live sessions. Sessions are immutable once created.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session's deadline has passed at now.
// The check is idempotent and does not depend on the record being deleted.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// New mints a session for userID per cfg. Backends call this on successful
// login so that token entropy and lifetime policy stay in one place.
func New(userID string, now time.Time, cfg Config) (Session, error) {
	cfg = cfg.withDefaults()
	if now.IsZero() {
		now = time.Now().UTC()
	}

	token, err := NewToken(cfg.TokenBytes)
	if err != nil {
		return Session{}, err
	}

	return Session{
		ID:        token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(cfg.TTL),
	}, nil
}

// NewToken returns an opaque token of nBytes random bytes, URL-safe base64
// encoded without padding.
func NewToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = DefaultConfig().TokenBytes
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
