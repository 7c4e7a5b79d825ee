package session

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrConfig is returned for invalid configuration.
var ErrConfig = errors.New("invalid session config")

// Config defines the session lifecycle and transport policy shared by the
// façade and the storage backends.
type Config struct {
	// TTL is the session lifetime from creation to expiry.
	TTL time.Duration

	// TokenBytes is the number of random bytes behind an opaque token.
	TokenBytes int

	// CookieName and CookiePath define the transport credential. The cookie
	// carries the session's expiry as its own.
	CookieName string
	CookiePath string
}

// DefaultConfig returns the reference policy: 10 minute sessions carried by
// a "sessionId" cookie on path "/".
func DefaultConfig() Config {
	return Config{
		TTL:        10 * time.Minute,
		TokenBytes: 32,
		CookieName: "sessionId",
		CookiePath: "/",
	}
}

// LoadConfigFromEnv loads session configuration from environment variables,
// starting from DefaultConfig.
//
// Optional:
//   - TOROAUTH_SESSION_TTL (Go duration, > 0)
//   - TOROAUTH_SESSION_TOKEN_BYTES (32..64)
//   - TOROAUTH_SESSION_COOKIE
//   - TOROAUTH_SESSION_COOKIE_PATH
//
// Returns ErrConfig if a set variable is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("TOROAUTH_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.TTL = d
	}

	if v := os.Getenv("TOROAUTH_SESSION_TOKEN_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 32 || n > 64 {
			return Config{}, ErrConfig
		}
		cfg.TokenBytes = n
	}

	if v := strings.TrimSpace(os.Getenv("TOROAUTH_SESSION_COOKIE")); v != "" {
		cfg.CookieName = v
	}

	if v := strings.TrimSpace(os.Getenv("TOROAUTH_SESSION_COOKIE_PATH")); v != "" {
		cfg.CookiePath = v
	}

	return cfg, nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TTL <= 0 {
		c.TTL = def.TTL
	}
	if c.TokenBytes <= 0 {
		c.TokenBytes = def.TokenBytes
	}
	if strings.TrimSpace(c.CookieName) == "" {
		c.CookieName = def.CookieName
	}
	if strings.TrimSpace(c.CookiePath) == "" {
		c.CookiePath = def.CookiePath
	}
	return c
}
