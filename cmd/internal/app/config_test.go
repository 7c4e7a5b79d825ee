package app

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.HTTPAddr != "0.0.0.0:8080" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
	if cfg.Backend != BackendMemory {
		t.Fatalf("Backend=%q", cfg.Backend)
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Fatalf("ReadTimeout=%v", cfg.ReadTimeout)
	}
	if !cfg.MetricsEnabled {
		t.Fatal("metrics disabled by default")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("TOROAUTH_HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("TOROAUTH_BACKEND", BackendSQLite)
	t.Setenv("TOROAUTH_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("TOROAUTH_HTTP_READ_TIMEOUT", "30s")
	t.Setenv("TOROAUTH_METRICS_ENABLED", "false")
	t.Setenv("TOROAUTH_DB_MAX_CONNS", "25")

	cfg := LoadConfig()

	if cfg.HTTPAddr != "127.0.0.1:9999" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
	if cfg.Backend != BackendSQLite || cfg.SQLitePath != "/tmp/x.db" {
		t.Fatalf("backend=%q path=%q", cfg.Backend, cfg.SQLitePath)
	}
	if cfg.ReadTimeout != 30*time.Second {
		t.Fatalf("ReadTimeout=%v", cfg.ReadTimeout)
	}
	if cfg.MetricsEnabled {
		t.Fatal("metrics enabled despite env override")
	}
	if cfg.DBMaxConns != 25 {
		t.Fatalf("DBMaxConns=%d", cfg.DBMaxConns)
	}
}

func TestEnvHelpersIgnoreGarbage(t *testing.T) {
	t.Setenv("TOROAUTH_HTTP_READ_TIMEOUT", "whenever")
	t.Setenv("TOROAUTH_DB_MAX_CONNS", "many")

	cfg := LoadConfig()
	if cfg.ReadTimeout != 15*time.Second {
		t.Fatalf("ReadTimeout=%v", cfg.ReadTimeout)
	}
	if cfg.DBMaxConns != 10 {
		t.Fatalf("DBMaxConns=%d", cfg.DBMaxConns)
	}
}
