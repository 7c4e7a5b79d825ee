package app

import "time"

// Backend selection values for Config.Backend.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config contains all runtime configuration loaded from environment
// variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// Backend selects the storage implementation: memory, sqlite, postgres.
	Backend     string
	DatabaseURL string
	SQLitePath  string
	DBMaxConns  int32
	DBMinConns  int32

	// Dev seed identity, created at startup on the memory backend only.
	SeedUsername string
	SeedPassword string

	MetricsEnabled bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("TOROAUTH_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("TOROAUTH_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("TOROAUTH_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("TOROAUTH_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("TOROAUTH_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("TOROAUTH_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("TOROAUTH_HTTP_MAX_HEADER_BYTES", 1<<20),

		Backend:     EnvString("TOROAUTH_BACKEND", BackendMemory),
		DatabaseURL: EnvString("TOROAUTH_DATABASE_URL", ""),
		SQLitePath:  EnvString("TOROAUTH_SQLITE_PATH", "toroauth.db"),
		DBMaxConns:  EnvInt32("TOROAUTH_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("TOROAUTH_DB_MIN_CONNS", 0),

		SeedUsername: EnvString("TOROAUTH_SEED_USERNAME", ""),
		SeedPassword: EnvString("TOROAUTH_SEED_PASSWORD", ""),

		MetricsEnabled: EnvBool("TOROAUTH_METRICS_ENABLED", true),
	}
}
