// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load(ctx) layers file/env.
// - External errors must be wrapped via this package's error helpers.
package config

// Store backend names accepted in the store field.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Store selects the item store backend: memory or postgres.
	Store string `koanf:"store"`

	// DatabaseURL is the PostgreSQL connection string. Required when
	// Store is postgres.
	DatabaseURL string `koanf:"database_url"`

	// MaxListLimit caps GET /items?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// CORSAllowedOrigins lists origins allowed to call the API from a
	// browser. "*" allows any origin.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// New creates a Config with the defaults used when no file or environment
// overrides are present.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		Store:              StoreMemory,
		DatabaseURL:        "",
		MaxListLimit:       100,
		CORSAllowedOrigins: []string{"*"},
	}
}
