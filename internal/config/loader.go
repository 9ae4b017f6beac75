package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if FELMA_CONFIG is set
//  3. env (prefix FELMA_)
func Load(_ context.Context) (*Config, error) {
	// A .env file in the working directory is a convenience for local
	// development; missing files are not an error.
	_ = godotenv.Load()

	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("FELMA_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: FELMA_ADDR, FELMA_MAX_LIST_LIMIT, ...
	// Map env keys like FELMA_MAX_LIST_LIMIT -> max_list_limit (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("FELMA_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "felma_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.MaxListLimit < 1 {
		return fmt.Errorf("%w: max_list_limit must be positive, got %d", ErrInvalidConfig, c.MaxListLimit)
	}
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: database_url must be set for the postgres store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	return nil
}
