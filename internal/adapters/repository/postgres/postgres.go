// Package postgres persists items and profiles in PostgreSQL. It mirrors the
// ordering and error semantics of the in-memory store so the two are
// interchangeable behind repository.Store.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool against url and verifies connectivity before
// returning it.
func Connect(ctx context.Context, url string, opts ...Option) (*pgxpool.Pool, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	cfg.MaxConns = options.MaxConns
	cfg.HealthCheckPeriod = options.HealthCheckPeriod
	cfg.ConnConfig.ConnectTimeout = options.ConnectTimeout
	if cfg.ConnConfig.RuntimeParams == nil {
		cfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	cfg.ConnConfig.RuntimeParams["application_name"] = options.ApplicationName

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}
