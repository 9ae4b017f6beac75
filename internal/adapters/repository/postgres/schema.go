package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables and indexes the store needs. Safe to call
// on every startup; all statements use IF NOT EXISTS.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS items (
    id UUID PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL,
    content TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    originator TEXT NOT NULL DEFAULT '',
    org TEXT NOT NULL DEFAULT '',
    rated BOOLEAN NOT NULL DEFAULT FALSE,
    customer_impact SMALLINT NOT NULL DEFAULT 0,
    team_energy SMALLINT NOT NULL DEFAULT 0,
    frequency SMALLINT NOT NULL DEFAULT 0,
    ease SMALLINT NOT NULL DEFAULT 0,
    priority_rank INTEGER NOT NULL DEFAULT 0,
    action_tier TEXT NOT NULL DEFAULT '',
    escalation_flag BOOLEAN NOT NULL DEFAULT FALSE,
    stage TEXT NOT NULL DEFAULT 'capture',
    stage_notes JSONB NOT NULL DEFAULT '{}'::jsonb
);

CREATE INDEX IF NOT EXISTS idx_items_rank ON items (priority_rank DESC, created_at DESC, id);
CREATE INDEX IF NOT EXISTS idx_items_created ON items (created_at DESC, id);
CREATE INDEX IF NOT EXISTS idx_items_org ON items (org);

CREATE TABLE IF NOT EXISTS profiles (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    org TEXT NOT NULL DEFAULT ''
);
`
