package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felmahq/felma/internal/adapters/repository"
	"github.com/felmahq/felma/internal/domain/model"
)

// ProfileStore satisfies repository.ProfileStore on top of a pgx pool.
type ProfileStore struct {
	pool *pgxpool.Pool
}

// NewProfileStore wraps an existing pool.
func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

// Upsert creates or replaces a profile.
func (p *ProfileStore) Upsert(ctx context.Context, profile model.Profile) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO profiles (id, name, org)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, org = EXCLUDED.org
	`, profile.ID, profile.Name, profile.Org)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

// Get returns the profile with the given id.
func (p *ProfileStore) Get(ctx context.Context, id string) (model.Profile, error) {
	var profile model.Profile
	err := p.pool.QueryRow(ctx, `SELECT id, name, org FROM profiles WHERE id = $1`, id).
		Scan(&profile.ID, &profile.Name, &profile.Org)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, fmt.Errorf("%w: %s", repository.ErrProfileNotFound, id)
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("loading profile: %w", err)
	}
	return profile, nil
}
