// Package repository defines the item store contracts and the in-memory
// implementation used for development and tests.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/felmahq/felma/internal/domain/model"
	"github.com/felmahq/felma/internal/domain/ranking"
	"github.com/felmahq/felma/internal/domain/types"
)

// Store provides read/write access to persisted items.
type Store interface {
	// Create persists a new item. Returns ErrItemExists when the id is
	// already taken.
	Create(ctx context.Context, item model.Item) error

	// Get returns the item with the given id.
	// Returns ErrItemNotFound if the item is unknown.
	Get(ctx context.Context, id uuid.UUID) (model.Item, error)

	// List returns items matching the query in the query's sort order.
	List(ctx context.Context, q types.ListQuery) ([]model.Item, error)

	// UpdateRatings persists the four ratings together with the engine
	// result and returns the refreshed item.
	UpdateRatings(ctx context.Context, id uuid.UUID, r ranking.Ratings, res ranking.Result) (model.Item, error)

	// AdvanceStage moves the item to the given stage, recording the note.
	// Returns ErrStageOrder unless stage is exactly the next one.
	AdvanceStage(ctx context.Context, id uuid.UUID, stage model.Stage, note string) (model.Item, error)

	// Count returns the number of items tracked in the store.
	Count(ctx context.Context) (int, error)

	// Stats returns aggregate counts over the stored items.
	Stats(ctx context.Context) (Stats, error)

	// Close releases the store's resources.
	Close() error
}

// Stats is an aggregate snapshot of the backlog.
type Stats struct {
	TotalItems  int
	RatedItems  int
	Escalations int
	ByTier      map[ranking.Tier]int
}

// ProfileStore resolves item originators.
type ProfileStore interface {
	// Upsert creates or replaces a profile.
	Upsert(ctx context.Context, p model.Profile) error

	// Get returns the profile with the given id.
	// Returns ErrProfileNotFound if the profile is unknown.
	Get(ctx context.Context, id string) (model.Profile, error)
}
