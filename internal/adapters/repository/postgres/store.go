package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felmahq/felma/internal/adapters/repository"
	"github.com/felmahq/felma/internal/domain/model"
	"github.com/felmahq/felma/internal/domain/ranking"
	"github.com/felmahq/felma/internal/domain/types"
	"github.com/felmahq/felma/pkg/metrics"
)

const itemColumns = `id, created_at, content, title, originator, org, rated,
	customer_impact, team_energy, frequency, ease,
	priority_rank, action_tier, escalation_flag, stage, stage_notes`

// Store satisfies repository.Store on top of a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an existing pool. The caller is expected to have run
// EnsureSchema first.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func scanItem(row pgx.Row) (model.Item, error) {
	var (
		item  model.Item
		tier  string
		stage string
	)
	err := row.Scan(
		&item.ID, &item.CreatedAt, &item.Content, &item.Title, &item.Originator, &item.Org, &item.Rated,
		&item.Ratings.CustomerImpact, &item.Ratings.TeamEnergy, &item.Ratings.Frequency, &item.Ratings.Ease,
		&item.PriorityRank, &tier, &item.EscalationFlag, &stage, &item.StageNotes,
	)
	if err != nil {
		return model.Item{}, err
	}
	item.ActionTier = ranking.Tier(tier)
	item.Stage = model.Stage(stage)
	return item, nil
}

// Create persists a new item. Returns ErrItemExists when the id is taken.
func (s *Store) Create(ctx context.Context, item model.Item) error {
	start := time.Now()
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO NOTHING
	`,
		item.ID, item.CreatedAt, item.Content, item.Title, item.Originator, item.Org, item.Rated,
		item.Ratings.CustomerImpact, item.Ratings.TeamEnergy, item.Ratings.Frequency, item.Ratings.Ease,
		item.PriorityRank, string(item.ActionTier), item.EscalationFlag, string(item.Stage), item.StageNotes,
	)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("inserting item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		metrics.RecordErrorByComponent("postgres", "duplicate_id")
		return fmt.Errorf("%w: %s", repository.ErrItemExists, item.ID)
	}
	metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

// Get returns the item with the given id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (model.Item, error) {
	start := time.Now()
	row := s.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordErrorByComponent("postgres", "not_found")
		return model.Item{}, fmt.Errorf("%w: %s", repository.ErrItemNotFound, id)
	}
	if err != nil {
		metrics.RecordStoreError()
		return model.Item{}, fmt.Errorf("loading item: %w", err)
	}
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	return item, nil
}

// List returns items matching the query in the query's sort order.
func (s *Store) List(ctx context.Context, q types.ListQuery) ([]model.Item, error) {
	start := time.Now()
	if q.Limit < 1 {
		metrics.RecordErrorByComponent("postgres", "invalid_limit")
		return nil, fmt.Errorf("%w: %d", repository.ErrInvalidLimit, q.Limit)
	}

	var order string
	switch q.Sort {
	case types.SortRank, "":
		order = "priority_rank DESC, created_at DESC, id"
	case types.SortNewest:
		order = "created_at DESC, id"
	default:
		metrics.RecordErrorByComponent("postgres", "unknown_sort")
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownSort, q.Sort)
	}

	query := `SELECT ` + itemColumns + ` FROM items`
	args := make([]any, 0, 2)
	if q.Org != "" {
		args = append(args, q.Org)
		query += fmt.Sprintf(" WHERE org = $%d", len(args))
	}
	args = append(args, q.Limit)
	query += fmt.Sprintf(" ORDER BY %s LIMIT $%d", order, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			metrics.RecordStoreError()
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("listing items: %w", err)
	}

	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	return items, nil
}

// UpdateRatings persists the ratings together with the engine result and
// returns the refreshed item.
func (s *Store) UpdateRatings(ctx context.Context, id uuid.UUID, r ranking.Ratings, res ranking.Result) (model.Item, error) {
	start := time.Now()
	row := s.pool.QueryRow(ctx, `
		UPDATE items SET
			rated = TRUE,
			customer_impact = $2, team_energy = $3, frequency = $4, ease = $5,
			priority_rank = $6, action_tier = $7, escalation_flag = $8
		WHERE id = $1
		RETURNING `+itemColumns,
		id, r.CustomerImpact, r.TeamEnergy, r.Frequency, r.Ease,
		res.PriorityRank, string(res.ActionTier), res.EscalationFlag,
	)
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordErrorByComponent("postgres", "not_found")
		return model.Item{}, fmt.Errorf("%w: %s", repository.ErrItemNotFound, id)
	}
	if err != nil {
		metrics.RecordStoreError()
		return model.Item{}, fmt.Errorf("updating ratings: %w", err)
	}
	metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	return item, nil
}

// AdvanceStage moves the item to the given stage under a row lock so
// concurrent advances cannot skip a stage.
func (s *Store) AdvanceStage(ctx context.Context, id uuid.UUID, stage model.Stage, note string) (model.Item, error) {
	start := time.Now()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		metrics.RecordStoreError()
		return model.Item{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, id)
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordErrorByComponent("postgres", "not_found")
		return model.Item{}, fmt.Errorf("%w: %s", repository.ErrItemNotFound, id)
	}
	if err != nil {
		metrics.RecordStoreError()
		return model.Item{}, fmt.Errorf("loading item: %w", err)
	}

	next, ok := item.Stage.Next()
	if !ok || next != stage {
		metrics.RecordErrorByComponent("postgres", "stage_order")
		return model.Item{}, fmt.Errorf("%w: item at %q, requested %q", repository.ErrStageOrder, item.Stage, stage)
	}

	item.Stage = stage
	if note != "" {
		if item.StageNotes == nil {
			item.StageNotes = make(map[model.Stage]string, 1)
		}
		item.StageNotes[stage] = note
	}

	if _, err := tx.Exec(ctx, `UPDATE items SET stage = $2, stage_notes = $3 WHERE id = $1`,
		id, string(item.Stage), item.StageNotes); err != nil {
		metrics.RecordStoreError()
		return model.Item{}, fmt.Errorf("updating stage: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		metrics.RecordStoreError()
		return model.Item{}, fmt.Errorf("committing stage update: %w", err)
	}

	metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	return item, nil
}

// Count returns the number of items tracked in the store.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		metrics.RecordStoreError()
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return count, nil
}

// Stats aggregates backlog counts.
func (s *Store) Stats(ctx context.Context) (repository.Stats, error) {
	start := time.Now()
	st := repository.Stats{ByTier: make(map[ranking.Tier]int, 5)}

	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE rated),
		       COUNT(*) FILTER (WHERE rated AND escalation_flag)
		FROM items
	`).Scan(&st.TotalItems, &st.RatedItems, &st.Escalations)
	if err != nil {
		metrics.RecordStoreError()
		return repository.Stats{}, fmt.Errorf("aggregating stats: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT action_tier, COUNT(*) FROM items WHERE rated GROUP BY action_tier`)
	if err != nil {
		metrics.RecordStoreError()
		return repository.Stats{}, fmt.Errorf("aggregating tiers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tier  string
			count int
		)
		if err := rows.Scan(&tier, &count); err != nil {
			metrics.RecordStoreError()
			return repository.Stats{}, fmt.Errorf("scanning tier count: %w", err)
		}
		st.ByTier[ranking.Tier(tier)] = count
	}
	if err := rows.Err(); err != nil {
		metrics.RecordStoreError()
		return repository.Stats{}, fmt.Errorf("aggregating tiers: %w", err)
	}

	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	return st, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
