// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felmahq/felma/internal/adapters/repository"
	"github.com/felmahq/felma/internal/config"
	"github.com/felmahq/felma/internal/domain/model"
	"github.com/felmahq/felma/internal/domain/ranking"
	"github.com/felmahq/felma/internal/domain/types"
	"github.com/felmahq/felma/pkg/logger"
	"github.com/felmahq/felma/pkg/metrics"
)

const nanosecondsPerMillisecond = 1e6

// Service implements the API dependencies for the triage system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	profiles repository.ProfileStore

	// Configuration
	maxListLimit int

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the item store backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithProfileStore sets the originator profile store.
func WithProfileStore(profiles repository.ProfileStore) Option {
	return func(s *Service) {
		if profiles != nil {
			s.profiles = profiles
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxListLimit caps the number of items a single list call returns.
func WithMaxListLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxListLimit = limit
		}
	}
}

// WithConfig applies the service-relevant fields of a loaded config.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		if cfg.MaxListLimit > 0 {
			s.maxListLimit = cfg.MaxListLimit
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxListLimit: 100,
		logger:       nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components and verifies store connectivity.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting triage service...")

	if s.store == nil {
		s.store = repository.NewTreapStore(ctx)
		s.logger.Info(ctx, "using in-memory treap store")
	}
	if s.profiles == nil {
		s.profiles = repository.NewMemoryProfileStore()
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("checking store connectivity: %w", err)
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "triage service started",
		logger.Int("items", count),
		logger.Int("maxListLimit", s.maxListLimit),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping triage service...")

	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "triage service stopped")
}

// CreateItem captures a new item, running the ranking engine first when
// initial ratings are provided. Blank content is rejected.
func (s *Service) CreateItem(ctx context.Context, in types.NewItem) (model.Item, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return model.Item{}, model.ErrBlankContent
	}

	item := model.Item{
		ID:         uuid.New(),
		CreatedAt:  time.Now().UTC(),
		Content:    content,
		Title:      strings.TrimSpace(in.Title),
		Originator: strings.TrimSpace(in.Originator),
		Org:        strings.TrimSpace(in.Org),
		Stage:      model.StageCapture,
	}

	if in.Ratings != nil {
		res, err := s.rank(*in.Ratings)
		if err != nil {
			return model.Item{}, err
		}
		item.ApplyRanking(*in.Ratings, res)
	}

	if err := s.store.Create(ctx, item); err != nil {
		return model.Item{}, err
	}
	metrics.RecordItemCreated()
	if item.Rated {
		metrics.RecordItemRated()
		if item.EscalationFlag {
			metrics.RecordEscalationFlagged()
		}
	}

	// Capture keeps the originator's profile fresh when a name rides along.
	if item.Originator != "" && strings.TrimSpace(in.OriginatorName) != "" {
		profile := model.Profile{
			ID:   item.Originator,
			Name: strings.TrimSpace(in.OriginatorName),
			Org:  item.Org,
		}
		if err := s.profiles.Upsert(ctx, profile); err != nil {
			s.logger.Warn(ctx, "failed to upsert originator profile",
				logger.String("originator", item.Originator),
				logger.Error(err),
			)
		}
	}

	s.logger.Debug(ctx, "item created",
		logger.String("id", item.ID.String()),
		logger.Int("rank", item.PriorityRank),
		logger.String("tier", string(item.ActionTier)),
		logger.Bool("escalation", item.EscalationFlag),
	)
	return item, nil
}

// GetItem returns a single item by id.
func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (model.Item, error) {
	return s.store.Get(ctx, id)
}

// ListItems returns items for the query, clamping the limit to the
// configured maximum. A missing or out-of-range limit falls back to the
// maximum.
func (s *Service) ListItems(ctx context.Context, q types.ListQuery) ([]model.Item, error) {
	if q.Limit < 1 || q.Limit > s.maxListLimit {
		q.Limit = s.maxListLimit
	}
	return s.store.List(ctx, q)
}

// RateItem re-invokes the ranking engine with the given ratings and
// persists the refreshed result.
func (s *Service) RateItem(ctx context.Context, id uuid.UUID, r ranking.Ratings) (model.Item, error) {
	res, err := s.rank(r)
	if err != nil {
		return model.Item{}, err
	}

	item, err := s.store.UpdateRatings(ctx, id, r, res)
	if err != nil {
		return model.Item{}, err
	}
	metrics.RecordItemRated()
	if res.EscalationFlag {
		metrics.RecordEscalationFlagged()
	}

	s.logger.Debug(ctx, "item re-ranked",
		logger.String("id", id.String()),
		logger.Int("rank", res.PriorityRank),
		logger.String("tier", string(res.ActionTier)),
		logger.Bool("escalation", res.EscalationFlag),
	)
	return item, nil
}

// AdvanceStage moves an item to the next workflow stage.
func (s *Service) AdvanceStage(ctx context.Context, id uuid.UUID, stage model.Stage, note string) (model.Item, error) {
	item, err := s.store.AdvanceStage(ctx, id, stage, note)
	if err != nil {
		return model.Item{}, err
	}
	metrics.RecordStageAdvance()

	s.logger.Debug(ctx, "item stage advanced",
		logger.String("id", id.String()),
		logger.String("stage", string(item.Stage)),
	)
	return item, nil
}

// GetProfile resolves an originator id to a stored profile.
func (s *Service) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	return s.profiles.Get(ctx, id)
}

// UpsertProfile creates or replaces an originator profile.
func (s *Service) UpsertProfile(ctx context.Context, p model.Profile) error {
	return s.profiles.Upsert(ctx, p)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) (map[string]any, error) {
	s.mu.RLock()
	started := s.started
	startedAt := s.startedAt
	maxListLimit := s.maxListLimit
	s.mu.RUnlock()

	stats := map[string]any{
		"started":        started,
		"max_list_limit": maxListLimit,
	}
	if !started {
		return stats, nil
	}

	st, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	byTier := make(map[string]int, len(st.ByTier))
	for _, tier := range ranking.Tiers() {
		byTier[string(tier)] = st.ByTier[tier]
	}

	stats["total_items"] = st.TotalItems
	stats["rated_items"] = st.RatedItems
	stats["escalations"] = st.Escalations
	stats["items_by_tier"] = byTier
	stats["uptime_seconds"] = int64(time.Since(startedAt).Seconds())

	// Refresh gauges while we hold fresh numbers
	metrics.UpdateTotalItems(st.TotalItems)
	for _, tier := range ranking.Tiers() {
		metrics.UpdateItemsByTier(string(tier), st.ByTier[tier])
	}

	return stats, nil
}

// rank runs the ranking engine, recording compute latency and validation
// failures.
func (s *Service) rank(r ranking.Ratings) (ranking.Result, error) {
	start := time.Now()
	res, err := ranking.Compute(r)
	if err != nil {
		metrics.RecordRatingValidationFailure()
		return ranking.Result{}, err
	}
	metrics.RecordRankComputeLatency(float64(time.Since(start).Nanoseconds()) / nanosecondsPerMillisecond)
	return res, nil
}
