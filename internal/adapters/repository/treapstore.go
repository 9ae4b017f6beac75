// Package repository defines the item store contracts and the in-memory
// implementation used for development and tests.
package repository

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felmahq/felma/internal/domain/model"
	"github.com/felmahq/felma/internal/domain/ranking"
	"github.com/felmahq/felma/internal/domain/types"
	"github.com/felmahq/felma/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: priority rank DESC, then createdAt DESC, then id ASC
// (deterministic). "less" means lists earlier, so an in-order traversal
// produces the backlog from most to least urgent. Unrated items carry
// rank zero and therefore list after every rated item.

// Default configuration.
const (
	defaultMetricsUpdateInterval = 5 * time.Second
)

// itemKey is the treap ordering key for one item.
type itemKey struct {
	rank    int
	created time.Time
	id      uuid.UUID
}

func keyOf(item model.Item) itemKey {
	return itemKey{rank: item.PriorityRank, created: item.CreatedAt, id: item.ID}
}

// less reports whether a lists before b in the ranked backlog.
func less(a, b itemKey) bool {
	if a.rank != b.rank {
		return a.rank > b.rank // higher rank lists earlier
	}
	if !a.created.Equal(b.created) {
		return a.created.After(b.created) // newer lists earlier within a rank
	}
	return bytes.Compare(a.id[:], b.id[:]) < 0 // final deterministic tie-break
}

// treap node
type node struct {
	key   itemKey
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// insert adds a key with a caller-supplied random priority. Random
// priorities keep the tree balanced even though ranks cluster heavily
// in the 1-100 range.
func insert(n *node, key itemKey, prio uint64) *node {
	if n == nil {
		return &node{key: key, prio: prio, size: 1}
	}
	if less(key, n.key) {
		n.left = insert(n.left, key, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, key, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// deleteNode removes the node carrying the exact stored key.
func deleteNode(n *node, key itemKey) *node {
	if n == nil {
		return nil
	}
	if key.id == n.key.id {
		// Merge children by rotating the higher priority up until leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, key)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, key)
		}
	} else if less(key, n.key) {
		n.left = deleteNode(n.left, key)
	} else {
		n.right = deleteNode(n.right, key)
	}
	fix(n)
	return n
}

// collect appends accepted items in backlog order until limit is reached.
func collect(n *node, limit int, accept func(uuid.UUID) (model.Item, bool), out *[]model.Item) {
	if n == nil || len(*out) >= limit {
		return
	}

	collect(n.left, limit, accept, out)

	if len(*out) < limit {
		if item, ok := accept(n.key.id); ok {
			*out = append(*out, item)
		}
	}

	if len(*out) < limit {
		collect(n.right, limit, accept, out)
	}
}

// TreapStore is the in-memory Store backed by a treap over item keys.
type TreapStore struct {
	mu                    sync.RWMutex
	root                  *node
	byID                  map[uuid.UUID]model.Item
	rng                   *rand.Rand
	metricsUpdateInterval time.Duration

	// Background metrics management
	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:                  make(map[uuid.UUID]model.Item),
		rng:                   rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // treap priorities, not crypto
		metricsUpdateInterval: defaultMetricsUpdateInterval,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)

	return s
}

// cloneItem returns a copy whose stage notes map is not shared with the store.
func cloneItem(item model.Item) model.Item {
	item.StageNotes = item.CloneStageNotes()
	return item
}

// Create implements Store.Create with O(log n) expected time.
func (s *TreapStore) Create(ctx context.Context, item model.Item) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[item.ID]; ok {
		metrics.RecordErrorByComponent("repository", "duplicate_id")
		return fmt.Errorf("%w: %s", ErrItemExists, item.ID)
	}

	stored := cloneItem(item)
	s.byID[stored.ID] = stored
	s.root = insert(s.root, keyOf(stored), s.rng.Uint64())
	return nil
}

// Get returns the item with the given id in O(1).
func (s *TreapStore) Get(ctx context.Context, id uuid.UUID) (model.Item, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Item{}, ErrItemNotFound
	}
	return cloneItem(item), nil
}

// List returns items in the query's order, filtered by org when set.
func (s *TreapStore) List(ctx context.Context, q types.ListQuery) ([]model.Item, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if q.Limit < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	accept := func(id uuid.UUID) (model.Item, bool) {
		item, ok := s.byID[id]
		if !ok || (q.Org != "" && item.Org != q.Org) {
			return model.Item{}, false
		}
		return cloneItem(item), true
	}

	switch q.Sort {
	case types.SortRank, "":
		out := make([]model.Item, 0, q.Limit)
		collect(s.root, q.Limit, accept, &out)
		return out, nil
	case types.SortNewest:
		out := make([]model.Item, 0, len(s.byID))
		for _, item := range s.byID {
			if q.Org != "" && item.Org != q.Org {
				continue
			}
			out = append(out, cloneItem(item))
		}
		sortByNewest(out)
		if len(out) > q.Limit {
			out = out[:q.Limit]
		}
		return out, nil
	default:
		metrics.RecordErrorByComponent("repository", "unknown_sort")
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownSort, q.Sort)
	}
}

// UpdateRatings reindexes the item under its refreshed rank.
func (s *TreapStore) UpdateRatings(ctx context.Context, id uuid.UUID, r ranking.Ratings, res ranking.Result) (model.Item, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Item{}, ErrItemNotFound
	}

	s.root = deleteNode(s.root, keyOf(item))
	item.ApplyRanking(r, res)
	s.byID[id] = item
	s.root = insert(s.root, keyOf(item), s.rng.Uint64())

	return cloneItem(item), nil
}

// AdvanceStage moves the item one step along the workflow. The treap key
// does not depend on the stage, so no reindex is needed.
func (s *TreapStore) AdvanceStage(ctx context.Context, id uuid.UUID, stage model.Stage, note string) (model.Item, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Item{}, ErrItemNotFound
	}

	next, ok := item.Stage.Next()
	if !ok || next != stage {
		metrics.RecordErrorByComponent("repository", "stage_order")
		return model.Item{}, fmt.Errorf("%w: item at %q, requested %q", ErrStageOrder, item.Stage, stage)
	}

	item.Stage = stage
	if note != "" {
		if item.StageNotes == nil {
			item.StageNotes = make(map[model.Stage]string, 1)
		}
		item.StageNotes[stage] = note
	}
	s.byID[id] = item

	return cloneItem(item), nil
}

// Count returns the total number of items.
func (s *TreapStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// Stats aggregates backlog counts in one pass.
func (s *TreapStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked(), nil
}

func (s *TreapStore) statsLocked() Stats {
	st := Stats{
		TotalItems: len(s.byID),
		ByTier:     make(map[ranking.Tier]int, 5),
	}
	for _, item := range s.byID {
		if !item.Rated {
			continue
		}
		st.RatedItems++
		st.ByTier[item.ActionTier]++
		if item.EscalationFlag {
			st.Escalations++
		}
	}
	return st
}

// Close gracefully shuts down the background metrics goroutine.
func (s *TreapStore) Close() error {
	select {
	case <-s.stopChan:
		// Channel already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// startMetricsUpdater starts a background goroutine that refreshes store gauges.
func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

// updateMetrics publishes the backlog gauges.
func (s *TreapStore) updateMetrics() {
	s.mu.RLock()
	st := s.statsLocked()
	s.mu.RUnlock()

	metrics.UpdateTotalItems(st.TotalItems)
	for _, tier := range ranking.Tiers() {
		metrics.UpdateItemsByTier(string(tier), st.ByTier[tier])
	}
}

// sortByNewest orders items by creation time descending with the id as a
// deterministic tie-break.
func sortByNewest(items []model.Item) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return bytes.Compare(items[i].ID[:], items[j].ID[:]) < 0
	})
}
