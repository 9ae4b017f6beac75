package repository

import (
	"context"
	"sync"

	"github.com/felmahq/felma/internal/domain/model"
)

// MemoryProfileStore is a mutex-guarded ProfileStore for development and tests.
type MemoryProfileStore struct {
	mu   sync.RWMutex
	byID map[string]model.Profile
}

// NewMemoryProfileStore constructs an empty profile store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{byID: make(map[string]model.Profile)}
}

// Upsert creates or replaces a profile.
func (s *MemoryProfileStore) Upsert(ctx context.Context, p model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[p.ID] = p
	return nil
}

// Get returns the profile with the given id.
func (s *MemoryProfileStore) Get(ctx context.Context, id string) (model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return model.Profile{}, ErrProfileNotFound
	}
	return p, nil
}
