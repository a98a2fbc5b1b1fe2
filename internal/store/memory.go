package store

import (
	"context"
	"sort"
	"sync"

	"github.com/biopragmatics/semra-go/internal/mapping"
)

// MemoryStore holds pipeline artifacts in process memory, lost on restart.
// It is also used as the write-through cache inside SQLiteStore.
type MemoryStore struct {
	mu    sync.RWMutex
	byRun map[string]map[Stage][]*mapping.Mapping
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byRun: make(map[string]map[Stage][]*mapping.Mapping)}
}

func (s *MemoryStore) SaveCollection(_ context.Context, runID string, stage Stage, mappings []*mapping.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stages, ok := s.byRun[runID]
	if !ok {
		stages = make(map[Stage][]*mapping.Mapping)
		s.byRun[runID] = stages
	}
	cp := make([]*mapping.Mapping, len(mappings))
	copy(cp, mappings)
	stages[stage] = cp
	return nil
}

func (s *MemoryStore) LoadCollection(_ context.Context, runID string, stage Stage) ([]*mapping.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stages, ok := s.byRun[runID]
	if !ok {
		return nil, nil
	}
	mappings, ok := stages[stage]
	if !ok {
		return nil, nil
	}
	cp := make([]*mapping.Mapping, len(mappings))
	copy(cp, mappings)
	return cp, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]string, 0, len(s.byRun))
	for id := range s.byRun {
		runs = append(runs, id)
	}
	sort.Strings(runs)
	return runs, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
