package repository

import (
	"context"
	"sync"

	"github.com/stepflowhq/stepflow/pkg/stepflow/domain"
)

// MemoryStore is the non-durable Store, suitable for tests and hosts that
// treat workflow state as disposable. Instances are deep-copied on the way in
// and out so callers never share mutable state with the store.
type MemoryStore struct {
	mu        sync.RWMutex
	instances map[string]*domain.Instance
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{instances: make(map[string]*domain.Instance)}
}

func (s *MemoryStore) Save(ctx context.Context, instance *domain.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := instance.Clone()
	if prev, ok := s.instances[instance.ID]; ok {
		// history is owned by AppendHistory, keep the stored copy
		stored.History = prev.History
	}
	s.instances[instance.ID] = stored
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*domain.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.instances[id]
	if !ok {
		return nil, domain.ErrInstanceNotFound
	}
	return inst.Clone(), nil
}

func (s *MemoryStore) AppendHistory(ctx context.Context, id string, entry domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[id]
	if !ok {
		return domain.ErrInstanceNotFound
	}
	inst.History = append(inst.History, entry)
	return nil
}
