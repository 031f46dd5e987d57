package family

import (
	"context"
	"sync"

	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu         sync.RWMutex
	families   map[id.FamilyID]Family
	dependents map[id.DependentID]Dependent
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		families:   make(map[id.FamilyID]Family),
		dependents: make(map[id.DependentID]Dependent),
	}
}

func (s *InMemoryStore) SaveFamily(_ context.Context, f Family) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.families[f.ID] = f
	return nil
}

func (s *InMemoryStore) GetFamily(_ context.Context, familyID id.FamilyID) (Family, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.families[familyID]
	if !ok {
		return Family{}, sentinel.ErrNotFound
	}
	return f, nil
}

func (s *InMemoryStore) SaveDependent(_ context.Context, d Dependent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dependents[d.ID] = d
	return nil
}

func (s *InMemoryStore) GetDependent(_ context.Context, dependentID id.DependentID) (Dependent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dependents[dependentID]
	if !ok {
		return Dependent{}, sentinel.ErrNotFound
	}
	return d, nil
}
