package policy

import (
	"context"
	"sync"

	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	policies map[id.DependentID]Policy
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{policies: make(map[id.DependentID]Policy)}
}

func (s *InMemoryStore) Get(_ context.Context, dependentID id.DependentID) (Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[dependentID]
	if !ok {
		return Policy{}, sentinel.ErrNotFound
	}
	return p, nil
}

func (s *InMemoryStore) Save(_ context.Context, p Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.DependentID] = p
	return nil
}
