package execution

import (
	"context"
	"sync"
	"time"

	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.RecordID]TransactionRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.RecordID]TransactionRecord)}
}

func (s *InMemoryStore) Create(_ context.Context, rec TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; exists {
		return sentinel.ErrConflict
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, recordID id.RecordID) (TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordID]
	if !ok {
		return TransactionRecord{}, sentinel.ErrNotFound
	}
	return rec, nil
}

func (s *InMemoryStore) Finalize(_ context.Context, recordID id.RecordID, status Status, txHash, orderID, detail string, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if rec.Status.Terminal() {
		return sentinel.ErrInvalidState
	}
	rec.Status = status
	rec.TxHash = txHash
	rec.OrderID = orderID
	rec.Detail = detail
	rec.CompletedAt = &completedAt
	s.records[recordID] = rec
	return nil
}
