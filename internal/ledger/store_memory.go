package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	id "custos/pkg/domain"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.DependentID][]DailySpendingRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.DependentID][]DailySpendingRecord)}
}

func (s *InMemoryStore) Append(_ context.Context, rec DailySpendingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.DependentID] = append(s.records[rec.DependentID], rec)
	return nil
}

func (s *InMemoryStore) CategorySpent(_ context.Context, dependentID id.DependentID, day time.Time, category id.Category) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, rec := range s.records[dependentID] {
		if rec.Day.Equal(day) && rec.Category == category {
			total = total.Add(rec.ReferenceAmount)
		}
	}
	return total, nil
}

func (s *InMemoryStore) DaySummary(_ context.Context, dependentID id.DependentID, day time.Time) (Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary := Summary{Total: decimal.Zero, ByCategory: make(map[id.Category]decimal.Decimal)}
	for _, rec := range s.records[dependentID] {
		if !rec.Day.Equal(day) {
			continue
		}
		summary.Total = summary.Total.Add(rec.ReferenceAmount)
		summary.ByCategory[rec.Category] = summary.ByCategory[rec.Category].Add(rec.ReferenceAmount)
	}
	return summary, nil
}
