package testutil

import (
	"context"
	"sync"

	"github.com/sublytics/sublytics/internal/domain/subscription"
)

// InMemoryProductLineStore implements subscription.ProductLineRepository
type InMemoryProductLineStore struct {
	mu    sync.RWMutex
	seeds []subscription.ProductLineRecord
}

// NewInMemoryProductLineStore creates a new in-memory product line store
func NewInMemoryProductLineStore() *InMemoryProductLineStore {
	return &InMemoryProductLineStore{}
}

func (s *InMemoryProductLineStore) Add(record subscription.ProductLineRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeds = append(s.seeds, record)
}

func (s *InMemoryProductLineStore) ListSubscriptions(ctx context.Context) ([]*subscription.ProductLineRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*subscription.ProductLineRecord, 0, len(s.seeds))
	for _, seed := range s.seeds {
		record := seed
		records = append(records, &record)
	}
	return records, nil
}

func (s *InMemoryProductLineStore) CountByStatus(ctx context.Context, status string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, seed := range s.seeds {
		if seed.Status == status {
			total++
		}
	}
	return total, nil
}
