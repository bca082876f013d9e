package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/sublytics/sublytics/internal/domain/subscription"
)

// SubscriptionSeed is one stored subscription document. The exclusion flags
// mirror fields that exist on some documents only, which the queries test
// with $exists.
type SubscriptionSeed struct {
	Record             subscription.Record
	IsExperimentGift   bool
	IsFreeBalanceError bool
}

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	mu    sync.RWMutex
	seeds []SubscriptionSeed
}

// NewInMemorySubscriptionStore creates a new in-memory subscription store
func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{}
}

func (s *InMemorySubscriptionStore) Add(seed SubscriptionSeed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeds = append(s.seeds, seed)
}

func (s *InMemorySubscriptionStore) AddRecord(record subscription.Record) {
	s.Add(SubscriptionSeed{Record: record})
}

func subscriptionColumns() map[string]bool {
	return map[string]bool{
		"user_id":    true,
		"provider":   true,
		"status":     true,
		"source":     true,
		"reason":     true,
		"start_date": true,
	}
}

// project copies a record the way the snapshot projection shapes it:
// start_date truncated to its date part, country never stored. Callers get a
// fresh copy per call since consumers mutate records in place.
func project(record subscription.Record) *subscription.Record {
	out := record
	out.Country = ""
	if len(out.StartDate) > 10 {
		out.StartDate = out.StartDate[:10]
	}
	return &out
}

func (s *InMemorySubscriptionStore) ListCurrent(ctx context.Context) (*subscription.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*subscription.Record
	for _, seed := range s.seeds {
		if seed.Record.Status == "cancelled" || seed.IsExperimentGift || seed.IsFreeBalanceError {
			continue
		}
		records = append(records, project(seed.Record))
	}
	return &subscription.Batch{Records: records, Columns: subscriptionColumns()}, nil
}

func (s *InMemorySubscriptionStore) ListWithStatuses(ctx context.Context, statuses []string) (*subscription.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*subscription.Record
	for _, seed := range s.seeds {
		if !lo.Contains(statuses, seed.Record.Status) {
			continue
		}
		records = append(records, project(seed.Record))
	}
	return &subscription.Batch{Records: records, Columns: subscriptionColumns()}, nil
}

func (s *InMemorySubscriptionStore) CountByStatus(ctx context.Context, status string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, seed := range s.seeds {
		if seed.Record.Status == status {
			total++
		}
	}
	return total, nil
}

func (s *InMemorySubscriptionStore) CountActivePlans(ctx context.Context, reasons []string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, seed := range s.seeds {
		if seed.Record.Status == "authorized" && lo.Contains(reasons, seed.Record.Reason) {
			total++
		}
	}
	return total, nil
}

func (s *InMemorySubscriptionStore) ActivePlanCounts(ctx context.Context, reasons []string) ([]subscription.PlanCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, seed := range s.seeds {
		if seed.Record.Status == "authorized" && lo.Contains(reasons, seed.Record.Reason) {
			counts[seed.Record.Reason]++
		}
	}

	out := make([]subscription.PlanCount, 0, len(counts))
	for reason, count := range counts {
		out = append(out, subscription.PlanCount{Reason: reason, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reason < out[j].Reason })
	return out, nil
}
