package testutil

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/sublytics/sublytics/internal/domain/subscription"
	"github.com/sublytics/sublytics/internal/types"
)

// LifecycleSeed is one stored transition log document. Timestamp carries the
// full ISO instant the way the log stores it.
type LifecycleSeed struct {
	Description string
	UserID      string
	Source      string
	Timestamp   string
}

// InMemoryLifecycleStore implements subscription.LifecycleRepository
type InMemoryLifecycleStore struct {
	mu    sync.RWMutex
	seeds []LifecycleSeed
}

// NewInMemoryLifecycleStore creates a new in-memory lifecycle store
func NewInMemoryLifecycleStore() *InMemoryLifecycleStore {
	return &InMemoryLifecycleStore{}
}

func (s *InMemoryLifecycleStore) Add(seed LifecycleSeed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeds = append(s.seeds, seed)
}

func (s *InMemoryLifecycleStore) ListCreated(ctx context.Context, window types.DateWindow) ([]*subscription.LifecycleEvent, error) {
	return s.list(window, []string{
		subscription.EventNewSubscription,
		subscription.EventAlreadyCreated,
	})
}

func (s *InMemoryLifecycleStore) ListCancelled(ctx context.Context, window types.DateWindow) ([]*subscription.LifecycleEvent, error) {
	return s.list(window, []string{subscription.EventCancelled})
}

func (s *InMemoryLifecycleStore) ListIncomplete(ctx context.Context, window types.DateWindow) ([]*subscription.LifecycleEvent, error) {
	return s.list(window, []string{subscription.EventIncompleteExpired})
}

// list mirrors the stored-string windowing: ISO timestamps with a Z offset
// compare lexicographically against the window bound literals.
func (s *InMemoryLifecycleStore) list(window types.DateWindow, descriptions []string) ([]*subscription.LifecycleEvent, error) {
	start, end, err := window.Bounds()
	if err != nil {
		return nil, err
	}
	lower, upper := types.BoundLiteral(start), types.BoundLiteral(end)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []*subscription.LifecycleEvent
	for _, seed := range s.seeds {
		if !lo.Contains(descriptions, seed.Description) {
			continue
		}
		if seed.Timestamp < lower || seed.Timestamp >= upper {
			continue
		}
		ts := seed.Timestamp
		if len(ts) > 10 {
			ts = ts[:10]
		}
		events = append(events, &subscription.LifecycleEvent{
			AccountID: seed.UserID,
			Source:    seed.Source,
			Timestamp: ts,
		})
	}
	return events, nil
}
