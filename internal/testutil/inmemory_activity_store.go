package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/sublytics/sublytics/internal/domain/activity"
)

// ActivityMark is one stored (day, user) activity document.
type ActivityMark struct {
	Dt     string
	UserID string
}

// InMemoryActivityStore implements activity.Repository
type InMemoryActivityStore struct {
	mu    sync.RWMutex
	marks []ActivityMark
}

// NewInMemoryActivityStore creates a new in-memory activity store
func NewInMemoryActivityStore() *InMemoryActivityStore {
	return &InMemoryActivityStore{}
}

func (s *InMemoryActivityStore) Add(mark ActivityMark) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks = append(s.marks, mark)
}

func (s *InMemoryActivityStore) DailyActiveUsers(ctx context.Context, start, end string) ([]activity.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make(map[string]map[string]bool)
	for _, mark := range s.marks {
		if mark.Dt < start || mark.Dt > end {
			continue
		}
		if users[mark.Dt] == nil {
			users[mark.Dt] = make(map[string]bool)
		}
		users[mark.Dt][mark.UserID] = true
	}
	return distinctPoints(users), nil
}

func (s *InMemoryActivityStore) MonthlyActiveUsers(ctx context.Context, start, end string) ([]activity.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make(map[string]map[string]bool)
	for _, mark := range s.marks {
		if mark.Dt < start || mark.Dt > end {
			continue
		}
		month := monthOf(mark.Dt)
		if users[month] == nil {
			users[month] = make(map[string]bool)
		}
		users[month][mark.UserID] = true
	}
	return distinctPoints(users), nil
}

func (s *InMemoryActivityStore) TotalUsers(ctx context.Context, end string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, mark := range s.marks {
		if mark.Dt <= end {
			seen[mark.UserID] = true
		}
	}
	return len(seen), nil
}

func (s *InMemoryActivityStore) NewUsersByDay(ctx context.Context, start, end string) ([]activity.Point, error) {
	return s.newUsers(start, end, func(dt string) string { return dt })
}

func (s *InMemoryActivityStore) NewUsersByMonth(ctx context.Context, start, end string) ([]activity.Point, error) {
	return s.newUsers(start, end, monthOf)
}

func (s *InMemoryActivityStore) newUsers(start, end string, period func(string) string) ([]activity.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	firstSeen := make(map[string]string)
	for _, mark := range s.marks {
		if existing, ok := firstSeen[mark.UserID]; !ok || mark.Dt < existing {
			firstSeen[mark.UserID] = mark.Dt
		}
	}

	counts := make(map[string]int)
	for _, dt := range firstSeen {
		if dt < start || dt > end {
			continue
		}
		counts[period(dt)]++
	}

	points := make([]activity.Point, 0, len(counts))
	for period, users := range counts {
		points = append(points, activity.Point{Period: period, Users: users})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points, nil
}

func monthOf(dt string) string {
	if len(dt) > 7 {
		return dt[:7]
	}
	return dt
}

func distinctPoints(users map[string]map[string]bool) []activity.Point {
	points := make([]activity.Point, 0, len(users))
	for period, set := range users {
		points = append(points, activity.Point{Period: period, Users: len(set)})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points
}
