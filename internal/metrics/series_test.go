package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetSeries(t *testing.T) {
	created := map[string]int{"2025-01": 8, "2025-02": 5}
	cancelled := map[string]int{"2025-01": 3, "2025-03": 2}
	incomplete := map[string]int{"2025-01": 1}

	points := NetSeries(created, cancelled, incomplete)

	assert.Equal(t, []NetPoint{
		{Bucket: "2025-01", Created: 8, Cancelled: 3, Incomplete: 1, Net: 4},
		{Bucket: "2025-02", Created: 5, Cancelled: 0, Incomplete: 0, Net: 5},
		{Bucket: "2025-03", Created: 0, Cancelled: 2, Incomplete: 0, Net: -2},
	}, points)
}

func TestNetSeriesEmpty(t *testing.T) {
	assert.Empty(t, NetSeries(nil, nil, nil))
}

func TestCombinedTotals(t *testing.T) {
	card := ProviderSeries{
		Created:    map[string]int{"2025-01": 10, "2025-02": 4},
		Cancelled:  map[string]int{"2025-01": 2},
		Incomplete: map[string]int{"2025-02": 1},
	}
	wallet := ProviderSeries{
		Created:   map[string]int{"2025-01": 6, "2025-03": 3},
		Cancelled: map[string]int{"2025-03": 1},
	}

	points := CombinedTotals(card, wallet)

	assert.Equal(t, []TotalsPoint{
		{Bucket: "2025-01", TotalCreations: 16, TotalCancellations: 2, TotalIncomplete: 0, NetTotal: 14},
		{Bucket: "2025-02", TotalCreations: 4, TotalCancellations: 0, TotalIncomplete: 1, NetTotal: 3},
		{Bucket: "2025-03", TotalCreations: 3, TotalCancellations: 1, TotalIncomplete: 0, NetTotal: 2},
	}, points)
}

func TestRatioOrZero(t *testing.T) {
	assert.Equal(t, 0.5, RatioOrZero(1, 2))
	assert.Equal(t, 0.0, RatioOrZero(1, 0))
}

func TestAverageOrZero(t *testing.T) {
	assert.Equal(t, 0.0, AverageOrZero(nil))
	assert.Equal(t, 2.0, AverageOrZero(map[string]int{"2025-01-01": 1, "2025-01-02": 3}))
}
