package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestampLayouts(t *testing.T) {
	cases := []string{
		"2025-01-15T10:30:00.000Z",
		"2025-01-15T10:30:00Z",
		"2025-01-15T10:30:00",
		"2025-01-15 10:30:00",
		"2025-01-15",
	}
	for _, raw := range cases {
		ts, err := ParseTimestamp(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, "2025-01-15", GroupByDay.Bucket(ts), raw)
	}
}

func TestParseTimestampMonthOnly(t *testing.T) {
	ts, err := ParseTimestamp("2025-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-01", GroupByMonth.Bucket(ts))
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	_, err := ParseTimestamp("not a date")
	assert.Error(t, err)
}

func TestDateWindowBoundsInclusiveEnd(t *testing.T) {
	window := DateWindow{Start: "2025-01-01", End: "2025-01-31"}
	start, end, err := window.Bounds()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestDateWindowInverted(t *testing.T) {
	window := DateWindow{Start: "2025-02-01", End: "2025-01-01"}
	assert.Error(t, window.Validate())
}

func TestBoundLiteral(t *testing.T) {
	ts := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-01-15T00:00:00.000Z", BoundLiteral(ts))
}

func TestLastMonthWindow(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	window := LastMonthWindow(now)
	assert.Equal(t, DateWindow{Start: "2025-02-01", End: "2025-02-28"}, window)

	start, end, err := window.Bounds()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestParseGroupBy(t *testing.T) {
	groupBy, err := ParseGroupBy(" Month ")
	require.NoError(t, err)
	assert.Equal(t, GroupByMonth, groupBy)

	_, err = ParseGroupBy("week")
	assert.Error(t, err)
}
