package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublytics/sublytics/internal/domain/subscription"
	"github.com/sublytics/sublytics/internal/types"
)

func record(startDate, status, country, provider string) *subscription.Record {
	return &subscription.Record{
		AccountID: "u1",
		StartDate: startDate,
		Status:    status,
		Country:   country,
		Provider:  provider,
	}
}

func TestAggregateMonthlyByStatus(t *testing.T) {
	records := []*subscription.Record{
		record("2025-01-05", "active", "Argentina", "mp"),
		record("2025-01-12", "active", "Argentina", "mp"),
		record("2025-01-20", "paused", "Argentina", "mp"),
		record("2025-02-01", "active", "Chile", "stripe"),
	}

	table, err := Aggregate(records, types.GroupByMonth, Filters{Status: types.All()})
	require.NoError(t, err)

	assert.Equal(t, []Row{
		{Bucket: "2025-01", Status: "active", Count: 2},
		{Bucket: "2025-01", Status: "paused", Count: 1},
		{Bucket: "2025-02", Status: "active", Count: 1},
	}, table.Rows)
}

func TestAggregatePreservesTotals(t *testing.T) {
	records := []*subscription.Record{
		record("2025-01-05", "active", "Argentina", "mp"),
		record("2025-01-12", "paused", "Chile", "stripe"),
		record("2025-02-20", "active", "Argentina", "free"),
		record("2025-03-01", "cancelled", "Peru", "mp"),
	}

	plain, err := Aggregate(records, types.GroupByMonth, Filters{})
	require.NoError(t, err)

	grouped, err := Aggregate(records, types.GroupByMonth, Filters{
		Status:   types.All(),
		Country:  types.All(),
		Provider: types.All(),
	})
	require.NoError(t, err)

	assert.Equal(t, len(records), plain.Total())
	assert.Equal(t, plain.Total(), grouped.Total())
}

func TestAggregateRestrictFiltersAndGroups(t *testing.T) {
	records := []*subscription.Record{
		record("2025-01-05", "active", "Argentina", "mp"),
		record("2025-01-12", "paused", "Argentina", "mp"),
		record("2025-01-20", "active", "Chile", "stripe"),
	}

	table, err := Aggregate(records, types.GroupByMonth, Filters{
		Status: types.Eq("active"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, table.Total())
	for _, row := range table.Rows {
		assert.Equal(t, "active", row.Status)
	}
}

func TestAggregateExcludedDimensionAbsentFromRows(t *testing.T) {
	records := []*subscription.Record{
		record("2025-01-05", "active", "Argentina", "mp"),
	}

	table, err := Aggregate(records, types.GroupByMonth, Filters{Country: types.All()})
	require.NoError(t, err)

	require.Len(t, table.Rows, 1)
	assert.Empty(t, table.Rows[0].Status)
	assert.Equal(t, "Argentina", table.Rows[0].Country)
}

func TestAggregateDaily(t *testing.T) {
	records := []*subscription.Record{
		record("2025-01-05", "active", "Argentina", "mp"),
		record("2025-01-05", "active", "Argentina", "mp"),
		record("2025-01-06", "active", "Argentina", "mp"),
	}

	table, err := Aggregate(records, types.GroupByDay, Filters{})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"2025-01-05": 2, "2025-01-06": 1}, table.CountsByBucket())
}

func TestAggregateDeterministic(t *testing.T) {
	records := []*subscription.Record{
		record("2025-01-05", "active", "Argentina", "mp"),
		record("2025-01-05", "paused", "Chile", "stripe"),
		record("2025-02-01", "active", "Peru", "free"),
		record("2025-02-01", "active", "Argentina", "mp"),
	}
	filters := Filters{Status: types.All(), Country: types.All()}

	first, err := Aggregate(records, types.GroupByMonth, filters)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Aggregate(records, types.GroupByMonth, filters)
		require.NoError(t, err)
		assert.Equal(t, first.Rows, again.Rows)
	}
}

func TestAggregateInvalidGroupBy(t *testing.T) {
	_, err := Aggregate(nil, types.GroupBy("week"), Filters{})
	assert.Error(t, err)
}

func TestAggregateUnparseableTimestampFailsBatch(t *testing.T) {
	records := []*subscription.Record{
		record("2025-01-05", "active", "Argentina", "mp"),
		record("not a date", "active", "Argentina", "mp"),
	}

	_, err := Aggregate(records, types.GroupByMonth, Filters{})
	assert.Error(t, err)
}

func TestRollupDropsTimeBucket(t *testing.T) {
	records := []*subscription.Record{
		record("2025-01-05", "active", "Argentina", "mp"),
		record("2025-02-12", "active", "Argentina", "mp"),
		record("2025-03-20", "active", "Chile", "stripe"),
	}

	table, err := Aggregate(records, types.GroupByMonth, Filters{
		Country:  types.All(),
		Provider: types.All(),
	})
	require.NoError(t, err)

	rollup := table.Rollup(DimSet{Country: true, Provider: true})
	assert.Equal(t, []Row{
		{Country: "Argentina", Provider: "mp", Count: 2},
		{Country: "Chile", Provider: "stripe", Count: 1},
	}, rollup.Rows)
	assert.Equal(t, table.Total(), rollup.Total())
}
