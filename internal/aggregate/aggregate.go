package aggregate

import (
	"sort"

	ierr "github.com/sublytics/sublytics/internal/errors"

	"github.com/sublytics/sublytics/internal/domain/subscription"
	"github.com/sublytics/sublytics/internal/types"
)

// Filters selects how each dimension participates in an aggregation. Each
// dimension is tri-state: excluded, include-all (group without restricting),
// or restricted to a value set (filter AND group). The zero value excludes
// every dimension, which yields plain per-bucket totals.
type Filters struct {
	Status   types.DimensionFilter
	Reason   types.DimensionFilter
	Source   types.DimensionFilter
	Country  types.DimensionFilter
	Provider types.DimensionFilter
}

// DimSet records which dimensions are part of a table's grouping key.
type DimSet struct {
	Status   bool
	Reason   bool
	Source   bool
	Country  bool
	Provider bool
}

func (f Filters) dims() DimSet {
	return DimSet{
		Status:   f.Status.Included(),
		Reason:   f.Reason.Included(),
		Source:   f.Source.Included(),
		Country:  f.Country.Included(),
		Provider: f.Provider.Included(),
	}
}

func (f Filters) matches(r *subscription.Record) bool {
	return f.Status.Matches(r.Status) &&
		f.Reason.Matches(r.Reason) &&
		f.Source.Matches(r.Source) &&
		f.Country.Matches(r.Country) &&
		f.Provider.Matches(r.Provider)
}

// Row is one output row: a time bucket, the values of every included
// dimension (empty string for excluded ones) and the matching record count.
type Row struct {
	Bucket   string `json:"date"`
	Status   string `json:"status,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Source   string `json:"source,omitempty"`
	Country  string `json:"country,omitempty"`
	Provider string `json:"provider,omitempty"`
	Count    int    `json:"count"`
}

type rowKey struct {
	bucket   string
	status   string
	reason   string
	source   string
	country  string
	provider string
}

// Table is the result of one aggregation: rows keyed by (bucket × included
// dimensions), sorted deterministically. Tables are built fresh per call and
// never mutated afterwards.
type Table struct {
	GroupBy types.GroupBy
	Dims    DimSet
	Rows    []Row
}

// Aggregate buckets records by day or month, applies the dimension filters
// and counts matching rows per distinct (bucket, dimensions) combination.
//
// No row is emitted for combinations with zero matches; callers needing
// dense series must reindex against the expected bucket range themselves.
// An unparseable record timestamp fails the whole batch. The function is
// pure: identical inputs always produce identical output.
func Aggregate(records []*subscription.Record, groupBy types.GroupBy, filters Filters) (*Table, error) {
	if groupBy != types.GroupByDay && groupBy != types.GroupByMonth {
		return nil, ierr.NewErrorf("invalid group_by %q", groupBy).
			WithHint("group_by must be 'day' or 'month'").
			Mark(ierr.ErrValidation)
	}

	dims := filters.dims()
	counts := make(map[rowKey]int)

	for _, record := range records {
		if !filters.matches(record) {
			continue
		}

		ts, err := types.ParseTimestamp(record.StartDate)
		if err != nil {
			return nil, ierr.WithError(err).
				WithMessage("record batch contains an unparseable timestamp").
				WithReportableDetails(map[string]any{"start_date": record.StartDate}).
				Mark(ierr.ErrValidation)
		}

		key := rowKey{bucket: groupBy.Bucket(ts)}
		if dims.Status {
			key.status = record.Status
		}
		if dims.Reason {
			key.reason = record.Reason
		}
		if dims.Source {
			key.source = record.Source
		}
		if dims.Country {
			key.country = record.Country
		}
		if dims.Provider {
			key.provider = record.Provider
		}
		counts[key]++
	}

	table := &Table{GroupBy: groupBy, Dims: dims, Rows: make([]Row, 0, len(counts))}
	for key, count := range counts {
		table.Rows = append(table.Rows, Row{
			Bucket:   key.bucket,
			Status:   key.status,
			Reason:   key.reason,
			Source:   key.source,
			Country:  key.country,
			Provider: key.provider,
			Count:    count,
		})
	}
	sortRows(table.Rows)
	return table, nil
}

func sortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Bucket != b.Bucket {
			return a.Bucket < b.Bucket
		}
		if a.Status != b.Status {
			return a.Status < b.Status
		}
		if a.Reason != b.Reason {
			return a.Reason < b.Reason
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Country != b.Country {
			return a.Country < b.Country
		}
		return a.Provider < b.Provider
	})
}

// Total returns the summed count over all rows, which by construction equals
// the number of records that passed the filters.
func (t *Table) Total() int {
	total := 0
	for _, row := range t.Rows {
		total += row.Count
	}
	return total
}

// CountsByBucket collapses the table to per-bucket totals.
func (t *Table) CountsByBucket() map[string]int {
	out := make(map[string]int, len(t.Rows))
	for _, row := range t.Rows {
		out[row.Bucket] += row.Count
	}
	return out
}

// Buckets returns the distinct buckets present, in ascending order.
func (t *Table) Buckets() []string {
	seen := make(map[string]bool)
	var buckets []string
	for _, row := range t.Rows {
		if !seen[row.Bucket] {
			seen[row.Bucket] = true
			buckets = append(buckets, row.Bucket)
		}
	}
	sort.Strings(buckets)
	return buckets
}

// Rollup re-aggregates the table over a subset of its dimensions, dropping
// the time bucket. It serves current-state breakdowns ("active subscribers
// per provider and country") where the creation date is irrelevant.
func (t *Table) Rollup(keep DimSet) *Table {
	counts := make(map[rowKey]int)
	for _, row := range t.Rows {
		key := rowKey{}
		if keep.Status {
			key.status = row.Status
		}
		if keep.Reason {
			key.reason = row.Reason
		}
		if keep.Source {
			key.source = row.Source
		}
		if keep.Country {
			key.country = row.Country
		}
		if keep.Provider {
			key.provider = row.Provider
		}
		counts[key] += row.Count
	}

	out := &Table{GroupBy: t.GroupBy, Dims: keep, Rows: make([]Row, 0, len(counts))}
	for key, count := range counts {
		out.Rows = append(out.Rows, Row{
			Status:   key.status,
			Reason:   key.reason,
			Source:   key.source,
			Country:  key.country,
			Provider: key.provider,
			Count:    count,
		})
	}
	sortRows(out.Rows)
	return out
}
