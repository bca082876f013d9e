package types

import "github.com/samber/lo"

// FilterMode is the tri-state contract for a grouping dimension.
type FilterMode int

const (
	// FilterExcluded leaves the dimension out of both filtering and grouping.
	// It is the zero value so an unset DimensionFilter is excluded.
	FilterExcluded FilterMode = iota
	// FilterIncludeAll adds the dimension to the grouping key without
	// restricting which rows match.
	FilterIncludeAll
	// FilterRestrict restricts matching rows to the given values AND adds the
	// dimension to the grouping key.
	FilterRestrict
)

// DimensionFilter selects how one dimension participates in an aggregation.
// Callers use the same aggregation entry point for "give me totals" and
// "give me a breakdown by X" by toggling the filter mode per dimension.
type DimensionFilter struct {
	Mode   FilterMode
	Values []string
}

// NoFilter excludes the dimension entirely.
func NoFilter() DimensionFilter {
	return DimensionFilter{Mode: FilterExcluded}
}

// All includes the dimension in the grouping key without restricting values.
func All() DimensionFilter {
	return DimensionFilter{Mode: FilterIncludeAll}
}

// Eq restricts the dimension to a single value.
func Eq(value string) DimensionFilter {
	return DimensionFilter{Mode: FilterRestrict, Values: []string{value}}
}

// In restricts the dimension to a set of values.
func In(values ...string) DimensionFilter {
	return DimensionFilter{Mode: FilterRestrict, Values: values}
}

// Included reports whether the dimension participates in the grouping key.
func (f DimensionFilter) Included() bool {
	return f.Mode != FilterExcluded
}

// Matches reports whether a row value passes the filter.
func (f DimensionFilter) Matches(value string) bool {
	if f.Mode != FilterRestrict {
		return true
	}
	return lo.Contains(f.Values, value)
}
