package dto

import (
	"sort"

	"github.com/sublytics/sublytics/internal/aggregate"
	"github.com/sublytics/sublytics/internal/metrics"
)

// ChartSeries is one named series of a chart, aligned with the chart labels.
type ChartSeries struct {
	Name   string `json:"name"`
	Values []int  `json:"values"`
}

// StackedBarChart is the wire shape for stacked bar panels: one label per
// x position and one series per stack segment.
type StackedBarChart struct {
	Title  string        `json:"title"`
	XLabel string        `json:"x_label"`
	Labels []string      `json:"labels"`
	Series []ChartSeries `json:"series"`
}

// CountryCount is one choropleth data point.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// NewStackedBarChart shapes an aggregation table into a stacked bar chart:
// the bucket becomes the x axis and the values of stackDim become the
// series. Series and labels come out sorted so responses are stable.
func NewStackedBarChart(table *aggregate.Table, title, xLabel string, stackDim func(aggregate.Row) string) StackedBarChart {
	return buildStackedBarChart(table.Rows, title, xLabel, func(row aggregate.Row) string { return row.Bucket }, stackDim)
}

// NewCategoryBarChart shapes a table whose x axis is a dimension rather than
// the time bucket (current-state breakdowns).
func NewCategoryBarChart(table *aggregate.Table, title, xLabel string, xDim, stackDim func(aggregate.Row) string) StackedBarChart {
	return buildStackedBarChart(table.Rows, title, xLabel, xDim, stackDim)
}

func buildStackedBarChart(rows []aggregate.Row, title, xLabel string, xOf, stackOf func(aggregate.Row) string) StackedBarChart {
	type cell struct {
		x     string
		stack string
	}
	counts := make(map[cell]int)
	labelSet := make(map[string]bool)
	stackSet := make(map[string]bool)
	for _, row := range rows {
		key := cell{x: xOf(row), stack: stackOf(row)}
		counts[key] += row.Count
		labelSet[key.x] = true
		stackSet[key.stack] = true
	}

	labels := sortedKeys(labelSet)
	stacks := sortedKeys(stackSet)

	series := make([]ChartSeries, 0, len(stacks))
	for _, stack := range stacks {
		values := make([]int, len(labels))
		for i, label := range labels {
			values[i] = counts[cell{x: label, stack: stack}]
		}
		series = append(series, ChartSeries{Name: stack, Values: values})
	}

	return StackedBarChart{Title: title, XLabel: xLabel, Labels: labels, Series: series}
}

// NewComparisonChart lines up per-bucket totals of several named tables over
// the union of their buckets.
func NewComparisonChart(title string, named map[string]map[string]int) StackedBarChart {
	labelSet := make(map[string]bool)
	for _, series := range named {
		for bucket := range series {
			labelSet[bucket] = true
		}
	}
	labels := sortedKeys(labelSet)

	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)

	series := make([]ChartSeries, 0, len(names))
	for _, name := range names {
		values := make([]int, len(labels))
		for i, label := range labels {
			values[i] = named[name][label]
		}
		series = append(series, ChartSeries{Name: name, Values: values})
	}

	return StackedBarChart{Title: title, Labels: labels, Series: series}
}

// NewChoropleth collapses a table to per-country counts.
func NewChoropleth(table *aggregate.Table) []CountryCount {
	counts := make(map[string]int)
	for _, row := range table.Rows {
		counts[row.Country] += row.Count
	}
	return NewCountryCounts(counts)
}

// NewCountryCounts turns a per-country count map into sorted choropleth
// points.
func NewCountryCounts(counts map[string]int) []CountryCount {
	out := make([]CountryCount, 0, len(counts))
	for country, count := range counts {
		out = append(out, CountryCount{Country: country, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Country < out[j].Country })
	return out
}

// PieSlice is one labelled share of a pie panel.
type PieSlice struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// NewPieChart turns labelled counts into sorted pie slices.
func NewPieChart(counts map[string]int) []PieSlice {
	out := make([]PieSlice, 0, len(counts))
	for label, count := range counts {
		out = append(out, PieSlice{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// FunnelChart is the wire shape of a funnel panel.
type FunnelChart struct {
	Title   string                `json:"title"`
	Entered int                   `json:"entered"`
	Stages  []metrics.FunnelStage `json:"stages"`
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
