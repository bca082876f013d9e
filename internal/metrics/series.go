package metrics

import "sort"

// NetPoint is one bucket of a net subscription series.
type NetPoint struct {
	Bucket     string `json:"bucket"`
	Created    int    `json:"created"`
	Cancelled  int    `json:"cancelled"`
	Incomplete int    `json:"incomplete"`
	Net        int    `json:"net"`
}

// NetSeries outer-joins created, cancelled and incomplete per-bucket counts,
// filling missing buckets with zero, and computes
// net = created - cancelled - incomplete per bucket. The result covers the
// union of buckets across the three inputs, in ascending order.
func NetSeries(created, cancelled, incomplete map[string]int) []NetPoint {
	buckets := unionKeys(created, cancelled, incomplete)
	points := make([]NetPoint, 0, len(buckets))
	for _, bucket := range buckets {
		c := created[bucket]
		x := cancelled[bucket]
		i := incomplete[bucket]
		points = append(points, NetPoint{
			Bucket:     bucket,
			Created:    c,
			Cancelled:  x,
			Incomplete: i,
			Net:        c - x - i,
		})
	}
	return points
}

// TotalsPoint is one bucket of the cross-provider totals series.
type TotalsPoint struct {
	Bucket             string `json:"bucket"`
	TotalCreations     int    `json:"total_creations"`
	TotalCancellations int    `json:"total_cancellations"`
	TotalIncomplete    int    `json:"total_incomplete"`
	NetTotal           int    `json:"net_total"`
}

// ProviderSeries carries one provider's created/cancelled/incomplete
// per-bucket counts. Providers without a transition log simply leave
// Incomplete nil.
type ProviderSeries struct {
	Created    map[string]int
	Cancelled  map[string]int
	Incomplete map[string]int
}

// CombinedTotals sums per-bucket counts across any number of providers and
// product lines into one total series, zero-filling buckets missing on any
// side.
func CombinedTotals(providers ...ProviderSeries) []TotalsPoint {
	maps := make([]map[string]int, 0, len(providers)*3)
	for _, p := range providers {
		maps = append(maps, p.Created, p.Cancelled, p.Incomplete)
	}
	buckets := unionKeys(maps...)

	points := make([]TotalsPoint, 0, len(buckets))
	for _, bucket := range buckets {
		var point TotalsPoint
		point.Bucket = bucket
		for _, p := range providers {
			point.TotalCreations += p.Created[bucket]
			point.TotalCancellations += p.Cancelled[bucket]
			point.TotalIncomplete += p.Incomplete[bucket]
		}
		point.NetTotal = point.TotalCreations - point.TotalCancellations - point.TotalIncomplete
		points = append(points, point)
	}
	return points
}

// RatioOrZero divides numerator by denominator, yielding 0 on an empty
// denominator instead of a division error.
func RatioOrZero(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// AverageOrZero averages per-bucket counts, yielding 0 for an empty series.
func AverageOrZero(series map[string]int) float64 {
	if len(series) == 0 {
		return 0
	}
	total := 0
	for _, v := range series {
		total += v
	}
	return float64(total) / float64(len(series))
}

func unionKeys(maps ...map[string]int) []string {
	seen := make(map[string]bool)
	for _, m := range maps {
		for k := range m {
			seen[k] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
