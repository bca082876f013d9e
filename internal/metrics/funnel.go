package metrics

import "sort"

// FunnelStage is one step of the onboarding funnel with the number of cohort
// members whose furthest progress is exactly this stage.
type FunnelStage struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// FunnelResult is the onboarding funnel for one cohort. Stage counts are
// mutually exclusive, so they sum to Entered.
type FunnelResult struct {
	Entered int           `json:"entered"`
	Stages  []FunnelStage `json:"stages"`
}

// Funnel counts cohort members per stage. statuses holds each member's
// furthest stage; stageOrder fixes the output ordering and pins every stage
// into the result even when no member reached it. Members whose status is not
// in stageOrder are counted in Entered but in no stage.
func Funnel(statuses []string, stageOrder []string) FunnelResult {
	counts := make(map[string]int, len(stageOrder))
	for _, status := range statuses {
		counts[status]++
	}

	stages := make([]FunnelStage, 0, len(stageOrder))
	for _, name := range stageOrder {
		stages = append(stages, FunnelStage{Name: name, Count: counts[name]})
	}

	return FunnelResult{Entered: len(statuses), Stages: stages}
}

// BalancePoint is the created-minus-cancelled balance for one
// (bucket, country) pair.
type BalancePoint struct {
	Bucket    string `json:"bucket"`
	Country   string `json:"country"`
	Created   int    `json:"created"`
	Cancelled int    `json:"cancelled"`
	Balance   int    `json:"balance"`
}

// Balance joins per-(bucket, country) created and cancelled counts into
// balance points, zero-filling pairs missing on either side.
func Balance(created, cancelled map[string]map[string]int) []BalancePoint {
	type pairKey struct {
		bucket  string
		country string
	}
	seen := make(map[pairKey]bool)
	for bucket, byCountry := range created {
		for country := range byCountry {
			seen[pairKey{bucket, country}] = true
		}
	}
	for bucket, byCountry := range cancelled {
		for country := range byCountry {
			seen[pairKey{bucket, country}] = true
		}
	}

	points := make([]BalancePoint, 0, len(seen))
	for key := range seen {
		c := created[key.bucket][key.country]
		x := cancelled[key.bucket][key.country]
		points = append(points, BalancePoint{
			Bucket:    key.bucket,
			Country:   key.country,
			Created:   c,
			Cancelled: x,
			Balance:   c - x,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Bucket != points[j].Bucket {
			return points[i].Bucket < points[j].Bucket
		}
		return points[i].Country < points[j].Country
	})
	return points
}
