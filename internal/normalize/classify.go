package normalize

import (
	"strings"

	"github.com/sublytics/sublytics/internal/domain/subscription"
	"github.com/sublytics/sublytics/internal/types"
)

// Plan type labels produced by the classification cascade.
const (
	PlanTypeFree     = "free"
	PlanTypeManual   = "manual"
	PlanTypeDiscount = "discount"
	PlanTypeOther    = "Other"
)

// planRule is one step of the plan classification cascade.
type planRule struct {
	name  string
	match func(*subscription.Record) bool
	label string
}

// planRules is evaluated strictly in order with first-match-wins semantics:
// source based rules first, then reason based rules, then provider based
// rules. A record matching several rules is always classified by the
// earliest one, so the ordering here is load bearing.
var planRules = []planRule{
	// source based
	{
		name:  "gift channel",
		match: func(r *subscription.Record) bool { return r.Source == "gift" },
		label: PlanTypeFree,
	},
	// reason based
	{
		name: "discounted reason",
		match: func(r *subscription.Record) bool {
			reason := strings.ToLower(r.Reason)
			return strings.Contains(reason, "discount") ||
				strings.Contains(reason, "20% off") ||
				strings.Contains(reason, "10d")
		},
		label: PlanTypeDiscount,
	},
	{
		name:  "free reason",
		match: func(r *subscription.Record) bool { return strings.EqualFold(r.Reason, "free") },
		label: PlanTypeFree,
	},
	// provider based
	{
		name:  "free provider",
		match: func(r *subscription.Record) bool { return r.Provider == string(types.ProviderFree) },
		label: PlanTypeFree,
	},
	{
		name:  "manual provider",
		match: func(r *subscription.Record) bool { return r.Provider == string(types.ProviderManual) },
		label: PlanTypeManual,
	},
	{
		name:  "discount provider",
		match: func(r *subscription.Record) bool { return r.Provider == string(types.ProviderWalletDiscount) },
		label: PlanTypeDiscount,
	},
}

// ClassifyPlan buckets a wallet-side subscription into a plan type. The
// function is total: records matching no rule land in the "Other" bucket.
func ClassifyPlan(record *subscription.Record) string {
	for _, rule := range planRules {
		if rule.match(record) {
			return rule.label
		}
	}
	return PlanTypeOther
}
