package subscription

// Record is one subscription lifecycle snapshot as read from storage or an
// uploaded export. Country is derived at query time and never persisted.
type Record struct {
	AccountID string `bson:"user_id" json:"user_id"`
	Provider  string `bson:"provider" json:"provider"`
	Status    string `bson:"status" json:"status"`
	Source    string `bson:"source" json:"source"`
	Reason    string `bson:"reason" json:"reason"`
	StartDate string `bson:"start_date" json:"start_date"`
	Country   string `bson:"-" json:"country,omitempty"`
}

// Batch is a list of records plus the set of fields the originating query
// projected. Normalization distinguishes "values absent" (fixable by
// defaults) from "field structurally absent" (a schema mismatch).
type Batch struct {
	Records []*Record
	Columns map[string]bool
}

// HasColumn reports whether the batch was produced with the given field.
func (b *Batch) HasColumn(name string) bool {
	return b.Columns[name]
}

// LifecycleEvent is one state transition from the card provider's event log.
// Timestamp is already truncated to a YYYY-MM-DD date by the projection.
type LifecycleEvent struct {
	AccountID string `bson:"user_id" json:"user_id"`
	Source    string `bson:"source" json:"source"`
	Timestamp string `bson:"timestamp" json:"timestamp"`
}

// Lifecycle event description tags stored by the card provider webhook
// consumer. The event log records transitions, not current state, so
// creations, cancellations and incomplete expirations are separate streams.
const (
	EventNewSubscription   = "new_subscription"
	EventAlreadyCreated    = "subscription_already_created"
	EventCancelled         = "subscription_cancelled"
	EventIncompleteExpired = "subscription_incomplete_expired"
)

// ProductLineRecord is a subscription of the second product line, tracked
// current-state with explicit created/ended timestamps.
type ProductLineRecord struct {
	Status  string `bson:"status" json:"status"`
	Created string `bson:"created" json:"created"`
	EndedAt string `bson:"ended_at" json:"ended_at"`
	Plan    string `bson:"plan" json:"plan"`
}

// ExportRow is one row of an uploaded wallet-provider subscriber export.
// The struct is comparable so exact duplicate rows can be dropped.
type ExportRow struct {
	Status         string `csv:"status"`
	StartDate      string `csv:"start_date"`
	LastChargeDate string `csv:"last_charge_date"`
	BillingDay     string `csv:"billing_day"`
}

// PlanCount is a per-plan subscriber count.
type PlanCount struct {
	Reason string `bson:"reason" json:"reason"`
	Count  int    `bson:"count" json:"count"`
}

// WalletPlanReasons are the known wallet-provider plan spellings. The reason
// field is free text written by the provider, so these literals must match
// the stored data exactly.
var WalletPlanReasons = []string{
	"ScribeMe Plus 10d",
	"ScribeMe Plus discount",
	"ScribeMe Plus 2",
	"ScribeMe Plus",
	"ScribeMe Plus - Anual con 3 meses gratis",
	"ScribeMe Plus - mensual 20% off",
}

// WalletMainPlanReasons are the full-price monthly wallet plans.
var WalletMainPlanReasons = []string{
	"ScribeMe Plus",
	"ScribeMe Plus 2",
}

// WalletOtherPlanReasons are the promotional and annual wallet plans.
var WalletOtherPlanReasons = []string{
	"ScribeMe Plus discount",
	"ScribeMe Plus 10d",
	"ScribeMe Plus - mensual 20% off",
	"ScribeMe Plus - Anual con 3 meses gratis",
}
