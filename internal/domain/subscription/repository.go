package subscription

import (
	"context"

	"github.com/sublytics/sublytics/internal/types"
)

// Repository reads the wallet-provider current-state subscription collection.
type Repository interface {
	// ListCurrent returns every non-cancelled subscription snapshot,
	// excluding experiment gifts and balance-error grants.
	ListCurrent(ctx context.Context) (*Batch, error)
	// ListWithStatuses returns snapshots restricted to the given raw
	// statuses (no date window; used for current-state breakdowns).
	ListWithStatuses(ctx context.Context, statuses []string) (*Batch, error)
	// CountByStatus counts snapshots with the given raw status.
	CountByStatus(ctx context.Context, status string) (int64, error)
	// CountActivePlans counts authorized wallet subscriptions on the given
	// plan reasons.
	CountActivePlans(ctx context.Context, reasons []string) (int64, error)
	// ActivePlanCounts returns authorized subscriber counts per plan reason.
	ActivePlanCounts(ctx context.Context, reasons []string) ([]PlanCount, error)
}

// LifecycleRepository reads the card provider's state transition log. The
// log records transitions rather than current state, so creations,
// cancellations and incomplete expirations are three separate queries.
type LifecycleRepository interface {
	ListCreated(ctx context.Context, window types.DateWindow) ([]*LifecycleEvent, error)
	ListCancelled(ctx context.Context, window types.DateWindow) ([]*LifecycleEvent, error)
	ListIncomplete(ctx context.Context, window types.DateWindow) ([]*LifecycleEvent, error)
}

// ProductLineRepository reads the second product line's subscription
// collection (current-state tracking with explicit end timestamps).
type ProductLineRepository interface {
	ListSubscriptions(ctx context.Context) ([]*ProductLineRecord, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}
