package metrics

import (
	"time"

	"github.com/sublytics/sublytics/internal/domain/subscription"
	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/types"
)

const walletBillingDay = 26

// WalletExportSeries is the monthly lifecycle picture derived from an
// uploaded wallet subscriber export: creations by start month, cancellations
// by expiration month, and the current status mix.
type WalletExportSeries struct {
	Created      map[string]int `json:"created"`
	Cancelled    map[string]int `json:"cancelled"`
	StatusCounts map[string]int `json:"status_counts"`
}

// NextBillingCutoff returns the subscription's expiration instant under the
// wallet provider's billing cycle: the next 26th strictly after the last
// charge date. A charge on the 26th itself is covered until the following
// month's 26th.
func NextBillingCutoff(lastCharge time.Time) time.Time {
	cutoff := time.Date(lastCharge.Year(), lastCharge.Month(), walletBillingDay, 0, 0, 0, 0, time.UTC)
	if !lastCharge.Before(cutoff) {
		cutoff = cutoff.AddDate(0, 1, 0)
	}
	return cutoff
}

// WalletExportLifecycle derives monthly created and cancelled series from an
// uploaded subscriber export. Creations bucket by start month. A cancelled
// subscription keeps access until the next 26th after its last charge, so its
// cancellation buckets to that cutoff's month rather than to the cancellation
// click itself. Rows with an unparseable date fail the upload.
func WalletExportLifecycle(rows []subscription.ExportRow) (*WalletExportSeries, error) {
	series := &WalletExportSeries{
		Created:      make(map[string]int),
		Cancelled:    make(map[string]int),
		StatusCounts: make(map[string]int),
	}

	for _, row := range rows {
		start, err := types.ParseTimestamp(row.StartDate)
		if err != nil {
			return nil, ierr.WithError(err).
				WithMessage("export row has an unparseable start date").
				WithReportableDetails(map[string]any{"start_date": row.StartDate}).
				Mark(ierr.ErrValidation)
		}
		series.Created[types.GroupByMonth.Bucket(start)]++

		status := types.ParseSubscriptionStatus(row.Status)
		series.StatusCounts[string(status)]++

		if status != types.SubscriptionStatusCancelled {
			continue
		}
		lastCharge, err := types.ParseTimestamp(row.LastChargeDate)
		if err != nil {
			return nil, ierr.WithError(err).
				WithMessage("export row has an unparseable last charge date").
				WithReportableDetails(map[string]any{"last_charge_date": row.LastChargeDate}).
				Mark(ierr.ErrValidation)
		}
		cutoff := NextBillingCutoff(lastCharge)
		series.Cancelled[types.GroupByMonth.Bucket(cutoff)]++
	}

	return series, nil
}
