package metrics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sublytics/sublytics/internal/domain/payment"
	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/types"
)

// OthersReason is the bucket collecting decline reasons outside the top N.
const OthersReason = "Others"

// declineReasonTopN caps how many individual decline reasons are broken out
// before the rest collapse into the Others bucket.
const declineReasonTopN = 5

// RecoverySummary aggregates an uploaded revenue-recovery export.
type RecoverySummary struct {
	Failed          int             `json:"failed"`
	Recovered       int             `json:"recovered"`
	InRecovery      int             `json:"in_recovery"`
	NotRecovered    int             `json:"not_recovered"`
	FailedAmount    decimal.Decimal `json:"failed_amount"`
	RecoveredAmount decimal.Decimal `json:"recovered_amount"`
	RecoveryRate    float64         `json:"recovery_rate"`
}

// SummarizeRecovery totals an uploaded recovery export: failure and recovery
// counts, the amounts at stake, and the recovered share of failed charges.
func SummarizeRecovery(records []*payment.RecoveryRecord) RecoverySummary {
	var summary RecoverySummary
	for _, record := range records {
		summary.Failed++
		summary.FailedAmount = summary.FailedAmount.Add(record.InitialFailedAmount)
		switch record.RecoveryStatus {
		case payment.RecoveryStatusRecovered:
			summary.Recovered++
			summary.RecoveredAmount = summary.RecoveredAmount.Add(record.RecoveredAmount)
		case payment.RecoveryStatusInRecovery:
			summary.InRecovery++
		case payment.RecoveryStatusNotRecovered:
			summary.NotRecovered++
		}
	}
	summary.FailedAmount = summary.FailedAmount.Round(2)
	summary.RecoveredAmount = summary.RecoveredAmount.Round(2)
	summary.RecoveryRate = RatioOrZero(float64(summary.Recovered), float64(summary.Failed))
	return summary
}

// AmountCell is one (month, label) amount cell of a recovery breakdown.
type AmountCell struct {
	Bucket string          `json:"bucket"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// FailedAmountByStatus buckets failed charge amounts by failure month and
// recovery status.
func FailedAmountByStatus(records []*payment.RecoveryRecord) ([]AmountCell, error) {
	cells := make(map[cellKey]decimal.Decimal)
	for _, record := range records {
		bucket, err := failureMonth(record)
		if err != nil {
			return nil, err
		}
		key := cellKey{bucket, record.RecoveryStatus}
		cells[key] = cells[key].Add(record.InitialFailedAmount)
	}
	return sortedCells(cells), nil
}

// RecoveredAmountByMethod buckets recovered amounts by recovery month and
// recovery method. Only records that actually recovered participate.
func RecoveredAmountByMethod(records []*payment.RecoveryRecord) ([]AmountCell, error) {
	cells := make(map[cellKey]decimal.Decimal)
	for _, record := range records {
		if record.RecoveryStatus != payment.RecoveryStatusRecovered {
			continue
		}
		ts, err := types.ParseTimestamp(record.RecoveredAt)
		if err != nil {
			return nil, ierr.WithError(err).
				WithMessage("recovery record has an unparseable recovery date").
				WithReportableDetails(map[string]any{"recovered_at": record.RecoveredAt}).
				Mark(ierr.ErrValidation)
		}
		key := cellKey{types.GroupByMonth.Bucket(ts), record.RecoveryMethod}
		cells[key] = cells[key].Add(record.RecoveredAmount)
	}
	return sortedCells(cells), nil
}

// DeclineReasonShare is one (month, reason) cell with its share of that
// month's failed amount.
type DeclineReasonShare struct {
	Bucket  string          `json:"bucket"`
	Reason  string          `json:"reason"`
	Amount  decimal.Decimal `json:"amount"`
	Percent float64         `json:"percent"`
}

// DeclineReasonBreakdown buckets failed amounts by month and decline reason.
// The reasons with the largest overall failed volume are kept individually
// and the rest fold into the Others bucket; each cell carries its percentage
// of that month's failed amount.
func DeclineReasonBreakdown(records []*payment.RecoveryRecord) ([]DeclineReasonShare, error) {
	overall := make(map[string]decimal.Decimal)
	cells := make(map[cellKey]decimal.Decimal)
	monthTotals := make(map[string]decimal.Decimal)

	for _, record := range records {
		bucket, err := failureMonth(record)
		if err != nil {
			return nil, err
		}
		reason := record.DeclineReason
		overall[reason] = overall[reason].Add(record.InitialFailedAmount)
		key := cellKey{bucket, reason}
		cells[key] = cells[key].Add(record.InitialFailedAmount)
		monthTotals[bucket] = monthTotals[bucket].Add(record.InitialFailedAmount)
	}

	top := topReasons(overall, declineReasonTopN)

	folded := make(map[cellKey]decimal.Decimal)
	for key, amount := range cells {
		reason := key.label
		if !top[reason] {
			reason = OthersReason
		}
		fkey := cellKey{key.bucket, reason}
		folded[fkey] = folded[fkey].Add(amount)
	}

	shares := make([]DeclineReasonShare, 0, len(folded))
	for key, amount := range folded {
		percent := 0.0
		if total := monthTotals[key.bucket]; !total.IsZero() {
			percent, _ = amount.Div(total).Mul(decimal.NewFromInt(100)).Float64()
		}
		shares = append(shares, DeclineReasonShare{
			Bucket:  key.bucket,
			Reason:  key.label,
			Amount:  amount.Round(2),
			Percent: percent,
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Bucket != shares[j].Bucket {
			return shares[i].Bucket < shares[j].Bucket
		}
		return shares[i].Reason < shares[j].Reason
	})
	return shares, nil
}

// RecoveryFunnelStages fixes the subscription-status ordering of the
// recovery funnel.
var RecoveryFunnelStages = []string{
	string(types.SubscriptionStatusUnpaid),
	string(types.SubscriptionStatusPastDue),
	string(types.SubscriptionStatusActive),
	"canceled",
	string(types.SubscriptionStatusIncomplete),
}

// RecoveryFunnel counts recovery records per current subscription status.
func RecoveryFunnel(records []*payment.RecoveryRecord) FunnelResult {
	statuses := make([]string, 0, len(records))
	for _, record := range records {
		statuses = append(statuses, record.SubscriptionStatus)
	}
	return Funnel(statuses, RecoveryFunnelStages)
}

type cellKey struct {
	bucket string
	label  string
}

func failureMonth(record *payment.RecoveryRecord) (string, error) {
	ts, err := types.ParseTimestamp(record.InitialPaymentFailedAt)
	if err != nil {
		return "", ierr.WithError(err).
			WithMessage("recovery record has an unparseable failure date").
			WithReportableDetails(map[string]any{"initial_payment_failed_at": record.InitialPaymentFailedAt}).
			Mark(ierr.ErrValidation)
	}
	return types.GroupByMonth.Bucket(ts), nil
}

func sortedCells(cells map[cellKey]decimal.Decimal) []AmountCell {
	out := make([]AmountCell, 0, len(cells))
	for key, amount := range cells {
		out = append(out, AmountCell{Bucket: key.bucket, Label: key.label, Amount: amount.Round(2)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bucket != out[j].Bucket {
			return out[i].Bucket < out[j].Bucket
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func topReasons(overall map[string]decimal.Decimal, n int) map[string]bool {
	type reasonAmount struct {
		reason string
		amount decimal.Decimal
	}
	ranked := make([]reasonAmount, 0, len(overall))
	for reason, amount := range overall {
		ranked = append(ranked, reasonAmount{reason, amount})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].amount.Equal(ranked[j].amount) {
			return ranked[i].amount.GreaterThan(ranked[j].amount)
		}
		return ranked[i].reason < ranked[j].reason
	})

	top := make(map[string]bool, n)
	for i, ra := range ranked {
		if i >= n {
			break
		}
		top[ra.reason] = true
	}
	return top
}
