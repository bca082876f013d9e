package metrics

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublytics/sublytics/internal/domain/payment"
)

func recoveryRecord(failedAt string, amount float64, reason, status string) *payment.RecoveryRecord {
	return &payment.RecoveryRecord{
		InitialPaymentFailedAt: failedAt,
		InitialFailedAmount:    decimal.NewFromFloat(amount),
		DeclineReason:          reason,
		RecoveryStatus:         status,
	}
}

func TestSummarizeRecovery(t *testing.T) {
	records := []*payment.RecoveryRecord{
		recoveryRecord("2025-01-05", 30, "insufficient_funds", payment.RecoveryStatusRecovered),
		recoveryRecord("2025-01-12", 30, "expired_card", payment.RecoveryStatusNotRecovered),
		recoveryRecord("2025-02-01", 100, "insufficient_funds", payment.RecoveryStatusInRecovery),
		recoveryRecord("2025-02-10", 30, "do_not_honor", payment.RecoveryStatusRecovered),
	}
	records[0].RecoveredAmount = decimal.NewFromInt(30)
	records[3].RecoveredAmount = decimal.NewFromInt(30)

	summary := SummarizeRecovery(records)

	assert.Equal(t, 4, summary.Failed)
	assert.Equal(t, 2, summary.Recovered)
	assert.Equal(t, 1, summary.InRecovery)
	assert.Equal(t, 1, summary.NotRecovered)
	assert.True(t, decimal.NewFromInt(190).Equal(summary.FailedAmount))
	assert.True(t, decimal.NewFromInt(60).Equal(summary.RecoveredAmount))
	assert.Equal(t, 0.5, summary.RecoveryRate)
}

func TestSummarizeRecoveryEmpty(t *testing.T) {
	summary := SummarizeRecovery(nil)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, 0.0, summary.RecoveryRate)
}

func TestFailedAmountByStatus(t *testing.T) {
	records := []*payment.RecoveryRecord{
		recoveryRecord("2025-01-05", 30, "x", payment.RecoveryStatusRecovered),
		recoveryRecord("2025-01-20", 30, "x", payment.RecoveryStatusRecovered),
		recoveryRecord("2025-01-25", 100, "x", payment.RecoveryStatusNotRecovered),
		recoveryRecord("2025-02-01", 30, "x", payment.RecoveryStatusInRecovery),
	}

	cells, err := FailedAmountByStatus(records)
	require.NoError(t, err)
	require.Len(t, cells, 3)

	assert.Equal(t, "2025-01", cells[0].Bucket)
	assert.Equal(t, payment.RecoveryStatusNotRecovered, cells[0].Label)
	assert.True(t, decimal.NewFromInt(100).Equal(cells[0].Amount))

	assert.Equal(t, payment.RecoveryStatusRecovered, cells[1].Label)
	assert.True(t, decimal.NewFromInt(60).Equal(cells[1].Amount))

	assert.Equal(t, "2025-02", cells[2].Bucket)
	assert.Equal(t, payment.RecoveryStatusInRecovery, cells[2].Label)
}

func TestFailedAmountByStatusUnparseableDate(t *testing.T) {
	_, err := FailedAmountByStatus([]*payment.RecoveryRecord{
		recoveryRecord("garbage", 30, "x", payment.RecoveryStatusRecovered),
	})
	assert.Error(t, err)
}

func TestRecoveredAmountByMethod(t *testing.T) {
	recovered := recoveryRecord("2025-01-05", 30, "x", payment.RecoveryStatusRecovered)
	recovered.RecoveredAt = "2025-01-18"
	recovered.RecoveredAmount = decimal.NewFromInt(30)
	recovered.RecoveryMethod = "Smart Retries"

	pending := recoveryRecord("2025-01-10", 100, "x", payment.RecoveryStatusInRecovery)

	cells, err := RecoveredAmountByMethod([]*payment.RecoveryRecord{recovered, pending})
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, "2025-01", cells[0].Bucket)
	assert.Equal(t, "Smart Retries", cells[0].Label)
	assert.True(t, decimal.NewFromInt(30).Equal(cells[0].Amount))
}

func TestDeclineReasonBreakdownFoldsTail(t *testing.T) {
	var records []*payment.RecoveryRecord
	// six distinct small reasons plus one dominant one; the smallest falls
	// into Others
	for i := 0; i < 6; i++ {
		records = append(records, recoveryRecord("2025-01-10", float64(10+i), fmt.Sprintf("reason_%d", i), payment.RecoveryStatusNotRecovered))
	}
	records = append(records, recoveryRecord("2025-01-15", 500, "insufficient_funds", payment.RecoveryStatusNotRecovered))

	shares, err := DeclineReasonBreakdown(records)
	require.NoError(t, err)

	byReason := make(map[string]DeclineReasonShare)
	for _, share := range shares {
		byReason[share.Reason] = share
	}

	// insufficient_funds and the four largest reason_N survive; reason_0 and
	// reason_1 fold into Others
	assert.Contains(t, byReason, "insufficient_funds")
	assert.Contains(t, byReason, OthersReason)
	assert.NotContains(t, byReason, "reason_0")
	assert.NotContains(t, byReason, "reason_1")
	assert.Contains(t, byReason, "reason_5")
	require.Len(t, shares, 6)

	others := byReason[OthersReason]
	assert.True(t, decimal.NewFromInt(21).Equal(others.Amount), others.Amount.String())

	totalPercent := 0.0
	for _, share := range shares {
		totalPercent += share.Percent
	}
	assert.InDelta(t, 100, totalPercent, 0.001)
}

func TestRecoveryFunnelOrdering(t *testing.T) {
	records := []*payment.RecoveryRecord{
		{SubscriptionStatus: "active"},
		{SubscriptionStatus: "active"},
		{SubscriptionStatus: "canceled"},
		{SubscriptionStatus: "unpaid"},
	}

	result := RecoveryFunnel(records)
	assert.Equal(t, 4, result.Entered)

	names := make([]string, 0, len(result.Stages))
	for _, stage := range result.Stages {
		names = append(names, stage.Name)
	}
	assert.Equal(t, []string{"unpaid", "past_due", "active", "canceled", "incomplete"}, names)
	assert.Equal(t, 2, result.Stages[2].Count)
}
