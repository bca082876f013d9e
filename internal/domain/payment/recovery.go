package payment

import "github.com/shopspring/decimal"

// RecoveryRecord is one row of an uploaded revenue-recovery export: a failed
// recurring charge plus whatever recovery progress has been made on it.
type RecoveryRecord struct {
	InitialPaymentFailedAt string          `csv:"initial_payment_failed_at"`
	InitialFailedAmount    decimal.Decimal `csv:"initial_failed_amount"`
	DeclineReason          string          `csv:"initial_payment_decline_reason"`
	RecoveryStatus         string          `csv:"recovery_status"`
	RecoveryMethod         string          `csv:"recovery_method"`
	RecoveredAt            string          `csv:"recovered_at"`
	RecoveredAmount        decimal.Decimal `csv:"recovered_amount"`
	SubscriptionStatus     string          `csv:"subscription_status"`
}

// Recovery status literals as exported by the card provider.
const (
	RecoveryStatusInRecovery   = "In recovery"
	RecoveryStatusRecovered    = "Recovered"
	RecoveryStatusNotRecovered = "Not recovered"
)
