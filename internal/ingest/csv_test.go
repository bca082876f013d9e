package ingest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublytics/sublytics/internal/logger"
)

func newTestLoader() *Loader {
	return NewLoader(logger.GetLogger())
}

func walletExportCSV(rows, duplicates int) []byte {
	var b strings.Builder
	b.WriteString("status,start_date,last_charge_date,billing_day\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "authorized,2025-01-%02d,2025-02-%02d,26\n", i%28+1, i%28+1)
	}
	for i := 0; i < duplicates; i++ {
		fmt.Fprintf(&b, "authorized,2025-01-%02d,2025-02-%02d,26\n", i%28+1, i%28+1)
	}
	return []byte(b.String())
}

func TestLoadWalletExportDropsDuplicates(t *testing.T) {
	loader := newTestLoader()

	rows, dropped, err := loader.LoadWalletExport("export.csv", walletExportCSV(28, 10))
	require.NoError(t, err)
	assert.Len(t, rows, 28)
	assert.Equal(t, 10, dropped)
}

func TestLoadWalletExportRejectsWrongExtension(t *testing.T) {
	loader := newTestLoader()
	_, _, err := loader.LoadWalletExport("export.xlsx", walletExportCSV(3, 0))
	assert.Error(t, err)
}

func TestLoadWalletExportRejectsEmptyFile(t *testing.T) {
	loader := newTestLoader()
	_, _, err := loader.LoadWalletExport("export.csv", nil)
	assert.Error(t, err)
}

func TestLoadWalletExportRejectsBinaryPayload(t *testing.T) {
	loader := newTestLoader()
	// PNG magic bytes with a csv extension
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}
	_, _, err := loader.LoadWalletExport("export.csv", png)
	assert.Error(t, err)
}

func TestLoadWalletExportMalformedCSV(t *testing.T) {
	loader := newTestLoader()
	data := []byte("status,start_date\n\"unterminated,2025-01-01\n")
	_, _, err := loader.LoadWalletExport("export.csv", data)
	assert.Error(t, err)
}

func TestLoadRecoveryExportDropsDuplicates(t *testing.T) {
	loader := newTestLoader()

	data := []byte(strings.Join([]string{
		"initial_payment_failed_at,initial_failed_amount,initial_payment_decline_reason,recovery_status,recovery_method,recovered_at,recovered_amount,subscription_status",
		"2025-01-05,30,insufficient_funds,Recovered,Smart Retries,2025-01-10,30,active",
		"2025-01-05,30,insufficient_funds,Recovered,Smart Retries,2025-01-10,30,active",
		"2025-01-12,100,expired_card,Not recovered,,,0,canceled",
	}, "\n"))

	records, dropped, err := loader.LoadRecoveryExport("recovery.csv", data)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, "insufficient_funds", records[0].DeclineReason)
	assert.Equal(t, "canceled", records[1].SubscriptionStatus)
}
