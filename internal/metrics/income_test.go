package metrics

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublytics/sublytics/internal/domain/payment"
	"github.com/sublytics/sublytics/internal/testutil"
)

func TestWalletIncomeUSD(t *testing.T) {
	income, err := WalletIncomeUSD(decimal.NewFromInt(120000), decimal.NewFromInt(1200))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(income))
}

func TestWalletIncomeUSDRejectsNonPositiveRate(t *testing.T) {
	_, err := WalletIncomeUSD(decimal.NewFromInt(100), decimal.Zero)
	assert.Error(t, err)

	_, err = WalletIncomeUSD(decimal.NewFromInt(100), decimal.NewFromInt(-5))
	assert.Error(t, err)
}

func TestCardIncomeUSD(t *testing.T) {
	converter := testutil.NewFakeConverter()
	converter.SetRate("EUR", "USD", decimal.NewFromFloat(1.1))

	totals := []payment.CurrencyTotal{
		{Currency: "USD", Total: decimal.NewFromInt(100)},
		{Currency: "EUR", Total: decimal.NewFromInt(50)},
	}

	sum, unconverted := CardIncomeUSD(context.Background(), totals, converter)
	assert.True(t, decimal.NewFromInt(155).Equal(sum), sum.String())
	assert.Empty(t, unconverted)
}

func TestCardIncomeUSDSurfacesUnconverted(t *testing.T) {
	converter := testutil.NewFakeConverter()

	totals := []payment.CurrencyTotal{
		{Currency: "USD", Total: decimal.NewFromInt(100)},
		{Currency: "BRL", Total: decimal.NewFromInt(400)},
	}

	sum, unconverted := CardIncomeUSD(context.Background(), totals, converter)
	assert.True(t, decimal.NewFromInt(100).Equal(sum), sum.String())
	require.Len(t, unconverted, 1)
	assert.Equal(t, "BRL", unconverted[0].Currency)
	assert.True(t, decimal.NewFromInt(400).Equal(unconverted[0].Amount))
	assert.False(t, unconverted[0].Converted)
}

func TestBlendIncome(t *testing.T) {
	summary := BlendIncome(decimal.NewFromInt(100), decimal.NewFromInt(55), nil)
	assert.True(t, decimal.NewFromInt(155).Equal(summary.TotalIncome))
	assert.Empty(t, summary.Unconverted)
}

func TestMonthlyTotalIncome(t *testing.T) {
	walletPayments := []*payment.Payment{
		{ApprovedAt: "2025-01-10T12:00:00.000Z", Amount: decimal.NewFromInt(120000)},
		{ApprovedAt: "2025-01-20T12:00:00.000Z", Amount: decimal.NewFromInt(60000)},
		{ApprovedAt: "2025-02-05T12:00:00.000Z", Amount: decimal.NewFromInt(120000)},
	}
	cardPayments := []*payment.Payment{
		{CreatedAt: "2025-02-14T08:00:00Z", Amount: decimal.NewFromInt(30)},
	}
	extraCredit := []ExtraCreditPoint{
		{Bucket: "2025-03", Amount: decimal.NewFromInt(12), Count: 3},
	}

	rows, err := MonthlyTotalIncome(walletPayments, cardPayments, extraCredit, decimal.NewFromInt(1200))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "2025-01", rows[0].Bucket)
	assert.True(t, decimal.NewFromInt(150).Equal(rows[0].WalletIncome))
	assert.True(t, decimal.NewFromInt(150).Equal(rows[0].TotalIncome))

	assert.Equal(t, "2025-02", rows[1].Bucket)
	assert.True(t, decimal.NewFromInt(100).Equal(rows[1].WalletIncome))
	assert.True(t, decimal.NewFromInt(30).Equal(rows[1].CardIncome))
	assert.True(t, decimal.NewFromInt(130).Equal(rows[1].TotalIncome))

	assert.Equal(t, "2025-03", rows[2].Bucket)
	assert.True(t, rows[2].WalletIncome.IsZero())
	assert.True(t, decimal.NewFromInt(12).Equal(rows[2].ExtraCreditIncome))
	assert.True(t, decimal.NewFromInt(12).Equal(rows[2].TotalIncome))
}

func TestMonthlyTotalIncomeRejectsZeroRate(t *testing.T) {
	_, err := MonthlyTotalIncome(nil, nil, nil, decimal.Zero)
	assert.Error(t, err)
}

func TestMonthlyTotalIncomeUnparseableTimestamp(t *testing.T) {
	walletPayments := []*payment.Payment{
		{ApprovedAt: "garbage", Amount: decimal.NewFromInt(100)},
	}
	_, err := MonthlyTotalIncome(walletPayments, nil, nil, decimal.NewFromInt(1200))
	assert.Error(t, err)
}

func TestMonthlyPlanIncome(t *testing.T) {
	payments := []*payment.Payment{
		{CreatedAt: "2025-01-05T00:00:00Z", Amount: decimal.NewFromInt(30)},
		{CreatedAt: "2025-01-15T00:00:00Z", Amount: decimal.NewFromInt(30)},
		{CreatedAt: "2025-01-20T00:00:00Z", Amount: decimal.NewFromFloat(5.32)},
		{CreatedAt: "2025-02-01T00:00:00Z", Amount: decimal.NewFromFloat(7.77)},
	}

	rows, err := MonthlyPlanIncome(payments)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "2025-01", rows[0].Bucket)
	assert.Equal(t, "Plan Plus", rows[0].Plan)
	assert.Equal(t, 2, rows[0].Count)
	assert.True(t, decimal.NewFromInt(60).Equal(rows[0].Amount))

	assert.Equal(t, "Plus US / ESP", rows[1].Plan)
	assert.Equal(t, 1, rows[1].Count)

	assert.Equal(t, "2025-02", rows[2].Bucket)
	assert.Equal(t, "Recarga", rows[2].Plan)
}

func TestWalletIncomeByCategory(t *testing.T) {
	payments := []*payment.Payment{
		{Description: "Suscripción mensual", Amount: decimal.NewFromInt(12000)},
		{Description: "ScribeMe Plus subscription", Amount: decimal.NewFromInt(12000)},
		{Description: "Compra de tokens", Amount: decimal.NewFromInt(3000)},
		{Description: "Ajuste", Amount: decimal.NewFromInt(500)},
	}

	totals := WalletIncomeByCategory(payments)
	require.Len(t, totals, 3)

	byCategory := make(map[payment.Category]CategoryTotal)
	for _, total := range totals {
		byCategory[total.Category] = total
	}
	assert.Equal(t, 2, byCategory[payment.CategorySubscription].Count)
	assert.True(t, decimal.NewFromInt(24000).Equal(byCategory[payment.CategorySubscription].Amount))
	assert.Equal(t, 1, byCategory[payment.CategoryTokenTopUp].Count)
	assert.Equal(t, 1, byCategory[payment.CategoryOther].Count)
}

func TestMonthlyExtraCreditIncome(t *testing.T) {
	converter := testutil.NewFakeConverter()
	converter.SetRate("EUR", "USD", decimal.NewFromInt(2))

	payments := []*payment.Payment{
		{CreatedAt: "2025-01-05T00:00:00Z", Amount: decimal.NewFromInt(5), Currency: "USD"},
		{CreatedAt: "2025-01-10T00:00:00Z", Amount: decimal.NewFromInt(3), Currency: "EUR"},
		{CreatedAt: "2025-02-01T00:00:00Z", Amount: decimal.NewFromInt(7), Currency: "BRL"},
	}

	points, unconverted, err := MonthlyExtraCreditIncome(context.Background(), payments, converter)
	require.NoError(t, err)

	require.Len(t, points, 1)
	assert.Equal(t, "2025-01", points[0].Bucket)
	assert.True(t, decimal.NewFromInt(11).Equal(points[0].Amount), points[0].Amount.String())
	assert.Equal(t, 2, points[0].Count)
	require.Len(t, unconverted, 1)
	assert.Equal(t, "BRL", unconverted[0].Currency)
}
