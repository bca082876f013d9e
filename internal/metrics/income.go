package metrics

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sublytics/sublytics/internal/currency"
	"github.com/sublytics/sublytics/internal/domain/payment"
	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/types"
)

// TargetCurrency is the reporting currency every income figure is expressed
// in.
const TargetCurrency = "USD"

// IncomeSummary is the blended income picture for one window: wallet income
// converted at the official rate, card income converted per currency, and the
// total of whatever could be converted.
type IncomeSummary struct {
	WalletIncome decimal.Decimal   `json:"wallet_income"`
	CardIncome   decimal.Decimal   `json:"card_income"`
	TotalIncome  decimal.Decimal   `json:"total_income"`
	Unconverted  []currency.Result `json:"unconverted,omitempty"`
}

// WalletIncomeUSD converts a wallet-currency total into the reporting
// currency using the supplied ARS/USD sell rate.
func WalletIncomeUSD(walletTotal, dollarRate decimal.Decimal) (decimal.Decimal, error) {
	if dollarRate.IsZero() || dollarRate.IsNegative() {
		return decimal.Zero, ierr.NewError("dollar rate must be positive").
			WithHint("supply the official rate or a manual override").
			Mark(ierr.ErrValidation)
	}
	return walletTotal.Div(dollarRate).Round(2), nil
}

// CardIncomeUSD converts per-currency card totals into the reporting
// currency and sums them. Totals whose conversion fails are excluded from
// the sum and returned separately so the caller can surface them instead of
// silently mixing currencies.
func CardIncomeUSD(ctx context.Context, totals []payment.CurrencyTotal, converter currency.Converter) (decimal.Decimal, []currency.Result) {
	sum := decimal.Zero
	var unconverted []currency.Result
	for _, total := range totals {
		result := converter.Convert(ctx, total.Total, total.Currency, TargetCurrency)
		if !result.Converted {
			unconverted = append(unconverted, result)
			continue
		}
		sum = sum.Add(result.Amount)
	}
	return sum.Round(2), unconverted
}

// BlendIncome combines wallet and card income into a summary.
func BlendIncome(walletIncome, cardIncome decimal.Decimal, unconverted []currency.Result) IncomeSummary {
	return IncomeSummary{
		WalletIncome: walletIncome,
		CardIncome:   cardIncome,
		TotalIncome:  walletIncome.Add(cardIncome).Round(2),
		Unconverted:  unconverted,
	}
}

// MonthlyIncomeRow is one month of the blended income table: wallet income
// converted at the dollar rate, recurring card income, one-off credit income
// and their total.
type MonthlyIncomeRow struct {
	Bucket                 string          `json:"bucket"`
	WalletIncome           decimal.Decimal `json:"wallet_income"`
	CardSubscriptionIncome decimal.Decimal `json:"card_subscription_income"`
	ExtraCreditIncome      decimal.Decimal `json:"extra_credit_income"`
	CardIncome             decimal.Decimal `json:"card_income"`
	TotalIncome            decimal.Decimal `json:"total_income"`
}

// MonthlyTotalIncome outer-joins the three monthly income streams, filling
// missing months with zero. Wallet charges are summed by approval month and
// converted at the supplied ARS/USD rate; card subscription charges are
// summed by creation month; extra credit income arrives already converted.
func MonthlyTotalIncome(walletPayments, cardSubscriptionPayments []*payment.Payment, extraCredit []ExtraCreditPoint, dollarRate decimal.Decimal) ([]MonthlyIncomeRow, error) {
	if dollarRate.IsZero() || dollarRate.IsNegative() {
		return nil, ierr.NewError("dollar rate must be positive").
			WithHint("supply the official rate or a manual override").
			Mark(ierr.ErrValidation)
	}

	wallet := make(map[string]decimal.Decimal)
	for _, p := range walletPayments {
		ts, err := types.ParseTimestamp(p.ApprovedAt)
		if err != nil {
			return nil, ierr.WithError(err).
				WithMessage("payment batch contains an unparseable timestamp").
				WithReportableDetails(map[string]any{"date_approved": p.ApprovedAt}).
				Mark(ierr.ErrValidation)
		}
		bucket := types.GroupByMonth.Bucket(ts)
		wallet[bucket] = wallet[bucket].Add(p.Amount)
	}

	cardSubs := make(map[string]decimal.Decimal)
	for _, p := range cardSubscriptionPayments {
		ts, err := types.ParseTimestamp(p.CreatedAt)
		if err != nil {
			return nil, ierr.WithError(err).
				WithMessage("payment batch contains an unparseable timestamp").
				WithReportableDetails(map[string]any{"created": p.CreatedAt}).
				Mark(ierr.ErrValidation)
		}
		bucket := types.GroupByMonth.Bucket(ts)
		cardSubs[bucket] = cardSubs[bucket].Add(p.Amount)
	}

	extra := make(map[string]decimal.Decimal)
	for _, point := range extraCredit {
		extra[point.Bucket] = extra[point.Bucket].Add(point.Amount)
	}

	buckets := make(map[string]bool)
	for b := range wallet {
		buckets[b] = true
	}
	for b := range cardSubs {
		buckets[b] = true
	}
	for b := range extra {
		buckets[b] = true
	}

	ordered := make([]string, 0, len(buckets))
	for b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Strings(ordered)

	rows := make([]MonthlyIncomeRow, 0, len(ordered))
	for _, bucket := range ordered {
		walletUSD := wallet[bucket].Div(dollarRate).Round(2)
		subsIncome := cardSubs[bucket].Round(2)
		extraIncome := extra[bucket].Round(2)
		rows = append(rows, MonthlyIncomeRow{
			Bucket:                 bucket,
			WalletIncome:           walletUSD,
			CardSubscriptionIncome: subsIncome,
			ExtraCreditIncome:      extraIncome,
			CardIncome:             subsIncome.Add(extraIncome).Round(2),
			TotalIncome:            walletUSD.Add(subsIncome).Add(extraIncome).Round(2),
		})
	}
	return rows, nil
}

// PlanIncomeRow is one (month, plan) income cell.
type PlanIncomeRow struct {
	Bucket string          `json:"bucket"`
	Plan   string          `json:"plan"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// MonthlyPlanIncome buckets recurring card charges by month and plan label.
// The stored charges carry no plan field, so the label is derived from the
// exact amount. Charges with an unparseable timestamp fail the batch.
func MonthlyPlanIncome(payments []*payment.Payment) ([]PlanIncomeRow, error) {
	type cellKey struct {
		bucket string
		plan   string
	}
	type cell struct {
		count  int
		amount decimal.Decimal
	}

	cells := make(map[cellKey]cell)
	for _, p := range payments {
		ts, err := types.ParseTimestamp(p.CreatedAt)
		if err != nil {
			return nil, ierr.WithError(err).
				WithMessage("payment batch contains an unparseable timestamp").
				WithReportableDetails(map[string]any{"created": p.CreatedAt}).
				Mark(ierr.ErrValidation)
		}
		key := cellKey{
			bucket: types.GroupByMonth.Bucket(ts),
			plan:   payment.PlanLabelForAmount(p.Amount),
		}
		c := cells[key]
		c.count++
		c.amount = c.amount.Add(p.Amount)
		cells[key] = c
	}

	rows := make([]PlanIncomeRow, 0, len(cells))
	for key, c := range cells {
		rows = append(rows, PlanIncomeRow{
			Bucket: key.bucket,
			Plan:   key.plan,
			Count:  c.count,
			Amount: c.amount.Round(2),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Bucket != rows[j].Bucket {
			return rows[i].Bucket < rows[j].Bucket
		}
		return rows[i].Plan < rows[j].Plan
	})
	return rows, nil
}

// CategoryTotal is a per-category payment aggregate.
type CategoryTotal struct {
	Category payment.Category `json:"category"`
	Count    int              `json:"count"`
	Amount   decimal.Decimal  `json:"amount"`
}

// WalletIncomeByCategory buckets wallet charges by what their free-text
// description says they paid for.
func WalletIncomeByCategory(payments []*payment.Payment) []CategoryTotal {
	type cell struct {
		count  int
		amount decimal.Decimal
	}
	cells := make(map[payment.Category]cell)
	for _, p := range payments {
		category := payment.ClassifyDescription(p.Description)
		c := cells[category]
		c.count++
		c.amount = c.amount.Add(p.Amount)
		cells[category] = c
	}

	out := make([]CategoryTotal, 0, len(cells))
	for category, c := range cells {
		out = append(out, CategoryTotal{Category: category, Count: c.count, Amount: c.amount.Round(2)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// ExtraCreditPoint is one month of converted one-off top-up income.
type ExtraCreditPoint struct {
	Bucket string          `json:"bucket"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// MonthlyExtraCreditIncome sums one-off credit top-ups per month, converting
// each charge into the reporting currency. Charges that cannot be converted
// are skipped and reported back.
func MonthlyExtraCreditIncome(ctx context.Context, payments []*payment.Payment, converter currency.Converter) ([]ExtraCreditPoint, []currency.Result, error) {
	type cell struct {
		amount decimal.Decimal
		count  int
	}
	cells := make(map[string]cell)
	var unconverted []currency.Result

	for _, p := range payments {
		ts, err := types.ParseTimestamp(p.CreatedAt)
		if err != nil {
			return nil, nil, ierr.WithError(err).
				WithMessage("payment batch contains an unparseable timestamp").
				WithReportableDetails(map[string]any{"created": p.CreatedAt}).
				Mark(ierr.ErrValidation)
		}

		result := converter.Convert(ctx, p.Amount, p.Currency, TargetCurrency)
		if !result.Converted {
			unconverted = append(unconverted, result)
			continue
		}

		bucket := types.GroupByMonth.Bucket(ts)
		c := cells[bucket]
		c.amount = c.amount.Add(result.Amount)
		c.count++
		cells[bucket] = c
	}

	points := make([]ExtraCreditPoint, 0, len(cells))
	for bucket, c := range cells {
		points = append(points, ExtraCreditPoint{Bucket: bucket, Amount: c.amount.Round(2), Count: c.count})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Bucket < points[j].Bucket })
	return points, unconverted, nil
}
