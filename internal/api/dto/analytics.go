package dto

import (
	"github.com/shopspring/decimal"

	"github.com/sublytics/sublytics/internal/currency"
	"github.com/sublytics/sublytics/internal/domain/activity"
	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/metrics"
	"github.com/sublytics/sublytics/internal/types"
)

// AnalyticsRequest carries the shared dashboard query parameters.
type AnalyticsRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

func (r *AnalyticsRequest) Window() (types.DateWindow, error) {
	window := types.DateWindow{Start: r.StartDate, End: r.EndDate}
	if err := window.Validate(); err != nil {
		return types.DateWindow{}, err
	}
	return window, nil
}

// OverviewResponse backs the overview tab.
type OverviewResponse struct {
	MonthlyByCountry    StackedBarChart `json:"monthly_by_country"`
	DailyByCountry      StackedBarChart `json:"daily_by_country"`
	ActiveByPlatform    StackedBarChart `json:"active_by_platform"`
	InactiveByStatus    StackedBarChart `json:"inactive_by_status"`
	CancelledByPlatform StackedBarChart `json:"cancelled_by_platform"`
	PlatformShare       []PieSlice      `json:"platform_share"`
}

// CardProviderResponse backs the card provider tab.
type CardProviderResponse struct {
	MonthlyByCountry StackedBarChart `json:"monthly_by_country"`
	DailyByCountry   StackedBarChart `json:"daily_by_country"`
	StatusByCountry  StackedBarChart `json:"status_by_country"`
}

// WalletProviderResponse backs the wallet provider tab.
type WalletProviderResponse struct {
	MonthlyByCountry    StackedBarChart `json:"monthly_by_country"`
	DailyByCountry      StackedBarChart `json:"daily_by_country"`
	DiscountMonthly     StackedBarChart `json:"discount_monthly"`
	DiscountDaily       StackedBarChart `json:"discount_daily"`
	MainPlansByCountry  StackedBarChart `json:"main_plans_by_country"`
	OtherPlansByCountry StackedBarChart `json:"other_plans_by_country"`
	FreePlansByCountry  StackedBarChart `json:"free_plans_by_country"`
	PlanTypeMix         []PieSlice      `json:"plan_type_mix"`
	ActivePlanBreakdown []PlanCountDTO  `json:"active_plan_breakdown"`
}

// PlanCountDTO is one wallet plan with its active subscriber count.
type PlanCountDTO struct {
	Plan  string `json:"plan"`
	Count int    `json:"count"`
}

// CompareResponse backs the provider comparison tab.
type CompareResponse struct {
	MonthlyComparison StackedBarChart `json:"monthly_comparison"`
}

// SubscriberSummary is the active subscriber card of the summary panel.
type SubscriberSummary struct {
	Total           int64 `json:"total"`
	CardMain        int64 `json:"card_main"`
	CardProductLine int64 `json:"card_product_line"`
	Wallet          int64 `json:"wallet"`
}

// IncomeSummaryDTO is the last-month income card of the summary panel.
type IncomeSummaryDTO struct {
	TotalUSD    decimal.Decimal   `json:"total_usd"`
	CardUSD     decimal.Decimal   `json:"card_usd"`
	WalletARS   decimal.Decimal   `json:"wallet_ars"`
	WalletUSD   decimal.Decimal   `json:"wallet_usd"`
	DollarRate  decimal.Decimal   `json:"dollar_rate"`
	Unconverted []currency.Result `json:"unconverted,omitempty"`
}

// SummaryResponse backs the summary panel.
type SummaryResponse struct {
	Subscribers SubscriberSummary `json:"subscribers"`
	Income      IncomeSummaryDTO  `json:"income"`
}

// SummaryRequest optionally overrides the official dollar rate, for when the
// rate service is down.
type SummaryRequest struct {
	DollarRate string `form:"dollar_rate"`
}

func (r *SummaryRequest) ManualRate() (decimal.Decimal, bool, error) {
	if r.DollarRate == "" {
		return decimal.Zero, false, nil
	}
	rate, err := decimal.NewFromString(r.DollarRate)
	if err != nil {
		return decimal.Zero, false, ierr.NewErrorf("invalid dollar rate %q", r.DollarRate).
			WithHint("the dollar rate must be a decimal number").
			Mark(ierr.ErrValidation)
	}
	return rate, true, nil
}

// IncomeRequest carries the income tab query: a date window plus the
// optional manual dollar rate.
type IncomeRequest struct {
	AnalyticsRequest
	SummaryRequest
}

// TotalsResponse backs the cross-provider monthly totals panel.
type TotalsResponse struct {
	Totals []metrics.TotalsPoint `json:"totals"`
	Net    []metrics.NetPoint    `json:"net"`
}

// IncomeResponse backs the income tab.
type IncomeResponse struct {
	Monthly          []metrics.MonthlyIncomeRow `json:"monthly"`
	PlanIncome       []metrics.PlanIncomeRow    `json:"plan_income"`
	ExtraCredit      []metrics.ExtraCreditPoint `json:"extra_credit"`
	WalletCategories []metrics.CategoryTotal    `json:"wallet_categories"`
	DollarRate       decimal.Decimal            `json:"dollar_rate"`
	Unconverted      []currency.Result          `json:"unconverted,omitempty"`
}

// UploadResponse reports an accepted wallet subscriber export.
type UploadResponse struct {
	Rows              int                         `json:"rows"`
	DuplicatesDropped int                         `json:"duplicates_dropped"`
	Series            *metrics.WalletExportSeries `json:"series"`
	Net               []metrics.NetPoint          `json:"net"`
}

// RecoveryResponse backs the revenue recovery dashboard.
type RecoveryResponse struct {
	Rows              int                          `json:"rows"`
	DuplicatesDropped int                          `json:"duplicates_dropped"`
	Summary           metrics.RecoverySummary      `json:"summary"`
	FailedByStatus    []metrics.AmountCell         `json:"failed_by_status"`
	RecoveredByMethod []metrics.AmountCell         `json:"recovered_by_method"`
	DeclineReasons    []metrics.DeclineReasonShare `json:"decline_reasons"`
	Funnel            FunnelChart                  `json:"funnel"`
}

// FunnelResponse backs the onboarding funnel tab.
type FunnelResponse struct {
	Funnel        FunnelChart     `json:"funnel"`
	ByCountry     []CountryCount  `json:"by_country"`
	ExpiredPerDay StackedBarChart `json:"expired_per_day"`
}

// UserMetricsResponse backs the user activity dashboard.
type UserMetricsResponse struct {
	TotalUsers      int              `json:"total_users"`
	Daily           []activity.Point `json:"daily"`
	Monthly         []activity.Point `json:"monthly"`
	NewUsersByDay   []activity.Point `json:"new_users_by_day"`
	NewUsersByMonth []activity.Point `json:"new_users_by_month"`
	AverageDaily    float64          `json:"average_daily"`
}
