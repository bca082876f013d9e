package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/sublytics/sublytics/internal/aggregate"
	"github.com/sublytics/sublytics/internal/api/dto"
	"github.com/sublytics/sublytics/internal/domain/payment"
	"github.com/sublytics/sublytics/internal/domain/subscription"
	"github.com/sublytics/sublytics/internal/metrics"
	"github.com/sublytics/sublytics/internal/normalize"
	"github.com/sublytics/sublytics/internal/types"
)

// SubscriptionAnalyticsService serves the dashboard tabs built on
// subscription and payment data.
type SubscriptionAnalyticsService interface {
	OverviewTab(ctx context.Context) (*dto.OverviewResponse, error)
	CardProviderTab(ctx context.Context) (*dto.CardProviderResponse, error)
	WalletProviderTab(ctx context.Context) (*dto.WalletProviderResponse, error)
	CompareTab(ctx context.Context) (*dto.CompareResponse, error)
	Summary(ctx context.Context, req *dto.SummaryRequest) (*dto.SummaryResponse, error)
	MonthlyTotals(ctx context.Context, req *dto.AnalyticsRequest) (*dto.TotalsResponse, error)
	IncomeTable(ctx context.Context, req *dto.IncomeRequest) (*dto.IncomeResponse, error)
	ProcessWalletUpload(ctx context.Context, filename string, data []byte) (*dto.UploadResponse, error)
	ProcessRecoveryUpload(ctx context.Context, filename string, data []byte) (*dto.RecoveryResponse, error)
}

type subscriptionAnalyticsService struct {
	ServiceParams
}

func NewSubscriptionAnalyticsService(params ServiceParams) SubscriptionAnalyticsService {
	return &subscriptionAnalyticsService{
		ServiceParams: params,
	}
}

// currentRecords fetches the current non-cancelled snapshots and normalizes
// them: every record gets a country and missing providers default to the
// wallet tag.
func (s *subscriptionAnalyticsService) currentRecords(ctx context.Context) ([]*subscription.Record, error) {
	batch, err := s.SubRepo.ListCurrent(ctx)
	if err != nil {
		return nil, err
	}
	return s.normalizeBatch(batch)
}

// statusRecords fetches snapshots restricted to the given raw statuses,
// normalized the same way.
func (s *subscriptionAnalyticsService) statusRecords(ctx context.Context, statuses []string) ([]*subscription.Record, error) {
	batch, err := s.SubRepo.ListWithStatuses(ctx, statuses)
	if err != nil {
		return nil, err
	}
	return s.normalizeBatch(batch)
}

func (s *subscriptionAnalyticsService) normalizeBatch(batch *subscription.Batch) ([]*subscription.Record, error) {
	normalize.AssignCountries(batch, s.Resolver)
	if err := normalize.FillDefaultProvider(batch); err != nil {
		return nil, err
	}
	return batch.Records, nil
}

// OverviewTab builds the landing tab: creation series by country plus the
// current active, inactive and cancelled breakdowns. Breakdown queries that
// fail are logged and leave their panel empty so the rest of the tab still
// renders.
func (s *subscriptionAnalyticsService) OverviewTab(ctx context.Context) (*dto.OverviewResponse, error) {
	records, err := s.currentRecords(ctx)
	if err != nil {
		return nil, err
	}

	monthly, err := aggregate.Aggregate(records, types.GroupByMonth, aggregate.Filters{Country: types.All()})
	if err != nil {
		return nil, err
	}
	daily, err := aggregate.Aggregate(records, types.GroupByDay, aggregate.Filters{Country: types.All()})
	if err != nil {
		return nil, err
	}

	response := &dto.OverviewResponse{
		MonthlyByCountry: dto.NewStackedBarChart(monthly, "Monthly subscriptions by country", "Month", countryOf),
		DailyByCountry:   dto.NewStackedBarChart(daily, "Daily subscriptions by country", "Day", countryOf),
	}

	if active, err := s.statusRecords(ctx, types.ActiveStatuses()); err != nil {
		s.Logger.Errorw("failed to fetch active subscriptions", "error", err)
	} else {
		table, err := aggregate.Aggregate(active, types.GroupByMonth, aggregate.Filters{
			Provider: types.All(),
			Country:  types.All(),
		})
		if err != nil {
			return nil, err
		}
		rollup := table.Rollup(aggregate.DimSet{Provider: true, Country: true})
		response.ActiveByPlatform = dto.NewCategoryBarChart(rollup, "Active subscribers by platform", "Country", countryOf, providerOf)
		response.PlatformShare = dto.NewPieChart(providerTotals(rollup))
	}

	if inactive, err := s.statusRecords(ctx, types.InactiveStatuses()); err != nil {
		s.Logger.Errorw("failed to fetch inactive subscriptions", "error", err)
	} else {
		table, err := aggregate.Aggregate(inactive, types.GroupByMonth, aggregate.Filters{
			Status:  types.All(),
			Country: types.All(),
		})
		if err != nil {
			return nil, err
		}
		rollup := table.Rollup(aggregate.DimSet{Status: true, Country: true})
		response.InactiveByStatus = dto.NewCategoryBarChart(rollup, "Inactive subscribers by status", "Country", countryOf, statusOf)
	}

	if cancelled, err := s.statusRecords(ctx, []string{string(types.SubscriptionStatusCancelled)}); err != nil {
		s.Logger.Errorw("failed to fetch cancelled subscriptions", "error", err)
	} else {
		table, err := aggregate.Aggregate(cancelled, types.GroupByMonth, aggregate.Filters{
			Provider: types.All(),
			Country:  types.All(),
		})
		if err != nil {
			return nil, err
		}
		rollup := table.Rollup(aggregate.DimSet{Provider: true, Country: true})
		response.CancelledByPlatform = dto.NewCategoryBarChart(rollup, "Cancelled subscribers by platform", "Country", countryOf, providerOf)
	}

	return response, nil
}

// CardProviderTab breaks the card provider's subscriptions down by country
// and current status.
func (s *subscriptionAnalyticsService) CardProviderTab(ctx context.Context) (*dto.CardProviderResponse, error) {
	records, err := s.currentRecords(ctx)
	if err != nil {
		return nil, err
	}

	cardFilter := aggregate.Filters{
		Provider: types.Eq(string(types.ProviderCard)),
		Country:  types.All(),
	}
	monthly, err := aggregate.Aggregate(records, types.GroupByMonth, cardFilter)
	if err != nil {
		return nil, err
	}
	daily, err := aggregate.Aggregate(records, types.GroupByDay, cardFilter)
	if err != nil {
		return nil, err
	}

	statusTable, err := aggregate.Aggregate(records, types.GroupByMonth, aggregate.Filters{
		Provider: types.Eq(string(types.ProviderCard)),
		Status:   types.All(),
		Country:  types.All(),
	})
	if err != nil {
		return nil, err
	}
	statusRollup := statusTable.Rollup(aggregate.DimSet{Status: true, Country: true})

	return &dto.CardProviderResponse{
		MonthlyByCountry: dto.NewStackedBarChart(monthly, "Monthly card subscriptions by country", "Month", countryOf),
		DailyByCountry:   dto.NewStackedBarChart(daily, "Daily card subscriptions by country", "Day", countryOf),
		StatusByCountry:  dto.NewCategoryBarChart(statusRollup, "Card subscribers by status", "Country", countryOf, statusOf),
	}, nil
}

// WalletProviderTab breaks the wallet-side subscriptions down: creation
// series, the discount product, and the active plan mix.
func (s *subscriptionAnalyticsService) WalletProviderTab(ctx context.Context) (*dto.WalletProviderResponse, error) {
	records, err := s.currentRecords(ctx)
	if err != nil {
		return nil, err
	}

	walletFilter := aggregate.Filters{
		Provider: types.In(types.WalletSideProviders()...),
		Country:  types.All(),
	}
	monthly, err := aggregate.Aggregate(records, types.GroupByMonth, walletFilter)
	if err != nil {
		return nil, err
	}
	daily, err := aggregate.Aggregate(records, types.GroupByDay, walletFilter)
	if err != nil {
		return nil, err
	}

	discountFilter := aggregate.Filters{
		Provider: types.Eq(string(types.ProviderWalletDiscount)),
		Country:  types.All(),
	}
	discountMonthly, err := aggregate.Aggregate(records, types.GroupByMonth, discountFilter)
	if err != nil {
		return nil, err
	}
	discountDaily, err := aggregate.Aggregate(records, types.GroupByDay, discountFilter)
	if err != nil {
		return nil, err
	}

	mainPlans, err := aggregate.Aggregate(records, types.GroupByMonth, aggregate.Filters{
		Provider: types.Eq(string(types.ProviderWallet)),
		Status:   types.Eq(string(types.SubscriptionStatusAuthorized)),
		Reason:   types.In(subscription.WalletMainPlanReasons...),
		Country:  types.All(),
	})
	if err != nil {
		return nil, err
	}

	otherPlans, err := aggregate.Aggregate(records, types.GroupByMonth, aggregate.Filters{
		Provider: types.Eq(string(types.ProviderWallet)),
		Status:   types.Eq(string(types.SubscriptionStatusAuthorized)),
		Reason:   types.In(subscription.WalletOtherPlanReasons...),
		Country:  types.All(),
	})
	if err != nil {
		return nil, err
	}

	freePlans, err := aggregate.Aggregate(records, types.GroupByMonth, aggregate.Filters{
		Provider: types.Eq(string(types.ProviderFree)),
		Reason:   types.All(),
		Country:  types.All(),
	})
	if err != nil {
		return nil, err
	}

	response := &dto.WalletProviderResponse{
		MonthlyByCountry:    dto.NewStackedBarChart(monthly, "Monthly wallet subscriptions by country", "Month", countryOf),
		DailyByCountry:      dto.NewStackedBarChart(daily, "Daily wallet subscriptions by country", "Day", countryOf),
		DiscountMonthly:     dto.NewStackedBarChart(discountMonthly, "Monthly discount purchases by country", "Month", countryOf),
		DiscountDaily:       dto.NewStackedBarChart(discountDaily, "Daily discount purchases by country", "Day", countryOf),
		MainPlansByCountry:  planChart(mainPlans, "Main plan subscribers by country"),
		OtherPlansByCountry: planChart(otherPlans, "Other plan subscribers by country"),
		FreePlansByCountry:  planChart(freePlans, "Free plan subscribers by country"),
		PlanTypeMix:         dto.NewPieChart(planTypeCounts(records)),
	}

	if counts, err := s.SubRepo.ActivePlanCounts(ctx, subscription.WalletPlanReasons); err != nil {
		s.Logger.Errorw("failed to count active wallet plans", "error", err)
	} else {
		response.ActivePlanBreakdown = lo.Map(counts, func(c subscription.PlanCount, _ int) dto.PlanCountDTO {
			return dto.PlanCountDTO{Plan: c.Reason, Count: c.Count}
		})
	}

	return response, nil
}

// CompareTab lines up total, card and wallet monthly creation counts.
func (s *subscriptionAnalyticsService) CompareTab(ctx context.Context) (*dto.CompareResponse, error) {
	records, err := s.currentRecords(ctx)
	if err != nil {
		return nil, err
	}

	total, err := aggregate.Aggregate(records, types.GroupByMonth, aggregate.Filters{})
	if err != nil {
		return nil, err
	}
	card, err := aggregate.Aggregate(records, types.GroupByMonth, aggregate.Filters{
		Provider: types.Eq(string(types.ProviderCard)),
	})
	if err != nil {
		return nil, err
	}
	wallet, err := aggregate.Aggregate(records, types.GroupByMonth, aggregate.Filters{
		Provider: types.In(types.WalletSideProviders()...),
	})
	if err != nil {
		return nil, err
	}

	chart := dto.NewComparisonChart("Monthly subscriptions by platform", map[string]map[string]int{
		"total":  total.CountsByBucket(),
		"card":   card.CountsByBucket(),
		"wallet": wallet.CountsByBucket(),
	})
	return &dto.CompareResponse{MonthlyComparison: chart}, nil
}

// Summary builds the headline panel: active subscribers across all platforms
// plus last month's blended income in the reporting currency.
func (s *subscriptionAnalyticsService) Summary(ctx context.Context, req *dto.SummaryRequest) (*dto.SummaryResponse, error) {
	cardMain, err := s.SubRepo.CountByStatus(ctx, string(types.SubscriptionStatusActive))
	if err != nil {
		return nil, err
	}
	productLine, err := s.ProductLineRepo.CountByStatus(ctx, string(types.SubscriptionStatusActive))
	if err != nil {
		return nil, err
	}
	wallet, err := s.SubRepo.CountActivePlans(ctx, subscription.WalletPlanReasons)
	if err != nil {
		return nil, err
	}

	rate, err := s.dollarRate(ctx, req)
	if err != nil {
		return nil, err
	}

	window := types.LastMonthWindow(time.Now().UTC())
	walletARS, err := s.PaymentRepo.WalletApprovedTotal(ctx, window)
	if err != nil {
		return nil, err
	}
	walletUSD, err := metrics.WalletIncomeUSD(walletARS, rate)
	if err != nil {
		return nil, err
	}

	cardTotals, err := s.PaymentRepo.CardIncomeByCurrency(ctx, window)
	if err != nil {
		return nil, err
	}
	cardUSD, unconverted := metrics.CardIncomeUSD(ctx, cardTotals, s.Converter)
	income := metrics.BlendIncome(walletUSD, cardUSD, unconverted)

	return &dto.SummaryResponse{
		Subscribers: dto.SubscriberSummary{
			Total:           cardMain + productLine + wallet,
			CardMain:        cardMain,
			CardProductLine: productLine,
			Wallet:          wallet,
		},
		Income: dto.IncomeSummaryDTO{
			TotalUSD:    income.TotalIncome,
			CardUSD:     income.CardIncome,
			WalletARS:   walletARS,
			WalletUSD:   income.WalletIncome,
			DollarRate:  rate,
			Unconverted: income.Unconverted,
		},
	}, nil
}

// MonthlyTotals combines the card provider's transition log, the second
// product line and the wallet snapshots into one cross-platform totals
// series, plus the card provider's own net series.
func (s *subscriptionAnalyticsService) MonthlyTotals(ctx context.Context, req *dto.AnalyticsRequest) (*dto.TotalsResponse, error) {
	window, err := req.Window()
	if err != nil {
		return nil, err
	}

	card, err := s.cardLifecycleSeries(ctx, window)
	if err != nil {
		return nil, err
	}

	productLine, err := s.productLineSeries(ctx, window)
	if err != nil {
		return nil, err
	}

	walletCreated, err := s.walletCreationSeries(ctx, window)
	if err != nil {
		return nil, err
	}
	// The wallet collection tracks current state only; cancellation months
	// come from uploaded exports, not from here.
	wallet := metrics.ProviderSeries{Created: walletCreated}

	return &dto.TotalsResponse{
		Totals: metrics.CombinedTotals(card, productLine, wallet),
		Net:    metrics.NetSeries(card.Created, card.Cancelled, card.Incomplete),
	}, nil
}

func (s *subscriptionAnalyticsService) cardLifecycleSeries(ctx context.Context, window types.DateWindow) (metrics.ProviderSeries, error) {
	created, err := s.LifecycleRepo.ListCreated(ctx, window)
	if err != nil {
		return metrics.ProviderSeries{}, err
	}
	cancelled, err := s.LifecycleRepo.ListCancelled(ctx, window)
	if err != nil {
		return metrics.ProviderSeries{}, err
	}
	incomplete, err := s.LifecycleRepo.ListIncomplete(ctx, window)
	if err != nil {
		return metrics.ProviderSeries{}, err
	}

	series := metrics.ProviderSeries{}
	if series.Created, err = monthlyEventCounts(created); err != nil {
		return metrics.ProviderSeries{}, err
	}
	if series.Cancelled, err = monthlyEventCounts(cancelled); err != nil {
		return metrics.ProviderSeries{}, err
	}
	if series.Incomplete, err = monthlyEventCounts(incomplete); err != nil {
		return metrics.ProviderSeries{}, err
	}
	return series, nil
}

func (s *subscriptionAnalyticsService) productLineSeries(ctx context.Context, window types.DateWindow) (metrics.ProviderSeries, error) {
	records, err := s.ProductLineRepo.ListSubscriptions(ctx)
	if err != nil {
		return metrics.ProviderSeries{}, err
	}
	start, end, err := window.Bounds()
	if err != nil {
		return metrics.ProviderSeries{}, err
	}

	series := metrics.ProviderSeries{
		Created:   make(map[string]int),
		Cancelled: make(map[string]int),
	}
	for _, record := range records {
		if ts, err := types.ParseTimestamp(record.Created); err == nil && inWindow(ts, start, end) {
			series.Created[types.GroupByMonth.Bucket(ts)]++
		}
		if record.EndedAt == "" {
			continue
		}
		if ts, err := types.ParseTimestamp(record.EndedAt); err == nil && inWindow(ts, start, end) {
			series.Cancelled[types.GroupByMonth.Bucket(ts)]++
		}
	}
	return series, nil
}

func (s *subscriptionAnalyticsService) walletCreationSeries(ctx context.Context, window types.DateWindow) (map[string]int, error) {
	records, err := s.currentRecords(ctx)
	if err != nil {
		return nil, err
	}
	table, err := aggregate.Aggregate(records, types.GroupByMonth, aggregate.Filters{
		Provider: types.In(types.WalletSideProviders()...),
	})
	if err != nil {
		return nil, err
	}

	start, end, err := window.Bounds()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for bucket, count := range table.CountsByBucket() {
		ts, err := types.ParseTimestamp(bucket)
		if err != nil {
			return nil, err
		}
		if inWindow(ts, start, end) {
			counts[bucket] = count
		}
	}
	return counts, nil
}

// IncomeTable builds the income tab: blended monthly income, per-plan card
// income and one-off credit top-ups, all in the reporting currency.
func (s *subscriptionAnalyticsService) IncomeTable(ctx context.Context, req *dto.IncomeRequest) (*dto.IncomeResponse, error) {
	window, err := req.Window()
	if err != nil {
		return nil, err
	}
	rate, err := s.dollarRate(ctx, &req.SummaryRequest)
	if err != nil {
		return nil, err
	}

	walletPayments, err := s.PaymentRepo.ListWalletPayments(ctx, window)
	if err != nil {
		return nil, err
	}
	approved := lo.Filter(walletPayments, func(p *payment.Payment, _ int) bool {
		return p.Status == payment.StatusApproved && p.ApprovedAt != ""
	})

	cardSubs, err := s.PaymentRepo.ListCardSubscriptionPayments(ctx, window)
	if err != nil {
		return nil, err
	}
	extraPayments, err := s.PaymentRepo.ListCardExtraCreditPayments(ctx, window)
	if err != nil {
		return nil, err
	}

	extraCredit, unconverted, err := metrics.MonthlyExtraCreditIncome(ctx, extraPayments, s.Converter)
	if err != nil {
		return nil, err
	}
	monthly, err := metrics.MonthlyTotalIncome(approved, cardSubs, extraCredit, rate)
	if err != nil {
		return nil, err
	}
	planIncome, err := metrics.MonthlyPlanIncome(cardSubs)
	if err != nil {
		return nil, err
	}

	return &dto.IncomeResponse{
		Monthly:          monthly,
		PlanIncome:       planIncome,
		ExtraCredit:      extraCredit,
		WalletCategories: metrics.WalletIncomeByCategory(approved),
		DollarRate:       rate,
		Unconverted:      unconverted,
	}, nil
}

// ProcessWalletUpload ingests a wallet subscriber export and derives its
// lifecycle series.
func (s *subscriptionAnalyticsService) ProcessWalletUpload(ctx context.Context, filename string, data []byte) (*dto.UploadResponse, error) {
	rows, dropped, err := s.Loader.LoadWalletExport(filename, data)
	if err != nil {
		return nil, err
	}
	series, err := metrics.WalletExportLifecycle(rows)
	if err != nil {
		return nil, err
	}
	return &dto.UploadResponse{
		Rows:              len(rows),
		DuplicatesDropped: dropped,
		Series:            series,
		Net:               metrics.NetSeries(series.Created, series.Cancelled, nil),
	}, nil
}

// ProcessRecoveryUpload ingests a revenue-recovery export and derives its
// breakdowns.
func (s *subscriptionAnalyticsService) ProcessRecoveryUpload(ctx context.Context, filename string, data []byte) (*dto.RecoveryResponse, error) {
	records, dropped, err := s.Loader.LoadRecoveryExport(filename, data)
	if err != nil {
		return nil, err
	}

	failed, err := metrics.FailedAmountByStatus(records)
	if err != nil {
		return nil, err
	}
	recovered, err := metrics.RecoveredAmountByMethod(records)
	if err != nil {
		return nil, err
	}
	reasons, err := metrics.DeclineReasonBreakdown(records)
	if err != nil {
		return nil, err
	}
	funnel := metrics.RecoveryFunnel(records)

	return &dto.RecoveryResponse{
		Rows:              len(records),
		DuplicatesDropped: dropped,
		Summary:           metrics.SummarizeRecovery(records),
		FailedByStatus:    failed,
		RecoveredByMethod: recovered,
		DeclineReasons:    reasons,
		Funnel: dto.FunnelChart{
			Title:   "Recovery funnel",
			Entered: funnel.Entered,
			Stages:  funnel.Stages,
		},
	}, nil
}

// dollarRate resolves the ARS/USD rate: a manual override wins, otherwise
// the official quote is fetched.
func (s *subscriptionAnalyticsService) dollarRate(ctx context.Context, req *dto.SummaryRequest) (decimal.Decimal, error) {
	manual, ok, err := req.ManualRate()
	if err != nil {
		return decimal.Zero, err
	}
	if ok {
		return manual, nil
	}
	return s.DollarRates.OfficialDollarRate(ctx)
}

func countryOf(r aggregate.Row) string  { return r.Country }
func statusOf(r aggregate.Row) string   { return r.Status }
func providerOf(r aggregate.Row) string { return r.Provider }
func reasonOf(r aggregate.Row) string   { return r.Reason }

func planChart(table *aggregate.Table, title string) dto.StackedBarChart {
	rollup := table.Rollup(aggregate.DimSet{Reason: true, Country: true})
	return dto.NewCategoryBarChart(rollup, title, "Country", countryOf, reasonOf)
}

// planTypeCounts classifies the wallet-side records into plan type buckets.
func planTypeCounts(records []*subscription.Record) map[string]int {
	walletSide := types.WalletSideProviders()
	counts := make(map[string]int)
	for _, record := range records {
		if !lo.Contains(walletSide, record.Provider) {
			continue
		}
		counts[normalize.ClassifyPlan(record)]++
	}
	return counts
}

func providerTotals(table *aggregate.Table) map[string]int {
	totals := make(map[string]int)
	for _, row := range table.Rows {
		totals[row.Provider] += row.Count
	}
	return totals
}

func monthlyEventCounts(events []*subscription.LifecycleEvent) (map[string]int, error) {
	counts := make(map[string]int)
	for _, event := range events {
		ts, err := types.ParseTimestamp(event.Timestamp)
		if err != nil {
			return nil, err
		}
		counts[types.GroupByMonth.Bucket(ts)]++
	}
	return counts, nil
}

func inWindow(ts, start, end time.Time) bool {
	return !ts.Before(start) && ts.Before(end)
}
