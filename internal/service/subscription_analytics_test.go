package service

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/sublytics/sublytics/internal/api/dto"
	"github.com/sublytics/sublytics/internal/country"
	"github.com/sublytics/sublytics/internal/domain/payment"
	"github.com/sublytics/sublytics/internal/domain/subscription"
	"github.com/sublytics/sublytics/internal/ingest"
	"github.com/sublytics/sublytics/internal/testutil"
	"github.com/sublytics/sublytics/internal/types"
)

const (
	argPhone   = "5491155551234"
	spainPhone = "34612345678"
)

type SubscriptionAnalyticsServiceSuite struct {
	testutil.BaseServiceTestSuite
	service     SubscriptionAnalyticsService
	converter   *testutil.FakeConverter
	dollarRates *testutil.FakeDollarRates
}

func TestSubscriptionAnalyticsService(t *testing.T) {
	suite.Run(t, new(SubscriptionAnalyticsServiceSuite))
}

func (s *SubscriptionAnalyticsServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.converter = testutil.NewFakeConverter()
	s.converter.SetRate("EUR", "USD", decimal.NewFromInt(2))
	s.dollarRates = &testutil.FakeDollarRates{Rate: decimal.NewFromInt(1200)}

	stores := s.GetStores()
	s.service = NewSubscriptionAnalyticsService(ServiceParams{
		Logger:          s.GetLogger(),
		Config:          s.GetConfig(),
		SubRepo:         stores.SubscriptionRepo,
		LifecycleRepo:   stores.LifecycleRepo,
		ProductLineRepo: stores.ProductLineRepo,
		PaymentRepo:     stores.PaymentRepo,
		ActivityRepo:    stores.ActivityRepo,
		Converter:       s.converter,
		DollarRates:     s.dollarRates,
		Resolver:        country.NewResolver(s.GetLogger()),
		Loader:          ingest.NewLoader(s.GetLogger()),
	})
}

func (s *SubscriptionAnalyticsServiceSuite) seedSubscription(accountID, provider, status, reason, startDate string) {
	s.GetStores().SubscriptionRepo.AddRecord(subscription.Record{
		AccountID: accountID,
		Provider:  provider,
		Status:    status,
		Source:    "w",
		Reason:    reason,
		StartDate: startDate,
	})
}

func (s *SubscriptionAnalyticsServiceSuite) TestOverviewTab() {
	s.seedSubscription(argPhone, "stripe", "active", "", "2025-01-05T10:00:00.000Z")
	s.seedSubscription(spainPhone, "", "authorized", "ScribeMe Plus", "2025-01-20T10:00:00.000Z")
	s.seedSubscription(argPhone, "stripe", "cancelled", "", "2025-02-01T10:00:00.000Z")

	resp, err := s.service.OverviewTab(s.GetContext())
	s.NoError(err)

	// cancelled snapshots are excluded from the creation series
	s.Equal([]string{"2025-01"}, resp.MonthlyByCountry.Labels)
	total := 0
	for _, series := range resp.MonthlyByCountry.Series {
		for _, v := range series.Values {
			total += v
		}
	}
	s.Equal(2, total)

	// missing provider defaults to the wallet tag in the active breakdown
	s.Equal([]dto.PieSlice{{Label: "mp", Count: 1}, {Label: "stripe", Count: 1}}, resp.PlatformShare)
	s.Equal([]string{"Argentina", "Spain"}, resp.ActiveByPlatform.Labels)

	s.Equal([]string{"Argentina"}, resp.CancelledByPlatform.Labels)
	s.Empty(resp.InactiveByStatus.Labels)
}

func (s *SubscriptionAnalyticsServiceSuite) TestCardProviderTab() {
	s.seedSubscription(argPhone, "stripe", "active", "", "2025-01-05T10:00:00.000Z")
	s.seedSubscription(spainPhone, "stripe", "past_due", "", "2025-02-10T10:00:00.000Z")
	s.seedSubscription(argPhone, "mp", "authorized", "ScribeMe Plus", "2025-01-20T10:00:00.000Z")

	resp, err := s.service.CardProviderTab(s.GetContext())
	s.NoError(err)

	// the wallet record stays out of the card series
	s.Equal([]string{"2025-01", "2025-02"}, resp.MonthlyByCountry.Labels)
	total := 0
	for _, series := range resp.MonthlyByCountry.Series {
		for _, v := range series.Values {
			total += v
		}
	}
	s.Equal(2, total)

	s.Equal([]string{"Argentina", "Spain"}, resp.StatusByCountry.Labels)
	names := make([]string, 0, len(resp.StatusByCountry.Series))
	for _, series := range resp.StatusByCountry.Series {
		names = append(names, series.Name)
	}
	s.Equal([]string{"active", "past_due"}, names)
}

func (s *SubscriptionAnalyticsServiceSuite) TestWalletProviderTab() {
	s.seedSubscription(argPhone, "mp", "authorized", "ScribeMe Plus", "2025-01-05T10:00:00.000Z")
	s.seedSubscription(spainPhone, "mp", "authorized", "ScribeMe Plus discount", "2025-01-10T10:00:00.000Z")
	s.seedSubscription(argPhone, "mp_discount", "active", "", "2025-02-01T10:00:00.000Z")
	s.seedSubscription(argPhone, "free", "active", "free", "2025-02-05T10:00:00.000Z")
	s.seedSubscription(spainPhone, "stripe", "active", "", "2025-02-10T10:00:00.000Z")

	resp, err := s.service.WalletProviderTab(s.GetContext())
	s.NoError(err)

	total := 0
	for _, series := range resp.MonthlyByCountry.Series {
		for _, v := range series.Values {
			total += v
		}
	}
	s.Equal(4, total, "card records must stay out of the wallet series")

	s.Equal([]string{"2025-02"}, resp.DiscountMonthly.Labels)

	s.Require().Len(resp.MainPlansByCountry.Series, 1)
	s.Equal("ScribeMe Plus", resp.MainPlansByCountry.Series[0].Name)
	s.Require().Len(resp.OtherPlansByCountry.Series, 1)
	s.Equal("ScribeMe Plus discount", resp.OtherPlansByCountry.Series[0].Name)
	s.Require().Len(resp.FreePlansByCountry.Series, 1)

	s.Equal([]dto.PieSlice{
		{Label: "Other", Count: 1},
		{Label: "discount", Count: 2},
		{Label: "free", Count: 1},
	}, resp.PlanTypeMix)

	s.Equal([]dto.PlanCountDTO{
		{Plan: "ScribeMe Plus", Count: 1},
		{Plan: "ScribeMe Plus discount", Count: 1},
	}, resp.ActivePlanBreakdown)
}

func (s *SubscriptionAnalyticsServiceSuite) TestCompareTab() {
	s.seedSubscription(argPhone, "stripe", "active", "", "2025-01-05T10:00:00.000Z")
	s.seedSubscription(spainPhone, "stripe", "active", "", "2025-01-10T10:00:00.000Z")
	s.seedSubscription(argPhone, "mp", "authorized", "ScribeMe Plus", "2025-01-20T10:00:00.000Z")

	resp, err := s.service.CompareTab(s.GetContext())
	s.NoError(err)

	s.Equal([]string{"2025-01"}, resp.MonthlyComparison.Labels)
	s.Equal([]dto.ChartSeries{
		{Name: "card", Values: []int{2}},
		{Name: "total", Values: []int{3}},
		{Name: "wallet", Values: []int{1}},
	}, resp.MonthlyComparison.Series)
}

func (s *SubscriptionAnalyticsServiceSuite) TestSummary() {
	stores := s.GetStores()
	s.seedSubscription(argPhone, "stripe", "active", "", "2025-01-05T10:00:00.000Z")
	s.seedSubscription(spainPhone, "stripe", "active", "", "2025-01-10T10:00:00.000Z")
	s.seedSubscription(argPhone, "mp", "authorized", "ScribeMe Plus", "2025-01-20T10:00:00.000Z")
	stores.ProductLineRepo.Add(subscription.ProductLineRecord{Status: "active", Created: "2025-01-01T00:00:00Z"})

	window := types.LastMonthWindow(time.Now().UTC())
	stores.PaymentRepo.AddWallet(testutil.WalletPaymentSeed{
		DateCreated:       window.Start + "T10:00:00.000Z",
		DateApproved:      window.Start + "T10:00:00.000Z",
		Status:            payment.StatusApproved,
		TransactionAmount: decimal.NewFromInt(120000),
	})
	stores.PaymentRepo.AddCard(testutil.CardPaymentSeed{
		Created:  window.Start + "T10:00:00.000Z",
		Status:   payment.StatusSucceeded,
		Currency: "USD",
		Amount:   decimal.NewFromInt(50),
	})

	// the manual rate must win even with the rate service down
	s.dollarRates.Rate = decimal.Zero
	resp, err := s.service.Summary(s.GetContext(), &dto.SummaryRequest{DollarRate: "1200"})
	s.NoError(err)

	s.Equal(int64(2), resp.Subscribers.CardMain)
	s.Equal(int64(1), resp.Subscribers.CardProductLine)
	s.Equal(int64(1), resp.Subscribers.Wallet)
	s.Equal(int64(4), resp.Subscribers.Total)

	s.True(decimal.NewFromInt(120000).Equal(resp.Income.WalletARS), resp.Income.WalletARS.String())
	s.True(decimal.NewFromInt(100).Equal(resp.Income.WalletUSD), resp.Income.WalletUSD.String())
	s.True(decimal.NewFromInt(50).Equal(resp.Income.CardUSD), resp.Income.CardUSD.String())
	s.True(decimal.NewFromInt(150).Equal(resp.Income.TotalUSD), resp.Income.TotalUSD.String())
	s.Empty(resp.Income.Unconverted)
}

func (s *SubscriptionAnalyticsServiceSuite) TestSummaryUsesOfficialRate() {
	resp, err := s.service.Summary(s.GetContext(), &dto.SummaryRequest{})
	s.NoError(err)
	s.True(decimal.NewFromInt(1200).Equal(resp.Income.DollarRate))
}

func (s *SubscriptionAnalyticsServiceSuite) TestSummaryRateServiceDown() {
	s.dollarRates.Rate = decimal.Zero
	_, err := s.service.Summary(s.GetContext(), &dto.SummaryRequest{})
	s.Error(err)
}

func (s *SubscriptionAnalyticsServiceSuite) TestSummaryInvalidManualRate() {
	_, err := s.service.Summary(s.GetContext(), &dto.SummaryRequest{DollarRate: "not-a-number"})
	s.Error(err)
}

func (s *SubscriptionAnalyticsServiceSuite) TestMonthlyTotals() {
	stores := s.GetStores()
	stores.LifecycleRepo.Add(testutil.LifecycleSeed{Description: subscription.EventNewSubscription, UserID: "u1", Timestamp: "2025-01-05T10:00:00.000Z"})
	stores.LifecycleRepo.Add(testutil.LifecycleSeed{Description: subscription.EventNewSubscription, UserID: "u2", Timestamp: "2025-01-12T10:00:00.000Z"})
	stores.LifecycleRepo.Add(testutil.LifecycleSeed{Description: subscription.EventAlreadyCreated, UserID: "u3", Timestamp: "2025-02-03T10:00:00.000Z"})
	stores.LifecycleRepo.Add(testutil.LifecycleSeed{Description: subscription.EventCancelled, UserID: "u1", Timestamp: "2025-01-20T10:00:00.000Z"})
	stores.LifecycleRepo.Add(testutil.LifecycleSeed{Description: subscription.EventIncompleteExpired, UserID: "u4", Timestamp: "2025-02-10T10:00:00.000Z"})

	stores.ProductLineRepo.Add(subscription.ProductLineRecord{Status: "canceled", Created: "2025-01-10T00:00:00Z", EndedAt: "2025-02-15T00:00:00Z"})
	stores.ProductLineRepo.Add(subscription.ProductLineRecord{Status: "active", Created: "2024-11-01T00:00:00Z"})

	s.seedSubscription(argPhone, "mp", "authorized", "ScribeMe Plus", "2025-02-20T10:00:00.000Z")

	resp, err := s.service.MonthlyTotals(s.GetContext(), &dto.AnalyticsRequest{
		StartDate: "2025-01-01",
		EndDate:   "2025-03-31",
	})
	s.NoError(err)

	s.Require().Len(resp.Totals, 2)
	s.Equal("2025-01", resp.Totals[0].Bucket)
	s.Equal(3, resp.Totals[0].TotalCreations)
	s.Equal(1, resp.Totals[0].TotalCancellations)
	s.Equal(2, resp.Totals[0].NetTotal)
	s.Equal("2025-02", resp.Totals[1].Bucket)
	s.Equal(2, resp.Totals[1].TotalCreations)
	s.Equal(1, resp.Totals[1].TotalCancellations)
	s.Equal(1, resp.Totals[1].TotalIncomplete)
	s.Equal(0, resp.Totals[1].NetTotal)

	// the net series covers the card provider's event log only
	s.Require().Len(resp.Net, 2)
	s.Equal(1, resp.Net[0].Net)
	s.Equal(0, resp.Net[1].Net)
}

func (s *SubscriptionAnalyticsServiceSuite) TestMonthlyTotalsInvertedWindow() {
	_, err := s.service.MonthlyTotals(s.GetContext(), &dto.AnalyticsRequest{
		StartDate: "2025-03-01",
		EndDate:   "2025-01-01",
	})
	s.Error(err)
}

func (s *SubscriptionAnalyticsServiceSuite) TestIncomeTable() {
	stores := s.GetStores()
	stores.PaymentRepo.AddWallet(testutil.WalletPaymentSeed{
		DateCreated:       "2025-01-05T10:00:00.000Z",
		DateApproved:      "2025-01-06T10:00:00.000Z",
		Status:            payment.StatusApproved,
		Description:       "Suscripción mensual",
		TransactionAmount: decimal.NewFromInt(100000),
	})
	stores.PaymentRepo.AddWallet(testutil.WalletPaymentSeed{
		DateCreated:       "2025-01-08T10:00:00.000Z",
		Status:            "pending",
		TransactionAmount: decimal.NewFromInt(999999),
	})

	descriptor := "SCRIBEME"
	stores.PaymentRepo.AddCard(testutil.CardPaymentSeed{
		Created:             "2025-01-10T10:00:00.000Z",
		Status:              payment.StatusSucceeded,
		Currency:            "USD",
		Amount:              decimal.NewFromInt(30),
		StatementDescriptor: &descriptor,
	})
	stores.PaymentRepo.AddCard(testutil.CardPaymentSeed{
		Created:  "2025-02-03T10:00:00.000Z",
		Status:   payment.StatusSucceeded,
		Currency: "EUR",
		Amount:   decimal.NewFromInt(10),
	})

	resp, err := s.service.IncomeTable(s.GetContext(), &dto.IncomeRequest{
		AnalyticsRequest: dto.AnalyticsRequest{StartDate: "2025-01-01", EndDate: "2025-03-31"},
		SummaryRequest:   dto.SummaryRequest{DollarRate: "1000"},
	})
	s.NoError(err)

	s.Require().Len(resp.Monthly, 2)
	s.Equal("2025-01", resp.Monthly[0].Bucket)
	s.True(decimal.NewFromInt(100).Equal(resp.Monthly[0].WalletIncome), resp.Monthly[0].WalletIncome.String())
	s.True(decimal.NewFromInt(30).Equal(resp.Monthly[0].CardSubscriptionIncome))
	s.True(decimal.NewFromInt(130).Equal(resp.Monthly[0].TotalIncome))

	s.Equal("2025-02", resp.Monthly[1].Bucket)
	s.True(resp.Monthly[1].WalletIncome.IsZero())
	s.True(decimal.NewFromInt(20).Equal(resp.Monthly[1].ExtraCreditIncome), resp.Monthly[1].ExtraCreditIncome.String())

	s.Require().Len(resp.PlanIncome, 1)
	s.Equal("Plan Plus", resp.PlanIncome[0].Plan)
	s.Equal(1, resp.PlanIncome[0].Count)

	s.Require().Len(resp.ExtraCredit, 1)
	s.Equal("2025-02", resp.ExtraCredit[0].Bucket)

	s.Require().Len(resp.WalletCategories, 1)
	s.Equal(payment.CategorySubscription, resp.WalletCategories[0].Category)
	s.Equal(1, resp.WalletCategories[0].Count)
	s.Empty(resp.Unconverted)
}

func (s *SubscriptionAnalyticsServiceSuite) TestProcessWalletUpload() {
	data := []byte(strings.Join([]string{
		"status,start_date,last_charge_date,billing_day",
		"authorized,2025-01-05,2025-03-10,26",
		"cancelled,2025-01-20,2025-02-10,26",
		"authorized,2025-01-05,2025-03-10,26",
	}, "\n"))

	resp, err := s.service.ProcessWalletUpload(s.GetContext(), "export.csv", data)
	s.NoError(err)

	s.Equal(2, resp.Rows)
	s.Equal(1, resp.DuplicatesDropped)
	s.Equal(map[string]int{"2025-01": 2}, resp.Series.Created)
	s.Equal(map[string]int{"2025-02": 1}, resp.Series.Cancelled)

	s.Require().Len(resp.Net, 2)
	s.Equal(2, resp.Net[0].Net)
	s.Equal(-1, resp.Net[1].Net)
}

func (s *SubscriptionAnalyticsServiceSuite) TestProcessWalletUploadRejectsBadFile() {
	_, err := s.service.ProcessWalletUpload(s.GetContext(), "export.xlsx", []byte("status\n"))
	s.Error(err)
}

func (s *SubscriptionAnalyticsServiceSuite) TestProcessRecoveryUpload() {
	data := []byte(strings.Join([]string{
		"initial_payment_failed_at,initial_failed_amount,initial_payment_decline_reason,recovery_status,recovery_method,recovered_at,recovered_amount,subscription_status",
		"2025-01-05,30,insufficient_funds,Recovered,Smart Retries,2025-01-12,30,active",
		"2025-01-20,100,expired_card,Not recovered,,,0,canceled",
		"2025-02-01,30,insufficient_funds,In recovery,,,0,past_due",
	}, "\n"))

	resp, err := s.service.ProcessRecoveryUpload(s.GetContext(), "recovery.csv", data)
	s.NoError(err)

	s.Equal(3, resp.Rows)
	s.Equal(0, resp.DuplicatesDropped)
	s.Equal(3, resp.Summary.Failed)
	s.Equal(1, resp.Summary.Recovered)
	s.Equal(1, resp.Summary.InRecovery)
	s.Equal(1, resp.Summary.NotRecovered)
	s.True(decimal.NewFromInt(160).Equal(resp.Summary.FailedAmount), resp.Summary.FailedAmount.String())

	s.NotEmpty(resp.FailedByStatus)
	s.Require().Len(resp.RecoveredByMethod, 1)
	s.Equal("Smart Retries", resp.RecoveredByMethod[0].Label)
	s.NotEmpty(resp.DeclineReasons)
	s.Equal(3, resp.Funnel.Entered)
}
