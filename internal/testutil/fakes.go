package testutil

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sublytics/sublytics/internal/currency"
	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/integration/airtable"
)

// FakeConverter implements currency.Converter over a fixed pair-rate table.
// Pairs missing from the table behave like a lookup outage: the original
// amount comes back unconverted.
type FakeConverter struct {
	Rates map[string]decimal.Decimal
}

func NewFakeConverter() *FakeConverter {
	return &FakeConverter{Rates: make(map[string]decimal.Decimal)}
}

func (f *FakeConverter) SetRate(from, to string, rate decimal.Decimal) {
	f.Rates[from+"/"+to] = rate
}

func (f *FakeConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) currency.Result {
	if from == to {
		return currency.Result{Amount: amount, Currency: to, Converted: true}
	}
	rate, ok := f.Rates[from+"/"+to]
	if !ok {
		return currency.Result{Amount: amount, Currency: from, Converted: false}
	}
	return currency.Result{Amount: amount.Mul(rate), Currency: to, Converted: true}
}

// FakeDollarRates implements currency.DollarRateProvider with a fixed quote.
// A zero Rate simulates the rate service being down.
type FakeDollarRates struct {
	Rate decimal.Decimal
}

func (f *FakeDollarRates) OfficialDollarRate(ctx context.Context) (decimal.Decimal, error) {
	if f.Rate.IsZero() {
		return decimal.Zero, ierr.NewError("dollar rate service unreachable").
			Mark(ierr.ErrHTTPClient)
	}
	return f.Rate, nil
}

// FakeAirtable implements airtable.AirtableClient over a fixed record list.
type FakeAirtable struct {
	Records []*airtable.OnboardingRecord
	Err     error
}

func (f *FakeAirtable) ListOnboardingRecords(ctx context.Context) ([]*airtable.OnboardingRecord, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Records, nil
}

// FakeCardProvider implements stripe.CardProviderClient over a fixed set of
// customer ids that hold an active subscription.
type FakeCardProvider struct {
	Subscribed map[string]bool
	Err        error
}

func NewFakeCardProvider() *FakeCardProvider {
	return &FakeCardProvider{Subscribed: make(map[string]bool)}
}

func (f *FakeCardProvider) HasActiveSubscriptionSince(ctx context.Context, customerID string, since time.Time) (bool, error) {
	if f.Err != nil {
		return false, f.Err
	}
	return f.Subscribed[customerID], nil
}
