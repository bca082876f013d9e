package service

import (
	"github.com/sublytics/sublytics/internal/config"
	"github.com/sublytics/sublytics/internal/country"
	"github.com/sublytics/sublytics/internal/currency"
	"github.com/sublytics/sublytics/internal/domain/activity"
	"github.com/sublytics/sublytics/internal/domain/payment"
	"github.com/sublytics/sublytics/internal/domain/subscription"
	"github.com/sublytics/sublytics/internal/ingest"
	"github.com/sublytics/sublytics/internal/integration/airtable"
	"github.com/sublytics/sublytics/internal/integration/stripe"
	"github.com/sublytics/sublytics/internal/logger"
)

// ServiceParams bundles every dependency a service can need. Services embed
// it so constructors stay uniform and wiring stays in one place.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	SubRepo         subscription.Repository
	LifecycleRepo   subscription.LifecycleRepository
	ProductLineRepo subscription.ProductLineRepository
	PaymentRepo     payment.Repository
	ActivityRepo    activity.Repository

	Converter    currency.Converter
	DollarRates  currency.DollarRateProvider
	Airtable     airtable.AirtableClient
	CardProvider stripe.CardProviderClient

	Resolver *country.Resolver
	Loader   *ingest.Loader
}
