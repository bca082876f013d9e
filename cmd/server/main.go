package main

import (
	"context"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"

	"github.com/sublytics/sublytics/internal/api"
	v1 "github.com/sublytics/sublytics/internal/api/v1"
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
	mongorepo "github.com/sublytics/sublytics/internal/repository/mongo"
	"github.com/sublytics/sublytics/internal/service"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,
			newMongoClient,
			mongorepo.NewSubscriptionRepository,
			mongorepo.NewLifecycleRepository,
			mongorepo.NewProductLineRepository,
			mongorepo.NewPaymentRepository,
			mongorepo.NewActivityRepository,
			currency.NewConverter,
			currency.NewDollarRateProvider,
			airtable.NewClient,
			stripe.NewClient,
			country.NewResolver,
			ingest.NewLoader,
			newServiceParams,
			service.NewSubscriptionAnalyticsService,
			service.NewOnboardingFunnelService,
			service.NewUserAnalyticsService,
			v1.NewAnalyticsHandler,
			v1.NewUploadHandler,
			v1.NewFunnelHandler,
			v1.NewUserMetricsHandler,
			api.NewHandlers,
			api.NewRouter,
		),
		fx.Invoke(initSentry),
		fx.Invoke(startServer),
	)
	app.Run()
}

func newMongoClient(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongorepo.NewClient(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})
	return client, nil
}

func newServiceParams(
	cfg *config.Configuration,
	log *logger.Logger,
	subRepo subscription.Repository,
	lifecycleRepo subscription.LifecycleRepository,
	productLineRepo subscription.ProductLineRepository,
	paymentRepo payment.Repository,
	activityRepo activity.Repository,
	converter currency.Converter,
	dollarRates currency.DollarRateProvider,
	airtableClient airtable.AirtableClient,
	cardProvider stripe.CardProviderClient,
	resolver *country.Resolver,
	loader *ingest.Loader,
) service.ServiceParams {
	return service.ServiceParams{
		Logger:          log,
		Config:          cfg,
		SubRepo:         subRepo,
		LifecycleRepo:   lifecycleRepo,
		ProductLineRepo: productLineRepo,
		PaymentRepo:     paymentRepo,
		ActivityRepo:    activityRepo,
		Converter:       converter,
		DollarRates:     dollarRates,
		Airtable:        airtableClient,
		CardProvider:    cardProvider,
		Resolver:        resolver,
		Loader:          loader,
	}
}

func initSentry(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) error {
	if !cfg.Sentry.Enabled {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		TracesSampleRate: cfg.Sentry.SampleRate,
	})
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sentry.Flush(2 * time.Second)
			return nil
		},
	})
	log.Infow("sentry initialized", "environment", cfg.Sentry.Environment)
	return nil
}

func startServer(lc fx.Lifecycle, router *gin.Engine, cfg *config.Configuration, log *logger.Logger) {
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting server", "address", cfg.Server.Address)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalw("server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("shutting down server")
			return server.Shutdown(ctx)
		},
	})
}
