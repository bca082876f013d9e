package testutil

import (
	"context"

	"github.com/stretchr/testify/suite"

	"github.com/sublytics/sublytics/internal/config"
	"github.com/sublytics/sublytics/internal/logger"
)

// Stores bundles the in-memory repositories for service tests.
type Stores struct {
	SubscriptionRepo *InMemorySubscriptionStore
	LifecycleRepo    *InMemoryLifecycleStore
	ProductLineRepo  *InMemoryProductLineStore
	PaymentRepo      *InMemoryPaymentStore
	ActivityRepo     *InMemoryActivityStore
}

// BaseServiceTestSuite sets up fresh in-memory stores, a logger and a default
// configuration for every test.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	logger *logger.Logger
	config *config.Configuration
	stores Stores
}

func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.config = config.GetDefaultConfig()
	s.logger = logger.GetLogger()
	s.stores = Stores{
		SubscriptionRepo: NewInMemorySubscriptionStore(),
		LifecycleRepo:    NewInMemoryLifecycleStore(),
		ProductLineRepo:  NewInMemoryProductLineStore(),
		PaymentRepo:      NewInMemoryPaymentStore(),
		ActivityRepo:     NewInMemoryActivityStore(),
	}
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}
