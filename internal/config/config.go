package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/types"
)

// Configuration holds all process configuration, loaded once at startup and
// passed down by constructor injection.
type Configuration struct {
	Deployment   DeploymentConfig   `mapstructure:"deployment"`
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Mongo        MongoConfig        `mapstructure:"mongo"`
	ExchangeRate ExchangeRateConfig `mapstructure:"exchange_rate"`
	Dollar       DollarConfig       `mapstructure:"dollar"`
	Airtable     AirtableConfig     `mapstructure:"airtable"`
	Stripe       StripeConfig       `mapstructure:"stripe"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Sentry       SentryConfig       `mapstructure:"sentry"`
}

type DeploymentConfig struct {
	Mode string `mapstructure:"mode"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level"`
}

// MongoConfig carries the connection string plus database and collection
// names. Collection names default to the ones used by the existing stored
// data and must be preserved exactly for compatibility.
type MongoConfig struct {
	URI string `mapstructure:"uri"`

	UsersDB     string `mapstructure:"users_db"`
	ChartsDB    string `mapstructure:"charts_db"`
	AnalyticsDB string `mapstructure:"analytics_db"`

	SubscriptionsCollection    string `mapstructure:"subscriptions_collection"`
	LifecycleUpdatesCollection string `mapstructure:"lifecycle_updates_collection"`
	ProductLineSubsCollection  string `mapstructure:"product_line_subs_collection"`
	WalletPaymentsCollection   string `mapstructure:"wallet_payments_collection"`
	CardPaymentsCollection     string `mapstructure:"card_payments_collection"`
	ActivityCollection         string `mapstructure:"activity_collection"`
}

type ExchangeRateConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type DollarConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type AirtableConfig struct {
	Token   string `mapstructure:"token"`
	BaseID  string `mapstructure:"base_id"`
	TableID string `mapstructure:"table_id"`
	BaseURL string `mapstructure:"base_url"`
}

type StripeConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type CacheConfig struct {
	RateTTLMinutes int `mapstructure:"rate_ttl_minutes"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// NewConfig loads configuration from config.yaml (optional), .env (optional)
// and environment variables, in increasing order of precedence.
func NewConfig() (*Configuration, error) {
	// .env is optional; ignore the error when the file does not exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("SUBLYTICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, ierr.WithError(err).
				WithHint("config file exists but could not be parsed").
				Mark(ierr.ErrValidation)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, ierr.WithError(err).
			WithHint("configuration could not be decoded").
			Mark(ierr.ErrValidation)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", "api")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", "info")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.users_db", "Users")
	v.SetDefault("mongo.charts_db", "Sublytics-charts")
	v.SetDefault("mongo.analytics_db", "Analytics")
	v.SetDefault("mongo.subscriptions_collection", "subscriptions")
	v.SetDefault("mongo.lifecycle_updates_collection", "stripe-updates")
	v.SetDefault("mongo.product_line_subs_collection", "tgo-subscriptions")
	v.SetDefault("mongo.wallet_payments_collection", "mp-payments")
	v.SetDefault("mongo.card_payments_collection", "stripe-payments")
	v.SetDefault("mongo.activity_collection", "dau")

	v.SetDefault("exchange_rate.base_url", "https://v6.exchangerate-api.com")
	v.SetDefault("dollar.base_url", "https://dolarapi.com")
	v.SetDefault("airtable.base_url", "https://api.airtable.com")
	v.SetDefault("cache.rate_ttl_minutes", 60)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.sample_rate", 1.0)
}

// Validate checks invariants that defaults cannot guarantee.
func (c *Configuration) Validate() error {
	if c.Mongo.URI == "" {
		return ierr.NewError("mongo uri is required").
			WithHint("set SUBLYTICS_MONGO_URI or mongo.uri in config.yaml").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// GetDefaultConfig returns a configuration suitable for tests and scripts.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: "test"},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Mongo: MongoConfig{
			URI:                        "mongodb://localhost:27017",
			UsersDB:                    "Users",
			ChartsDB:                   "Sublytics-charts",
			AnalyticsDB:                "Analytics",
			SubscriptionsCollection:    "subscriptions",
			LifecycleUpdatesCollection: "stripe-updates",
			ProductLineSubsCollection:  "tgo-subscriptions",
			WalletPaymentsCollection:   "mp-payments",
			CardPaymentsCollection:     "stripe-payments",
			ActivityCollection:         "dau",
		},
		ExchangeRate: ExchangeRateConfig{BaseURL: "https://v6.exchangerate-api.com"},
		Dollar:       DollarConfig{BaseURL: "https://dolarapi.com"},
		Airtable:     AirtableConfig{BaseURL: "https://api.airtable.com"},
		Cache:        CacheConfig{RateTTLMinutes: 60},
	}
}
