package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sublytics/sublytics/internal/config"
	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/logger"
)

const connectTimeout = 10 * time.Second

// NewClient opens the single mongo client for the process and verifies the
// connection. Repositories share this client by constructor injection.
func NewClient(ctx context.Context, cfg *config.Configuration, log *logger.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetAppName("sublytics").
		SetServerSelectionTimeout(8 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("could not open the mongo connection").
			Mark(ierr.ErrDatabase)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, ierr.WithError(err).
			WithHint("mongo is unreachable, check the connection string").
			Mark(ierr.ErrDatabase)
	}

	log.Infow("connected to mongo",
		"users_db", cfg.Mongo.UsersDB,
		"charts_db", cfg.Mongo.ChartsDB)
	return client, nil
}
