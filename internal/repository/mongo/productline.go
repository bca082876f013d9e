package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sublytics/sublytics/internal/config"
	"github.com/sublytics/sublytics/internal/domain/subscription"
	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/logger"
)

type productLineRepository struct {
	coll   *mongo.Collection
	logger *logger.Logger
}

// NewProductLineRepository builds the second product line's subscription
// repository.
func NewProductLineRepository(client *mongo.Client, cfg *config.Configuration, log *logger.Logger) subscription.ProductLineRepository {
	return &productLineRepository{
		coll:   client.Database(cfg.Mongo.ChartsDB).Collection(cfg.Mongo.ProductLineSubsCollection),
		logger: log,
	}
}

func (r *productLineRepository) ListSubscriptions(ctx context.Context) ([]*subscription.ProductLineRecord, error) {
	pipeline := []bson.M{
		{"$project": bson.M{
			"_id":      0,
			"status":   1,
			"created":  1,
			"ended_at": 1,
			"plan":     "$plan.nickname",
		}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Errorw("failed to query product line subscriptions", "error", err)
		return nil, ierr.WithError(err).
			WithHint("product line query failed").
			Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	var records []*subscription.ProductLineRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, ierr.WithError(err).
			WithHint("product line documents could not be decoded").
			Mark(ierr.ErrDatabase)
	}
	return records, nil
}

func (r *productLineRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("product line count failed").
			Mark(ierr.ErrDatabase)
	}
	return total, nil
}
