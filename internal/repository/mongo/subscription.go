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

// subscriptionColumns are the fields projected by every snapshot query.
// Normalization checks this set to tell missing values apart from missing
// fields.
var subscriptionColumns = map[string]bool{
	"user_id":    true,
	"provider":   true,
	"status":     true,
	"source":     true,
	"reason":     true,
	"start_date": true,
}

type subscriptionRepository struct {
	coll   *mongo.Collection
	logger *logger.Logger
}

// NewSubscriptionRepository builds the wallet-provider current-state
// repository over the subscriptions collection.
func NewSubscriptionRepository(client *mongo.Client, cfg *config.Configuration, log *logger.Logger) subscription.Repository {
	return &subscriptionRepository{
		coll:   client.Database(cfg.Mongo.UsersDB).Collection(cfg.Mongo.SubscriptionsCollection),
		logger: log,
	}
}

// snapshotProjection trims start_date to its date part in the pipeline, the
// same truncation every consumer would otherwise repeat.
var snapshotProjection = bson.M{"$project": bson.M{
	"_id":        0,
	"user_id":    1,
	"provider":   1,
	"status":     1,
	"source":     1,
	"reason":     1,
	"start_date": bson.M{"$substr": bson.A{"$start_date", 0, 10}},
}}

func (r *subscriptionRepository) ListCurrent(ctx context.Context) (*subscription.Batch, error) {
	matchStage := bson.M{"$match": bson.M{
		"status":                bson.M{"$ne": "cancelled"},
		"is_experiment_gift":    bson.M{"$exists": false},
		"is_free_balance_error": bson.M{"$exists": false},
	}}
	return r.aggregate(ctx, []bson.M{matchStage, snapshotProjection})
}

func (r *subscriptionRepository) ListWithStatuses(ctx context.Context, statuses []string) (*subscription.Batch, error) {
	matchStage := bson.M{"$match": bson.M{
		"status": bson.M{"$in": statuses},
	}}
	return r.aggregate(ctx, []bson.M{matchStage, snapshotProjection})
}

func (r *subscriptionRepository) aggregate(ctx context.Context, pipeline []bson.M) (*subscription.Batch, error) {
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Errorw("failed to query subscriptions", "error", err)
		return nil, ierr.WithError(err).
			WithHint("subscription query failed").
			Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	var records []*subscription.Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, ierr.WithError(err).
			WithHint("subscription documents could not be decoded").
			Mark(ierr.ErrDatabase)
	}
	return &subscription.Batch{Records: records, Columns: subscriptionColumns}, nil
}

func (r *subscriptionRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("subscription count failed").
			Mark(ierr.ErrDatabase)
	}
	return total, nil
}

func (r *subscriptionRepository) CountActivePlans(ctx context.Context, reasons []string) (int64, error) {
	filter := bson.M{
		"status": "authorized",
		"reason": bson.M{"$in": reasons},
	}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("active plan count failed").
			Mark(ierr.ErrDatabase)
	}
	return total, nil
}

func (r *subscriptionRepository) ActivePlanCounts(ctx context.Context, reasons []string) ([]subscription.PlanCount, error) {
	pipeline := []bson.M{
		{"$match": bson.M{
			"status": "authorized",
			"reason": bson.M{"$in": reasons},
		}},
		{"$group": bson.M{
			"_id":   "$reason",
			"count": bson.M{"$sum": 1},
		}},
		{"$project": bson.M{
			"_id":    0,
			"reason": "$_id",
			"count":  1,
		}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("plan breakdown query failed").
			Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	var counts []subscription.PlanCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, ierr.WithError(err).
			WithHint("plan breakdown documents could not be decoded").
			Mark(ierr.ErrDatabase)
	}
	return counts, nil
}
