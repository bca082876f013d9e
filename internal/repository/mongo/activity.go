package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sublytics/sublytics/internal/config"
	"github.com/sublytics/sublytics/internal/domain/activity"
	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/logger"
)

type activityRepository struct {
	coll   *mongo.Collection
	logger *logger.Logger
}

// NewActivityRepository builds the repository over the per-day user activity
// collection. Each document is one (dt, user_id) activity mark.
func NewActivityRepository(client *mongo.Client, cfg *config.Configuration, log *logger.Logger) activity.Repository {
	return &activityRepository{
		coll:   client.Database(cfg.Mongo.AnalyticsDB).Collection(cfg.Mongo.ActivityCollection),
		logger: log,
	}
}

func (r *activityRepository) DailyActiveUsers(ctx context.Context, start, end string) ([]activity.Point, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"dt": bson.M{"$gte": start, "$lte": end}}},
		{"$group": bson.M{
			"_id":   "$dt",
			"users": bson.M{"$addToSet": "$user_id"},
		}},
		{"$project": bson.M{
			"_id":    0,
			"period": "$_id",
			"users":  bson.M{"$size": "$users"},
		}},
		{"$sort": bson.M{"period": 1}},
	}
	return r.points(ctx, pipeline)
}

func (r *activityRepository) MonthlyActiveUsers(ctx context.Context, start, end string) ([]activity.Point, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"dt": bson.M{"$gte": start, "$lte": end}}},
		{"$project": bson.M{
			"user_id": 1,
			"month":   bson.M{"$substr": bson.A{"$dt", 0, 7}},
		}},
		{"$group": bson.M{
			"_id":   "$month",
			"users": bson.M{"$addToSet": "$user_id"},
		}},
		{"$project": bson.M{
			"_id":    0,
			"period": "$_id",
			"users":  bson.M{"$size": "$users"},
		}},
		{"$sort": bson.M{"period": 1}},
	}
	return r.points(ctx, pipeline)
}

func (r *activityRepository) TotalUsers(ctx context.Context, end string) (int, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"dt": bson.M{"$lte": end}}},
		{"$group": bson.M{
			"_id":   nil,
			"users": bson.M{"$addToSet": "$user_id"},
		}},
		{"$project": bson.M{
			"_id":   0,
			"count": bson.M{"$size": "$users"},
		}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("total users query failed").
			Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	var result []struct {
		Count int `bson:"count"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Count, nil
}

func (r *activityRepository) NewUsersByDay(ctx context.Context, start, end string) ([]activity.Point, error) {
	pipeline := []bson.M{
		{"$sort": bson.D{{Key: "dt", Value: 1}, {Key: "user_id", Value: 1}}},
		{"$group": bson.M{
			"_id":        "$user_id",
			"first_seen": bson.M{"$first": "$dt"},
		}},
		{"$match": bson.M{"first_seen": bson.M{"$gte": start, "$lte": end}}},
		{"$group": bson.M{
			"_id":   "$first_seen",
			"users": bson.M{"$sum": 1},
		}},
		{"$project": bson.M{
			"_id":    0,
			"period": "$_id",
			"users":  1,
		}},
		{"$sort": bson.M{"period": 1}},
	}
	return r.points(ctx, pipeline)
}

func (r *activityRepository) NewUsersByMonth(ctx context.Context, start, end string) ([]activity.Point, error) {
	pipeline := []bson.M{
		{"$sort": bson.D{{Key: "dt", Value: 1}, {Key: "user_id", Value: 1}}},
		{"$group": bson.M{
			"_id":        "$user_id",
			"first_seen": bson.M{"$first": "$dt"},
		}},
		{"$match": bson.M{"first_seen": bson.M{"$gte": start, "$lte": end}}},
		{"$project": bson.M{
			"month": bson.M{"$substr": bson.A{"$first_seen", 0, 7}},
		}},
		{"$group": bson.M{
			"_id":   "$month",
			"users": bson.M{"$sum": 1},
		}},
		{"$project": bson.M{
			"_id":    0,
			"period": "$_id",
			"users":  1,
		}},
		{"$sort": bson.M{"period": 1}},
	}
	return r.points(ctx, pipeline)
}

func (r *activityRepository) points(ctx context.Context, pipeline []bson.M) ([]activity.Point, error) {
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Errorw("failed to query user activity", "error", err)
		return nil, ierr.WithError(err).
			WithHint("user activity query failed").
			Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	var points []activity.Point
	if err := cursor.All(ctx, &points); err != nil {
		return nil, ierr.WithError(err).
			WithHint("user activity documents could not be decoded").
			Mark(ierr.ErrDatabase)
	}
	return points, nil
}
