package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sublytics/sublytics/internal/config"
	"github.com/sublytics/sublytics/internal/domain/subscription"
	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/logger"
	"github.com/sublytics/sublytics/internal/types"
)

type lifecycleRepository struct {
	coll   *mongo.Collection
	logger *logger.Logger
}

// NewLifecycleRepository builds the card-provider transition log repository.
func NewLifecycleRepository(client *mongo.Client, cfg *config.Configuration, log *logger.Logger) subscription.LifecycleRepository {
	return &lifecycleRepository{
		coll:   client.Database(cfg.Mongo.UsersDB).Collection(cfg.Mongo.LifecycleUpdatesCollection),
		logger: log,
	}
}

func (r *lifecycleRepository) ListCreated(ctx context.Context, window types.DateWindow) ([]*subscription.LifecycleEvent, error) {
	return r.listByDescriptions(ctx, window, []string{
		subscription.EventNewSubscription,
		subscription.EventAlreadyCreated,
	})
}

func (r *lifecycleRepository) ListCancelled(ctx context.Context, window types.DateWindow) ([]*subscription.LifecycleEvent, error) {
	return r.listByDescriptions(ctx, window, []string{subscription.EventCancelled})
}

func (r *lifecycleRepository) ListIncomplete(ctx context.Context, window types.DateWindow) ([]*subscription.LifecycleEvent, error) {
	return r.listByDescriptions(ctx, window, []string{subscription.EventIncompleteExpired})
}

// listByDescriptions windows the transition log on its stored string
// timestamps. Timestamps are stored as ISO literals with a Z offset, so the
// window bounds compare lexicographically.
func (r *lifecycleRepository) listByDescriptions(ctx context.Context, window types.DateWindow, descriptions []string) ([]*subscription.LifecycleEvent, error) {
	start, end, err := window.Bounds()
	if err != nil {
		return nil, err
	}

	match := bson.M{
		"timestamp": bson.M{
			"$gte": types.BoundLiteral(start),
			"$lt":  types.BoundLiteral(end),
		},
	}
	if len(descriptions) == 1 {
		match["description"] = descriptions[0]
	} else {
		match["description"] = bson.M{"$in": descriptions}
	}

	pipeline := []bson.M{
		{"$match": match},
		{"$project": bson.M{
			"_id":       0,
			"user_id":   1,
			"source":    1,
			"timestamp": bson.M{"$substr": bson.A{"$timestamp", 0, 10}},
		}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Errorw("failed to query lifecycle events",
			"descriptions", descriptions, "error", err)
		return nil, ierr.WithError(err).
			WithHint("lifecycle event query failed").
			Mark(ierr.ErrDatabase)
	}
	defer cursor.Close(ctx)

	var events []*subscription.LifecycleEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, ierr.WithError(err).
			WithHint("lifecycle documents could not be decoded").
			Mark(ierr.ErrDatabase)
	}
	return events, nil
}
