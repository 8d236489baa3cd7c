package repository

import (
	"context"
	"fmt"
	"time"

	scheduleserrors "clubschedule/internal/schedules/errors"
	"clubschedule/pkg/config"
	mongotx "clubschedule/pkg/db/mongo"
	"clubschedule/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	OverrideCollectionName = "Availability_overrides"
)

// OverrideRepository stores closed dates per location. Dates are YYYY-MM-DD
// strings, so range queries compare lexically.
type OverrideRepository interface {
	Create(ctx context.Context, override *model.AvailabilityOverride) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, location, from, to string) ([]*model.AvailabilityOverride, error)
	ClosedDates(ctx context.Context, location, from, to string) ([]string, error)
}

type mongoOverrideRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoOverrideRepository(cfg *config.Config) OverrideRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoOverrideRepository{
		cfg:        cfg,
		collection: db.Collection(OverrideCollectionName),
	}
}

func (r *mongoOverrideRepository) Create(ctx context.Context, override *model.AvailabilityOverride) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	override.ID = ""
	override.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, override)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return scheduleserrors.ErrOverrideExists
		}
		return fmt.Errorf("failed to create override: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		override.ID = oid.Hex()
	}
	return nil
}

func (r *mongoOverrideRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", scheduleserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete override: %w", err)
	}
	if result.DeletedCount == 0 {
		return scheduleserrors.ErrOverrideNotFound
	}
	return nil
}

func (r *mongoOverrideRepository) List(ctx context.Context, location, from, to string) ([]*model.AvailabilityOverride, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "location", Value: 1}, {Key: "date", Value: 1}})
	cursor, err := r.collection.Find(ctx, overrideFilter(location, from, to), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides: %w", err)
	}
	defer cursor.Close(ctx)

	overrides := make([]*model.AvailabilityOverride, 0)
	if err = cursor.All(ctx, &overrides); err != nil {
		return nil, fmt.Errorf("failed to decode overrides: %w", err)
	}
	return overrides, nil
}

func (r *mongoOverrideRepository) ClosedDates(ctx context.Context, location, from, to string) ([]string, error) {
	overrides, err := r.List(ctx, location, from, to)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(overrides))
	for _, o := range overrides {
		if o.Kind == model.OverrideClosed {
			dates = append(dates, o.Date)
		}
	}
	return dates, nil
}

func overrideFilter(location, from, to string) bson.M {
	filter := bson.M{}
	if location != "" {
		filter["location"] = location
	}
	dates := bson.M{}
	if from != "" {
		dates["$gte"] = from
	}
	if to != "" {
		dates["$lte"] = to
	}
	if len(dates) > 0 {
		filter["date"] = dates
	}
	return filter
}
