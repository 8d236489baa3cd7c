package repository

import (
	"context"
	"errors"
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
	BatchCollectionName = "Schedule_batches"
)

// BatchRepository stores the provenance record of every applied schedule.
// A batch is written once before its slots and finished once with its counts.
type BatchRepository interface {
	Create(ctx context.Context, batch *model.ScheduleBatch) error
	Finish(ctx context.Context, id string, result *model.ApplyResult) error
	FindByID(ctx context.Context, id string) (*model.ScheduleBatch, error)
	List(ctx context.Context, location string, limit int, offset int64) ([]*model.ScheduleBatch, error)
	Count(ctx context.Context, location string) (int64, error)
}

type mongoBatchRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBatchRepository(cfg *config.Config) BatchRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBatchRepository{
		cfg:        cfg,
		collection: db.Collection(BatchCollectionName),
	}
}

func (r *mongoBatchRepository) Create(ctx context.Context, batch *model.ScheduleBatch) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	batch.ID = ""
	batch.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, batch)
	if err != nil {
		return fmt.Errorf("failed to create schedule batch: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		batch.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBatchRepository) Finish(ctx context.Context, id string, result *model.ApplyResult) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", scheduleserrors.ErrInvalidID, id)
	}

	update := bson.M{"$set": bson.M{
		"status":         result.Status,
		"created_count":  result.CreatedCount,
		"skipped_count":  result.SkippedCount,
		"replaced_count": result.ReplacedCount,
		"failed_count":   result.FailedCount,
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID, "status": model.BatchApplying}, update)
	if err != nil {
		return fmt.Errorf("failed to finish schedule batch: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", scheduleserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoBatchRepository) FindByID(ctx context.Context, id string) (*model.ScheduleBatch, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", scheduleserrors.ErrInvalidID, id)
	}

	var batch model.ScheduleBatch
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&batch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", scheduleserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find schedule batch: %w", err)
	}
	return &batch, nil
}

func (r *mongoBatchRepository) List(ctx context.Context, location string, limit int, offset int64) ([]*model.ScheduleBatch, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, locationFilter(location), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule batches: %w", err)
	}
	defer cursor.Close(ctx)

	batches := make([]*model.ScheduleBatch, 0)
	if err = cursor.All(ctx, &batches); err != nil {
		return nil, fmt.Errorf("failed to decode schedule batches: %w", err)
	}
	return batches, nil
}

func (r *mongoBatchRepository) Count(ctx context.Context, location string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, locationFilter(location))
	if err != nil {
		return 0, fmt.Errorf("failed to count schedule batches: %w", err)
	}
	return count, nil
}

func locationFilter(location string) bson.M {
	if location == "" {
		return bson.M{}
	}
	return bson.M{"location": location}
}
