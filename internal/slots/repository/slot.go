package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	slotserrors "clubschedule/internal/slots/errors"
	"clubschedule/pkg/config"
	mongotx "clubschedule/pkg/db/mongo"
	"clubschedule/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Slots"
)

// SlotFilter narrows List and Count. Zero fields are ignored; From and To
// select slots overlapping [From, To).
type SlotFilter struct {
	Location string
	From     *time.Time
	To       *time.Time
	Status   model.SlotStatus
}

type SlotRepository interface {
	FindByID(ctx context.Context, id string) (*model.Slot, error)
	FindInWindow(ctx context.Context, location string, from, to time.Time) ([]*model.Slot, error)
	List(ctx context.Context, filter SlotFilter, limit int, offset int64) ([]*model.Slot, error)
	Count(ctx context.Context, filter SlotFilter) (int64, error)
	Insert(ctx context.Context, slot *model.Slot) error
	InsertMany(ctx context.Context, slots []*model.Slot) (int, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	UpdateProjection(ctx context.Context, slot *model.Slot, status model.SlotStatus, lockedBy *string) error
	UpdateStatus(ctx context.Context, id string, status model.SlotStatus) (*model.Slot, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoSlotRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoSlotRepository(cfg *config.Config) SlotRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo, cfg.WriteTimeout),
	}
}

func (r *mongoSlotRepository) FindByID(ctx context.Context, id string) (*model.Slot, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}

	var slot model.Slot
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, slotserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find slot: %w", err)
	}

	return &slot, nil
}

// FindInWindow returns every slot overlapping [from, to), ordered by start.
// An empty location matches all locations.
func (r *mongoSlotRepository) FindInWindow(ctx context.Context, location string, from, to time.Time) ([]*model.Slot, error) {
	if !from.Before(to) {
		return nil, slotserrors.ErrInvalidWindow
	}
	return r.find(ctx, SlotFilter{Location: location, From: &from, To: &to}, options.Find().
		SetSort(bson.D{{Key: "start_at", Value: 1}, {Key: "_id", Value: 1}}))
}

func (r *mongoSlotRepository) List(ctx context.Context, filter SlotFilter, limit int, offset int64) ([]*model.Slot, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "start_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, filter, opts)
}

func (r *mongoSlotRepository) find(ctx context.Context, filter SlotFilter, opts *options.FindOptions) ([]*model.Slot, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find slots: %w", err)
	}
	defer cursor.Close(ctx)

	slots := make([]*model.Slot, 0)
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode slots: %w", err)
	}

	return slots, nil
}

func (r *mongoSlotRepository) Count(ctx context.Context, filter SlotFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count slots: %w", err)
	}
	return count, nil
}

func buildFilter(f SlotFilter) bson.M {
	filter := bson.M{}
	if f.Location != "" {
		filter["location"] = f.Location
	}
	if f.To != nil {
		filter["start_at"] = bson.M{"$lt": *f.To}
	}
	if f.From != nil {
		filter["end_at"] = bson.M{"$gt": *f.From}
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

func (r *mongoSlotRepository) Insert(ctx context.Context, slot *model.Slot) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	stampNew(slot)
	result, err := r.collection.InsertOne(ctx, slot)
	if err != nil {
		return fmt.Errorf("failed to insert slot: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		slot.ID = oid.Hex()
	}
	return nil
}

// InsertMany writes slots in unordered chunks of InsertChunkSize. It keeps
// going after a failed chunk and returns how many slots were stored along with
// the first error. Stored slots get their generated IDs.
func (r *mongoSlotRepository) InsertMany(ctx context.Context, slots []*model.Slot) (int, error) {
	chunkSize := r.cfg.InsertChunkSize
	if chunkSize <= 0 {
		chunkSize = config.DefaultInsertChunkSize
	}

	inserted := 0
	var firstErr error
	for start := 0; start < len(slots); start += chunkSize {
		end := min(start+chunkSize, len(slots))
		n, err := r.insertChunk(ctx, slots[start:end])
		inserted += n
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return inserted, firstErr
}

func (r *mongoSlotRepository) insertChunk(ctx context.Context, chunk []*model.Slot) (int, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	docs := make([]any, 0, len(chunk))
	for _, s := range chunk {
		stampNew(s)
		docs = append(docs, s)
	}

	result, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))

	failed := make(map[int]struct{})
	if err != nil {
		var bwe mongo.BulkWriteException
		if !errors.As(err, &bwe) {
			return 0, fmt.Errorf("failed to insert slots: %w", err)
		}
		for _, we := range bwe.WriteErrors {
			failed[we.Index] = struct{}{}
		}
		err = fmt.Errorf("failed to insert %d of %d slots: %w", len(failed), len(chunk), err)
	}

	if result != nil {
		for i, id := range result.InsertedIDs {
			if _, bad := failed[i]; bad || i >= len(chunk) {
				continue
			}
			if oid, ok := id.(primitive.ObjectID); ok {
				chunk[i].ID = oid.Hex()
			}
		}
	}
	return len(chunk) - len(failed), err
}

func stampNew(slot *model.Slot) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	slot.ID = ""
	slot.Version = 0
	slot.CreatedAt = now
	slot.UpdatedAt = now
}

func (r *mongoSlotRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectIDs, err := mongotx.ObjectIDs(ids)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", slotserrors.ErrInvalidID, err)
	}

	result, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete slots: %w", err)
	}
	return result.DeletedCount, nil
}

// UpdateProjection writes the booking-derived fields only if the slot still has
// the version it was read at, then bumps the version on the caller's copy.
func (r *mongoSlotRepository) UpdateProjection(ctx context.Context, slot *model.Slot, status model.SlotStatus, lockedBy *string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(slot.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, slot.ID)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	filter := bson.M{"_id": objectID, "version": slot.Version}
	update := bson.M{
		"$set": bson.M{
			"status":               status,
			"locked_by_booking_id": lockedBy,
			"updated_at":           now,
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update slot projection: %w", err)
	}
	if result.MatchedCount == 0 {
		return slotserrors.ErrVersionConflict
	}

	slot.Status = status
	slot.LockedByBookingID = lockedBy
	slot.UpdatedAt = now
	slot.Version++
	return nil
}

func (r *mongoSlotRepository) UpdateStatus(ctx context.Context, id string, status model.SlotStatus) (*model.Slot, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var slot model.Slot
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, slotserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update slot status: %w", err)
	}
	return &slot, nil
}

func (r *mongoSlotRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
