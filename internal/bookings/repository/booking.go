package repository

import (
	"context"
	"errors"
	"fmt"

	bookingserrors "clubschedule/internal/bookings/errors"
	"clubschedule/pkg/config"
	mongotx "clubschedule/pkg/db/mongo"
	"clubschedule/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	CollectionName = "Bookings"
)

// BookingRepository reads bookings written by the booking procedure. Every
// read goes to the primary with majority read concern so a projection always
// sees the write that triggered it.
type BookingRepository interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	ListBySlot(ctx context.Context, slotID string) ([]*model.Booking, error)
	ListBySlots(ctx context.Context, slotIDs []string) ([]*model.Booking, error)
	ActiveSlotIDs(ctx context.Context, slotIDs []string) (map[string]bool, error)
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	fresh := options.Collection().
		SetReadPreference(readpref.Primary()).
		SetReadConcern(readconcern.Majority())
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName, fresh),
	}
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

// ListBySlot returns every booking on the slot, cancelled ones included,
// ordered by id.
func (r *mongoBookingRepository) ListBySlot(ctx context.Context, slotID string) ([]*model.Booking, error) {
	return r.ListBySlots(ctx, []string{slotID})
}

func (r *mongoBookingRepository) ListBySlots(ctx context.Context, slotIDs []string) ([]*model.Booking, error) {
	if len(slotIDs) == 0 {
		return []*model.Booking{}, nil
	}
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs, err := mongotx.ObjectIDs(slotIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bookingserrors.ErrInvalidID, err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"slot_id": bson.M{"$in": objectIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*model.Booking, 0)
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

// ActiveSlotIDs reports which of slotIDs hold at least one pending or
// confirmed booking.
func (r *mongoBookingRepository) ActiveSlotIDs(ctx context.Context, slotIDs []string) (map[string]bool, error) {
	active := make(map[string]bool)
	if len(slotIDs) == 0 {
		return active, nil
	}
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs, err := mongotx.ObjectIDs(slotIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bookingserrors.ErrInvalidID, err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"slot_id": bson.M{"$in": objectIDs},
			"status":  bson.M{"$ne": model.BookingCancelled},
		}}},
		{{Key: "$group", Value: bson.M{"_id": "$slot_id"}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate active bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		SlotID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode active slots: %w", err)
	}
	for _, row := range rows {
		active[row.SlotID.Hex()] = true
	}
	return active, nil
}
