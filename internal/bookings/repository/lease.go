package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "clubschedule/internal/bookings/errors"
	"clubschedule/pkg/config"
	mongotx "clubschedule/pkg/db/mongo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LeaseCollectionName = "Job_leases"

// LeaseRepository hands out named advisory leases so that only one replica
// runs a periodic job at a time. A lease expires on its own if the holder dies.
type LeaseRepository interface {
	Acquire(ctx context.Context, name, owner string, ttl time.Duration) error
	Release(ctx context.Context, name, owner string) error
}

type lease struct {
	Name      string    `bson:"_id"`
	Owner     string    `bson:"owner"`
	ExpiresAt time.Time `bson:"expires_at"`
}

type mongoLeaseRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLeaseRepository(cfg *config.Config) LeaseRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLeaseRepository{
		cfg:        cfg,
		collection: db.Collection(LeaseCollectionName),
	}
}

// Acquire inserts the lease, or takes it over once expired. It returns
// ErrLeaseHeld while another owner holds a live lease.
func (r *mongoLeaseRepository) Acquire(ctx context.Context, name, owner string, ttl time.Duration) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, lease{Name: name, Owner: owner, ExpiresAt: now.Add(ttl)})
	if err == nil {
		return nil
	}
	if !mongotx.IsDuplicateKey(err) {
		return fmt.Errorf("failed to acquire lease %s: %w", name, err)
	}

	filter := bson.M{
		"_id": name,
		"$or": bson.A{
			bson.M{"expires_at": bson.M{"$lte": now}},
			bson.M{"owner": owner},
		},
	}
	update := bson.M{"$set": bson.M{"owner": owner, "expires_at": now.Add(ttl)}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to take over lease %s: %w", name, err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrLeaseHeld
	}
	return nil
}

func (r *mongoLeaseRepository) Release(ctx context.Context, name, owner string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": name, "owner": owner}); err != nil {
		return fmt.Errorf("failed to release lease %s: %w", name, err)
	}
	return nil
}
