package mongo

import (
	"context"
	"fmt"
	"sort"

	bookingsrepo "clubschedule/internal/bookings/repository"
	"clubschedule/internal/migrations/mongo/validators"
	rulesrepo "clubschedule/internal/rules/repository"
	schedulesrepo "clubschedule/internal/schedules/repository"
	slotsrepo "clubschedule/internal/slots/repository"
	"clubschedule/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionDef is the schema validator and index set of one collection.
type CollectionDef struct {
	Validator bson.M
	Indexes   []mongo.IndexModel
}

var (
	SlotsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "location", Value: 1}, {Key: "start_at", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("location_start_unique"),
		},
		{Keys: bson.D{{Key: "location", Value: 1}, {Key: "end_at", Value: 1}}},
		{Keys: bson.D{{Key: "start_at", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_from_batch_id", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "created_from_rule_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "slot_id", Value: 1}, {Key: "status", Value: 1}}},
	}

	BatchesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	OverridesIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "location", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("location_date_unique"),
		},
	}

	RulesIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "location", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("location_name_unique"),
		},
	}

	LeasesIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
		},
	}
)

// Collections lists every collection the scheduler owns or reads.
func Collections() map[string]CollectionDef {
	return map[string]CollectionDef{
		slotsrepo.CollectionName:             {Validator: validators.SlotValidator, Indexes: SlotsIndexes},
		bookingsrepo.CollectionName:          {Validator: validators.BookingValidator, Indexes: BookingsIndexes},
		bookingsrepo.LeaseCollectionName:     {Validator: validators.LeaseValidator, Indexes: LeasesIndexes},
		schedulesrepo.BatchCollectionName:    {Validator: validators.BatchValidator, Indexes: BatchesIndexes},
		schedulesrepo.OverrideCollectionName: {Validator: validators.OverrideValidator, Indexes: OverridesIndexes},
		rulesrepo.CollectionName:             {Validator: validators.RuleValidator, Indexes: RulesIndexes},
	}
}

// RunMigration creates missing collections, refreshes validators on existing
// ones and ensures indexes. It is safe to run repeatedly.
func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	defs := Collections()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := defs[name]
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied", "collections", len(names))
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed to update collection validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	created, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", created)
	return nil
}
