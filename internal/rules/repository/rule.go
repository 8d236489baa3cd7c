package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	ruleserrors "clubschedule/internal/rules/errors"
	"clubschedule/pkg/config"
	mongotx "clubschedule/pkg/db/mongo"
	"clubschedule/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Availability_rules"
)

type RuleRepository interface {
	Create(ctx context.Context, rule *model.AvailabilityRule) error
	FindByID(ctx context.Context, id string) (*model.AvailabilityRule, error)
	List(ctx context.Context, location string, limit int, offset int64) ([]*model.AvailabilityRule, error)
	Count(ctx context.Context, location string) (int64, error)
	Update(ctx context.Context, id string, rule *model.AvailabilityRule) error
	Delete(ctx context.Context, id string) error
}

type mongoRuleRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRuleRepository(cfg *config.Config) RuleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRuleRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoRuleRepository) Create(ctx context.Context, rule *model.AvailabilityRule) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	rule.CreatedAt = time.Now().UTC()
	result, err := r.collection.InsertOne(ctx, rule)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return ruleserrors.ErrRuleExists
		}
		return fmt.Errorf("failed to create availability rule: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		rule.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRuleRepository) FindByID(ctx context.Context, id string) (*model.AvailabilityRule, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ruleserrors.ErrInvalidID, id)
	}

	var rule model.AvailabilityRule
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&rule); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ruleserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find availability rule: %w", err)
	}
	return &rule, nil
}

func (r *mongoRuleRepository) List(ctx context.Context, location string, limit int, offset int64) ([]*model.AvailabilityRule, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "location", Value: 1}, {Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, locationFilter(location), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find availability rules: %w", err)
	}
	defer cursor.Close(ctx)

	rules := make([]*model.AvailabilityRule, 0)
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode availability rules: %w", err)
	}
	return rules, nil
}

func (r *mongoRuleRepository) Count(ctx context.Context, location string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, locationFilter(location))
	if err != nil {
		return 0, fmt.Errorf("failed to count availability rules: %w", err)
	}
	return count, nil
}

// Update replaces the mutable fields. Location and creation time are fixed
// once a rule exists.
func (r *mongoRuleRepository) Update(ctx context.Context, id string, rule *model.AvailabilityRule) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ruleserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":                rule.Name,
			"start_of_day":        rule.StartOfDay,
			"end_of_day":          rule.EndOfDay,
			"days_of_week":        rule.DaysOfWeek,
			"lesson_duration_min": rule.LessonDurationMin,
			"break_duration_min":  rule.BreakDurationMin,
			"max_capacity":        rule.MaxCapacity,
			"joinable":            rule.Joinable,
			"exceptions":          rule.Exceptions,
			"timezone":            rule.Timezone,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return ruleserrors.ErrRuleExists
		}
		return fmt.Errorf("failed to update availability rule: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ruleserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoRuleRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ruleserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete availability rule: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ruleserrors.ErrNotFound, id)
	}
	return nil
}

func locationFilter(location string) bson.M {
	if location == "" {
		return bson.M{}
	}
	return bson.M{"location": location}
}
