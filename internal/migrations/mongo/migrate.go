package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingsrepo "servicely/internal/bookings/repository"
	chatrepo "servicely/internal/chat/repository"
	"servicely/internal/migrations/mongo/validators"
	notificationsrepo "servicely/internal/notifications/repository"
	reviewsrepo "servicely/internal/reviews/repository"
	statsrepo "servicely/internal/stats/repository"
	"servicely/pkg/logger"
)

// projectedEventsTTL bounds how long the projector remembers event ids for
// redelivery checks.
const projectedEventsTTL = 30 * 24 * time.Hour

var (
	BookingsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "booking_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "seeker_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "provider_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	ReviewsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "booking_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "provider_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "seeker_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	MessagesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "created_at", Value: 1}}},
	}

	ProjectedEventsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "projected_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(projectedEventsTTL.Seconds())),
		},
	}
)

func notificationIndexes(ownerField string) []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: ownerField, Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: ownerField, Value: 1}, {Key: "is_read", Value: 1}}},
	}
}

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	collections := map[string]collectionDef{
		bookingsrepo.CollectionName: {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
		reviewsrepo.CollectionName: {
			Indexes:   ReviewsIndexes,
			Validator: validators.ReviewValidator,
		},
		chatrepo.CollectionName: {
			Indexes:   MessagesIndexes,
			Validator: validators.MessageValidator,
		},
		notificationsrepo.ProviderCollectionName: {
			Indexes:   notificationIndexes("provider_id"),
			Validator: validators.NotificationValidator("provider_id"),
		},
		notificationsrepo.SeekerCollectionName: {
			Indexes:   notificationIndexes("seeker_id"),
			Validator: validators.NotificationValidator("seeker_id"),
		},
		statsrepo.DailyCollectionName:     {},
		statsrepo.ProjectedCollectionName: {Indexes: ProjectedEventsIndexes},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	if validator == nil {
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	coll := db.Collection(name)
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
