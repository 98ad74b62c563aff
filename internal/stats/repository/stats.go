package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingsrepo "servicely/internal/bookings/repository"
	reviewsrepo "servicely/internal/reviews/repository"
	statserrors "servicely/internal/stats/errors"
	"servicely/pkg/config"
	mongodb "servicely/pkg/db/mongo"
	"servicely/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DailyCollectionName     = "Daily_stats"
	ProjectedCollectionName = "Projected_events"
)

type StatsRepository interface {
	// CountByStatus groups bookings created at or after since. A zero since
	// covers all time.
	CountByStatus(ctx context.Context, since time.Time) (map[model.BookingStatus]int64, error)
	CountBookings(ctx context.Context) (int64, error)
	CountReviews(ctx context.Context) (int64, error)
	FindDaily(ctx context.Context, from, to string) ([]*model.DailyStats, error)
	// ApplyEvent adds counters to the day's row once per event id. It reports
	// false when the event was projected before.
	ApplyEvent(ctx context.Context, eventID, day string, counters map[string]int64) (bool, error)
}

type mongoStatsRepository struct {
	cfg       *config.Config
	bookings  *mongo.Collection
	reviews   *mongo.Collection
	daily     *mongo.Collection
	projected *mongo.Collection
	txManager mongodb.TransactionManager
}

func NewMongoStatsRepository(cfg *config.Config) StatsRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoStatsRepository{
		cfg:       cfg,
		bookings:  db.Collection(bookingsrepo.CollectionName),
		reviews:   db.Collection(reviewsrepo.CollectionName),
		daily:     db.Collection(DailyCollectionName),
		projected: db.Collection(ProjectedCollectionName),
		txManager: mongodb.NewTransactionManager(cfg.Client.Mongo),
	}
}

type statusGroup struct {
	Status model.BookingStatus `bson:"_id"`
	Count  int64               `bson:"count"`
}

func (r *mongoStatsRepository) CountByStatus(ctx context.Context, since time.Time) (map[model.BookingStatus]int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	match := bson.M{}
	if !since.IsZero() {
		match["created_at"] = bson.M{"$gte": since}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.bookings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate booking statuses: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []statusGroup
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode status groups: %w", err)
	}

	counts := make(map[model.BookingStatus]int64, len(groups))
	for _, g := range groups {
		counts[g.Status] = g.Count
	}
	return counts, nil
}

func (r *mongoStatsRepository) CountBookings(ctx context.Context) (int64, error) {
	return r.count(ctx, r.bookings)
}

func (r *mongoStatsRepository) CountReviews(ctx context.Context) (int64, error) {
	return r.count(ctx, r.reviews)
}

func (r *mongoStatsRepository) count(ctx context.Context, collection *mongo.Collection) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection.Name(), err)
	}
	return count, nil
}

func (r *mongoStatsRepository) FindDaily(ctx context.Context, from, to string) ([]*model.DailyStats, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"_id": bson.M{"$gte": from, "$lte": to}}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.daily.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find daily stats: %w", err)
	}
	defer cursor.Close(ctx)

	days := make([]*model.DailyStats, 0)
	if err := cursor.All(ctx, &days); err != nil {
		return nil, fmt.Errorf("failed to decode daily stats: %w", err)
	}
	return days, nil
}

func (r *mongoStatsRepository) ApplyEvent(ctx context.Context, eventID, day string, counters map[string]int64) (bool, error) {
	if eventID == "" {
		return true, r.increment(ctx, day, counters)
	}

	err := r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		_, err := r.projected.InsertOne(sessCtx, bson.M{
			"_id":          eventID,
			"day":          day,
			"projected_at": mongodb.NowMillis(),
		})
		if err != nil {
			if mongodb.IsDuplicateKey(err) {
				return statserrors.ErrAlreadyProjected
			}
			return fmt.Errorf("failed to record event: %w", err)
		}
		return r.increment(sessCtx, day, counters)
	})
	if errors.Is(err, statserrors.ErrAlreadyProjected) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *mongoStatsRepository) increment(ctx context.Context, day string, counters map[string]int64) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	inc := bson.M{}
	for field, delta := range counters {
		inc[field] = delta
	}
	update := bson.M{
		"$inc": inc,
		"$set": bson.M{"updated_at": mongodb.NowMillis()},
	}

	_, err := r.daily.UpdateOne(ctx, bson.M{"_id": day}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to update daily stats: %w", err)
	}
	return nil
}
