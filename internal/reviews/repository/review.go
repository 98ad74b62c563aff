package repository

import (
	"context"
	"errors"
	"fmt"
	reviewserrors "servicely/internal/reviews/errors"
	"servicely/pkg/config"
	mongodb "servicely/pkg/db/mongo"
	"servicely/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Reviews"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByBooking(ctx context.Context, bookingID string) (*model.Review, error)
	UpdateOnce(ctx context.Context, bookingID string, rating int, comment string) (*model.Review, error)
	FindByProvider(ctx context.Context, providerID string) ([]*model.Review, error)
	FindBySeeker(ctx context.Context, seekerID string) ([]*model.Review, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Review, error)
	Count(ctx context.Context) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error
}

type mongoReviewRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongodb.TransactionManager
}

func NewMongoReviewRepository(cfg *config.Config) ReviewRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReviewRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongodb.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoReviewRepository) Create(ctx context.Context, review *model.Review) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := mongodb.NowMillis()
	review.CreatedAt = now
	review.UpdatedAt = now
	review.Edited = false

	result, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return reviewserrors.ErrDuplicate
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = oid.Hex()
	}
	return nil
}

func (r *mongoReviewRepository) FindByBooking(ctx context.Context, bookingID string) (*model.Review, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var review model.Review
	err := r.collection.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reviewserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	return &review, nil
}

// UpdateOnce applies the single allowed edit. The edited flag in the filter
// makes a second edit miss even under concurrent requests.
func (r *mongoReviewRepository) UpdateOnce(ctx context.Context, bookingID string, rating int, comment string) (*model.Review, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"booking_id": bookingID, "edited": false}
	update := bson.M{
		"$set": bson.M{
			"rating":     rating,
			"comment":    comment,
			"edited":     true,
			"updated_at": mongodb.NowMillis(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var review model.Review
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&review)
	if err == nil {
		return &review, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	count, countErr := r.collection.CountDocuments(ctx, bson.M{"booking_id": bookingID})
	if countErr != nil {
		return nil, fmt.Errorf("failed to check review existence: %w", countErr)
	}
	if count == 0 {
		return nil, reviewserrors.ErrNotFound
	}
	return nil, reviewserrors.ErrAlreadyEdited
}

func (r *mongoReviewRepository) FindByProvider(ctx context.Context, providerID string) ([]*model.Review, error) {
	return r.find(ctx, bson.M{"provider_id": providerID}, newestFirst())
}

func (r *mongoReviewRepository) FindBySeeker(ctx context.Context, seekerID string) ([]*model.Review, error) {
	return r.find(ctx, bson.M{"seeker_id": seekerID}, newestFirst())
}

func (r *mongoReviewRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Review, error) {
	return r.find(ctx, bson.M{}, newestFirst().SetLimit(int64(limit)).SetSkip(offset))
}

func (r *mongoReviewRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
}

func (r *mongoReviewRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Review, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := make([]*model.Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, nil
}

func (r *mongoReviewRepository) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
