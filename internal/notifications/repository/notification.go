package repository

import (
	"context"
	"errors"
	"fmt"
	notificationserrors "servicely/internal/notifications/errors"
	"servicely/pkg/config"
	mongodb "servicely/pkg/db/mongo"
	"servicely/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ProviderCollectionName = "Provider_notifications"
	SeekerCollectionName   = "Seeker_notifications"

	providerOwnerField = "provider_id"
	seekerOwnerField   = "seeker_id"

	// MaxListed caps an inbox listing. Unread lookups are not capped so
	// mark-all-read clears the whole inbox in one call.
	MaxListed = 200
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	FindByUser(ctx context.Context, role model.Role, userID string) ([]*model.Notification, error)
	FindUnread(ctx context.Context, role model.Role, userID string) ([]*model.Notification, error)
	CountUnread(ctx context.Context, role model.Role, userID string) (int64, error)
	MarkRead(ctx context.Context, role model.Role, id string) error
}

// notificationDocument is the stored shape; the owner lands in the role's
// own field so each collection keeps its original layout.
type notificationDocument struct {
	ID               primitive.ObjectID     `bson:"_id,omitempty"`
	ProviderID       string                 `bson:"provider_id,omitempty"`
	SeekerID         string                 `bson:"seeker_id,omitempty"`
	Type             model.NotificationType `bson:"type"`
	Message          string                 `bson:"message"`
	RelatedBookingID string                 `bson:"related_booking_id"`
	IsRead           bool                   `bson:"is_read"`
	CreatedAt        primitive.DateTime     `bson:"created_at"`
}

type store struct {
	collection *mongo.Collection
	ownerField string
}

type mongoNotificationRepository struct {
	cfg    *config.Config
	stores map[model.Role]store
}

func NewMongoNotificationRepository(cfg *config.Config) NotificationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoNotificationRepository{
		cfg: cfg,
		stores: map[model.Role]store{
			model.RoleProvider: {collection: db.Collection(ProviderCollectionName), ownerField: providerOwnerField},
			model.RoleSeeker:   {collection: db.Collection(SeekerCollectionName), ownerField: seekerOwnerField},
		},
	}
}

func (r *mongoNotificationRepository) storeFor(role model.Role) (store, error) {
	s, ok := r.stores[role]
	if !ok {
		return store{}, fmt.Errorf("%w: %s", notificationserrors.ErrUnknownRole, role)
	}
	return s, nil
}

func (r *mongoNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	s, err := r.storeFor(n.Role)
	if err != nil {
		return err
	}
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	n.CreatedAt = mongodb.NowMillis()
	doc := notificationDocument{
		Type:             n.Type,
		Message:          n.Message,
		RelatedBookingID: n.RelatedBookingID,
		IsRead:           n.IsRead,
		CreatedAt:        primitive.NewDateTimeFromTime(n.CreatedAt),
	}
	if n.Role == model.RoleProvider {
		doc.ProviderID = n.UserID
	} else {
		doc.SeekerID = n.UserID
	}

	result, err := s.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		n.ID = oid.Hex()
	}
	return nil
}

func (r *mongoNotificationRepository) FindByUser(ctx context.Context, role model.Role, userID string) ([]*model.Notification, error) {
	s, err := r.storeFor(role)
	if err != nil {
		return nil, err
	}
	return r.find(ctx, role, s, bson.M{s.ownerField: userID}, listOptions(MaxListed))
}

func (r *mongoNotificationRepository) FindUnread(ctx context.Context, role model.Role, userID string) ([]*model.Notification, error) {
	s, err := r.storeFor(role)
	if err != nil {
		return nil, err
	}
	return r.find(ctx, role, s, bson.M{s.ownerField: userID, "is_read": false}, listOptions(0))
}

// listOptions sorts newest first. A zero limit returns every match.
func listOptions(limit int64) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return opts
}

func (r *mongoNotificationRepository) find(ctx context.Context, role model.Role, s store, filter bson.M, opts *options.FindOptions) ([]*model.Notification, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []notificationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}

	out := make([]*model.Notification, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel(role))
	}
	return out, nil
}

func (d notificationDocument) toModel(role model.Role) *model.Notification {
	userID := d.SeekerID
	if role == model.RoleProvider {
		userID = d.ProviderID
	}
	return &model.Notification{
		ID:               d.ID.Hex(),
		Role:             role,
		UserID:           userID,
		Type:             d.Type,
		Message:          d.Message,
		RelatedBookingID: d.RelatedBookingID,
		IsRead:           d.IsRead,
		CreatedAt:        d.CreatedAt.Time().UTC(),
	}
}

func (r *mongoNotificationRepository) CountUnread(ctx context.Context, role model.Role, userID string) (int64, error) {
	s, err := r.storeFor(role)
	if err != nil {
		return 0, err
	}
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := s.collection.CountDocuments(ctx, bson.M{s.ownerField: userID, "is_read": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// MarkRead is idempotent: an already-read row still matches.
func (r *mongoNotificationRepository) MarkRead(ctx context.Context, role model.Role, id string) error {
	s, err := r.storeFor(role)
	if err != nil {
		return err
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", notificationserrors.ErrInvalidID, id)
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notificationserrors.ErrNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.MatchedCount == 0 {
		return notificationserrors.ErrNotFound
	}
	return nil
}
