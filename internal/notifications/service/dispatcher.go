package service

import (
	"context"
	"errors"
	notificationserrors "servicely/internal/notifications/errors"
	"servicely/internal/notifications/repository"
	"servicely/internal/realtime"
	"servicely/pkg/config"
	apperrors "servicely/pkg/errors"
	"servicely/pkg/model"
	"servicely/pkg/sanitizer"
)

// Emitter pushes a live event to every connection of a user.
type Emitter interface {
	EmitToUser(userID, event string, payload any) int
}

// Dispatcher persists per-role notifications and pushes them to any live
// session of the recipient.
type Dispatcher interface {
	Notify(ctx context.Context, event model.NotificationEvent) (*model.Notification, error)
	List(ctx context.Context, role model.Role, userID string) ([]*model.Notification, error)
	UnreadCount(ctx context.Context, role model.Role, userID string) (int64, error)
	MarkRead(ctx context.Context, role model.Role, id string) error
	MarkAllRead(ctx context.Context, role model.Role, userID string) (*model.MarkAllResult, error)
}

type dispatcher struct {
	repo    repository.NotificationRepository
	emitter Emitter
	cfg     *config.Config
}

func NewDispatcher(repo repository.NotificationRepository, emitter Emitter, cfg *config.Config) Dispatcher {
	return &dispatcher{
		repo:    repo,
		emitter: emitter,
		cfg:     cfg,
	}
}

func (d *dispatcher) Notify(ctx context.Context, event model.NotificationEvent) (*model.Notification, error) {
	userID := sanitizer.NormalizeID(event.RecipientID())
	if userID == "" {
		return nil, apperrors.InvalidInput("Notification recipient cannot be empty")
	}

	n := &model.Notification{
		Role:             event.Recipient(),
		UserID:           userID,
		Type:             event.Type(),
		Message:          event.Message(),
		RelatedBookingID: event.BookingRef(),
	}

	if err := d.repo.Create(ctx, n); err != nil {
		d.cfg.Log.Error("Failed to persist notification",
			"type", n.Type,
			"role", n.Role,
			"user_id", userID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create notification", err)
	}

	delivered := d.emitter.EmitToUser(userID, realtime.EventReceiveNotification, n)
	d.cfg.Log.Info("Notification dispatched",
		"id", n.ID,
		"type", n.Type,
		"role", n.Role,
		"user_id", userID,
		"live_connections", delivered,
	)
	return n, nil
}

func (d *dispatcher) List(ctx context.Context, role model.Role, userID string) ([]*model.Notification, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}
	list, err := d.repo.FindByUser(ctx, role, userID)
	if err != nil {
		return nil, d.translate(err, userID, "Failed to retrieve notifications")
	}
	return list, nil
}

func (d *dispatcher) UnreadCount(ctx context.Context, role model.Role, userID string) (int64, error) {
	if userID == "" {
		return 0, apperrors.InvalidInput("User ID cannot be empty")
	}
	count, err := d.repo.CountUnread(ctx, role, userID)
	if err != nil {
		return 0, d.translate(err, userID, "Failed to count notifications")
	}
	return count, nil
}

func (d *dispatcher) MarkRead(ctx context.Context, role model.Role, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Notification ID cannot be empty")
	}
	if err := d.repo.MarkRead(ctx, role, id); err != nil {
		return d.translate(err, id, "Failed to mark notification as read")
	}
	return nil
}

// MarkAllRead marks each unread row independently; one failure does not stop
// the rest.
func (d *dispatcher) MarkAllRead(ctx context.Context, role model.Role, userID string) (*model.MarkAllResult, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}
	unread, err := d.repo.FindUnread(ctx, role, userID)
	if err != nil {
		return nil, d.translate(err, userID, "Failed to retrieve notifications")
	}

	result := &model.MarkAllResult{}
	for _, n := range unread {
		if err := d.repo.MarkRead(ctx, role, n.ID); err != nil {
			d.cfg.Log.Warn("Failed to mark notification as read",
				"id", n.ID,
				"user_id", userID,
				"error", err,
			)
			result.Failed = append(result.Failed, n.ID)
			continue
		}
		result.Marked++
	}

	d.cfg.Log.Info("Notifications marked as read",
		"role", role,
		"user_id", userID,
		"marked", result.Marked,
		"failed", len(result.Failed),
	)
	return result, nil
}

func (d *dispatcher) translate(err error, id, message string) error {
	switch {
	case errors.Is(err, notificationserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Notification", id)
	case errors.Is(err, notificationserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid notification ID format")
	case errors.Is(err, notificationserrors.ErrUnknownRole):
		return apperrors.InvalidInput("Role must be provider or seeker")
	default:
		return apperrors.Internal(message, err)
	}
}
