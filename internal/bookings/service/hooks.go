package service

import (
	"context"
	"servicely/internal/events"
	"servicely/internal/realtime"
	"servicely/pkg/model"
	"time"
)

// Notifier persists and pushes a notification to its recipient.
type Notifier interface {
	Notify(ctx context.Context, event model.NotificationEvent) (*model.Notification, error)
}

// Emitter pushes a live event to every connection of a user.
type Emitter interface {
	EmitToUser(userID, event string, payload any) int
}

// Hook is a named side effect run after a booking mutation is committed.
// previous is empty for creation.
type Hook struct {
	Name string
	Run  func(ctx context.Context, booking *model.Booking, previous model.BookingStatus) error
}

type Hooks struct {
	OnCreate     []Hook
	OnTransition []Hook
}

// NewBookingPayload is the realtime frame a provider receives for a new request.
type NewBookingPayload struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"booking_id"`
	SeekerID   string    `json:"seeker_id"`
	SeekerName string    `json:"seeker_name"`
	Services   []string  `json:"services"`
	Date       string    `json:"date"`
	TimeSlot   string    `json:"time_slot"`
	CreatedAt  time.Time `json:"created_at"`
}

func DefaultHooks(notifier Notifier, emitter Emitter, publisher events.Publisher) Hooks {
	return Hooks{
		OnCreate: []Hook{
			{Name: "notify-provider", Run: func(ctx context.Context, b *model.Booking, _ model.BookingStatus) error {
				_, err := notifier.Notify(ctx, model.BookingRequested{ProviderID: b.ProviderID, SeekerName: b.SeekerName, BookingID: b.ID})
				return err
			}},
			{Name: "notify-seeker", Run: func(ctx context.Context, b *model.Booking, _ model.BookingStatus) error {
				_, err := notifier.Notify(ctx, model.BookingPlaced{SeekerID: b.SeekerID, BookingID: b.ID})
				return err
			}},
			{Name: "realtime-new-booking", Run: func(_ context.Context, b *model.Booking, _ model.BookingStatus) error {
				emitter.EmitToUser(b.ProviderID, realtime.EventNewBooking, NewBookingPayload{
					ID:         b.ID,
					BookingID:  b.BookingID,
					SeekerID:   b.SeekerID,
					SeekerName: b.SeekerName,
					Services:   b.Services,
					Date:       b.Date,
					TimeSlot:   b.TimeSlot,
					CreatedAt:  b.CreatedAt,
				})
				return nil
			}},
			{Name: "publish-created", Run: func(ctx context.Context, b *model.Booking, _ model.BookingStatus) error {
				return publisher.Publish(ctx, events.Created(b))
			}},
		},
		OnTransition: []Hook{
			{Name: "notify-seeker-transition", Run: notifyOnTransition(notifier, seekerTransitionNotification)},
			{Name: "notify-provider-transition", Run: notifyOnTransition(notifier, providerTransitionNotification)},
			{Name: "publish-status-changed", Run: func(ctx context.Context, b *model.Booking, previous model.BookingStatus) error {
				return publisher.Publish(ctx, events.StatusChanged(b, previous))
			}},
		},
	}
}

// notifyOnTransition runs pick against the booking's new status and sends
// the notification it yields, if any. Each party has its own hook so a
// failure for one never costs the other its notification.
func notifyOnTransition(notifier Notifier, pick func(*model.Booking) model.NotificationEvent) func(context.Context, *model.Booking, model.BookingStatus) error {
	return func(ctx context.Context, b *model.Booking, _ model.BookingStatus) error {
		event := pick(b)
		if event == nil {
			return nil
		}
		_, err := notifier.Notify(ctx, event)
		return err
	}
}

func seekerTransitionNotification(b *model.Booking) model.NotificationEvent {
	switch b.Status {
	case model.BookingStatusAccepted:
		return model.BookingAccepted{SeekerID: b.SeekerID, BookingID: b.ID}
	case model.BookingStatusRejected:
		return model.BookingRejected{SeekerID: b.SeekerID, BookingID: b.ID}
	case model.BookingStatusCompleted:
		return model.LeaveReview{SeekerID: b.SeekerID, BookingID: b.ID}
	default:
		return nil
	}
}

func providerTransitionNotification(b *model.Booking) model.NotificationEvent {
	if b.Status == model.BookingStatusCompleted {
		return model.ServiceCompleted{ProviderID: b.ProviderID, BookingID: b.ID}
	}
	return nil
}

// runHooks runs every hook on a context detached from the request so a
// client disconnect cannot cut side effects short. A failing hook is logged
// and the rest still run.
func (s *bookingService) runHooks(ctx context.Context, hooks []Hook, b *model.Booking, previous model.BookingStatus) {
	base := context.WithoutCancel(ctx)

	for _, hook := range hooks {
		hctx, cancel := context.WithTimeout(base, s.cfg.HookTimeout)
		err := hook.Run(hctx, b, previous)
		cancel()
		if err != nil {
			s.cfg.Log.Error("Booking hook failed",
				"hook", hook.Name,
				"booking_id", b.ID,
				"status", b.Status,
				"error", err,
			)
		}
	}
}
