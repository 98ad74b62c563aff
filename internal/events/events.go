// Package events publishes domain events about bookings, reviews and chat
// to the marketplace topic.
package events

import (
	"context"
	"time"

	"servicely/pkg/model"
)

type Type string

const (
	BookingCreated       Type = "booking.created"
	BookingStatusChanged Type = "booking.status_changed"
	ReviewSubmitted      Type = "review.submitted"
	ChatMessageSent      Type = "chat.message_sent"
)

// Envelope is the JSON payload of every event. BookingID is the storage id
// and doubles as the partition key.
type Envelope struct {
	Type           Type                `json:"type"`
	BookingID      string              `json:"booking_id"`
	BookingCode    string              `json:"booking_code,omitempty"`
	ActorID        string              `json:"actor_id,omitempty"`
	Status         model.BookingStatus `json:"status,omitempty"`
	PreviousStatus model.BookingStatus `json:"previous_status,omitempty"`
	Rating         int                 `json:"rating,omitempty"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

func Created(b *model.Booking) Envelope {
	return Envelope{
		Type:        BookingCreated,
		BookingID:   b.ID,
		BookingCode: b.BookingID,
		ActorID:     b.SeekerID,
		Status:      b.Status,
		OccurredAt:  b.CreatedAt,
	}
}

func StatusChanged(b *model.Booking, previous model.BookingStatus) Envelope {
	return Envelope{
		Type:           BookingStatusChanged,
		BookingID:      b.ID,
		BookingCode:    b.BookingID,
		ActorID:        b.ProviderID,
		Status:         b.Status,
		PreviousStatus: previous,
		OccurredAt:     b.UpdatedAt,
	}
}

func Reviewed(r *model.Review) Envelope {
	return Envelope{
		Type:       ReviewSubmitted,
		BookingID:  r.BookingID,
		ActorID:    r.SeekerID,
		Rating:     r.Rating,
		OccurredAt: r.CreatedAt,
	}
}

func MessageSent(m *model.Message) Envelope {
	return Envelope{
		Type:       ChatMessageSent,
		BookingID:  m.BookingID,
		ActorID:    m.SenderID,
		OccurredAt: m.CreatedAt,
	}
}

type noopPublisher struct{}

// Noop discards events; used when EVENTS_ENABLED is off.
func Noop() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, Envelope) error {
	return nil
}
