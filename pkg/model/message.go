package model

import "time"

type Message struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID  string    `json:"booking_id" bson:"booking_id" validate:"required,mongodb"`
	SenderID   string    `json:"sender_id" bson:"sender_id" validate:"required,mongodb"`
	ReceiverID string    `json:"receiver_id" bson:"receiver_id" validate:"required,mongodb,nefield=SenderID"`
	Text       string    `json:"message" bson:"message" validate:"required,min=1,max=2000"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// Contact is a chat counterpart derived from an accepted booking.
type Contact struct {
	BookingID   string    `json:"booking_id"`
	BookingCode string    `json:"booking_code"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Service     string    `json:"service"`
	LastUpdated time.Time `json:"last_updated"`
}
