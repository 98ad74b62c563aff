package model

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "Pending"
	BookingStatusAccepted  BookingStatus = "Accepted"
	BookingStatusRejected  BookingStatus = "Rejected"
	BookingStatusCompleted BookingStatus = "Completed"
)

// AllBookingStatuses is the display order used by stats.
var AllBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusAccepted,
	BookingStatusCompleted,
	BookingStatusRejected,
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:  {BookingStatusAccepted, BookingStatusRejected},
	BookingStatusAccepted: {BookingStatusCompleted},
}

// ParseBookingStatus matches s case-insensitively against the known statuses.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	s = strings.TrimSpace(s)
	for _, status := range AllBookingStatuses {
		if strings.EqualFold(s, string(status)) {
			return status, true
		}
	}
	return "", false
}

func (s BookingStatus) IsValid() bool {
	for _, status := range AllBookingStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusRejected || s == BookingStatusCompleted
}

// CanTransitionTo reports whether next is a legal successor of s.
// Same-state moves are not transitions.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ChatOpen reports whether the two parties may exchange messages.
func (s BookingStatus) ChatOpen() bool {
	return s == BookingStatusAccepted
}

type Booking struct {
	ID            string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	BookingID     string        `json:"booking_id" bson:"booking_id" validate:"omitempty,booking_code"`
	ProviderID    string        `json:"provider_id" bson:"provider_id" validate:"required,mongodb"`
	ProviderName  string        `json:"provider_name" bson:"provider_name" validate:"omitempty,max=100"`
	SeekerID      string        `json:"seeker_id" bson:"seeker_id" validate:"required,mongodb,nefield=ProviderID"`
	SeekerName    string        `json:"seeker_name" bson:"seeker_name" validate:"omitempty,max=100"`
	Services      []string      `json:"services" bson:"services" validate:"required,min=1,max=20,dive,required,min=2,max=100"`
	Date          string        `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot      string        `json:"time_slot" bson:"time_slot" validate:"required,max=50"`
	Address       string        `json:"address" bson:"address" validate:"required,min=3,max=300"`
	PaymentMethod string        `json:"payment_method" bson:"payment_method" validate:"omitempty,max=50"`
	Status        BookingStatus `json:"status" bson:"status" validate:"required,booking_status"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" bson:"updated_at"`
}

// HasParty reports whether userID is the seeker or the provider.
func (b *Booking) HasParty(userID string) bool {
	return userID != "" && (userID == b.SeekerID || userID == b.ProviderID)
}

// Counterpart returns the other party of the booking, or "" if userID is not a party.
func (b *Booking) Counterpart(userID string) string {
	switch userID {
	case b.SeekerID:
		return b.ProviderID
	case b.ProviderID:
		return b.SeekerID
	default:
		return ""
	}
}

type BookingStatusUpdate struct {
	Status string `json:"status" validate:"required"`
}
