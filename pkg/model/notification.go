package model

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleProvider Role = "provider"
	RoleSeeker   Role = "seeker"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleProvider, RoleSeeker:
		return Role(s), true
	default:
		return "", false
	}
}

type NotificationType string

const (
	NotificationBookingRequested NotificationType = "booking"
	NotificationBookingPlaced    NotificationType = "booking-confirmation"
	NotificationBookingAccepted  NotificationType = "booking-accepted"
	NotificationBookingRejected  NotificationType = "booking-rejected"
	NotificationLeaveReview      NotificationType = "leave-review"
	NotificationServiceCompleted NotificationType = "service-completed"
)

// Notification is a persisted per-user record. UserID is stored under the
// role's owner field (provider_id or seeker_id) by the repository.
type Notification struct {
	ID               string           `json:"id,omitempty" bson:"_id,omitempty"`
	Role             Role             `json:"role" bson:"-"`
	UserID           string           `json:"user_id" bson:"-"`
	Type             NotificationType `json:"type" bson:"type"`
	Message          string           `json:"message" bson:"message"`
	RelatedBookingID string           `json:"related_booking_id" bson:"related_booking_id"`
	IsRead           bool             `json:"is_read" bson:"is_read"`
	CreatedAt        time.Time        `json:"created_at" bson:"created_at"`
}

// NotificationEvent is one of the closed set of notification variants below.
type NotificationEvent interface {
	Type() NotificationType
	Recipient() Role
	RecipientID() string
	Message() string
	BookingRef() string
}

// BookingRequested tells a provider a seeker has asked for a service.
type BookingRequested struct {
	ProviderID string
	SeekerName string
	BookingID  string
}

func (n BookingRequested) Type() NotificationType { return NotificationBookingRequested }
func (n BookingRequested) Recipient() Role        { return RoleProvider }
func (n BookingRequested) RecipientID() string    { return n.ProviderID }
func (n BookingRequested) BookingRef() string     { return n.BookingID }
func (n BookingRequested) Message() string {
	name := n.SeekerName
	if name == "" {
		name = "a seeker"
	}
	return fmt.Sprintf("New service request from %s", name)
}

type BookingPlaced struct {
	SeekerID  string
	BookingID string
}

func (n BookingPlaced) Type() NotificationType { return NotificationBookingPlaced }
func (n BookingPlaced) Recipient() Role        { return RoleSeeker }
func (n BookingPlaced) RecipientID() string    { return n.SeekerID }
func (n BookingPlaced) BookingRef() string     { return n.BookingID }
func (n BookingPlaced) Message() string {
	return "Your service request has been placed successfully!"
}

type BookingAccepted struct {
	SeekerID  string
	BookingID string
}

func (n BookingAccepted) Type() NotificationType { return NotificationBookingAccepted }
func (n BookingAccepted) Recipient() Role        { return RoleSeeker }
func (n BookingAccepted) RecipientID() string    { return n.SeekerID }
func (n BookingAccepted) BookingRef() string     { return n.BookingID }
func (n BookingAccepted) Message() string        { return "Your booking was accepted!" }

type BookingRejected struct {
	SeekerID  string
	BookingID string
}

func (n BookingRejected) Type() NotificationType { return NotificationBookingRejected }
func (n BookingRejected) Recipient() Role        { return RoleSeeker }
func (n BookingRejected) RecipientID() string    { return n.SeekerID }
func (n BookingRejected) BookingRef() string     { return n.BookingID }
func (n BookingRejected) Message() string        { return "Your booking was rejected." }

// LeaveReview asks the seeker to review a completed service.
type LeaveReview struct {
	SeekerID  string
	BookingID string
}

func (n LeaveReview) Type() NotificationType { return NotificationLeaveReview }
func (n LeaveReview) Recipient() Role        { return RoleSeeker }
func (n LeaveReview) RecipientID() string    { return n.SeekerID }
func (n LeaveReview) BookingRef() string     { return n.BookingID }
func (n LeaveReview) Message() string        { return "Service completed. Please leave a review!" }

type ServiceCompleted struct {
	ProviderID string
	BookingID  string
}

func (n ServiceCompleted) Type() NotificationType { return NotificationServiceCompleted }
func (n ServiceCompleted) Recipient() Role        { return RoleProvider }
func (n ServiceCompleted) RecipientID() string    { return n.ProviderID }
func (n ServiceCompleted) BookingRef() string     { return n.BookingID }
func (n ServiceCompleted) Message() string        { return "Service completed successfully!" }

// MarkAllResult reports a best-effort bulk mark-read.
type MarkAllResult struct {
	Marked int      `json:"marked"`
	Failed []string `json:"failed,omitempty"`
}
