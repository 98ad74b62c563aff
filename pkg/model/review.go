package model

import "time"

type Review struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID  string    `json:"booking_id" bson:"booking_id"`
	SeekerID   string    `json:"seeker_id" bson:"seeker_id"`
	ProviderID string    `json:"provider_id" bson:"provider_id"`
	Rating     int       `json:"rating" bson:"rating"`
	Comment    string    `json:"comment" bson:"comment"`
	Edited     bool      `json:"edited" bson:"edited"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,min=1,max=1000"`
}

// ProviderReviews is a provider's review list with its aggregate rating.
type ProviderReviews struct {
	ProviderID    string    `json:"provider_id"`
	AverageRating float64   `json:"average_rating"`
	ReviewCount   int       `json:"review_count"`
	Reviews       []*Review `json:"reviews"`
}
