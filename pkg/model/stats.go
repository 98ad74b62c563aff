package model

import "time"

type TimeRange string

const (
	TimeRangeAll     TimeRange = ""
	TimeRangeDaily   TimeRange = "daily"
	TimeRangeWeekly  TimeRange = "weekly"
	TimeRangeMonthly TimeRange = "monthly"
	TimeRangeYearly  TimeRange = "yearly"
)

// StatusCount is one slice of the status distribution chart.
type StatusCount struct {
	Status BookingStatus `json:"name"`
	Count  int64         `json:"value"`
}

// DailyStats is one day of the event projection, keyed by Day (YYYY-MM-DD).
type DailyStats struct {
	Day       string    `json:"day" bson:"_id"`
	Created   int64     `json:"created" bson:"created"`
	Accepted  int64     `json:"accepted" bson:"accepted"`
	Rejected  int64     `json:"rejected" bson:"rejected"`
	Completed int64     `json:"completed" bson:"completed"`
	Reviews   int64     `json:"reviews" bson:"reviews"`
	Messages  int64     `json:"messages" bson:"messages"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type Summary struct {
	TotalBookings int64 `json:"total_bookings"`
	TotalReviews  int64 `json:"total_reviews"`
	OnlineUsers   int   `json:"online_users"`
}
