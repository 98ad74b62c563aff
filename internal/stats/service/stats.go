package service

import (
	"context"
	"sync"
	"time"

	"servicely/internal/stats/repository"
	"servicely/pkg/config"
	apperrors "servicely/pkg/errors"
	"servicely/pkg/model"
)

const (
	DayLayout = "2006-01-02"

	defaultSeriesDays = 30
	maxSeriesDays     = 366
)

// distributionOrder is the order the chart expects.
var distributionOrder = []model.BookingStatus{
	model.BookingStatusPending,
	model.BookingStatusAccepted,
	model.BookingStatusCompleted,
	model.BookingStatusRejected,
}

// Presence reports how many users hold a live realtime connection.
type Presence interface {
	OnlineUsers() int
}

type StatsService interface {
	StatusDistribution(ctx context.Context, timeRange model.TimeRange, offset int) ([]model.StatusCount, error)
	Summary(ctx context.Context) (*model.Summary, error)
	TimeSeries(ctx context.Context, from, to string) ([]*model.DailyStats, error)
}

type statsService struct {
	repo     repository.StatsRepository
	presence Presence
	now      func() time.Time
	cfg      *config.Config
}

func NewStatsService(repo repository.StatsRepository, presence Presence, cfg *config.Config) StatsService {
	return &statsService{
		repo:     repo,
		presence: presence,
		now:      time.Now,
		cfg:      cfg,
	}
}

// WindowStart returns the earliest creation time a time range covers. Daily
// looks back 7 days per offset, weekly 28 days, monthly and yearly one
// calendar unit. TimeRangeAll yields the zero time.
func WindowStart(now time.Time, timeRange model.TimeRange, offset int) (time.Time, error) {
	if timeRange == model.TimeRangeAll {
		return time.Time{}, nil
	}
	if offset < 1 {
		return time.Time{}, apperrors.InvalidInput("Offset must be a positive number")
	}

	switch timeRange {
	case model.TimeRangeDaily:
		return now.AddDate(0, 0, -7*offset), nil
	case model.TimeRangeWeekly:
		return now.AddDate(0, 0, -28*offset), nil
	case model.TimeRangeMonthly:
		return now.AddDate(0, -offset, 0), nil
	case model.TimeRangeYearly:
		return now.AddDate(-offset, 0, 0), nil
	default:
		return time.Time{}, apperrors.InvalidInput("Time range must be one of daily, weekly, monthly, yearly")
	}
}

func (s *statsService) StatusDistribution(ctx context.Context, timeRange model.TimeRange, offset int) ([]model.StatusCount, error) {
	since, err := WindowStart(s.now().UTC(), timeRange, offset)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.CountByStatus(ctx, since)
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate status distribution", "time_range", timeRange, "offset", offset, "error", err)
		return nil, apperrors.Internal("Failed to compute status distribution", err)
	}

	result := make([]model.StatusCount, 0, len(distributionOrder))
	for _, status := range distributionOrder {
		result = append(result, model.StatusCount{Status: status, Count: counts[status]})
	}
	return result, nil
}

func (s *statsService) Summary(ctx context.Context) (*model.Summary, error) {
	var bookings, reviews int64
	var errBookings, errReviews error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		bookings, errBookings = s.repo.CountBookings(ctx)
	}()

	go func() {
		defer wg.Done()
		reviews, errReviews = s.repo.CountReviews(ctx)
	}()

	wg.Wait()
	if errBookings != nil {
		s.cfg.Log.Error("Failed to count bookings", "error", errBookings)
		return nil, apperrors.Internal("Failed to compute summary", errBookings)
	}
	if errReviews != nil {
		s.cfg.Log.Error("Failed to count reviews", "error", errReviews)
		return nil, apperrors.Internal("Failed to compute summary", errReviews)
	}

	summary := &model.Summary{
		TotalBookings: bookings,
		TotalReviews:  reviews,
	}
	if s.presence != nil {
		summary.OnlineUsers = s.presence.OnlineUsers()
	}
	return summary, nil
}

// TimeSeries returns projected daily counters for the inclusive day range.
// Missing bounds default to the last 30 days.
func (s *statsService) TimeSeries(ctx context.Context, from, to string) ([]*model.DailyStats, error) {
	end := s.now().UTC()
	if to != "" {
		parsed, err := time.Parse(DayLayout, to)
		if err != nil {
			return nil, apperrors.InvalidInput("'to' must be a date in YYYY-MM-DD format")
		}
		end = parsed
	}

	start := end.AddDate(0, 0, -(defaultSeriesDays - 1))
	if from != "" {
		parsed, err := time.Parse(DayLayout, from)
		if err != nil {
			return nil, apperrors.InvalidInput("'from' must be a date in YYYY-MM-DD format")
		}
		start = parsed
	}

	fromDay, toDay := start.Format(DayLayout), end.Format(DayLayout)
	if fromDay > toDay {
		return nil, apperrors.InvalidInput("'from' must not be after 'to'")
	}
	if end.Sub(start) > maxSeriesDays*24*time.Hour {
		return nil, apperrors.InvalidInput("Time series range cannot exceed one year")
	}

	days, err := s.repo.FindDaily(ctx, fromDay, toDay)
	if err != nil {
		s.cfg.Log.Error("Failed to read daily stats", "from", fromDay, "to", toDay, "error", err)
		return nil, apperrors.Internal("Failed to retrieve time series", err)
	}
	return days, nil
}
