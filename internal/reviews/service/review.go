package service

import (
	"context"
	"errors"
	"math"
	bookingserrors "servicely/internal/bookings/errors"
	"servicely/internal/events"
	reviewserrors "servicely/internal/reviews/errors"
	"servicely/internal/reviews/repository"
	"servicely/pkg/auth"
	"servicely/pkg/config"
	apperrors "servicely/pkg/errors"
	"servicely/pkg/model"
	"servicely/pkg/sanitizer"
	"servicely/pkg/validation"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
)

type BookingReader interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
}

type ReviewService interface {
	Submit(ctx context.Context, bookingID string, input *model.ReviewInput) (*model.Review, error)
	Update(ctx context.Context, bookingID string, input *model.ReviewInput) (*model.Review, error)
	GetByBooking(ctx context.Context, bookingID string) (*model.Review, error)
	ListByProvider(ctx context.Context, providerID string) (*model.ProviderReviews, error)
	ListBySeeker(ctx context.Context, seekerID string) ([]*model.Review, error)
	ListAll(ctx context.Context, limit int, offset int64) ([]*model.Review, int64, error)
}

type reviewService struct {
	repo      repository.ReviewRepository
	bookings  BookingReader
	publisher events.Publisher
	validator *validation.Validator
	cfg       *config.Config
}

func NewReviewService(
	repo repository.ReviewRepository,
	bookings BookingReader,
	publisher events.Publisher,
	cfg *config.Config,
) ReviewService {
	return &reviewService{
		repo:      repo,
		bookings:  bookings,
		publisher: publisher,
		validator: validation.New(cfg.Log),
		cfg:       cfg,
	}
}

// Submit records the seeker's review of a completed booking. The booking
// check and the insert share a transaction.
func (s *reviewService) Submit(ctx context.Context, bookingID string, input *model.ReviewInput) (*model.Review, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	var review *model.Review
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		booking, err := s.loadBooking(sessCtx, bookingID)
		if err != nil {
			return err
		}
		if booking.Status != model.BookingStatusCompleted {
			return apperrors.InvalidInput("Service not completed, reviews open once the booking is completed")
		}
		if sub := auth.SubjectFromContext(ctx); sub != "" && sub != booking.SeekerID {
			return apperrors.Forbidden("Only the seeker can review this booking")
		}

		if _, err := s.repo.FindByBooking(sessCtx, booking.ID); err == nil {
			return apperrors.Duplicate("Review already submitted for this booking")
		} else if !errors.Is(err, reviewserrors.ErrNotFound) {
			return apperrors.Internal("Failed to check existing review", err)
		}

		review = &model.Review{
			BookingID:  booking.ID,
			SeekerID:   booking.SeekerID,
			ProviderID: booking.ProviderID,
			Rating:     input.Rating,
			Comment:    input.Comment,
		}
		if err := s.repo.Create(sessCtx, review); err != nil {
			if errors.Is(err, reviewserrors.ErrDuplicate) {
				return apperrors.Duplicate("Review already submitted for this booking")
			}
			return apperrors.Internal("Failed to create review", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to submit review", "booking_id", bookingID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Review submitted", "id", review.ID, "booking_id", review.BookingID, "rating", review.Rating)

	if err := s.publisher.Publish(ctx, events.Reviewed(review)); err != nil {
		s.cfg.Log.Warn("Failed to publish review event", "booking_id", review.BookingID, "error", err)
	}
	return review, nil
}

func (s *reviewService) Update(ctx context.Context, bookingID string, input *model.ReviewInput) (*model.Review, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.GetByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if sub := auth.SubjectFromContext(ctx); sub != "" && sub != existing.SeekerID {
		return nil, apperrors.Forbidden("Only the author can edit this review")
	}

	updated, err := s.repo.UpdateOnce(ctx, existing.BookingID, input.Rating, input.Comment)
	if err != nil {
		switch {
		case errors.Is(err, reviewserrors.ErrAlreadyEdited):
			return nil, apperrors.Conflict("Review can only be edited once")
		case errors.Is(err, reviewserrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Review", bookingID)
		default:
			s.cfg.Log.Error("Failed to update review", "booking_id", bookingID, "error", err)
			return nil, apperrors.Internal("Failed to update review", err)
		}
	}

	s.cfg.Log.Info("Review edited", "id", updated.ID, "booking_id", updated.BookingID)
	return updated, nil
}

func (s *reviewService) GetByBooking(ctx context.Context, bookingID string) (*model.Review, error) {
	id, err := s.resolveBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	review, err := s.repo.FindByBooking(ctx, id)
	if err != nil {
		if errors.Is(err, reviewserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Review", bookingID)
		}
		return nil, apperrors.Internal("Failed to retrieve review", err)
	}
	return review, nil
}

func (s *reviewService) ListByProvider(ctx context.Context, providerID string) (*model.ProviderReviews, error) {
	providerID = sanitizer.NormalizeID(providerID)
	if providerID == "" {
		return nil, apperrors.InvalidInput("Provider ID cannot be empty")
	}

	reviews, err := s.repo.FindByProvider(ctx, providerID)
	if err != nil {
		s.cfg.Log.Error("Failed to list provider reviews", "provider_id", providerID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve reviews", err)
	}

	return &model.ProviderReviews{
		ProviderID:    providerID,
		AverageRating: averageRating(reviews),
		ReviewCount:   len(reviews),
		Reviews:       reviews,
	}, nil
}

func (s *reviewService) ListBySeeker(ctx context.Context, seekerID string) ([]*model.Review, error) {
	seekerID = sanitizer.NormalizeID(seekerID)
	if seekerID == "" {
		return nil, apperrors.InvalidInput("Seeker ID cannot be empty")
	}

	reviews, err := s.repo.FindBySeeker(ctx, seekerID)
	if err != nil {
		s.cfg.Log.Error("Failed to list seeker reviews", "seeker_id", seekerID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve reviews", err)
	}
	return reviews, nil
}

func (s *reviewService) ListAll(ctx context.Context, limit int, offset int64) ([]*model.Review, int64, error) {
	var count int64
	var reviews []*model.Review
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
	}()

	go func() {
		defer wg.Done()
		reviews, errFind = s.repo.FindAll(ctx, limit, offset)
	}()

	wg.Wait()
	if err := errors.Join(errCount, errFind); err != nil {
		s.cfg.Log.Error("Failed to list reviews", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve reviews", err)
	}
	return reviews, count, nil
}

// averageRating rounds to one decimal place; zero reviews average to 0.
func averageRating(reviews []*model.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(reviews))*10) / 10
}

func (s *reviewService) validateInput(input *model.ReviewInput) error {
	if input == nil {
		return apperrors.InvalidInput("Review body is required")
	}
	input.Comment = sanitizer.NormalizeMessage(input.Comment)
	if err := s.validator.Struct(input); err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return apperrors.Validation("Invalid review input", verrs.Details())
		}
		return apperrors.Validation("Invalid review input", map[string]any{"error": err.Error()})
	}
	return nil
}

// resolveBookingID maps a human booking code to the storage id reviews are
// keyed by.
func (s *reviewService) resolveBookingID(ctx context.Context, bookingID string) (string, error) {
	bookingID = sanitizer.NormalizeID(bookingID)
	if bookingID == "" {
		return "", apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if !validation.IsBookingCode(bookingID) {
		return bookingID, nil
	}
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return "", err
	}
	return booking.ID, nil
}

func (s *reviewService) loadBooking(ctx context.Context, id string) (*model.Booking, error) {
	id = sanitizer.NormalizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, bookingserrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Booking", id)
		case errors.Is(err, bookingserrors.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		default:
			return nil, apperrors.Internal("Failed to retrieve booking", err)
		}
	}
	return booking, nil
}
