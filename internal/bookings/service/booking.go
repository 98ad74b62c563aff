package service

import (
	"context"
	"errors"
	bookingserrors "servicely/internal/bookings/errors"
	"servicely/internal/bookings/repository"
	"servicely/internal/bookings/validator"
	"servicely/pkg/auth"
	"servicely/pkg/config"
	apperrors "servicely/pkg/errors"
	"servicely/pkg/model"
	"servicely/pkg/sanitizer"
	"servicely/pkg/validation"
	"sync"
)

const maxCodeAttempts = 3

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	SetStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	ListBySeeker(ctx context.Context, seekerID string) ([]*model.Booking, error)
	ListByProvider(ctx context.Context, providerID string) ([]*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	validator *validator.BookingValidator
	hooks     Hooks
	newCode   func() (string, error)
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	validator *validator.BookingValidator,
	hooks Hooks,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		validator: validator,
		hooks:     hooks,
		newCode:   repository.NewBookingCode,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	s.applyDefaults(booking)
	s.sanitize(booking)
	if err := s.validate(booking); err != nil {
		return err
	}

	if sub := auth.SubjectFromContext(ctx); sub != "" && sub != booking.SeekerID {
		return apperrors.Forbidden("Bookings can only be placed for yourself")
	}

	if err := s.insertWithCode(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking", "seeker_id", booking.SeekerID, "provider_id", booking.ProviderID, "error", err)
		return err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"booking_id", booking.BookingID,
		"seeker_id", booking.SeekerID,
		"provider_id", booking.ProviderID,
	)

	s.runHooks(ctx, s.hooks.OnCreate, booking, "")
	return nil
}

// insertWithCode draws a fresh booking code for each attempt; the unique
// index on booking_id turns a collision into a retry.
func (s *bookingService) insertWithCode(ctx context.Context, booking *model.Booking) error {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return apperrors.Internal("Failed to generate booking code", err)
		}
		booking.BookingID = code

		err = s.repo.Create(ctx, booking)
		if err == nil {
			return nil
		}
		if !errors.Is(err, bookingserrors.ErrDuplicateCode) {
			return apperrors.Internal("Failed to create booking", err)
		}
		s.cfg.Log.Warn("Booking code collision, retrying", "code", code, "attempt", attempt)
	}
	return apperrors.Internal("Failed to allocate a unique booking code", bookingserrors.ErrDuplicateCode)
}

func (s *bookingService) SetStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error) {
	id = sanitizer.NormalizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	next, err := s.validator.ValidateStatusUpdate(update)
	if err != nil {
		return nil, validationError("Invalid status update", err)
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub := auth.SubjectFromContext(ctx); sub != "" && sub != current.ProviderID {
		return nil, apperrors.Forbidden("Only the provider can change a booking's status")
	}

	previous := current.Status
	if !previous.CanTransitionTo(next) {
		s.cfg.Log.Warn("Rejected booking transition", "id", id, "from", previous, "to", next)
		return nil, apperrors.InvalidTransition(string(previous), string(next))
	}

	updated, err := s.repo.UpdateStatus(ctx, current.ID, previous, next)
	if err != nil {
		switch {
		case errors.Is(err, bookingserrors.ErrStatusChanged):
			return nil, apperrors.Conflict("Booking status was changed by another request, reload and retry")
		case errors.Is(err, bookingserrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Booking", id)
		default:
			s.cfg.Log.Error("Failed to update booking status", "id", id, "error", err)
			return nil, apperrors.Internal("Failed to update booking status", err)
		}
	}

	s.cfg.Log.Info("Booking status updated", "id", updated.ID, "from", previous, "to", updated.Status)

	s.runHooks(ctx, s.hooks.OnTransition, updated, previous)
	return updated, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	id = sanitizer.NormalizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) ListBySeeker(ctx context.Context, seekerID string) ([]*model.Booking, error) {
	seekerID = sanitizer.NormalizeID(seekerID)
	if seekerID == "" {
		return nil, apperrors.InvalidInput("Seeker ID cannot be empty")
	}

	bookings, err := s.repo.FindBySeeker(ctx, seekerID)
	if err != nil {
		s.cfg.Log.Error("Failed to list seeker bookings", "seeker_id", seekerID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) ListByProvider(ctx context.Context, providerID string) ([]*model.Booking, error) {
	providerID = sanitizer.NormalizeID(providerID)
	if providerID == "" {
		return nil, apperrors.InvalidInput("Provider ID cannot be empty")
	}

	bookings, err := s.repo.FindByProvider(ctx, providerID)
	if err != nil {
		s.cfg.Log.Error("Failed to list provider bookings", "provider_id", providerID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

// applyDefaults forces every new booking into Pending, whatever the client sent.
func (s *bookingService) applyDefaults(booking *model.Booking) {
	booking.ID = ""
	booking.Status = model.BookingStatusPending
}

func (s *bookingService) sanitize(booking *model.Booking) {
	booking.ProviderID = sanitizer.NormalizeID(booking.ProviderID)
	booking.SeekerID = sanitizer.NormalizeID(booking.SeekerID)
	booking.ProviderName = sanitizer.NormalizeName(booking.ProviderName)
	booking.SeekerName = sanitizer.NormalizeName(booking.SeekerName)
	booking.Services = sanitizer.NormalizeServices(booking.Services)
	booking.Date = sanitizer.TrimAndNormalize(booking.Date)
	booking.TimeSlot = sanitizer.TrimAndNormalize(booking.TimeSlot)
	booking.Address = sanitizer.NormalizeAddress(booking.Address)
	booking.PaymentMethod = sanitizer.TrimAndNormalize(booking.PaymentMethod)
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "seeker_id", booking.SeekerID, "error", err)
		return validationError("Invalid booking input", err)
	}
	return nil
}

func validationError(message string, err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
