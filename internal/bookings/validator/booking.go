package validator

import (
	"servicely/pkg/logger"
	"servicely/pkg/model"
	"servicely/pkg/validation"
	"time"
)

type BookingValidator struct {
	validator *validation.Validator
	logger    *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	log.Info("Booking validator initialized successfully")
	return &BookingValidator{
		validator: validation.New(log),
		logger:    log,
	}
}

// Validate checks tags and rejects requests dated before yesterday, which
// leaves room for clients a timezone behind UTC.
func (v *BookingValidator) Validate(booking *model.Booking) error {
	if err := v.validator.Struct(booking); err != nil {
		v.logger.Debug("Booking validation failed", "error", err)
		return err
	}

	day, err := time.Parse(time.DateOnly, booking.Date)
	if err != nil {
		return validation.ValidationErrors{{Field: "Date", Message: "Date must match the layout 2006-01-02"}}
	}
	if day.Before(time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)) {
		return validation.ValidationErrors{{Field: "Date", Message: "Date cannot be in the past"}}
	}

	return nil
}

func (v *BookingValidator) ValidateStatusUpdate(update *model.BookingStatusUpdate) (model.BookingStatus, error) {
	if err := v.validator.Struct(update); err != nil {
		return "", err
	}
	status, ok := model.ParseBookingStatus(update.Status)
	if !ok {
		return "", validation.ValidationErrors{{Field: "Status", Message: "Status must be one of Pending, Accepted, Rejected, Completed"}}
	}
	return status, nil
}
