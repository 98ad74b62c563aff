package service

import (
	"context"
	"errors"
	bookingserrors "servicely/internal/bookings/errors"
	chaterrors "servicely/internal/chat/errors"
	"servicely/internal/chat/repository"
	"servicely/internal/events"
	"servicely/internal/realtime"
	"servicely/pkg/auth"
	"servicely/pkg/config"
	apperrors "servicely/pkg/errors"
	"servicely/pkg/model"
	"servicely/pkg/sanitizer"
	"servicely/pkg/validation"
	"sort"
	"strings"
)

// BookingReader is the slice of the booking store the chat needs.
type BookingReader interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAcceptedByParty(ctx context.Context, userID string) ([]*model.Booking, error)
}

type Emitter interface {
	EmitToUser(userID, event string, payload any) int
}

type ChatService interface {
	SendMessage(ctx context.Context, msg *model.Message) (*model.Message, error)
	ListMessages(ctx context.Context, bookingID string) ([]*model.Message, error)
	ListContacts(ctx context.Context, userID string) ([]*model.Contact, error)
	Authorize(ctx context.Context, bookingID, userID string) error
}

type chatService struct {
	messages  repository.MessageRepository
	bookings  BookingReader
	emitter   Emitter
	publisher events.Publisher
	validator *validation.Validator
	cfg       *config.Config
}

func NewChatService(
	messages repository.MessageRepository,
	bookings BookingReader,
	emitter Emitter,
	publisher events.Publisher,
	cfg *config.Config,
) ChatService {
	return &chatService{
		messages:  messages,
		bookings:  bookings,
		emitter:   emitter,
		publisher: publisher,
		validator: validation.New(cfg.Log),
		cfg:       cfg,
	}
}

// SendMessage stores a message between the two parties of an accepted
// booking and pushes it to the receiver's live sessions.
func (s *chatService) SendMessage(ctx context.Context, msg *model.Message) (*model.Message, error) {
	msg.ID = ""
	msg.BookingID = sanitizer.NormalizeID(msg.BookingID)
	msg.SenderID = sanitizer.NormalizeID(msg.SenderID)
	msg.ReceiverID = sanitizer.NormalizeID(msg.ReceiverID)
	msg.Text = sanitizer.NormalizeMessage(msg.Text)

	if err := s.validator.Struct(msg); err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.Validation("Invalid message", verrs.Details())
		}
		return nil, apperrors.Validation("Invalid message", map[string]any{"error": err.Error()})
	}

	if sub := auth.SubjectFromContext(ctx); sub != "" && sub != msg.SenderID {
		return nil, apperrors.Forbidden("Cannot send messages as another user")
	}

	booking, err := s.loadBooking(ctx, msg.BookingID)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case model.BookingStatusPending:
		return nil, apperrors.ChatClosed("Chat is not open yet, the booking has not been accepted")
	case model.BookingStatusCompleted, model.BookingStatusRejected:
		return nil, apperrors.ChatClosed("Chat is closed for this booking")
	}

	if !booking.HasParty(msg.SenderID) || booking.Counterpart(msg.SenderID) != msg.ReceiverID {
		s.cfg.Log.Warn("Rejected message outside booking parties",
			"booking_id", booking.ID,
			"sender_id", msg.SenderID,
			"receiver_id", msg.ReceiverID,
		)
		return nil, apperrors.Forbidden("Sender and receiver must be the booking's seeker and provider")
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to store message", "booking_id", msg.BookingID, "error", err)
		return nil, apperrors.Internal("Failed to send message", err)
	}

	delivered := s.emitter.EmitToUser(msg.ReceiverID, realtime.EventReceiveMessage, msg)
	if err := s.publisher.Publish(ctx, events.MessageSent(msg)); err != nil {
		s.cfg.Log.Warn("Failed to publish message event", "booking_id", msg.BookingID, "error", err)
	}

	s.cfg.Log.Info("Message sent",
		"id", msg.ID,
		"booking_id", msg.BookingID,
		"sender_id", msg.SenderID,
		"live_connections", delivered,
	)
	return msg, nil
}

func (s *chatService) ListMessages(ctx context.Context, bookingID string) ([]*model.Message, error) {
	bookingID = sanitizer.NormalizeID(bookingID)
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	if sub := auth.SubjectFromContext(ctx); sub != "" {
		if err := s.Authorize(ctx, bookingID, sub); err != nil {
			return nil, err
		}
	}

	messages, err := s.messages.FindByBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, chaterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		s.cfg.Log.Error("Failed to list messages", "booking_id", bookingID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve messages", err)
	}
	return messages, nil
}

// ListContacts derives one contact per accepted booking the user is part
// of, most recently updated first.
func (s *chatService) ListContacts(ctx context.Context, userID string) ([]*model.Contact, error) {
	userID = sanitizer.NormalizeID(userID)
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	bookings, err := s.bookings.FindAcceptedByParty(ctx, userID)
	if err != nil {
		s.cfg.Log.Error("Failed to list contacts", "user_id", userID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve contacts", err)
	}

	contacts := make([]*model.Contact, 0, len(bookings))
	for _, b := range bookings {
		name := b.ProviderName
		if userID == b.ProviderID {
			name = b.SeekerName
		}
		contacts = append(contacts, &model.Contact{
			BookingID:   b.ID,
			BookingCode: b.BookingID,
			UserID:      b.Counterpart(userID),
			Name:        name,
			Service:     strings.Join(b.Services, ", "),
			LastUpdated: b.UpdatedAt,
		})
	}
	sort.SliceStable(contacts, func(i, j int) bool {
		return contacts[i].LastUpdated.After(contacts[j].LastUpdated)
	})
	return contacts, nil
}

func (s *chatService) Authorize(ctx context.Context, bookingID, userID string) error {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if !booking.HasParty(userID) {
		return apperrors.Forbidden("Not a party to this booking")
	}
	return nil
}

func (s *chatService) loadBooking(ctx context.Context, id string) (*model.Booking, error) {
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
