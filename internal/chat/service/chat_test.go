package service

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "servicely/internal/bookings/errors"
	"servicely/internal/events"
	"servicely/internal/realtime"
	"servicely/pkg/auth"
	"servicely/pkg/config"
	apperrors "servicely/pkg/errors"
	"servicely/pkg/logger"
	"servicely/pkg/model"
	"sync"
	"testing"
	"time"
)

const (
	bookingID  = "65f000000000000000000001"
	providerID = "65f0000000000000000000aa"
	seekerID   = "65f0000000000000000000bb"
	strangerID = "65f0000000000000000000cc"
)

type memoryMessages struct {
	mu   sync.Mutex
	rows []*model.Message
	err  error
}

func (m *memoryMessages) Create(_ context.Context, msg *model.Message) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = fmt.Sprintf("m%d", len(m.rows)+1)
	msg.CreatedAt = time.Unix(int64(len(m.rows)+1), 0)
	cp := *msg
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memoryMessages) FindByBooking(_ context.Context, id string) ([]*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Message, 0)
	for _, msg := range m.rows {
		if msg.BookingID == id {
			out = append(out, msg)
		}
	}
	return out, nil
}

type stubBookings struct {
	bookings map[string]*model.Booking
}

func (s *stubBookings) FindByID(_ context.Context, id string) (*model.Booking, error) {
	if b, ok := s.bookings[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, bookingserrors.ErrNotFound
}

func (s *stubBookings) FindAcceptedByParty(_ context.Context, userID string) ([]*model.Booking, error) {
	out := make([]*model.Booking, 0)
	for _, b := range s.bookings {
		if b.Status == model.BookingStatusAccepted && b.HasParty(userID) {
			out = append(out, b)
		}
	}
	return out, nil
}

type recordingEmitter struct {
	mu    sync.Mutex
	emits []string
}

func (r *recordingEmitter) EmitToUser(userID, event string, _ any) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emits = append(r.emits, userID+":"+event)
	return 0
}

type recordingPublisher struct {
	envs []events.Envelope
	err  error
}

func (r *recordingPublisher) Publish(_ context.Context, env events.Envelope) error {
	r.envs = append(r.envs, env)
	return r.err
}

type fixture struct {
	svc       ChatService
	messages  *memoryMessages
	bookings  *stubBookings
	emitter   *recordingEmitter
	publisher *recordingPublisher
}

func newFixture(status model.BookingStatus) *fixture {
	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
	f := &fixture{
		messages: &memoryMessages{},
		bookings: &stubBookings{bookings: map[string]*model.Booking{
			bookingID: {
				ID:           bookingID,
				BookingID:    "BK-CHAT00001",
				ProviderID:   providerID,
				ProviderName: "Avi Plumbing",
				SeekerID:     seekerID,
				SeekerName:   "Dana",
				Services:     []string{"Plumbing", "Tiling"},
				Status:       status,
				UpdatedAt:    time.Unix(100, 0),
			},
		}},
		emitter:   &recordingEmitter{},
		publisher: &recordingPublisher{},
	}
	f.svc = NewChatService(f.messages, f.bookings, f.emitter, f.publisher, &config.Config{Log: log})
	return f
}

func message(from, to, text string) *model.Message {
	return &model.Message{BookingID: bookingID, SenderID: from, ReceiverID: to, Text: text}
}

func TestSendMessage_AcceptedRoutesToReceiver(t *testing.T) {
	f := newFixture(model.BookingStatusAccepted)

	got, err := f.svc.SendMessage(context.Background(), message(seekerID, providerID, "  Is 10am ok?\x00 "))
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if got.ID == "" || got.Text != "Is 10am ok?" {
		t.Errorf("stored message = %+v", got)
	}
	if len(f.emitter.emits) != 1 || f.emitter.emits[0] != providerID+":"+realtime.EventReceiveMessage {
		t.Errorf("emits = %v", f.emitter.emits)
	}
	if len(f.publisher.envs) != 1 || f.publisher.envs[0].Type != events.ChatMessageSent {
		t.Errorf("events = %v", f.publisher.envs)
	}
}

func TestSendMessage_ClosedStatuses(t *testing.T) {
	for _, status := range []model.BookingStatus{
		model.BookingStatusPending,
		model.BookingStatusCompleted,
		model.BookingStatusRejected,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(status)
			_, err := f.svc.SendMessage(context.Background(), message(seekerID, providerID, "hello"))
			if !apperrors.HasCode(err, apperrors.CodeChatClosed) {
				t.Fatalf("err = %v, want CHAT_CLOSED", err)
			}
			if len(f.messages.rows) != 0 || len(f.emitter.emits) != 0 {
				t.Error("nothing may be stored or pushed for a closed chat")
			}
		})
	}
}

func TestSendMessage_OutsideParties(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
	}{
		{name: "stranger sender", from: strangerID, to: providerID},
		{name: "stranger receiver", from: seekerID, to: strangerID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(model.BookingStatusAccepted)
			_, err := f.svc.SendMessage(context.Background(), message(tt.from, tt.to, "hi"))
			if !apperrors.HasCode(err, apperrors.CodeForbidden) {
				t.Fatalf("err = %v, want FORBIDDEN", err)
			}
		})
	}
}

func TestSendMessage_Validation(t *testing.T) {
	f := newFixture(model.BookingStatusAccepted)

	if _, err := f.svc.SendMessage(context.Background(), message(seekerID, providerID, "   ")); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("empty text err = %v, want VALIDATION_ERROR", err)
	}
	if _, err := f.svc.SendMessage(context.Background(), message(seekerID, seekerID, "hi")); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("self message err = %v, want VALIDATION_ERROR", err)
	}
}

func TestSendMessage_UnknownBooking(t *testing.T) {
	f := newFixture(model.BookingStatusAccepted)
	msg := message(seekerID, providerID, "hi")
	msg.BookingID = "65f0000000000000000000ff"

	if _, err := f.svc.SendMessage(context.Background(), msg); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestSendMessage_ImpersonationForbidden(t *testing.T) {
	f := newFixture(model.BookingStatusAccepted)
	ctx := auth.WithClaims(context.Background(), &auth.Claims{Sub: providerID})

	if _, err := f.svc.SendMessage(ctx, message(seekerID, providerID, "hi")); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Errorf("err = %v, want FORBIDDEN", err)
	}
}

func TestSendMessage_PublishFailureStillSucceeds(t *testing.T) {
	f := newFixture(model.BookingStatusAccepted)
	f.publisher.err = errors.New("broker down")

	if _, err := f.svc.SendMessage(context.Background(), message(providerID, seekerID, "on my way")); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
}

func TestListMessages_Ascending(t *testing.T) {
	f := newFixture(model.BookingStatusAccepted)
	for _, text := range []string{"first", "second", "third"} {
		if _, err := f.svc.SendMessage(context.Background(), message(seekerID, providerID, text)); err != nil {
			t.Fatalf("SendMessage(%s) error = %v", text, err)
		}
	}

	msgs, err := f.svc.ListMessages(context.Background(), bookingID)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 3 || msgs[0].Text != "first" || msgs[2].Text != "third" {
		t.Errorf("messages out of order: %v", msgs)
	}

	stranger := auth.WithClaims(context.Background(), &auth.Claims{Sub: strangerID})
	if _, err := f.svc.ListMessages(stranger, bookingID); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Errorf("stranger err = %v, want FORBIDDEN", err)
	}
}

func TestListContacts(t *testing.T) {
	f := newFixture(model.BookingStatusAccepted)

	contacts, err := f.svc.ListContacts(context.Background(), seekerID)
	if err != nil {
		t.Fatalf("ListContacts() error = %v", err)
	}
	if len(contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(contacts))
	}
	c := contacts[0]
	if c.UserID != providerID || c.Name != "Avi Plumbing" || c.Service != "Plumbing, Tiling" || c.BookingCode != "BK-CHAT00001" {
		t.Errorf("contact = %+v", c)
	}

	contacts, _ = f.svc.ListContacts(context.Background(), providerID)
	if len(contacts) != 1 || contacts[0].Name != "Dana" {
		t.Errorf("provider contacts = %+v", contacts)
	}

	contacts, _ = f.svc.ListContacts(context.Background(), strangerID)
	if len(contacts) != 0 {
		t.Errorf("stranger contacts = %d, want 0", len(contacts))
	}
}

func TestListContacts_PendingHasNone(t *testing.T) {
	f := newFixture(model.BookingStatusPending)
	contacts, err := f.svc.ListContacts(context.Background(), seekerID)
	if err != nil || len(contacts) != 0 {
		t.Errorf("ListContacts = %v, %v; want empty", contacts, err)
	}
}
