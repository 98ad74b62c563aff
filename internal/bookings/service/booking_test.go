package service

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "servicely/internal/bookings/errors"
	"servicely/internal/bookings/validator"
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
	providerID = "65f0000000000000000000aa"
	seekerID   = "65f0000000000000000000bb"
)

type memoryBookingRepo struct {
	mu        sync.Mutex
	rows      map[string]*model.Booking
	codes     map[string]bool
	next      int
	casErr    error
	createErr error
}

func newMemoryBookingRepo() *memoryBookingRepo {
	return &memoryBookingRepo{rows: make(map[string]*model.Booking), codes: make(map[string]bool)}
}

func (m *memoryBookingRepo) Create(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if m.codes[b.BookingID] {
		return fmt.Errorf("%w: %s", bookingserrors.ErrDuplicateCode, b.BookingID)
	}
	m.next++
	b.ID = fmt.Sprintf("65f0000000000000000%05d", m.next)
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	m.rows[b.ID] = &cp
	m.codes[b.BookingID] = true
	return nil
}

func (m *memoryBookingRepo) FindByID(_ context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.rows {
		if b.ID == id || b.BookingID == id {
			cp := *b
			return &cp, nil
		}
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *memoryBookingRepo) FindAll(context.Context, int, int64) ([]*model.Booking, error) {
	return m.all(func(*model.Booking) bool { return true }), nil
}

func (m *memoryBookingRepo) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *memoryBookingRepo) FindBySeeker(_ context.Context, id string) ([]*model.Booking, error) {
	return m.all(func(b *model.Booking) bool { return b.SeekerID == id }), nil
}

func (m *memoryBookingRepo) FindByProvider(_ context.Context, id string) ([]*model.Booking, error) {
	return m.all(func(b *model.Booking) bool { return b.ProviderID == id }), nil
}

func (m *memoryBookingRepo) FindAcceptedByParty(_ context.Context, id string) ([]*model.Booking, error) {
	return m.all(func(b *model.Booking) bool { return b.Status == model.BookingStatusAccepted && b.HasParty(id) }), nil
}

func (m *memoryBookingRepo) all(keep func(*model.Booking) bool) []*model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Booking, 0)
	for _, b := range m.rows {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out
}

func (m *memoryBookingRepo) UpdateStatus(_ context.Context, id string, from, to model.BookingStatus) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.casErr != nil {
		return nil, m.casErr
	}
	b, ok := m.rows[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if b.Status != from {
		return nil, bookingserrors.ErrStatusChanged
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	cp := *b
	return &cp, nil
}

func (m *memoryBookingRepo) status(id string) model.BookingStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id].Status
}

type recordingNotifier struct {
	mu     sync.Mutex
	sent   []model.NotificationEvent
	err    error
	failOn model.NotificationType
}

func (r *recordingNotifier) Notify(_ context.Context, e model.NotificationEvent) (*model.Notification, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.failOn != "" && e.Type() == r.failOn {
		return nil, fmt.Errorf("store rejected %s", e.Type())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, e)
	return &model.Notification{Type: e.Type()}, nil
}

func (r *recordingNotifier) types() []model.NotificationType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.NotificationType, 0, len(r.sent))
	for _, e := range r.sent {
		out = append(out, e.Type())
	}
	return out
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingEmitter) EmitToUser(userID, event string, _ any) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, userID+":"+event)
	return 1
}

type recordingPublisher struct {
	mu   sync.Mutex
	envs []events.Envelope
}

func (r *recordingPublisher) Publish(_ context.Context, env events.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envs = append(r.envs, env)
	return nil
}

type fixture struct {
	svc       *bookingService
	repo      *memoryBookingRepo
	notifier  *recordingNotifier
	emitter   *recordingEmitter
	publisher *recordingPublisher
}

func newFixture() *fixture {
	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
	cfg := &config.Config{Log: log, HookTimeout: time.Second}

	f := &fixture{
		repo:      newMemoryBookingRepo(),
		notifier:  &recordingNotifier{},
		emitter:   &recordingEmitter{},
		publisher: &recordingPublisher{},
	}
	f.svc = NewBookingService(
		f.repo,
		validator.NewBookingValidator(log),
		DefaultHooks(f.notifier, f.emitter, f.publisher),
		cfg,
	).(*bookingService)
	return f
}

func newBooking() *model.Booking {
	return &model.Booking{
		ProviderID: providerID,
		SeekerID:   seekerID,
		SeekerName: "  Dana   Levi ",
		Services:   []string{"Plumbing", "plumbing", " Tiling "},
		Date:       time.Now().UTC().AddDate(0, 0, 3).Format(time.DateOnly),
		TimeSlot:   "09:00-11:00",
		Address:    "4 Herzl Street",
		Status:     model.BookingStatusCompleted,
	}
}

func (f *fixture) create(t *testing.T) *model.Booking {
	t.Helper()
	b := newBooking()
	if err := f.svc.Create(context.Background(), b); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return b
}

func TestCreate_PendingWithCodeAndHooks(t *testing.T) {
	f := newFixture()
	b := f.create(t)

	if b.Status != model.BookingStatusPending {
		t.Errorf("status = %s, want Pending", b.Status)
	}
	if len(b.BookingID) != 12 || b.BookingID[:3] != "BK-" {
		t.Errorf("booking code = %q", b.BookingID)
	}
	if b.SeekerName != "Dana Levi" {
		t.Errorf("seeker name = %q", b.SeekerName)
	}
	if len(b.Services) != 2 {
		t.Errorf("services = %v, want deduplicated", b.Services)
	}

	got := f.notifier.types()
	want := []model.NotificationType{model.NotificationBookingRequested, model.NotificationBookingPlaced}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("notifications = %v, want %v", got, want)
	}
	if len(f.emitter.events) != 1 || f.emitter.events[0] != providerID+":"+realtime.EventNewBooking {
		t.Errorf("emits = %v", f.emitter.events)
	}
	if len(f.publisher.envs) != 1 || f.publisher.envs[0].Type != events.BookingCreated {
		t.Errorf("events = %v", f.publisher.envs)
	}
}

func TestCreate_RetriesCodeCollision(t *testing.T) {
	f := newFixture()
	f.repo.codes["BK-AAAAAAAAA"] = true

	codes := []string{"BK-AAAAAAAAA", "BK-BBBBBBBBB"}
	f.svc.newCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	b := f.create(t)
	if b.BookingID != "BK-BBBBBBBBB" {
		t.Errorf("code = %s, want second draw", b.BookingID)
	}
}

func TestCreate_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture()
	f.repo.codes["BK-AAAAAAAAA"] = true
	f.svc.newCode = func() (string, error) { return "BK-AAAAAAAAA", nil }

	err := f.svc.Create(context.Background(), newBooking())
	if !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Fatalf("err = %v, want INTERNAL_ERROR", err)
	}
	if len(f.notifier.sent) != 0 {
		t.Error("hooks must not run when nothing was stored")
	}
}

func TestCreate_ValidationFailure(t *testing.T) {
	f := newFixture()
	b := newBooking()
	b.Services = nil

	err := f.svc.Create(context.Background(), b)
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("err = %v, want VALIDATION_ERROR", err)
	}
}

func TestCreate_ForeignSeekerForbidden(t *testing.T) {
	f := newFixture()
	ctx := auth.WithClaims(context.Background(), &auth.Claims{Sub: providerID})

	err := f.svc.Create(ctx, newBooking())
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}
}

func TestSetStatus_Lifecycle(t *testing.T) {
	f := newFixture()
	b := f.create(t)
	f.notifier.sent = nil

	updated, err := f.svc.SetStatus(context.Background(), b.BookingID, &model.BookingStatusUpdate{Status: "accepted"})
	if err != nil {
		t.Fatalf("SetStatus(Accepted) error = %v", err)
	}
	if updated.Status != model.BookingStatusAccepted {
		t.Errorf("status = %s", updated.Status)
	}

	if _, err := f.svc.SetStatus(context.Background(), b.ID, &model.BookingStatusUpdate{Status: "Completed"}); err != nil {
		t.Fatalf("SetStatus(Completed) error = %v", err)
	}

	got := f.notifier.types()
	want := []model.NotificationType{
		model.NotificationBookingAccepted,
		model.NotificationLeaveReview,
		model.NotificationServiceCompleted,
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("notifications = %v, want %v", got, want)
	}

	last := f.publisher.envs[len(f.publisher.envs)-1]
	if last.Type != events.BookingStatusChanged || last.PreviousStatus != model.BookingStatusAccepted {
		t.Errorf("last event = %+v", last)
	}
}

func TestSetStatus_Rejected(t *testing.T) {
	f := newFixture()
	b := f.create(t)
	f.notifier.sent = nil

	if _, err := f.svc.SetStatus(context.Background(), b.ID, &model.BookingStatusUpdate{Status: "Rejected"}); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if got := f.notifier.types(); len(got) != 1 || got[0] != model.NotificationBookingRejected {
		t.Errorf("notifications = %v", got)
	}
}

func TestSetStatus_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup []string
		next  string
	}{
		{name: "pending to completed", next: "Completed"},
		{name: "pending to pending", next: "Pending"},
		{name: "completed to pending", setup: []string{"Accepted", "Completed"}, next: "Pending"},
		{name: "rejected to accepted", setup: []string{"Rejected"}, next: "Accepted"},
		{name: "accepted to rejected", setup: []string{"Accepted"}, next: "Rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			b := f.create(t)
			for _, s := range tt.setup {
				if _, err := f.svc.SetStatus(context.Background(), b.ID, &model.BookingStatusUpdate{Status: s}); err != nil {
					t.Fatalf("setup %s: %v", s, err)
				}
			}
			before := f.repo.status(b.ID)
			published := len(f.publisher.envs)

			_, err := f.svc.SetStatus(context.Background(), b.ID, &model.BookingStatusUpdate{Status: tt.next})
			if !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
				t.Fatalf("err = %v, want INVALID_TRANSITION", err)
			}
			if after := f.repo.status(b.ID); after != before {
				t.Errorf("status changed from %s to %s", before, after)
			}
			if len(f.publisher.envs) != published {
				t.Error("no event may be published for a rejected transition")
			}
		})
	}
}

func TestSetStatus_ConcurrentChangeIsConflict(t *testing.T) {
	f := newFixture()
	b := f.create(t)
	f.repo.casErr = bookingserrors.ErrStatusChanged

	_, err := f.svc.SetStatus(context.Background(), b.ID, &model.BookingStatusUpdate{Status: "Accepted"})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
}

func TestSetStatus_ConcurrentAcceptAndReject(t *testing.T) {
	f := newFixture()
	b := f.create(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, next := range []string{"Accepted", "Rejected"} {
		i, next := i, next
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.SetStatus(context.Background(), b.ID, &model.BookingStatusUpdate{Status: next})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !apperrors.HasCode(err, apperrors.CodeConflict) && !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
			t.Errorf("unexpected error %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("%d transitions succeeded, want exactly 1", succeeded)
	}
}

func TestSetStatus_HookFailureDoesNotFail(t *testing.T) {
	f := newFixture()
	b := f.create(t)
	f.notifier.err = errors.New("notification store down")

	updated, err := f.svc.SetStatus(context.Background(), b.ID, &model.BookingStatusUpdate{Status: "Accepted"})
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if updated.Status != model.BookingStatusAccepted {
		t.Errorf("status = %s", updated.Status)
	}
	if len(f.publisher.envs) != 2 {
		t.Errorf("later hooks must still run, events = %d", len(f.publisher.envs))
	}
}

func TestSetStatus_CompletedProviderNotifiedWhenSeekerFails(t *testing.T) {
	f := newFixture()
	b := f.create(t)
	if _, err := f.svc.SetStatus(context.Background(), b.ID, &model.BookingStatusUpdate{Status: "Accepted"}); err != nil {
		t.Fatalf("SetStatus(Accepted) error = %v", err)
	}
	f.notifier.sent = nil
	f.notifier.failOn = model.NotificationLeaveReview

	if _, err := f.svc.SetStatus(context.Background(), b.ID, &model.BookingStatusUpdate{Status: "Completed"}); err != nil {
		t.Fatalf("SetStatus(Completed) error = %v", err)
	}

	got := f.notifier.types()
	if len(got) != 1 || got[0] != model.NotificationServiceCompleted {
		t.Errorf("notifications = %v, want only %s", got, model.NotificationServiceCompleted)
	}
}

func TestSetStatus_OnlyProvider(t *testing.T) {
	f := newFixture()
	b := f.create(t)
	ctx := auth.WithClaims(context.Background(), &auth.Claims{Sub: seekerID})

	_, err := f.svc.SetStatus(ctx, b.ID, &model.BookingStatusUpdate{Status: "Accepted"})
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}
}

func TestSetStatus_UnknownStatus(t *testing.T) {
	f := newFixture()
	b := f.create(t)

	_, err := f.svc.SetStatus(context.Background(), b.ID, &model.BookingStatusUpdate{Status: "Cancelled"})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("err = %v, want VALIDATION_ERROR", err)
	}
}

func TestRunHooks_DetachedFromCancel(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sawErr error
	ran := false
	hooks := []Hook{
		{Name: "fails", Run: func(context.Context, *model.Booking, model.BookingStatus) error { return errors.New("boom") }},
		{Name: "checks-ctx", Run: func(ctx context.Context, _ *model.Booking, _ model.BookingStatus) error {
			ran = true
			sawErr = ctx.Err()
			return nil
		}},
	}

	f.svc.runHooks(ctx, hooks, &model.Booking{ID: "b1"}, "")
	if !ran {
		t.Fatal("a failing hook must not stop later hooks")
	}
	if sawErr != nil {
		t.Errorf("hook saw cancelled context: %v", sawErr)
	}
}

func TestGetByID_Errors(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.GetByID(context.Background(), "BK-ZZZZZZZZZ"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
	if _, err := f.svc.GetByID(context.Background(), "  "); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestListBySeekerAndProvider(t *testing.T) {
	f := newFixture()
	f.create(t)
	f.create(t)

	list, err := f.svc.ListBySeeker(context.Background(), seekerID)
	if err != nil || len(list) != 2 {
		t.Errorf("ListBySeeker = %d, %v", len(list), err)
	}
	list, err = f.svc.ListByProvider(context.Background(), seekerID)
	if err != nil || len(list) != 0 {
		t.Errorf("ListByProvider(seeker id) = %d, %v", len(list), err)
	}

	all, total, err := f.svc.GetAll(context.Background(), 10, 0)
	if err != nil || total != 2 || len(all) != 2 {
		t.Errorf("GetAll = %d/%d, %v", len(all), total, err)
	}
}
