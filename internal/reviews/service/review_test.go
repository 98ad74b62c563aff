package service

import (
	"context"
	"fmt"
	bookingserrors "servicely/internal/bookings/errors"
	"servicely/internal/events"
	reviewserrors "servicely/internal/reviews/errors"
	"servicely/pkg/auth"
	"servicely/pkg/config"
	mongodb "servicely/pkg/db/mongo"
	apperrors "servicely/pkg/errors"
	"servicely/pkg/logger"
	"servicely/pkg/model"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	completedID = "65f000000000000000000001"
	acceptedID  = "65f000000000000000000002"
	providerID  = "65f0000000000000000000aa"
	seekerID    = "65f0000000000000000000bb"
)

type memoryReviews struct {
	mu   sync.Mutex
	rows []*model.Review
	txs  int
}

func (m *memoryReviews) Create(_ context.Context, r *model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.BookingID == r.BookingID {
			return reviewserrors.ErrDuplicate
		}
	}
	r.ID = fmt.Sprintf("r%d", len(m.rows)+1)
	r.CreatedAt = time.Unix(int64(len(m.rows)+1), 0)
	cp := *r
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memoryReviews) FindByBooking(_ context.Context, bookingID string) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.BookingID == bookingID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, reviewserrors.ErrNotFound
}

func (m *memoryReviews) UpdateOnce(_ context.Context, bookingID string, rating int, comment string) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.BookingID != bookingID {
			continue
		}
		if r.Edited {
			return nil, reviewserrors.ErrAlreadyEdited
		}
		r.Rating, r.Comment, r.Edited = rating, comment, true
		cp := *r
		return &cp, nil
	}
	return nil, reviewserrors.ErrNotFound
}

func (m *memoryReviews) filter(keep func(*model.Review) bool) []*model.Review {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Review, 0)
	for i := len(m.rows) - 1; i >= 0; i-- {
		if keep(m.rows[i]) {
			out = append(out, m.rows[i])
		}
	}
	return out
}

func (m *memoryReviews) FindByProvider(_ context.Context, id string) ([]*model.Review, error) {
	return m.filter(func(r *model.Review) bool { return r.ProviderID == id }), nil
}

func (m *memoryReviews) FindBySeeker(_ context.Context, id string) ([]*model.Review, error) {
	return m.filter(func(r *model.Review) bool { return r.SeekerID == id }), nil
}

func (m *memoryReviews) FindAll(context.Context, int, int64) ([]*model.Review, error) {
	return m.filter(func(*model.Review) bool { return true }), nil
}

func (m *memoryReviews) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *memoryReviews) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	m.mu.Lock()
	m.txs++
	m.mu.Unlock()
	return fn(mongo.NewSessionContext(ctx, nil))
}

type stubBookings map[string]*model.Booking

func (s stubBookings) FindByID(_ context.Context, id string) (*model.Booking, error) {
	for _, b := range s {
		if b.ID == id || b.BookingID == id {
			return b, nil
		}
	}
	return nil, bookingserrors.ErrNotFound
}

type recordingPublisher struct {
	envs []events.Envelope
}

func (r *recordingPublisher) Publish(_ context.Context, env events.Envelope) error {
	r.envs = append(r.envs, env)
	return nil
}

func newService() (ReviewService, *memoryReviews, *recordingPublisher) {
	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
	bookings := stubBookings{
		completedID: {ID: completedID, BookingID: "BK-DONE00001", ProviderID: providerID, SeekerID: seekerID, Status: model.BookingStatusCompleted},
		acceptedID:  {ID: acceptedID, BookingID: "BK-OPEN00001", ProviderID: providerID, SeekerID: seekerID, Status: model.BookingStatusAccepted},
	}
	repo := &memoryReviews{}
	pub := &recordingPublisher{}
	return NewReviewService(repo, bookings, pub, &config.Config{Log: log}), repo, pub
}

func TestSubmit(t *testing.T) {
	svc, repo, pub := newService()

	review, err := svc.Submit(context.Background(), completedID, &model.ReviewInput{Rating: 5, Comment: "Great work"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if review.ProviderID != providerID || review.SeekerID != seekerID || review.Edited {
		t.Errorf("review = %+v", review)
	}
	if repo.txs != 1 {
		t.Errorf("transactions = %d, want 1", repo.txs)
	}
	if len(pub.envs) != 1 || pub.envs[0].Type != events.ReviewSubmitted || pub.envs[0].Rating != 5 {
		t.Errorf("events = %+v", pub.envs)
	}
}

func TestSubmit_ByBookingCode(t *testing.T) {
	svc, _, _ := newService()

	review, err := svc.Submit(context.Background(), "BK-DONE00001", &model.ReviewInput{Rating: 4, Comment: "Good"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if review.BookingID != completedID {
		t.Errorf("review keyed by %s, want storage id", review.BookingID)
	}
	if _, err := svc.GetByBooking(context.Background(), "BK-DONE00001"); err != nil {
		t.Errorf("GetByBooking(code) error = %v", err)
	}
}

func TestSubmit_Errors(t *testing.T) {
	tests := []struct {
		name      string
		bookingID string
		input     *model.ReviewInput
		wantCode  string
	}{
		{name: "not completed", bookingID: acceptedID, input: &model.ReviewInput{Rating: 5, Comment: "x"}, wantCode: apperrors.CodeInvalidInput},
		{name: "missing booking", bookingID: "65f0000000000000000000ff", input: &model.ReviewInput{Rating: 5, Comment: "x"}, wantCode: apperrors.CodeNotFound},
		{name: "rating too high", bookingID: completedID, input: &model.ReviewInput{Rating: 6, Comment: "x"}, wantCode: apperrors.CodeValidation},
		{name: "rating zero", bookingID: completedID, input: &model.ReviewInput{Rating: 0, Comment: "x"}, wantCode: apperrors.CodeValidation},
		{name: "empty comment", bookingID: completedID, input: &model.ReviewInput{Rating: 3, Comment: "  "}, wantCode: apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newService()
			_, err := svc.Submit(context.Background(), tt.bookingID, tt.input)
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Fatalf("err = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestSubmit_SecondIsDuplicate(t *testing.T) {
	svc, _, _ := newService()
	input := &model.ReviewInput{Rating: 5, Comment: "Great"}

	if _, err := svc.Submit(context.Background(), completedID, input); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	_, err := svc.Submit(context.Background(), completedID, input)
	if !apperrors.HasCode(err, apperrors.CodeDuplicate) {
		t.Fatalf("err = %v, want DUPLICATE", err)
	}
}

func TestSubmit_OnlySeeker(t *testing.T) {
	svc, _, _ := newService()
	ctx := auth.WithClaims(context.Background(), &auth.Claims{Sub: providerID})

	_, err := svc.Submit(ctx, completedID, &model.ReviewInput{Rating: 5, Comment: "Self praise"})
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}
}

func TestUpdate_OnlyOnce(t *testing.T) {
	svc, _, _ := newService()
	if _, err := svc.Submit(context.Background(), completedID, &model.ReviewInput{Rating: 3, Comment: "Okay"}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	updated, err := svc.Update(context.Background(), completedID, &model.ReviewInput{Rating: 4, Comment: "Better than I thought"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !updated.Edited || updated.Rating != 4 {
		t.Errorf("updated = %+v", updated)
	}

	_, err = svc.Update(context.Background(), completedID, &model.ReviewInput{Rating: 1, Comment: "Changed my mind"})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("second edit err = %v, want CONFLICT", err)
	}
}

func TestUpdate_MissingReview(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.Update(context.Background(), completedID, &model.ReviewInput{Rating: 4, Comment: "x"})
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestListByProvider_Average(t *testing.T) {
	svc, repo, _ := newService()
	repo.rows = []*model.Review{
		{BookingID: "a", ProviderID: providerID, Rating: 5},
		{BookingID: "b", ProviderID: providerID, Rating: 4},
		{BookingID: "c", ProviderID: providerID, Rating: 4},
		{BookingID: "d", ProviderID: "other", Rating: 1},
	}

	got, err := svc.ListByProvider(context.Background(), providerID)
	if err != nil {
		t.Fatalf("ListByProvider() error = %v", err)
	}
	if got.ReviewCount != 3 || got.AverageRating != 4.3 {
		t.Errorf("count=%d average=%v, want 3 and 4.3", got.ReviewCount, got.AverageRating)
	}

	empty, _ := svc.ListByProvider(context.Background(), "nobody")
	if empty.AverageRating != 0 || empty.ReviewCount != 0 {
		t.Errorf("empty provider = %+v", empty)
	}
}

func TestListAll(t *testing.T) {
	svc, repo, _ := newService()
	repo.rows = []*model.Review{{BookingID: "a"}, {BookingID: "b"}}

	reviews, total, err := svc.ListAll(context.Background(), 10, 0)
	if err != nil || total != 2 || len(reviews) != 2 {
		t.Errorf("ListAll = %d/%d, %v", len(reviews), total, err)
	}
	if reviews[0].BookingID != "b" {
		t.Errorf("want newest first, got %s", reviews[0].BookingID)
	}
}
