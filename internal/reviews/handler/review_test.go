package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "servicely/pkg/errors"
	"servicely/pkg/logger"
	"servicely/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockReviewService struct {
	submitErr error
	updateErr error
}

func (m *mockReviewService) Submit(_ context.Context, bookingID string, in *model.ReviewInput) (*model.Review, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return &model.Review{ID: "r1", BookingID: bookingID, Rating: in.Rating, Comment: in.Comment}, nil
}

func (m *mockReviewService) Update(_ context.Context, bookingID string, in *model.ReviewInput) (*model.Review, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &model.Review{ID: "r1", BookingID: bookingID, Rating: in.Rating, Edited: true}, nil
}

func (m *mockReviewService) GetByBooking(_ context.Context, bookingID string) (*model.Review, error) {
	return nil, apperrors.NotFoundWithID("Review", bookingID)
}

func (m *mockReviewService) ListByProvider(_ context.Context, id string) (*model.ProviderReviews, error) {
	return &model.ProviderReviews{ProviderID: id, Reviews: []*model.Review{}}, nil
}

func (m *mockReviewService) ListBySeeker(context.Context, string) ([]*model.Review, error) {
	return []*model.Review{}, nil
}

func (m *mockReviewService) ListAll(context.Context, int, int64) ([]*model.Review, int64, error) {
	return []*model.Review{}, 0, nil
}

func serve(svc *mockReviewService, method, path, body string) *httptest.ResponseRecorder {
	router := httprouter.New()
	NewReviewHandler(svc, logger.Nop()).RegisterRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestSubmit(t *testing.T) {
	rec := serve(&mockReviewService{}, http.MethodPost, "/api/v1/reviews/booking/b1", `{"rating":5,"comment":"Great"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestSubmit_Duplicate(t *testing.T) {
	svc := &mockReviewService{submitErr: apperrors.Duplicate("Review already submitted for this booking")}
	rec := serve(svc, http.MethodPost, "/api/v1/reviews/booking/b1", `{"rating":5,"comment":"Again"}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), apperrors.CodeDuplicate) {
		t.Errorf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestUpdate_SecondEditConflict(t *testing.T) {
	svc := &mockReviewService{updateErr: apperrors.Conflict("Review can only be edited once")}
	rec := serve(svc, http.MethodPut, "/api/v1/reviews/booking/b1", `{"rating":2,"comment":"x"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestReadRoutes(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/reviews", http.StatusOK},
		{"/api/v1/reviews/booking/b1", http.StatusNotFound},
		{"/api/v1/reviews/provider/p1", http.StatusOK},
		{"/api/v1/reviews/seeker/s1", http.StatusOK},
	}
	for _, tt := range tests {
		if rec := serve(&mockReviewService{}, http.MethodGet, tt.path, ""); rec.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.want)
		}
	}
}
