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

type mockStatsService struct {
	timeRange model.TimeRange
	offset    int
}

func (m *mockStatsService) StatusDistribution(_ context.Context, timeRange model.TimeRange, offset int) ([]model.StatusCount, error) {
	m.timeRange, m.offset = timeRange, offset
	if timeRange == "hourly" {
		return nil, apperrors.InvalidInput("Time range must be one of daily, weekly, monthly, yearly")
	}
	return []model.StatusCount{{Status: model.BookingStatusPending, Count: 2}}, nil
}

func (m *mockStatsService) Summary(context.Context) (*model.Summary, error) {
	return &model.Summary{TotalBookings: 3, OnlineUsers: 1}, nil
}

func (m *mockStatsService) TimeSeries(context.Context, string, string) ([]*model.DailyStats, error) {
	return []*model.DailyStats{{Day: "2024-05-02", Created: 1}}, nil
}

func serve(svc *mockStatsService, path string) *httptest.ResponseRecorder {
	router := httprouter.New()
	NewStatsHandler(svc, logger.Nop()).RegisterRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStatusDistribution(t *testing.T) {
	svc := &mockStatsService{}
	rec := serve(svc, "/api/v1/stats/status-distribution?time_range=monthly&offset=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if svc.timeRange != model.TimeRangeMonthly || svc.offset != 2 {
		t.Errorf("got range %q offset %d", svc.timeRange, svc.offset)
	}
	if !strings.Contains(rec.Body.String(), `"name":"Pending","value":2`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestStatusDistribution_DefaultOffset(t *testing.T) {
	svc := &mockStatsService{}
	serve(svc, "/api/v1/stats/status-distribution?timeRange=daily")
	if svc.timeRange != model.TimeRangeDaily || svc.offset != 1 {
		t.Errorf("got range %q offset %d", svc.timeRange, svc.offset)
	}
}

func TestStatusDistribution_BadParams(t *testing.T) {
	for _, path := range []string{
		"/api/v1/stats/status-distribution?time_range=daily&offset=abc",
		"/api/v1/stats/status-distribution?time_range=hourly",
	} {
		if rec := serve(&mockStatsService{}, path); rec.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want 400", path, rec.Code)
		}
	}
}

func TestSummaryAndTimeSeries(t *testing.T) {
	rec := serve(&mockStatsService{}, "/api/v1/stats/summary")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"online_users":1`) {
		t.Errorf("summary: %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(&mockStatsService{}, "/api/v1/stats/timeseries?from=2024-05-01&to=2024-05-03")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"day":"2024-05-02"`) {
		t.Errorf("timeseries: %d %s", rec.Code, rec.Body.String())
	}
}
