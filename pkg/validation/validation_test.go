package validation

import (
	"errors"
	"servicely/pkg/logger"
	"servicely/pkg/model"
	"testing"
)

func validBooking() *model.Booking {
	return &model.Booking{
		BookingID:  "BK-0A1B2C3D4",
		ProviderID: "507f1f77bcf86cd799439011",
		SeekerID:   "507f1f77bcf86cd799439012",
		Services:   []string{"Plumbing"},
		Date:       "2026-11-02",
		TimeSlot:   "10:00 - 11:00",
		Address:    "12 Baker Street",
		Status:     model.BookingStatusPending,
	}
}

func TestStruct_Booking(t *testing.T) {
	v := New(logger.Nop())

	tests := []struct {
		name      string
		mutate    func(*model.Booking)
		wantField string
	}{
		{name: "valid", mutate: func(*model.Booking) {}},
		{name: "missing provider", mutate: func(b *model.Booking) { b.ProviderID = "" }, wantField: "ProviderID"},
		{name: "seeker equals provider", mutate: func(b *model.Booking) { b.SeekerID = b.ProviderID }, wantField: "SeekerID"},
		{name: "no services", mutate: func(b *model.Booking) { b.Services = nil }, wantField: "Services"},
		{name: "bad date", mutate: func(b *model.Booking) { b.Date = "02/11/2026" }, wantField: "Date"},
		{name: "lowercase status", mutate: func(b *model.Booking) { b.Status = "pending" }, wantField: "Status"},
		{name: "bad code", mutate: func(b *model.Booking) { b.BookingID = "BK-short" }, wantField: "BookingID"},
		{name: "empty code allowed", mutate: func(b *model.Booking) { b.BookingID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBooking()
			tt.mutate(b)
			err := v.Struct(b)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if _, ok := verrs.Details()[tt.wantField]; !ok {
				t.Errorf("expected error on %s, got %v", tt.wantField, verrs)
			}
		})
	}
}

func TestIsBookingCode(t *testing.T) {
	cases := map[string]bool{
		"BK-0A1B2C3D4":             true,
		"BK-0a1b2c3d4":             false,
		"bk-0A1B2C3D4":             false,
		"507f1f77bcf86cd799439011": false,
	}
	for in, want := range cases {
		if got := IsBookingCode(in); got != want {
			t.Errorf("IsBookingCode(%q) = %v, want %v", in, got, want)
		}
	}
}
