package validator

import (
	"strings"
	"testing"
	"time"

	"lodgebook/pkg/logger"
	"lodgebook/pkg/model"
)

func newValidator() *BookingValidator {
	return NewBookingValidator(logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	}))
}

func request() *model.BookingRequest {
	return &model.BookingRequest{
		LodgingID: "64a0000000000000000000aa",
		GuestID:   "64a0000000000000000000bb",
		CheckIn:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:  time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC),
		Guests:    2,
	}
}

func TestValidateAcceptsWellFormedRequest(t *testing.T) {
	v := newValidator()
	if err := v.Validate(request()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	withCode := request()
	withCode.PromoCode = "SUMMER24"
	if err := v.Validate(withCode); err != nil {
		t.Fatalf("Validate() with promo code error = %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.BookingRequest)
		wantMsg string
	}{
		{
			name:    "missing lodging",
			mutate:  func(r *model.BookingRequest) { r.LodgingID = "" },
			wantMsg: "LodgingID is required",
		},
		{
			name:    "malformed lodging id",
			mutate:  func(r *model.BookingRequest) { r.LodgingID = "nope" },
			wantMsg: "valid MongoDB ObjectID",
		},
		{
			name:    "check-out before check-in",
			mutate:  func(r *model.BookingRequest) { r.CheckIn, r.CheckOut = r.CheckOut, r.CheckIn },
			wantMsg: "CheckOut must be after CheckIn",
		},
		{
			name:    "zero guests",
			mutate:  func(r *model.BookingRequest) { r.Guests = 0 },
			wantMsg: "Guests is required",
		},
		{
			name:    "promo code with symbols",
			mutate:  func(r *model.BookingRequest) { r.PromoCode = "ten%off" },
			wantMsg: "alphanumeric",
		},
		{
			name:    "promo code too short",
			mutate:  func(r *model.BookingRequest) { r.PromoCode = "ab" },
			wantMsg: "at least 3",
		},
		{
			name:    "same-day checkout",
			mutate:  func(r *model.BookingRequest) { r.CheckOut = r.CheckIn },
			wantMsg: "", // caught by either the field rule or the range rule
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidator()
			req := request()
			tt.mutate(req)

			err := v.Validate(req)
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Validate() error = %q, want it to mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}
