package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lodgebook/pkg/config"
	apperrors "lodgebook/pkg/errors"
	"lodgebook/pkg/logger"
	"lodgebook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// Mock service for testing
type mockReservationService struct {
	createFunc  func(ctx context.Context, req *model.BookingRequest) (*model.Reservation, error)
	confirmFunc func(ctx context.Context, id string) error
	cancelFunc  func(ctx context.Context, id, reason string) error
	getByIDFunc func(ctx context.Context, id string) (*model.Reservation, error)
}

func (m *mockReservationService) Create(ctx context.Context, req *model.BookingRequest) (*model.Reservation, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return &model.Reservation{ID: "res-1", Status: model.ReservationPending}, nil
}

func (m *mockReservationService) Confirm(ctx context.Context, id string) error {
	if m.confirmFunc != nil {
		return m.confirmFunc(ctx, id)
	}
	return nil
}

func (m *mockReservationService) Cancel(ctx context.Context, id string, reason string) error {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, id, reason)
	}
	return nil
}

func (m *mockReservationService) CancelForRefund(ctx context.Context, id string, reason string) error {
	return nil
}

func (m *mockReservationService) Complete(ctx context.Context, id string) error {
	return nil
}

func (m *mockReservationService) CompleteElapsed(ctx context.Context, asOf time.Time) (int, error) {
	return 0, nil
}

func (m *mockReservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &model.Reservation{ID: id, Status: model.ReservationPending}, nil
}

func (m *mockReservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
	return []*model.Reservation{}, 0, nil
}

func (m *mockReservationService) ListByGuest(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationService) ListByLodging(ctx context.Context, lodgingID string, limit int, offset int64) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func testHandler(svc *mockReservationService) *ReservationHandler {
	cfg := &config.Config{
		DefaultPageLimit: 20,
		MaxPageLimit:     100,
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
	return NewReservationHandler(svc, cfg)
}

func newRouter(h *ReservationHandler) *httprouter.Router {
	router := httprouter.New()
	h.RegisterRoutes(router)
	return router
}

func TestCreateReturnsCreated(t *testing.T) {
	handler := testHandler(&mockReservationService{})
	router := newRouter(handler)

	body := `{"lodging_id":"64a0000000000000000000aa","guest_id":"64a0000000000000000000bb","check_in":"2024-07-01T00:00:00Z","check_out":"2024-07-04T00:00:00Z","guests":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusCreated, rec.Body)
	}

	var resp struct {
		Data model.Reservation `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response decode error: %v", err)
	}
	if resp.Data.ID != "res-1" {
		t.Errorf("response id = %q, want res-1", resp.Data.ID)
	}
}

func TestCreateInvalidBody(t *testing.T) {
	handler := testHandler(&mockReservationService{})
	router := newRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateConflictMapsTo409(t *testing.T) {
	svc := &mockReservationService{
		createFunc: func(ctx context.Context, req *model.BookingRequest) (*model.Reservation, error) {
			return nil, apperrors.BookingConflict("Requested range overlaps an existing reservation", []string{"res-9"})
		},
	}
	router := newRouter(testHandler(svc))

	body := `{"lodging_id":"64a0000000000000000000aa","guest_id":"64a0000000000000000000bb","check_in":"2024-07-01T00:00:00Z","check_out":"2024-07-04T00:00:00Z","guests":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}

	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response decode error: %v", err)
	}
	if resp.Code != apperrors.CodeConflict {
		t.Errorf("error code = %q, want %q", resp.Code, apperrors.CodeConflict)
	}
}

func TestCancelPassesReason(t *testing.T) {
	var gotID, gotReason string
	svc := &mockReservationService{
		cancelFunc: func(ctx context.Context, id, reason string) error {
			gotID, gotReason = id, reason
			return nil
		},
	}
	router := newRouter(testHandler(svc))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/id/res-1/cancel", strings.NewReader(`{"reason":"change of plans"}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if gotID != "res-1" || gotReason != "change of plans" {
		t.Errorf("Cancel called with (%q, %q)", gotID, gotReason)
	}
}

func TestCancelWithoutBody(t *testing.T) {
	svc := &mockReservationService{}
	router := newRouter(testHandler(svc))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/id/res-1/cancel", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestConfirmInvalidTransitionMapsTo409(t *testing.T) {
	svc := &mockReservationService{
		confirmFunc: func(ctx context.Context, id string) error {
			return apperrors.InvalidTransition("cancelled", "confirmed")
		},
	}
	router := newRouter(testHandler(svc))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/id/res-1/confirm", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestGetByIDNotFoundMapsTo404(t *testing.T) {
	svc := &mockReservationService{
		getByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		},
	}
	router := newRouter(testHandler(svc))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/id/missing", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
