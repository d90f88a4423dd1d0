package service

import (
	"context"
	"strings"
	"testing"
	"time"

	paymenterrors "lodgebook/internal/payments/errors"
	"lodgebook/internal/payments/repository"
	"lodgebook/pkg/config"
	apperrors "lodgebook/pkg/errors"
	"lodgebook/pkg/events"
	"lodgebook/pkg/logger"
	"lodgebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

const testReservationID = "64a0000000000000000000ee"

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

type mockPaymentRepo struct {
	payments map[string]*model.Payment
	nextID   int
}

var _ repository.PaymentRepository = (*mockPaymentRepo)(nil)

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{payments: make(map[string]*model.Payment)}
}

func (m *mockPaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	for _, existing := range m.payments {
		if existing.ReservationID == p.ReservationID {
			return paymenterrors.ErrDuplicatePayment
		}
	}
	m.nextID++
	p.ID = "64b00000000000000000000" + string(rune('0'+m.nextID))
	clone := *p
	m.payments[p.ID] = &clone
	return nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, paymenterrors.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *mockPaymentRepo) FindByReservation(ctx context.Context, reservationID string) (*model.Payment, error) {
	for _, p := range m.payments {
		if p.ReservationID == reservationID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, paymenterrors.ErrNotFound
}

func (m *mockPaymentRepo) TransitionStatus(ctx context.Context, id string, from []model.PaymentStatus, to model.PaymentStatus, set bson.M) error {
	p, ok := m.payments[id]
	if !ok {
		return paymenterrors.ErrStatusGuard
	}
	for _, s := range from {
		if p.Status == s {
			p.Status = to
			return nil
		}
	}
	return paymenterrors.ErrStatusGuard
}

// fakeLifecycle stands in for the reservation engine.
type fakeLifecycle struct {
	reservation *model.Reservation
	confirmed   []string
	cancelled   []string
	confirmErr  error
}

func (f *fakeLifecycle) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if f.reservation == nil || f.reservation.ID != id {
		return nil, apperrors.NotFoundWithID("Reservation", id)
	}
	clone := *f.reservation
	return &clone, nil
}

func (f *fakeLifecycle) Confirm(ctx context.Context, id string) error {
	if f.confirmErr != nil {
		return f.confirmErr
	}
	f.confirmed = append(f.confirmed, id)
	f.reservation.Status = model.ReservationConfirmed
	return nil
}

func (f *fakeLifecycle) CancelForRefund(ctx context.Context, id string, reason string) error {
	f.cancelled = append(f.cancelled, id)
	f.reservation.Status = model.ReservationCancelled
	return nil
}

func pendingReservation() *model.Reservation {
	return &model.Reservation{
		ID:              testReservationID,
		LodgingID:       "64a0000000000000000000aa",
		GuestID:         "64a0000000000000000000bb",
		CheckIn:         time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:        time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
		Guests:          2,
		TotalPriceCents: 50000,
		Status:          model.ReservationPending,
	}
}

func newFixture(reservation *model.Reservation) (PaymentService, *mockPaymentRepo, *fakeLifecycle) {
	cfg := testConfig()
	repo := newMockPaymentRepo()
	lifecycle := &fakeLifecycle{reservation: reservation}
	svc := NewPaymentService(repo, lifecycle, events.NewNotifier(nil, cfg.Log, "test"), cfg)
	return svc, repo, lifecycle
}

func openPayment(t *testing.T, svc PaymentService) *model.Payment {
	t.Helper()
	payment := &model.Payment{
		ReservationID: testReservationID,
		Method:        model.MethodCreditCard,
	}
	if err := svc.Create(context.Background(), payment); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return payment
}

func TestCreatePayment(t *testing.T) {
	svc, _, _ := newFixture(pendingReservation())

	payment := openPayment(t, svc)

	if payment.Status != model.PaymentPending {
		t.Errorf("status = %s, want pending", payment.Status)
	}
	if payment.AmountCents != 50000 {
		t.Errorf("amount = %d, want the reservation total 50000", payment.AmountCents)
	}
	if !strings.HasPrefix(payment.ExternalRef, "PAY-") {
		t.Errorf("external ref = %q, want PAY- prefix", payment.ExternalRef)
	}
}

func TestCreatePaymentDuplicate(t *testing.T) {
	svc, _, _ := newFixture(pendingReservation())
	openPayment(t, svc)

	err := svc.Create(context.Background(), &model.Payment{
		ReservationID: testReservationID,
		Method:        model.MethodPaypal,
	})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("Create() duplicate error = %v, want conflict", err)
	}
}

func TestCreatePaymentRequiresPendingReservation(t *testing.T) {
	reservation := pendingReservation()
	reservation.Status = model.ReservationConfirmed
	svc, _, _ := newFixture(reservation)

	err := svc.Create(context.Background(), &model.Payment{
		ReservationID: testReservationID,
		Method:        model.MethodCreditCard,
	})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("Create() error = %v, want conflict", err)
	}
}

func TestZeroTotalReservationCanBePaid(t *testing.T) {
	// A fixed-amount discount larger than the base prices the stay at 0;
	// the payment record must still open and confirm normally.
	reservation := pendingReservation()
	reservation.TotalPriceCents = 0
	svc, _, lifecycle := newFixture(reservation)

	payment := openPayment(t, svc)
	if payment.AmountCents != 0 {
		t.Errorf("amount = %d, want 0", payment.AmountCents)
	}

	err := svc.OnPaymentEvent(context.Background(), &PaymentEvent{
		ReservationID: testReservationID,
		Status:        model.PaymentCompleted,
		AmountCents:   0,
	})
	if err != nil {
		t.Fatalf("OnPaymentEvent() error = %v", err)
	}
	if len(lifecycle.confirmed) != 1 {
		t.Errorf("reservation confirmations = %v, want one", lifecycle.confirmed)
	}
}

func TestCompletedPaymentConfirmsReservation(t *testing.T) {
	svc, _, lifecycle := newFixture(pendingReservation())
	payment := openPayment(t, svc)

	err := svc.OnPaymentEvent(context.Background(), &PaymentEvent{
		ReservationID: testReservationID,
		Status:        model.PaymentCompleted,
		AmountCents:   50000,
	})
	if err != nil {
		t.Fatalf("OnPaymentEvent() error = %v", err)
	}

	got, _ := svc.GetByID(context.Background(), payment.ID)
	if got.Status != model.PaymentCompleted {
		t.Errorf("payment status = %s, want completed", got.Status)
	}
	if len(lifecycle.confirmed) != 1 || lifecycle.confirmed[0] != testReservationID {
		t.Errorf("reservation confirmations = %v, want [%s]", lifecycle.confirmed, testReservationID)
	}
}

func TestCompletedPaymentAmountMismatch(t *testing.T) {
	svc, _, lifecycle := newFixture(pendingReservation())
	payment := openPayment(t, svc)

	err := svc.OnPaymentEvent(context.Background(), &PaymentEvent{
		ReservationID: testReservationID,
		Status:        model.PaymentCompleted,
		AmountCents:   49999,
	})
	if !apperrors.HasCode(err, apperrors.CodeAmountMismatch) {
		t.Fatalf("OnPaymentEvent() error = %v, want amount mismatch", err)
	}

	got, _ := svc.GetByID(context.Background(), payment.ID)
	if got.Status != model.PaymentPending {
		t.Errorf("payment status = %s, want pending after mismatch", got.Status)
	}
	if len(lifecycle.confirmed) != 0 {
		t.Error("reservation must not be confirmed on a mismatched amount")
	}
}

func TestFailedPaymentLeavesReservationPending(t *testing.T) {
	svc, _, lifecycle := newFixture(pendingReservation())
	payment := openPayment(t, svc)

	err := svc.OnPaymentEvent(context.Background(), &PaymentEvent{
		ReservationID: testReservationID,
		Status:        model.PaymentFailed,
	})
	if err != nil {
		t.Fatalf("OnPaymentEvent() error = %v", err)
	}

	got, _ := svc.GetByID(context.Background(), payment.ID)
	if got.Status != model.PaymentFailed {
		t.Errorf("payment status = %s, want failed", got.Status)
	}
	if lifecycle.reservation.Status != model.ReservationPending {
		t.Errorf("reservation status = %s, want pending", lifecycle.reservation.Status)
	}
}

func TestRedeliveredFailedEventIsAbsorbed(t *testing.T) {
	svc, _, lifecycle := newFixture(pendingReservation())
	payment := openPayment(t, svc)
	ctx := context.Background()

	// Gateway callbacks arrive at-least-once; a duplicate FAILED report
	// must not surface as an error.
	for i := 0; i < 2; i++ {
		if err := svc.OnPaymentEvent(ctx, &PaymentEvent{
			ReservationID: testReservationID,
			Status:        model.PaymentFailed,
		}); err != nil {
			t.Fatalf("OnPaymentEvent(failed) delivery %d error = %v", i+1, err)
		}
	}

	got, _ := svc.GetByID(ctx, payment.ID)
	if got.Status != model.PaymentFailed {
		t.Errorf("payment status = %s, want failed", got.Status)
	}
	if lifecycle.reservation.Status != model.ReservationPending {
		t.Errorf("reservation status = %s, want pending", lifecycle.reservation.Status)
	}
}

func TestFailedPaymentRetrySucceeds(t *testing.T) {
	svc, _, lifecycle := newFixture(pendingReservation())
	openPayment(t, svc)
	ctx := context.Background()

	if err := svc.OnPaymentEvent(ctx, &PaymentEvent{
		ReservationID: testReservationID,
		Status:        model.PaymentFailed,
	}); err != nil {
		t.Fatalf("OnPaymentEvent(failed) error = %v", err)
	}

	if err := svc.OnPaymentEvent(ctx, &PaymentEvent{
		ReservationID: testReservationID,
		Status:        model.PaymentCompleted,
		AmountCents:   50000,
	}); err != nil {
		t.Fatalf("OnPaymentEvent(completed after failed) error = %v", err)
	}

	if len(lifecycle.confirmed) != 1 {
		t.Errorf("reservation confirmations = %v, want one", lifecycle.confirmed)
	}
}

func TestRefundCancelsConfirmedReservation(t *testing.T) {
	svc, _, lifecycle := newFixture(pendingReservation())
	payment := openPayment(t, svc)
	ctx := context.Background()

	if err := svc.OnPaymentEvent(ctx, &PaymentEvent{
		ReservationID: testReservationID,
		Status:        model.PaymentCompleted,
		AmountCents:   50000,
	}); err != nil {
		t.Fatalf("OnPaymentEvent(completed) error = %v", err)
	}

	if err := svc.OnPaymentEvent(ctx, &PaymentEvent{
		ReservationID: testReservationID,
		Status:        model.PaymentRefunded,
	}); err != nil {
		t.Fatalf("OnPaymentEvent(refunded) error = %v", err)
	}

	got, _ := svc.GetByID(ctx, payment.ID)
	if got.Status != model.PaymentRefunded {
		t.Errorf("payment status = %s, want refunded", got.Status)
	}
	if len(lifecycle.cancelled) != 1 {
		t.Errorf("reservation cancellations = %v, want one", lifecycle.cancelled)
	}
}

func TestRefundRequiresCompletedPayment(t *testing.T) {
	svc, _, lifecycle := newFixture(pendingReservation())
	openPayment(t, svc)

	err := svc.OnPaymentEvent(context.Background(), &PaymentEvent{
		ReservationID: testReservationID,
		Status:        model.PaymentRefunded,
	})
	if !apperrors.HasCode(err, apperrors.CodeInvalidPaymentTransition) {
		t.Fatalf("OnPaymentEvent() error = %v, want invalid payment transition", err)
	}
	if len(lifecycle.cancelled) != 0 {
		t.Error("reservation must not be cancelled on an illegal refund")
	}
}

func TestRefundOnCompletedReservationKeepsIt(t *testing.T) {
	svc, _, lifecycle := newFixture(pendingReservation())
	payment := openPayment(t, svc)
	ctx := context.Background()

	if err := svc.OnPaymentEvent(ctx, &PaymentEvent{
		ReservationID: testReservationID,
		Status:        model.PaymentCompleted,
		AmountCents:   50000,
	}); err != nil {
		t.Fatalf("OnPaymentEvent(completed) error = %v", err)
	}
	// The stay finished before the refund arrived.
	lifecycle.reservation.Status = model.ReservationCompleted

	if err := svc.OnPaymentEvent(ctx, &PaymentEvent{
		ReservationID: testReservationID,
		Status:        model.PaymentRefunded,
	}); err != nil {
		t.Fatalf("OnPaymentEvent(refunded) error = %v", err)
	}

	got, _ := svc.GetByID(ctx, payment.ID)
	if got.Status != model.PaymentRefunded {
		t.Errorf("payment status = %s, want refunded", got.Status)
	}
	if len(lifecycle.cancelled) != 0 {
		t.Error("a completed stay keeps its reservation state on refund")
	}
}

func TestEventForUnknownReservation(t *testing.T) {
	svc, _, _ := newFixture(pendingReservation())

	err := svc.OnPaymentEvent(context.Background(), &PaymentEvent{
		ReservationID: "64a000000000000000000099",
		Status:        model.PaymentCompleted,
		AmountCents:   50000,
	})
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("OnPaymentEvent() error = %v, want not found", err)
	}
}

func TestEventValidation(t *testing.T) {
	svc, _, _ := newFixture(pendingReservation())

	err := svc.OnPaymentEvent(context.Background(), &PaymentEvent{
		ReservationID: testReservationID,
		Status:        "chargeback",
	})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("OnPaymentEvent() error = %v, want validation", err)
	}
}
