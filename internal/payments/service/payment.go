package service

import (
	"context"
	"errors"

	paymenterrors "lodgebook/internal/payments/errors"
	"lodgebook/internal/payments/repository"
	"lodgebook/pkg/config"
	apperrors "lodgebook/pkg/errors"
	"lodgebook/pkg/events"
	"lodgebook/pkg/model"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// ReservationLifecycle is the slice of the reservation engine the
// reconciler drives. CancelForRefund bypasses the cancellation notice
// policy; a refund must always be able to free the dates.
type ReservationLifecycle interface {
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	Confirm(ctx context.Context, id string) error
	CancelForRefund(ctx context.Context, id string, reason string) error
}

// PaymentEvent is the gateway's report of a payment outcome, arriving via
// the payment-events topic or the webhook endpoint.
type PaymentEvent struct {
	ReservationID string              `json:"reservation_id" validate:"required,mongodb"`
	Status        model.PaymentStatus `json:"status" validate:"required,oneof=completed failed refunded"`
	AmountCents   int64               `json:"amount_cents"`
	ExternalRef   string              `json:"external_ref,omitempty"`
}

type PaymentService interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	GetByReservation(ctx context.Context, reservationID string) (*model.Payment, error)
	OnPaymentEvent(ctx context.Context, event *PaymentEvent) error
}

type paymentService struct {
	repo         repository.PaymentRepository
	reservations ReservationLifecycle
	validate     *validator.Validate
	notifier     *events.Notifier
	cfg          *config.Config
}

func NewPaymentService(
	repo repository.PaymentRepository,
	reservations ReservationLifecycle,
	notifier *events.Notifier,
	cfg *config.Config,
) PaymentService {
	return &paymentService{
		repo:         repo,
		reservations: reservations,
		validate:     validator.New(),
		notifier:     notifier,
		cfg:          cfg,
	}
}

// Create opens the PENDING payment record for a reservation. The amount is
// pinned to the reservation's total at creation time, and the external
// reference is minted here so the gateway can correlate callbacks.
func (s *paymentService) Create(ctx context.Context, payment *model.Payment) error {
	payment.ID = ""
	payment.Status = model.PaymentPending
	payment.ExternalRef = "PAY-" + uuid.NewString()

	reservation, err := s.reservations.GetByID(ctx, payment.ReservationID)
	if err != nil {
		return err
	}
	if reservation.Status != model.ReservationPending {
		return apperrors.Conflict("Payments can only be opened for pending reservations")
	}
	payment.AmountCents = reservation.TotalPriceCents

	if err := s.validate.Struct(payment); err != nil {
		s.cfg.Log.Warn("Payment validation failed", "error", err)
		return apperrors.Validation("Payment validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		if errors.Is(err, paymenterrors.ErrDuplicatePayment) {
			return apperrors.Conflict("A payment already exists for this reservation")
		}
		return apperrors.Internal("Failed to create payment", err)
	}

	s.cfg.Log.Info("Payment created",
		"id", payment.ID,
		"reservation_id", payment.ReservationID,
		"amount_cents", payment.AmountCents,
		"external_ref", payment.ExternalRef,
	)
	return nil
}

func (s *paymentService) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Payment ID cannot be empty")
	}

	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, paymenterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Payment", id)
		}
		if errors.Is(err, paymenterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid payment ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve payment", err)
	}
	return payment, nil
}

func (s *paymentService) GetByReservation(ctx context.Context, reservationID string) (*model.Payment, error) {
	if reservationID == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	payment, err := s.repo.FindByReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, paymenterrors.ErrNotFound) {
			return nil, apperrors.NotFound("Payment")
		}
		return nil, apperrors.Internal("Failed to retrieve payment", err)
	}
	return payment, nil
}

// OnPaymentEvent reconciles a gateway outcome against the payment record
// and the reservation lifecycle.
//
// completed: the reported amount must equal the recorded one, then the
// payment moves to COMPLETED and the reservation is confirmed. failed:
// the payment moves to FAILED and the reservation stays PENDING, awaiting
// a retry or cancellation. refunded: legal only for a COMPLETED payment
// on a CONFIRMED or COMPLETED reservation; the reservation is cancelled
// and its dates freed.
func (s *paymentService) OnPaymentEvent(ctx context.Context, event *PaymentEvent) error {
	if err := s.validate.Struct(event); err != nil {
		return apperrors.Validation("Payment event validation failed", map[string]any{"error": err.Error()})
	}

	payment, err := s.GetByReservation(ctx, event.ReservationID)
	if err != nil {
		return err
	}

	switch event.Status {
	case model.PaymentCompleted:
		return s.applyCompleted(ctx, payment, event)
	case model.PaymentFailed:
		return s.applyFailed(ctx, payment)
	case model.PaymentRefunded:
		return s.applyRefunded(ctx, payment)
	default:
		return apperrors.InvalidPaymentTransition(string(payment.Status), string(event.Status))
	}
}

func (s *paymentService) applyCompleted(ctx context.Context, payment *model.Payment, event *PaymentEvent) error {
	if !payment.Status.CanTransition(model.PaymentCompleted) {
		return apperrors.InvalidPaymentTransition(string(payment.Status), string(model.PaymentCompleted))
	}
	if event.AmountCents != payment.AmountCents {
		s.cfg.Log.Warn("Payment amount mismatch",
			"payment_id", payment.ID,
			"expected_cents", payment.AmountCents,
			"got_cents", event.AmountCents,
		)
		return apperrors.AmountMismatch(payment.AmountCents, event.AmountCents)
	}

	if err := s.transition(ctx, payment, model.PaymentCompleted, nil); err != nil {
		return err
	}

	if err := s.reservations.Confirm(ctx, payment.ReservationID); err != nil {
		// The payment is COMPLETED but the reservation refused to move;
		// this needs an operator, so it must not be swallowed.
		s.cfg.Log.Error("Payment completed but reservation confirmation failed",
			"payment_id", payment.ID,
			"reservation_id", payment.ReservationID,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Payment completed", "id", payment.ID, "reservation_id", payment.ReservationID)
	return nil
}

func (s *paymentService) applyFailed(ctx context.Context, payment *model.Payment) error {
	if !payment.Status.CanTransition(model.PaymentFailed) {
		return apperrors.InvalidPaymentTransition(string(payment.Status), string(model.PaymentFailed))
	}

	if err := s.transition(ctx, payment, model.PaymentFailed, nil); err != nil {
		return err
	}

	// The reservation stays PENDING; the guest may retry the charge.
	s.cfg.Log.Info("Payment failed", "id", payment.ID, "reservation_id", payment.ReservationID)
	s.notifier.Notify(events.EventPaymentFailed, payment.ReservationID, payment)
	return nil
}

func (s *paymentService) applyRefunded(ctx context.Context, payment *model.Payment) error {
	if !payment.Status.CanTransition(model.PaymentRefunded) {
		return apperrors.InvalidPaymentTransition(string(payment.Status), string(model.PaymentRefunded))
	}

	reservation, err := s.reservations.GetByID(ctx, payment.ReservationID)
	if err != nil {
		return err
	}
	if reservation.Status != model.ReservationConfirmed && reservation.Status != model.ReservationCompleted {
		return apperrors.InvalidPaymentTransition(string(payment.Status), string(model.PaymentRefunded))
	}

	if err := s.transition(ctx, payment, model.PaymentRefunded, nil); err != nil {
		return err
	}

	if reservation.Status == model.ReservationConfirmed {
		if err := s.reservations.CancelForRefund(ctx, payment.ReservationID, "refunded"); err != nil {
			s.cfg.Log.Error("Payment refunded but reservation cancellation failed",
				"payment_id", payment.ID,
				"reservation_id", payment.ReservationID,
				"error", err,
			)
			return err
		}
	}

	s.cfg.Log.Info("Payment refunded", "id", payment.ID, "reservation_id", payment.ReservationID)
	s.notifier.Notify(events.EventPaymentRefunded, payment.ReservationID, payment)
	return nil
}

func (s *paymentService) transition(ctx context.Context, payment *model.Payment, to model.PaymentStatus, set bson.M) error {
	err := s.repo.TransitionStatus(ctx, payment.ID, []model.PaymentStatus{payment.Status}, to, set)
	if err != nil {
		if errors.Is(err, paymenterrors.ErrStatusGuard) {
			// A concurrent callback moved the payment first.
			current, readErr := s.GetByID(ctx, payment.ID)
			if readErr != nil {
				return readErr
			}
			return apperrors.InvalidPaymentTransition(string(current.Status), string(to))
		}
		return apperrors.Internal("Failed to update payment status", err)
	}
	payment.Status = to
	return nil
}
