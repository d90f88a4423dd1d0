package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lodgebook/internal/pricing"
	"lodgebook/internal/reservations/availability"
	reservationerrors "lodgebook/internal/reservations/errors"
	"lodgebook/internal/reservations/repository"
	"lodgebook/internal/reservations/validator"
	"lodgebook/pkg/config"
	apperrors "lodgebook/pkg/errors"
	"lodgebook/pkg/events"
	"lodgebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// LodgingSource is the lodging collaborator: current rate, capacity and
// active flag, read at booking time.
type LodgingSource interface {
	GetByID(ctx context.Context, id string) (*model.Lodging, error)
}

// PromotionResolver picks the single promotion applicable to a stay.
type PromotionResolver interface {
	Resolve(ctx context.Context, lodgingID string, stay model.DateRange, nightlyRateCents int64, code string) (*model.Promotion, error)
}

// ReservationService owns the reservation lifecycle. It is the only
// component that moves a reservation's status.
type ReservationService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.Reservation, error)
	Confirm(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string, reason string) error
	CancelForRefund(ctx context.Context, id string, reason string) error
	Complete(ctx context.Context, id string) error
	CompleteElapsed(ctx context.Context, asOf time.Time) (int, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error)
	ListByGuest(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Reservation, error)
	ListByLodging(ctx context.Context, lodgingID string, limit int, offset int64) ([]*model.Reservation, error)
}

type reservationService struct {
	repo       repository.ReservationRepository
	index      availability.Index
	lodgings   LodgingSource
	promotions PromotionResolver
	validator  *validator.BookingValidator
	notifier   *events.Notifier
	cfg        *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	index availability.Index,
	lodgings LodgingSource,
	promotions PromotionResolver,
	bookingValidator *validator.BookingValidator,
	notifier *events.Notifier,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:       repo,
		index:      index,
		lodgings:   lodgings,
		promotions: promotions,
		validator:  bookingValidator,
		notifier:   notifier,
		cfg:        cfg,
	}
}

// Create admits a booking request: capacity and range validation, atomic
// check-and-reserve against the availability index, promotion resolution,
// pricing, and persistence of the PENDING reservation. The reservation
// document and its availability range commit in one transaction under the
// lodging's lock, so failure leaves no trace.
func (s *reservationService) Create(ctx context.Context, req *model.BookingRequest) (*model.Reservation, error) {
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	lodging, err := s.lodgings.GetByID(ctx, req.LodgingID)
	if err != nil {
		return nil, err
	}
	if !lodging.Active {
		return nil, apperrors.Validation("Lodging is not accepting reservations", map[string]any{
			"lodging_id": lodging.ID,
		})
	}
	if req.Guests > lodging.Capacity {
		return nil, apperrors.Validation(
			fmt.Sprintf("Guest count (%d) exceeds lodging capacity (%d)", req.Guests, lodging.Capacity), nil)
	}

	stay := req.Range()

	promo, err := s.promotions.Resolve(ctx, req.LodgingID, stay, lodging.NightlyRateCents, req.PromoCode)
	if err != nil {
		return nil, err
	}

	total, err := pricing.Price(lodging.NightlyRateCents, stay, promo)
	if err != nil {
		return nil, err
	}

	reservation := &model.Reservation{
		LodgingID:       req.LodgingID,
		GuestID:         req.GuestID,
		CheckIn:         stay.CheckIn,
		CheckOut:        stay.CheckOut,
		Guests:          req.Guests,
		TotalPriceCents: total,
		Status:          model.ReservationPending,
	}
	if promo != nil {
		reservation.PromotionID = promo.ID
	}

	release, err := s.index.Acquire(ctx, req.LodgingID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Create(sessCtx, reservation); err != nil {
			return apperrors.Internal("Failed to create reservation", err)
		}
		return s.index.CheckAndRegister(sessCtx, req.LodgingID, reservation.ID, stay)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create reservation",
			"lodging_id", req.LodgingID,
			"range", stay.String(),
			"error", err,
		)
		return nil, err
	}

	s.cfg.Log.Info("Reservation created",
		"id", reservation.ID,
		"lodging_id", reservation.LodgingID,
		"range", stay.String(),
		"total_price_cents", reservation.TotalPriceCents,
	)
	s.notifier.Notify(events.EventReservationCreated, reservation.ID, reservation)
	return reservation, nil
}

// Confirm moves PENDING to CONFIRMED. Driven by the payment reconciler on
// a completed payment, never by guests directly.
func (s *reservationService) Confirm(ctx context.Context, id string) error {
	reservation, err := s.transition(ctx, id, model.ReservationConfirmed, nil)
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Reservation confirmed", "id", id)
	s.notifier.Notify(events.EventReservationConfirmed, id, reservation)
	return nil
}

// Cancel is the guest-facing cancellation: legal from PENDING or
// CONFIRMED, stamps the reason, and releases the held range. The optional
// notice-window policy applies here only.
func (s *reservationService) Cancel(ctx context.Context, id string, reason string) error {
	if s.cfg.CancellationNoticeHours > 0 {
		existing, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		notice := time.Duration(s.cfg.CancellationNoticeHours) * time.Hour
		if time.Until(existing.CheckIn) < notice {
			return apperrors.Validation(
				fmt.Sprintf("Reservations must be cancelled at least %d hours before check-in", s.cfg.CancellationNoticeHours), nil)
		}
	}
	return s.cancel(ctx, id, reason)
}

// CancelForRefund cancels on behalf of the payment reconciler after a
// refund; the notice-window policy never blocks it.
func (s *reservationService) CancelForRefund(ctx context.Context, id string, reason string) error {
	return s.cancel(ctx, id, reason)
}

func (s *reservationService) cancel(ctx context.Context, id string, reason string) error {
	now := time.Now().UTC().Truncate(time.Millisecond)

	// The guarded status move and the range delete commit together: a
	// failed release aborts the cancellation, so the caller can retry
	// instead of leaving the dates held by a CANCELLED reservation.
	var reservation *model.Reservation
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var err error
		reservation, err = s.transition(sessCtx, id, model.ReservationCancelled, bson.M{
			"cancelled_at":  now,
			"cancel_reason": reason,
		})
		if err != nil {
			return err
		}
		return s.index.Release(sessCtx, id)
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Reservation cancelled", "id", id, "reason", reason)
	s.notifier.Notify(events.EventReservationCancelled, id, reservation)
	return nil
}

// Complete closes out a CONFIRMED stay. The availability range stays
// recorded; a past range cannot conflict with future bookings.
func (s *reservationService) Complete(ctx context.Context, id string) error {
	reservation, err := s.transition(ctx, id, model.ReservationCompleted, nil)
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Reservation completed", "id", id)
	s.notifier.Notify(events.EventReservationCompleted, id, reservation)
	return nil
}

// CompleteElapsed sweeps CONFIRMED reservations whose check-out has passed
// and completes them. Returns how many were moved.
func (s *reservationService) CompleteElapsed(ctx context.Context, asOf time.Time) (int, error) {
	const batchSize = 100

	elapsed, err := s.repo.FindConfirmedEndedBefore(ctx, asOf, batchSize)
	if err != nil {
		return 0, apperrors.Internal("Failed to list elapsed reservations", err)
	}

	completed := 0
	for _, reservation := range elapsed {
		if err := s.Complete(ctx, reservation.ID); err != nil {
			// A concurrent cancel may have won; skip and keep sweeping.
			s.cfg.Log.Warn("Skipping elapsed reservation", "id", reservation.ID, "error", err)
			continue
		}
		completed++
	}

	if completed > 0 {
		s.cfg.Log.Info("Elapsed reservations completed", "count", completed)
	}
	return completed, nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}
	return reservation, nil
}

func (s *reservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return reservations, count, nil
}

func (s *reservationService) ListByGuest(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Reservation, error) {
	if guestID == "" {
		return nil, apperrors.InvalidInput("Guest ID cannot be empty")
	}

	reservations, err := s.repo.FindByGuest(ctx, guestID, limit, offset)
	if err != nil {
		return nil, apperrors.Internal("Failed to list guest reservations", err)
	}
	return reservations, nil
}

func (s *reservationService) ListByLodging(ctx context.Context, lodgingID string, limit int, offset int64) ([]*model.Reservation, error) {
	if lodgingID == "" {
		return nil, apperrors.InvalidInput("Lodging ID cannot be empty")
	}

	reservations, err := s.repo.FindByLodging(ctx, lodgingID, limit, offset)
	if err != nil {
		return nil, apperrors.Internal("Failed to list lodging reservations", err)
	}
	return reservations, nil
}

// transition applies the status table through a guarded conditional
// update. Exactly one of two concurrent movers can match the guard, so a
// loser re-reads the document and reports the transition it actually
// raced against.
func (s *reservationService) transition(ctx context.Context, id string, to model.ReservationStatus, set bson.M) (*model.Reservation, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.Status.CanTransition(to) {
		return nil, apperrors.InvalidTransition(string(existing.Status), string(to))
	}

	err = s.repo.TransitionStatus(ctx, id, model.SourceStatuses(to), to, set)
	if err != nil {
		if errors.Is(err, reservationerrors.ErrStatusGuard) {
			// Lost a race: re-read to report the real current status.
			current, readErr := s.GetByID(ctx, id)
			if readErr != nil {
				return nil, readErr
			}
			return nil, apperrors.InvalidTransition(string(current.Status), string(to))
		}
		if errors.Is(err, reservationerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to update reservation status", err)
	}

	existing.Status = to
	return existing, nil
}
