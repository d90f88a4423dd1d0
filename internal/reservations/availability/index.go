package availability

import (
	"context"
	"fmt"
	"time"

	"lodgebook/internal/reservations/repository"
	"lodgebook/pkg/config"
	mongotx "lodgebook/pkg/db/mongo"
	apperrors "lodgebook/pkg/errors"
	"lodgebook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// Index answers overlap queries and owns the per-lodging check-and-reserve
// critical section. Reserve is atomic per lodging: an advisory lock keyed
// by lodging id serializes concurrent attempts, and the overlap check plus
// range insert run in one transaction. Distinct lodgings never contend.
type Index interface {
	IsAvailable(ctx context.Context, lodgingID string, stay model.DateRange) (bool, []string, error)
	Reserve(ctx context.Context, lodgingID, reservationID string, stay model.DateRange) error
	Release(ctx context.Context, reservationID string) error

	// Acquire and CheckAndRegister expose the two halves of Reserve so a
	// caller can put extra writes (the reservation document) inside the
	// same critical section and transaction.
	Acquire(ctx context.Context, lodgingID string) (release func(), err error)
	CheckAndRegister(ctx context.Context, lodgingID, reservationID string, stay model.DateRange) error
}

type index struct {
	ranges  RangeStore
	locks   repository.ReservationLockRepository
	tx      mongotx.TransactionManager
	cfg     *config.Config
	lockTTL time.Duration
}

func NewIndex(ranges RangeStore, locks repository.ReservationLockRepository, tx mongotx.TransactionManager, cfg *config.Config) Index {
	return &index{
		ranges:  ranges,
		locks:   locks,
		tx:      tx,
		cfg:     cfg,
		lockTTL: cfg.ReserveLockTTL,
	}
}

func (ix *index) IsAvailable(ctx context.Context, lodgingID string, stay model.DateRange) (bool, []string, error) {
	overlapping, err := ix.ranges.FindOverlapping(ctx, lodgingID, stay)
	if err != nil {
		return false, nil, apperrors.Internal("Failed to check availability", err)
	}
	if len(overlapping) == 0 {
		return true, nil, nil
	}

	ids := make([]string, 0, len(overlapping))
	for _, rng := range overlapping {
		ids = append(ids, rng.ReservationID)
	}
	return false, ids, nil
}

// Acquire takes the lodging's advisory lock. A duplicate key error means
// another booking attempt holds it; the caller should report a conflict
// and let the client retry.
func (ix *index) Acquire(ctx context.Context, lodgingID string) (func(), error) {
	lockID := fmt.Sprintf("lodging_lock_%s", lodgingID)

	lock := &model.ReservationLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(ix.lockTTL),
	}

	if _, err := ix.locks.Create(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperrors.Conflict("This lodging is currently being booked by another request. Please try again.")
		}
		return nil, apperrors.Internal("Failed to acquire booking lock", err)
	}

	release := func() {
		// Release with a fresh context; the request context may be done.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ix.locks.Delete(releaseCtx, lockID); err != nil {
			ix.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", err)
		}
	}
	return release, nil
}

// CheckAndRegister verifies no held range overlaps the stay and records
// the new one. The caller must hold the lodging lock; ctx may be a session
// context so the insert joins the caller's transaction.
func (ix *index) CheckAndRegister(ctx context.Context, lodgingID, reservationID string, stay model.DateRange) error {
	overlapping, err := ix.ranges.FindOverlapping(ctx, lodgingID, stay)
	if err != nil {
		return apperrors.Internal("Failed to check existing reservations", err)
	}

	if len(overlapping) > 0 {
		ids := make([]string, 0, len(overlapping))
		for _, rng := range overlapping {
			ids = append(ids, rng.ReservationID)
		}
		return apperrors.BookingConflict(
			fmt.Sprintf("Requested range %s overlaps an existing reservation", stay), ids)
	}

	return ix.ranges.Insert(ctx, Range{
		ReservationID: reservationID,
		LodgingID:     lodgingID,
		CheckIn:       model.Date(stay.CheckIn),
		CheckOut:      model.Date(stay.CheckOut),
	})
}

// Reserve is the standalone check-and-commit: lock, transact, check,
// register. On conflict nothing is written.
func (ix *index) Reserve(ctx context.Context, lodgingID, reservationID string, stay model.DateRange) error {
	release, err := ix.Acquire(ctx, lodgingID)
	if err != nil {
		return err
	}
	defer release()

	return ix.tx.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		return ix.CheckAndRegister(sessCtx, lodgingID, reservationID, stay)
	})
}

// Release frees a held range. Idempotent; ctx may be a session context so
// the delete joins the caller's transaction.
func (ix *index) Release(ctx context.Context, reservationID string) error {
	if err := ix.ranges.Delete(ctx, reservationID); err != nil {
		return apperrors.Internal("Failed to release availability range", err)
	}
	return nil
}
