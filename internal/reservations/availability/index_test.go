package availability

import (
	"context"
	"sync"
	"testing"
	"time"

	"lodgebook/pkg/config"
	mongotx "lodgebook/pkg/db/mongo"
	apperrors "lodgebook/pkg/errors"
	"lodgebook/pkg/logger"
	"lodgebook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const lodgingID = "64a0000000000000000000aa"

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func stay(checkIn, checkOut string) model.DateRange {
	return model.NewDateRange(day(checkIn), day(checkOut))
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		ReserveLockTTL: 10 * time.Second,
	}
}

type memoryRangeStore struct {
	mu     sync.Mutex
	ranges map[string]Range
}

func newMemoryRangeStore() *memoryRangeStore {
	return &memoryRangeStore{ranges: make(map[string]Range)}
}

func (s *memoryRangeStore) FindOverlapping(ctx context.Context, lodging string, stay model.DateRange) ([]Range, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Range
	for _, rng := range s.ranges {
		if rng.LodgingID != lodging {
			continue
		}
		held := model.DateRange{CheckIn: rng.CheckIn, CheckOut: rng.CheckOut}
		if held.Overlaps(stay) {
			out = append(out, rng)
		}
	}
	return out, nil
}

func (s *memoryRangeStore) Insert(ctx context.Context, rng Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ranges[rng.ReservationID] = rng
	return nil
}

func (s *memoryRangeStore) Delete(ctx context.Context, reservationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ranges, reservationID)
	return nil
}

// memoryLockRepo reproduces the unique-index behavior of the lock
// collection: a second Create for the same id fails with a duplicate key
// error.
type memoryLockRepo struct {
	mu    sync.Mutex
	locks map[string]struct{}
}

func newMemoryLockRepo() *memoryLockRepo {
	return &memoryLockRepo{locks: make(map[string]struct{})}
}

func duplicateKeyError() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

func (r *memoryLockRepo) Create(ctx context.Context, lock *model.ReservationLock) (*model.ReservationLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, held := r.locks[lock.ID]; held {
		return nil, duplicateKeyError()
	}
	r.locks[lock.ID] = struct{}{}
	return lock, nil
}

func (r *memoryLockRepo) Delete(ctx context.Context, lockID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locks, lockID)
	return nil
}

// passthroughTx runs the function without a real Mongo session; the
// in-memory stores ignore the session context anyway.
type passthroughTx struct{}

func (passthroughTx) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func newTestIndex() (Index, *memoryRangeStore, *memoryLockRepo) {
	store := newMemoryRangeStore()
	locks := newMemoryLockRepo()
	ix := NewIndex(store, locks, passthroughTx{}, testConfig())
	return ix, store, locks
}

func TestReserveAndIsAvailable(t *testing.T) {
	ix, _, _ := newTestIndex()
	ctx := context.Background()

	if err := ix.Reserve(ctx, lodgingID, "res-1", stay("2024-07-10", "2024-07-15")); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	ok, ids, err := ix.IsAvailable(ctx, lodgingID, stay("2024-07-12", "2024-07-14"))
	if err != nil {
		t.Fatalf("IsAvailable() error = %v", err)
	}
	if ok {
		t.Error("IsAvailable() = true for an overlapping stay")
	}
	if len(ids) != 1 || ids[0] != "res-1" {
		t.Errorf("IsAvailable() conflicting ids = %v, want [res-1]", ids)
	}

	ok, _, err = ix.IsAvailable(ctx, lodgingID, stay("2024-07-15", "2024-07-20"))
	if err != nil {
		t.Fatalf("IsAvailable() error = %v", err)
	}
	if !ok {
		t.Error("IsAvailable() = false for a back-to-back stay")
	}
}

func TestReserveConflict(t *testing.T) {
	ix, store, _ := newTestIndex()
	ctx := context.Background()

	if err := ix.Reserve(ctx, lodgingID, "res-1", stay("2024-07-10", "2024-07-15")); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	err := ix.Reserve(ctx, lodgingID, "res-2", stay("2024-07-14", "2024-07-16"))
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("Reserve() error = %v, want conflict", err)
	}
	if _, held := store.ranges["res-2"]; held {
		t.Error("Reserve() registered a range despite the conflict")
	}
}

func TestReserveDistinctLodgingsDoNotContend(t *testing.T) {
	ix, _, _ := newTestIndex()
	ctx := context.Background()
	other := "64a0000000000000000000bb"

	if err := ix.Reserve(ctx, lodgingID, "res-1", stay("2024-07-10", "2024-07-15")); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if err := ix.Reserve(ctx, other, "res-2", stay("2024-07-10", "2024-07-15")); err != nil {
		t.Fatalf("Reserve() on another lodging error = %v", err)
	}
}

func TestAcquireContention(t *testing.T) {
	ix, _, locks := newTestIndex()
	ctx := context.Background()

	release, err := ix.Acquire(ctx, lodgingID)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if _, err := ix.Acquire(ctx, lodgingID); !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("second Acquire() error = %v, want conflict", err)
	}

	release()
	if len(locks.locks) != 0 {
		t.Error("release did not delete the lock document")
	}

	if release2, err := ix.Acquire(ctx, lodgingID); err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	} else {
		release2()
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	ix, _, _ := newTestIndex()
	ctx := context.Background()

	if err := ix.Reserve(ctx, lodgingID, "res-1", stay("2024-07-10", "2024-07-15")); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	if err := ix.Release(ctx, "res-1"); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := ix.Release(ctx, "res-1"); err != nil {
		t.Fatalf("second Release() error = %v", err)
	}
	if err := ix.Release(ctx, "never-existed"); err != nil {
		t.Fatalf("Release() of unknown id error = %v", err)
	}

	ok, _, err := ix.IsAvailable(ctx, lodgingID, stay("2024-07-10", "2024-07-15"))
	if err != nil {
		t.Fatalf("IsAvailable() error = %v", err)
	}
	if !ok {
		t.Error("IsAvailable() = false after release")
	}
}
