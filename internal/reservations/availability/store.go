package availability

import (
	"context"
	"fmt"
	"time"

	"lodgebook/pkg/config"
	"lodgebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Availability_ranges"

// Range is one held date range: the claim a non-cancelled reservation has
// on its lodging. Document id doubles as the reservation id, so release by
// reservation id is a single delete.
type Range struct {
	ReservationID string    `bson:"_id" json:"reservation_id"`
	LodgingID     string    `bson:"lodging_id" json:"lodging_id"`
	CheckIn       time.Time `bson:"check_in" json:"check_in"`
	CheckOut      time.Time `bson:"check_out" json:"check_out"`
}

// RangeStore persists held ranges. Split from the Index so tests can swap
// in an in-memory implementation.
type RangeStore interface {
	FindOverlapping(ctx context.Context, lodgingID string, stay model.DateRange) ([]Range, error)
	Insert(ctx context.Context, rng Range) error
	Delete(ctx context.Context, reservationID string) error
}

type mongoRangeStore struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRangeStore(cfg *config.Config) RangeStore {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRangeStore{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// FindOverlapping applies the half-open overlap rule in the query itself:
// a held range conflicts iff it starts before the requested check-out and
// ends after the requested check-in.
func (s *mongoRangeStore) FindOverlapping(ctx context.Context, lodgingID string, stay model.DateRange) ([]Range, error) {
	filter := bson.M{
		"lodging_id": lodgingID,
		"check_in":   bson.M{"$lt": stay.CheckOut},
		"check_out":  bson.M{"$gt": stay.CheckIn},
	}

	opts := options.Find().SetSort(bson.D{{Key: "check_in", Value: 1}})
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query held ranges: %w", err)
	}
	defer cursor.Close(ctx)

	var ranges []Range
	if err = cursor.All(ctx, &ranges); err != nil {
		return nil, fmt.Errorf("failed to decode held ranges: %w", err)
	}
	return ranges, nil
}

func (s *mongoRangeStore) Insert(ctx context.Context, rng Range) error {
	if _, err := s.collection.InsertOne(ctx, rng); err != nil {
		return fmt.Errorf("failed to register range: %w", err)
	}
	return nil
}

// Delete is idempotent: removing an unknown or already-released id is a
// no-op.
func (s *mongoRangeStore) Delete(ctx context.Context, reservationID string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": reservationID}); err != nil {
		return fmt.Errorf("failed to release range: %w", err)
	}
	return nil
}
