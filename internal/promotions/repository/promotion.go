package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	promotionerrors "lodgebook/internal/promotions/errors"
	"lodgebook/pkg/config"
	"lodgebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Promotions"

type PromotionRepository interface {
	Create(ctx context.Context, promotion *model.Promotion) error
	FindByID(ctx context.Context, id string) (*model.Promotion, error)
	FindByLodging(ctx context.Context, lodgingID string, limit int, offset int64) ([]*model.Promotion, error)
	FindActiveCovering(ctx context.Context, lodgingID string, day time.Time) ([]*model.Promotion, error)
	Update(ctx context.Context, id string, updates bson.M) error
}

type mongoPromotionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPromotionRepository(cfg *config.Config) PromotionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPromotionRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoPromotionRepository) Create(ctx context.Context, promotion *model.Promotion) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	promotion.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, promotion)
	if err != nil {
		return fmt.Errorf("failed to create promotion: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		promotion.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPromotionRepository) FindByID(ctx context.Context, id string) (*model.Promotion, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", promotionerrors.ErrInvalidID, id)
	}

	var promotion model.Promotion
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&promotion)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, promotionerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find promotion: %w", err)
	}
	return &promotion, nil
}

func (r *mongoPromotionRepository) FindByLodging(ctx context.Context, lodgingID string, limit int, offset int64) ([]*model.Promotion, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_date", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	return r.findWithFilter(ctx, bson.M{"lodging_id": lodgingID}, opts)
}

// FindActiveCovering returns the active promotions for a lodging whose
// validity window covers the given date. Both bounds inclusive.
func (r *mongoPromotionRepository) FindActiveCovering(ctx context.Context, lodgingID string, day time.Time) ([]*model.Promotion, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	d := model.Date(day)
	filter := bson.M{
		"lodging_id": lodgingID,
		"active":     true,
		"start_date": bson.M{"$lte": d},
		"end_date":   bson.M{"$gte": d},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})

	return r.findWithFilter(ctx, filter, opts)
}

func (r *mongoPromotionRepository) Update(ctx context.Context, id string, updates bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", promotionerrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update promotion: %w", err)
	}
	if result.MatchedCount == 0 {
		return promotionerrors.ErrNotFound
	}
	return nil
}

func (r *mongoPromotionRepository) findWithFilter(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Promotion, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find promotions: %w", err)
	}
	defer cursor.Close(ctx)

	var promotions []*model.Promotion
	if err = cursor.All(ctx, &promotions); err != nil {
		return nil, fmt.Errorf("failed to decode promotions: %w", err)
	}
	return promotions, nil
}
