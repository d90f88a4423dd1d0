package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	lodgingerrors "lodgebook/internal/lodgings/errors"
	"lodgebook/pkg/config"
	"lodgebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Lodgings"

type LodgingRepository interface {
	Create(ctx context.Context, lodging *model.Lodging) error
	FindByID(ctx context.Context, id string) (*model.Lodging, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Lodging, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id string, updates bson.M) error
}

type mongoLodgingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLodgingRepository(cfg *config.Config) LodgingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLodgingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoLodgingRepository) Create(ctx context.Context, lodging *model.Lodging) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	lodging.CreatedAt = now
	lodging.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, lodging)
	if err != nil {
		return fmt.Errorf("failed to create lodging: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		lodging.ID = oid.Hex()
	}
	return nil
}

func (r *mongoLodgingRepository) FindByID(ctx context.Context, id string) (*model.Lodging, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", lodgingerrors.ErrInvalidID, id)
	}

	var lodging model.Lodging
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&lodging)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, lodgingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find lodging: %w", err)
	}
	return &lodging, nil
}

func (r *mongoLodgingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Lodging, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find lodgings: %w", err)
	}
	defer cursor.Close(ctx)

	var lodgings []*model.Lodging
	if err = cursor.All(ctx, &lodgings); err != nil {
		return nil, fmt.Errorf("failed to decode lodgings: %w", err)
	}
	return lodgings, nil
}

func (r *mongoLodgingRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count lodgings: %w", err)
	}
	return count, nil
}

func (r *mongoLodgingRepository) Update(ctx context.Context, id string, updates bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", lodgingerrors.ErrInvalidID, id)
	}

	updates["updated_at"] = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update lodging: %w", err)
	}
	if result.MatchedCount == 0 {
		return lodgingerrors.ErrNotFound
	}
	return nil
}
