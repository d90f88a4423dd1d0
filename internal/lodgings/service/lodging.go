package service

import (
	"context"
	"errors"
	"sync"

	lodgingerrors "lodgebook/internal/lodgings/errors"
	"lodgebook/internal/lodgings/repository"
	"lodgebook/pkg/config"
	apperrors "lodgebook/pkg/errors"
	"lodgebook/pkg/model"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
)

type LodgingService interface {
	Create(ctx context.Context, lodging *model.Lodging) error
	GetByID(ctx context.Context, id string) (*model.Lodging, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Lodging, int64, error)
	Update(ctx context.Context, id string, updates *model.LodgingUpdate) error
	Deactivate(ctx context.Context, id string) error
}

type lodgingService struct {
	repo     repository.LodgingRepository
	validate *validator.Validate
	cfg      *config.Config
}

func NewLodgingService(repo repository.LodgingRepository, cfg *config.Config) LodgingService {
	return &lodgingService{
		repo:     repo,
		validate: validator.New(),
		cfg:      cfg,
	}
}

func (s *lodgingService) Create(ctx context.Context, lodging *model.Lodging) error {
	lodging.ID = ""
	lodging.Active = true

	if err := s.validate.Struct(lodging); err != nil {
		s.cfg.Log.Warn("Lodging validation failed", "error", err)
		return apperrors.Validation("Lodging validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, lodging); err != nil {
		return apperrors.Internal("Failed to create lodging", err)
	}

	s.cfg.Log.Info("Lodging created", "id", lodging.ID, "host_id", lodging.HostID)
	return nil
}

func (s *lodgingService) GetByID(ctx context.Context, id string) (*model.Lodging, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Lodging ID cannot be empty")
	}

	lodging, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, lodgingerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Lodging", id)
		}
		if errors.Is(err, lodgingerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid lodging ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve lodging", err)
	}
	return lodging, nil
}

func (s *lodgingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Lodging, int64, error) {
	var count int64
	var lodgings []*model.Lodging
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			errCount = apperrors.Internal("Failed to count lodgings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		lodgings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			errFind = apperrors.Internal("Failed to retrieve lodgings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return lodgings, count, nil
}

func (s *lodgingService) Update(ctx context.Context, id string, updates *model.LodgingUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Lodging ID cannot be empty")
	}
	if err := s.validate.Struct(updates); err != nil {
		return apperrors.Validation("Lodging update validation failed", map[string]any{"error": err.Error()})
	}

	set := bson.M{}
	if updates.Name != "" {
		set["name"] = updates.Name
	}
	if updates.Description != "" {
		set["description"] = updates.Description
	}
	if updates.NightlyRateCents != nil {
		set["nightly_rate_cents"] = *updates.NightlyRateCents
	}
	if updates.Capacity != nil {
		set["capacity"] = *updates.Capacity
	}
	if updates.Active != nil {
		set["active"] = *updates.Active
	}
	if len(set) == 0 {
		return apperrors.InvalidInput("No fields to update")
	}

	return s.applyUpdate(ctx, id, set)
}

// Deactivate takes the lodging off the market. Existing reservations are
// untouched; only new bookings are refused.
func (s *lodgingService) Deactivate(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Lodging ID cannot be empty")
	}

	if err := s.applyUpdate(ctx, id, bson.M{"active": false}); err != nil {
		return err
	}

	s.cfg.Log.Info("Lodging deactivated", "id", id)
	return nil
}

func (s *lodgingService) applyUpdate(ctx context.Context, id string, set bson.M) error {
	err := s.repo.Update(ctx, id, set)
	if err != nil {
		if errors.Is(err, lodgingerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Lodging", id)
		}
		if errors.Is(err, lodgingerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid lodging ID format")
		}
		return apperrors.Internal("Failed to update lodging", err)
	}
	return nil
}
