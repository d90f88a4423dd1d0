package service

import (
	"context"
	"errors"

	"lodgebook/internal/pricing"
	promotionerrors "lodgebook/internal/promotions/errors"
	"lodgebook/internal/promotions/repository"
	"lodgebook/pkg/config"
	apperrors "lodgebook/pkg/errors"
	"lodgebook/pkg/model"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
)

type PromotionService interface {
	Create(ctx context.Context, promotion *model.Promotion) error
	GetByID(ctx context.Context, id string) (*model.Promotion, error)
	ListByLodging(ctx context.Context, lodgingID string, limit int, offset int64) ([]*model.Promotion, error)
	Update(ctx context.Context, id string, updates *model.PromotionUpdate) error
	Deactivate(ctx context.Context, id string) error
	Resolve(ctx context.Context, lodgingID string, stay model.DateRange, nightlyRateCents int64, code string) (*model.Promotion, error)
}

type promotionService struct {
	repo     repository.PromotionRepository
	validate *validator.Validate
	cfg      *config.Config
}

func NewPromotionService(repo repository.PromotionRepository, cfg *config.Config) PromotionService {
	return &promotionService{
		repo:     repo,
		validate: validator.New(),
		cfg:      cfg,
	}
}

func (s *promotionService) Create(ctx context.Context, promotion *model.Promotion) error {
	promotion.ID = ""
	promotion.Active = true

	if err := s.validate.Struct(promotion); err != nil {
		s.cfg.Log.Warn("Promotion validation failed", "error", err)
		return apperrors.Validation("Promotion validation failed", map[string]any{"error": err.Error()})
	}
	if model.Date(promotion.EndDate).Before(model.Date(promotion.StartDate)) {
		return apperrors.Validation("Promotion end date must not precede start date", nil)
	}

	if err := s.repo.Create(ctx, promotion); err != nil {
		return apperrors.Internal("Failed to create promotion", err)
	}

	s.cfg.Log.Info("Promotion created",
		"id", promotion.ID,
		"lodging_id", promotion.LodgingID,
		"discount_kind", promotion.DiscountKind,
	)
	return nil
}

func (s *promotionService) GetByID(ctx context.Context, id string) (*model.Promotion, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Promotion ID cannot be empty")
	}

	promotion, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, promotionerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Promotion", id)
		}
		if errors.Is(err, promotionerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid promotion ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve promotion", err)
	}
	return promotion, nil
}

func (s *promotionService) ListByLodging(ctx context.Context, lodgingID string, limit int, offset int64) ([]*model.Promotion, error) {
	if lodgingID == "" {
		return nil, apperrors.InvalidInput("Lodging ID cannot be empty")
	}

	promotions, err := s.repo.FindByLodging(ctx, lodgingID, limit, offset)
	if err != nil {
		return nil, apperrors.Internal("Failed to list promotions", err)
	}
	return promotions, nil
}

func (s *promotionService) Update(ctx context.Context, id string, updates *model.PromotionUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Promotion ID cannot be empty")
	}
	if err := s.validate.Struct(updates); err != nil {
		return apperrors.Validation("Promotion update validation failed", map[string]any{"error": err.Error()})
	}

	set := bson.M{}
	if updates.Name != "" {
		set["name"] = updates.Name
	}
	if updates.Description != "" {
		set["description"] = updates.Description
	}
	if updates.DiscountValue != nil {
		set["discount_value"] = *updates.DiscountValue
	}
	if updates.Active != nil {
		set["active"] = *updates.Active
	}
	if len(set) == 0 {
		return apperrors.InvalidInput("No fields to update")
	}

	return s.applyUpdate(ctx, id, set)
}

func (s *promotionService) Deactivate(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Promotion ID cannot be empty")
	}
	return s.applyUpdate(ctx, id, bson.M{"active": false})
}

// Resolve picks the single promotion to apply to a stay. The validity
// window is anchored on the check-in date.
//
// With a code: the code must name an active, in-window promotion for this
// lodging, and unambiguously; anything else is an invalid-code error, never
// a silent fallback to full price with the guest believing a discount
// applied. Without a code: only codeless promotions compete, and the one
// granting the largest discount on this stay wins; ties break on earliest
// start date, then lowest ID. No candidates means no promotion, which is
// not an error.
func (s *promotionService) Resolve(ctx context.Context, lodgingID string, stay model.DateRange, nightlyRateCents int64, code string) (*model.Promotion, error) {
	candidates, err := s.repo.FindActiveCovering(ctx, lodgingID, stay.CheckIn)
	if err != nil {
		return nil, apperrors.Internal("Failed to load promotions", err)
	}

	if code != "" {
		var match *model.Promotion
		for _, p := range candidates {
			if p.Code != code {
				continue
			}
			if match != nil {
				s.cfg.Log.Warn("Ambiguous promotion code", "code", code, "lodging_id", lodgingID)
				return nil, apperrors.InvalidPromoCode(code)
			}
			match = p
		}
		if match == nil {
			return nil, apperrors.InvalidPromoCode(code)
		}
		return match, nil
	}

	baseCents := nightlyRateCents * int64(stay.Nights())

	var best *model.Promotion
	var bestDiscount int64
	for _, p := range candidates {
		if p.Code != "" {
			// Code-gated promotions never apply implicitly.
			continue
		}
		discount, err := pricing.Discount(baseCents, p)
		if err != nil {
			s.cfg.Log.Warn("Skipping promotion with invalid discount", "id", p.ID, "error", err)
			continue
		}
		if best == nil || discount > bestDiscount || (discount == bestDiscount && earlier(p, best)) {
			best = p
			bestDiscount = discount
		}
	}
	return best, nil
}

// earlier orders tied candidates: first by start date, then by ID.
func earlier(a, b *model.Promotion) bool {
	sa, sb := model.Date(a.StartDate), model.Date(b.StartDate)
	if !sa.Equal(sb) {
		return sa.Before(sb)
	}
	return a.ID < b.ID
}

func (s *promotionService) applyUpdate(ctx context.Context, id string, set bson.M) error {
	err := s.repo.Update(ctx, id, set)
	if err != nil {
		if errors.Is(err, promotionerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Promotion", id)
		}
		if errors.Is(err, promotionerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid promotion ID format")
		}
		return apperrors.Internal("Failed to update promotion", err)
	}
	return nil
}
