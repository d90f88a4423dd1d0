package pricing

import (
	"fmt"
	"math"

	apperrors "lodgebook/pkg/errors"
	"lodgebook/pkg/model"
)

// Price computes the total owed for a stay in integer cents. Base is the
// nightly rate times the night count; an optional promotion is applied on
// top, never pushing the result below zero.
func Price(nightlyRateCents int64, stay model.DateRange, promo *model.Promotion) (int64, error) {
	nights := stay.Nights()
	if nights < 1 {
		return 0, apperrors.Validation(
			fmt.Sprintf("stay %s must cover at least one night", stay), nil)
	}
	if nightlyRateCents <= 0 {
		return 0, apperrors.Validation("nightly rate must be positive", nil)
	}

	base := nightlyRateCents * int64(nights)
	if promo == nil {
		return base, nil
	}

	discount, err := Discount(base, promo)
	if err != nil {
		return 0, err
	}
	if discount >= base {
		return 0, nil
	}
	return base - discount, nil
}

// Discount returns the cents a promotion takes off the given base amount,
// rounded half-up to the smallest currency unit.
func Discount(baseCents int64, promo *model.Promotion) (int64, error) {
	switch promo.DiscountKind {
	case model.DiscountPercentage:
		if promo.DiscountValue <= 0 || promo.DiscountValue > 100 {
			return 0, apperrors.Validation(
				fmt.Sprintf("percentage discount must be in (0, 100], got %v", promo.DiscountValue), nil)
		}
		return roundHalfUp(float64(baseCents) * promo.DiscountValue / 100), nil

	case model.DiscountFixedAmount:
		if promo.DiscountValue <= 0 {
			return 0, apperrors.Validation(
				fmt.Sprintf("fixed discount must be positive, got %v", promo.DiscountValue), nil)
		}
		// DiscountValue is in major currency units.
		return roundHalfUp(promo.DiscountValue * 100), nil

	default:
		return 0, apperrors.Validation(
			fmt.Sprintf("unknown discount kind %q", promo.DiscountKind), nil)
	}
}

// roundHalfUp rounds to the nearest cent with .5 going away from zero.
func roundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}
