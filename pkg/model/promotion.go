package model

import "time"

type DiscountKind string

const (
	DiscountPercentage  DiscountKind = "percentage"
	DiscountFixedAmount DiscountKind = "fixed_amount"
)

func (k DiscountKind) Valid() bool {
	return k == DiscountPercentage || k == DiscountFixedAmount
}

// Promotion is a discount rule scoped to one lodging and a validity window.
// DiscountValue is a percent in (0, 100] for percentage promotions and a
// currency amount (major units, two decimals) for fixed-amount ones.
type Promotion struct {
	ID            string       `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	LodgingID     string       `json:"lodging_id" bson:"lodging_id" validate:"required,mongodb"`
	Name          string       `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Description   string       `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=255"`
	DiscountKind  DiscountKind `json:"discount_kind" bson:"discount_kind" validate:"required,oneof=percentage fixed_amount"`
	DiscountValue float64      `json:"discount_value" bson:"discount_value" validate:"required,gt=0"`
	StartDate     time.Time    `json:"start_date" bson:"start_date" validate:"required"`
	EndDate       time.Time    `json:"end_date" bson:"end_date" validate:"required"`
	Code          string       `json:"code,omitempty" bson:"code,omitempty" validate:"omitempty,min=3,max=20,alphanum"`
	Active        bool         `json:"active" bson:"active"`
	CreatedAt     time.Time    `json:"created_at" bson:"created_at"`
}

// InWindow reports whether the promotion validity covers the given date.
// Both bounds are inclusive.
func (p *Promotion) InWindow(day time.Time) bool {
	d := Date(day)
	return !d.Before(Date(p.StartDate)) && !d.After(Date(p.EndDate))
}

// PromotionUpdate carries partial edits to an existing promotion.
type PromotionUpdate struct {
	Name          string   `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description   string   `json:"description,omitempty" validate:"omitempty,max=255"`
	DiscountValue *float64 `json:"discount_value,omitempty" validate:"omitempty,gt=0"`
	Active        *bool    `json:"active,omitempty"`
}
