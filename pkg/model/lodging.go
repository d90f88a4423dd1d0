package model

import "time"

// Lodging is a bookable unit owned by a host. The engine reads the current
// rate, capacity and active flag at booking time; edits are made by the
// lodgings service and never rewrite prices on existing reservations.
type Lodging struct {
	ID               string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	HostID           string    `json:"host_id" bson:"host_id" validate:"required,mongodb"`
	Name             string    `json:"name" bson:"name" validate:"required,min=2,max=150"`
	Description      string    `json:"description" bson:"description" validate:"omitempty,max=2000"`
	Address          string    `json:"address" bson:"address" validate:"required,max=255"`
	City             string    `json:"city" bson:"city" validate:"required,max=100"`
	NightlyRateCents int64     `json:"nightly_rate_cents" bson:"nightly_rate_cents" validate:"required,min=1"`
	Capacity         int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=50"`
	Active           bool      `json:"active" bson:"active"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// LodgingUpdate carries host edits; nil/empty fields are left unchanged.
type LodgingUpdate struct {
	Name             string `json:"name,omitempty" validate:"omitempty,min=2,max=150"`
	Description      string `json:"description,omitempty" validate:"omitempty,max=2000"`
	NightlyRateCents *int64 `json:"nightly_rate_cents,omitempty" validate:"omitempty,min=1"`
	Capacity         *int   `json:"capacity,omitempty" validate:"omitempty,min=1,max=50"`
	Active           *bool  `json:"active,omitempty"`
}
