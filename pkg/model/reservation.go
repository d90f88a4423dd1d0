package model

import (
	"time"
)

// ReservationStatus is a closed enumeration; transitions happen only
// through the table below, never by writing caller-supplied strings.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationCancelled},
	ReservationConfirmed: {ReservationCancelled, ReservationCompleted},
	// cancelled and completed are terminal
}

// CanTransition reports whether the status table allows from -> to.
func (s ReservationStatus) CanTransition(to ReservationStatus) bool {
	for _, next := range reservationTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves the status.
func (s ReservationStatus) Terminal() bool {
	return len(reservationTransitions[s]) == 0
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationCompleted:
		return true
	}
	return false
}

// SourceStatuses returns every status the table allows to move into to.
func SourceStatuses(to ReservationStatus) []ReservationStatus {
	var from []ReservationStatus
	for s, nexts := range reservationTransitions {
		for _, next := range nexts {
			if next == to {
				from = append(from, s)
			}
		}
	}
	return from
}

// Reservation is a guest's claim on a lodging for a date range. Records are
// never deleted; cancellation only moves the status and stamps the reason,
// so the history stays auditable.
type Reservation struct {
	ID              string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	LodgingID       string            `json:"lodging_id" bson:"lodging_id" validate:"required,mongodb"`
	GuestID         string            `json:"guest_id" bson:"guest_id" validate:"required,mongodb"`
	CheckIn         time.Time         `json:"check_in" bson:"check_in" validate:"required"`
	CheckOut        time.Time         `json:"check_out" bson:"check_out" validate:"required"`
	Guests          int               `json:"guests" bson:"guests" validate:"required,min=1"`
	TotalPriceCents int64             `json:"total_price_cents" bson:"total_price_cents"`
	PromotionID     string            `json:"promotion_id,omitempty" bson:"promotion_id,omitempty"`
	Status          ReservationStatus `json:"status" bson:"status"`
	CreatedAt       time.Time         `json:"created_at" bson:"created_at"`
	CancelledAt     *time.Time        `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CancelReason    string            `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
}

// BookingRequest is the inbound shape of a booking attempt.
type BookingRequest struct {
	LodgingID string    `json:"lodging_id" validate:"required,mongodb"`
	GuestID   string    `json:"guest_id" validate:"required,mongodb"`
	CheckIn   time.Time `json:"check_in" validate:"required"`
	CheckOut  time.Time `json:"check_out" validate:"required,gtfield=CheckIn"`
	Guests    int       `json:"guests" validate:"required,min=1"`
	PromoCode string    `json:"promo_code,omitempty" validate:"omitempty,min=3,max=20,alphanum"`
}

func (br *BookingRequest) Range() DateRange {
	return NewDateRange(br.CheckIn, br.CheckOut)
}

func (r *Reservation) Range() DateRange {
	return DateRange{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
}

// Active reports whether the reservation still holds its date range.
// Completed stays keep their range recorded; only cancellation releases it.
func (r *Reservation) Active() bool {
	return r.Status != ReservationCancelled
}
