package model

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment transition table. FAILED -> COMPLETED lets a guest retry the
// charge, and FAILED -> FAILED absorbs redelivered failure callbacks
// (gateway events arrive at-least-once); REFUNDED requires a prior
// COMPLETED payment and is terminal.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentCompleted, PaymentFailed},
	PaymentFailed:    {PaymentCompleted, PaymentFailed},
	PaymentCompleted: {PaymentRefunded},
}

func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	for _, next := range paymentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCreditCard PaymentMethod = "credit_card"
	MethodDebitCard  PaymentMethod = "debit_card"
	MethodPaypal     PaymentMethod = "paypal"
	MethodTransfer   PaymentMethod = "transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodPaypal, MethodTransfer:
		return true
	}
	return false
}

// Payment is the single payment record of a reservation (unique index on
// reservation_id). The engine records outcomes reported by the external
// payment collaborator; it never charges anything itself.
type Payment struct {
	ID            string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ReservationID string        `json:"reservation_id" bson:"reservation_id" validate:"required,mongodb"`
	AmountCents   int64         `json:"amount_cents" bson:"amount_cents" validate:"min=0"`
	Method        PaymentMethod `json:"method" bson:"method" validate:"required,oneof=credit_card debit_card paypal transfer"`
	Status        PaymentStatus `json:"status" bson:"status"`
	ExternalRef   string        `json:"external_ref,omitempty" bson:"external_ref,omitempty"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" bson:"updated_at"`
}
