package model

import "time"

// ReservationLock is an advisory per-lodging lock document. Its _id is
// derived from the lodging id, so a duplicate-key error on insert means
// another booking attempt for the same lodging holds the lock. ExpiresAt
// backs a TTL index so crashed holders cannot wedge a lodging.
type ReservationLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
