package model

import (
	"fmt"
	"time"
)

// DateRange is a half-open [CheckIn, CheckOut) stay interval. Both bounds
// are calendar dates at midnight UTC; CheckOut is the departure day and is
// never occupied.
type DateRange struct {
	CheckIn  time.Time `json:"check_in" bson:"check_in" validate:"required"`
	CheckOut time.Time `json:"check_out" bson:"check_out" validate:"required"`
}

// Date truncates t to its calendar day in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func NewDateRange(checkIn, checkOut time.Time) DateRange {
	return DateRange{CheckIn: Date(checkIn), CheckOut: Date(checkOut)}
}

// Nights is the number of nights spent, i.e. the day difference between
// check-out and check-in. Zero or negative means the range is malformed.
func (r DateRange) Nights() int {
	return int(Date(r.CheckOut).Sub(Date(r.CheckIn)).Hours() / 24)
}

func (r DateRange) Validate() error {
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
		return fmt.Errorf("check-in and check-out dates are required")
	}
	if r.Nights() < 1 {
		return fmt.Errorf("stay must be at least one night (check-in %s, check-out %s)",
			r.CheckIn.Format(time.DateOnly), r.CheckOut.Format(time.DateOnly))
	}
	return nil
}

// Overlaps reports whether two half-open ranges share at least one night.
// Same-day checkout/check-in is not an overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(r.CheckOut)
}

// Contains reports whether the given date falls within [CheckIn, CheckOut).
func (r DateRange) Contains(day time.Time) bool {
	d := Date(day)
	return !d.Before(Date(r.CheckIn)) && d.Before(Date(r.CheckOut))
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.CheckIn.Format(time.DateOnly), r.CheckOut.Format(time.DateOnly))
}
