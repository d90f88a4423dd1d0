package model

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func rng(checkIn, checkOut string) DateRange {
	return NewDateRange(day(checkIn), day(checkOut))
}

func TestDateTruncation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	afternoon := time.Date(2024, 7, 1, 23, 45, 12, 0, loc) // 2024-07-02 04:45 UTC

	got := Date(afternoon)
	want := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Date() = %v, want %v", got, want)
	}
}

func TestNights(t *testing.T) {
	tests := []struct {
		name string
		r    DateRange
		want int
	}{
		{"single night", rng("2024-07-01", "2024-07-02"), 1},
		{"week", rng("2024-07-01", "2024-07-08"), 7},
		{"same day", rng("2024-07-01", "2024-07-01"), 0},
		{"inverted", rng("2024-07-05", "2024-07-01"), -4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Nights(); got != tt.want {
				t.Errorf("Nights() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDateRangeValidate(t *testing.T) {
	if err := rng("2024-07-01", "2024-07-02").Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
	if err := rng("2024-07-01", "2024-07-01").Validate(); err == nil {
		t.Error("Validate() expected error for zero-night stay")
	}
	if err := rng("2024-07-05", "2024-07-01").Validate(); err == nil {
		t.Error("Validate() expected error for inverted range")
	}
	if err := (DateRange{}).Validate(); err == nil {
		t.Error("Validate() expected error for zero dates")
	}
}

func TestOverlaps(t *testing.T) {
	base := rng("2024-07-10", "2024-07-15")

	tests := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{"identical", rng("2024-07-10", "2024-07-15"), true},
		{"contained", rng("2024-07-11", "2024-07-13"), true},
		{"straddles start", rng("2024-07-08", "2024-07-11"), true},
		{"straddles end", rng("2024-07-14", "2024-07-20"), true},
		{"covers", rng("2024-07-01", "2024-07-31"), true},
		{"same-day turnover before", rng("2024-07-05", "2024-07-10"), false},
		{"same-day turnover after", rng("2024-07-15", "2024-07-20"), false},
		{"disjoint before", rng("2024-07-01", "2024-07-05"), false},
		{"disjoint after", rng("2024-07-20", "2024-07-25"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps(%s) = %v, want %v", tt.other, got, tt.want)
			}
			// Overlap is symmetric.
			if got := tt.other.Overlaps(base); got != tt.want {
				t.Errorf("Overlaps reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	r := rng("2024-07-10", "2024-07-15")

	if !r.Contains(day("2024-07-10")) {
		t.Error("Contains() check-in day should be occupied")
	}
	if !r.Contains(day("2024-07-14")) {
		t.Error("Contains() last night should be occupied")
	}
	if r.Contains(day("2024-07-15")) {
		t.Error("Contains() check-out day should not be occupied")
	}
	if r.Contains(day("2024-07-09")) {
		t.Error("Contains() day before check-in should not be occupied")
	}
}
