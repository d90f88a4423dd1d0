package model

import (
	"sort"
	"testing"
)

func TestReservationTransitions(t *testing.T) {
	tests := []struct {
		from ReservationStatus
		to   ReservationStatus
		want bool
	}{
		{ReservationPending, ReservationConfirmed, true},
		{ReservationPending, ReservationCancelled, true},
		{ReservationPending, ReservationCompleted, false},
		{ReservationConfirmed, ReservationCancelled, true},
		{ReservationConfirmed, ReservationCompleted, true},
		{ReservationConfirmed, ReservationPending, false},
		{ReservationCancelled, ReservationConfirmed, false},
		{ReservationCancelled, ReservationPending, false},
		{ReservationCompleted, ReservationCancelled, false},
		{ReservationCompleted, ReservationConfirmed, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestReservationTerminalStatuses(t *testing.T) {
	if ReservationPending.Terminal() {
		t.Error("pending should not be terminal")
	}
	if ReservationConfirmed.Terminal() {
		t.Error("confirmed should not be terminal")
	}
	if !ReservationCancelled.Terminal() {
		t.Error("cancelled should be terminal")
	}
	if !ReservationCompleted.Terminal() {
		t.Error("completed should be terminal")
	}
}

func TestSourceStatuses(t *testing.T) {
	tests := []struct {
		to   ReservationStatus
		want []ReservationStatus
	}{
		{ReservationConfirmed, []ReservationStatus{ReservationPending}},
		{ReservationCancelled, []ReservationStatus{ReservationConfirmed, ReservationPending}},
		{ReservationCompleted, []ReservationStatus{ReservationConfirmed}},
		{ReservationPending, nil},
	}

	for _, tt := range tests {
		got := SourceStatuses(tt.to)
		sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
		if len(got) != len(tt.want) {
			t.Errorf("SourceStatuses(%s) = %v, want %v", tt.to, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SourceStatuses(%s) = %v, want %v", tt.to, got, tt.want)
				break
			}
		}
	}
}

func TestReservationActive(t *testing.T) {
	for _, status := range []ReservationStatus{ReservationPending, ReservationConfirmed, ReservationCompleted} {
		r := Reservation{Status: status}
		if !r.Active() {
			t.Errorf("Active() = false for %s, want true", status)
		}
	}

	r := Reservation{Status: ReservationCancelled}
	if r.Active() {
		t.Error("Active() = true for cancelled, want false")
	}
}
