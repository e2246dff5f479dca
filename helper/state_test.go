package helper

import (
	"testing"

	"reservaya/model"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{model.ReservationPending, model.ReservationConfirmed, true},
		{model.ReservationPending, model.ReservationExpired, true},
		{model.ReservationPending, model.ReservationCancelled, false},
		{model.ReservationPending, model.ReservationCompleted, false},
		{model.ReservationConfirmed, model.ReservationCancelled, true},
		{model.ReservationConfirmed, model.ReservationCompleted, true},
		{model.ReservationConfirmed, model.ReservationNoShow, true},
		{model.ReservationConfirmed, model.ReservationExpired, false},
		{model.ReservationConfirmed, model.ReservationPending, false},
		{model.ReservationCancelled, model.ReservationConfirmed, false},
		{model.ReservationCompleted, model.ReservationNoShow, false},
		{model.ReservationExpired, model.ReservationConfirmed, false},
		{model.ReservationNoShow, model.ReservationCompleted, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestReleasing(t *testing.T) {
	releasing := []string{model.ReservationCancelled, model.ReservationExpired}
	for _, s := range releasing {
		if !Releasing(s) {
			t.Errorf("Releasing(%s) = false, want true", s)
		}
	}
	keeping := []string{
		model.ReservationPending, model.ReservationConfirmed,
		model.ReservationCompleted, model.ReservationNoShow,
	}
	for _, s := range keeping {
		if Releasing(s) {
			t.Errorf("Releasing(%s) = true, want false", s)
		}
	}
}
