package helper

import "reservaya/model"

// allowedTransitions is the whole reservation state machine. Terminal
// states have no outgoing edges and the machine never regresses.
var allowedTransitions = map[string][]string{
	model.ReservationPending:   {model.ReservationConfirmed, model.ReservationExpired},
	model.ReservationConfirmed: {model.ReservationCancelled, model.ReservationCompleted, model.ReservationNoShow},
}

// CanTransition reports whether from → to is a legal lifecycle step.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Releasing reports whether entering the state returns the reservation's
// interval to inventory.
func Releasing(state string) bool {
	return state == model.ReservationCancelled || state == model.ReservationExpired
}
