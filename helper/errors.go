package helper

import (
	"errors"
	"fmt"
)

// Booking error taxonomy. Handlers map these to HTTP statuses so the UI
// can tell "pick another table" apart from "something is broken".

// ValidationError: malformed or out-of-policy request. No retry useful.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ConflictError: lost a race for the same table/slot. The caller should
// re-query availability and retry with a different selection.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// InvalidTransitionError: reservation state machine rule violated.
type InvalidTransitionError struct {
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("cannot transition reservation from %s to %s", e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// PolicyError: business rule such as the cancellation window violated.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string { return e.Reason }

// NotFoundError: unknown id or confirmation token.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// ErrDuplicateClaim is returned by stores when the claim unique index
// rejects an insert; the engine surfaces it as a ConflictError.
var ErrDuplicateClaim = errors.New("duplicate reservation claim")

// ErrStaleTransition is returned by stores when a guarded status update
// matches no row: another writer moved the reservation first. The engine
// re-reads and reports the status that won.
var ErrStaleTransition = errors.New("reservation status changed concurrently")
