// Package action tracks per-listing "has the user already applied/saved this"
// state.
//
// Valid status graph:
//
//	NOT_ACTED ──► PENDING ──► CONFIRMED
//	                  │
//	                  └──────► FAILED_LOCALLY_CONFIRMED
//
// CONFIRMED and FAILED_LOCALLY_CONFIRMED are terminal — once a user has acted
// on a listing the record never reverts to NOT_ACTED automatically.
// FAILED_LOCALLY_CONFIRMED is the degraded terminal reached when the server
// confirmation fails but the UI must still show the action as done.
package action

import "fmt"

// Status values are persisted verbatim in Redis and PostgreSQL.
type Status string

const (
	StatusNotActed               Status = "NOT_ACTED"
	StatusPending                Status = "PENDING"
	StatusConfirmed              Status = "CONFIRMED"
	StatusFailedLocallyConfirmed Status = "FAILED_LOCALLY_CONFIRMED"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Status][]Status{
	StatusNotActed: {StatusPending},
	StatusPending:  {StatusConfirmed, StatusFailedLocallyConfirmed},
	// CONFIRMED and FAILED_LOCALLY_CONFIRMED are terminal — no outgoing transitions
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusNotActed, StatusPending, StatusConfirmed, StatusFailedLocallyConfirmed:
		return st, nil
	}
	return "", fmt.Errorf("unknown action status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// state machine.
func IsTransitionAllowed(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false // terminal state — no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for the two done states. A repeat act on a terminal
// record is a no-op without a network call.
func IsTerminal(s Status) bool {
	return s == StatusConfirmed || s == StatusFailedLocallyConfirmed
}
