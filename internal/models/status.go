package models

import "fmt"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// CanTransition reports whether from -> to is one of the two legal moves:
// pending -> completed and pending -> error.
func CanTransition(from, to Status) bool {
	return from == StatusPending && to.IsTerminal()
}

// Transition validates a move and returns the new status.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("disallowed status transition: %s -> %s", from, to)
	}
	return to, nil
}
