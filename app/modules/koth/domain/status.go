package kothdomain

import (
	"errors"
	"fmt"
)

// Status is the durable contest state of a guild.
type Status string

const (
	StatusClosed         Status = "closed"
	StatusOpen           Status = "open"
	StatusKothClosed     Status = "koth_closed"
	StatusKothOpen       Status = "koth_open"
	StatusKothTiebreaker Status = "koth_tiebreaker"
)

// ErrInvalidTransition is returned when a status change is not in the transition table.
var ErrInvalidTransition = errors.New("invalid status transition")

var transitions = map[Status][]Status{
	StatusClosed:         {StatusOpen, StatusKothClosed},
	StatusOpen:           {StatusClosed},
	StatusKothClosed:     {StatusKothOpen, StatusClosed},
	StatusKothOpen:       {StatusKothClosed, StatusKothTiebreaker},
	StatusKothTiebreaker: {StatusKothClosed},
}

// ParseStatus maps a stored value to a Status. Empty or unknown values are closed.
func ParseStatus(s string) Status {
	switch st := Status(s); st {
	case StatusClosed, StatusOpen, StatusKothClosed, StatusKothOpen, StatusKothTiebreaker:
		return st
	default:
		return StatusClosed
	}
}

// IsKoth reports whether the status belongs to King of the Hill mode.
func (s Status) IsKoth() bool {
	return s == StatusKothClosed || s == StatusKothOpen || s == StatusKothTiebreaker
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition when from -> to is not allowed.
func ValidateTransition(from, to Status) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Label is the human readable status shown on the panel.
func (s Status) Label() string {
	switch s {
	case StatusOpen:
		return "🟢 OPEN"
	case StatusKothClosed:
		return "🔴 CLOSED"
	case StatusKothOpen:
		return "🟢 OPEN"
	case StatusKothTiebreaker:
		return "⚔️ TIEBREAKER"
	default:
		return "🔴 CLOSED"
	}
}
