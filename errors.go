package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrAmbiguousTransition  = errors.New("ambiguous transition")
	ErrNoTransitionFound    = errors.New("no transition found")
	ErrInvalidTransition    = errors.New("invalid transition: from, to, or event kind cannot be nil")
	ErrIncompleteTransition = errors.New("transition definition started but not completed")
	ErrTerminalSource       = errors.New("transition from an exit state")
	ErrNotStarted           = errors.New("state machine not started")
	ErrReentrantProcess     = errors.New("ProcessEvent called from inside a state callback")
)

// AmbiguousTransitionError is returned when a transition shares its source state and event with an already registered
// transition but leads to a different target.
type AmbiguousTransitionError struct {
	Machine  string
	From     string
	Event    string
	To       string
	Existing string // target of the transition already in the table
}

func (e *AmbiguousTransitionError) Error() string {
	return fmt.Sprintf("%s: ambiguous transition found from state '%s' on event '%s': '%s' conflicts with '%s'",
		e.Machine, e.From, e.Event, e.To, e.Existing)
}

func (e *AmbiguousTransitionError) Unwrap() error { return ErrAmbiguousTransition }

// NoTransitionFoundError is returned by ProcessEvent when the current state has no transition for a queued event.
type NoTransitionFoundError struct {
	State string
	Event string
}

func (e *NoTransitionFoundError) Error() string {
	return fmt.Sprintf("no transition found for state '%s' with event '%s'", e.State, e.Event)
}

func (e *NoTransitionFoundError) Unwrap() error { return ErrNoTransitionFound }

func IsAmbiguousTransitionError(err error) bool {
	var e *AmbiguousTransitionError
	return errors.As(err, &e)
}

func IsNoTransitionFoundError(err error) bool {
	var e *NoTransitionFoundError
	return errors.As(err, &e)
}
