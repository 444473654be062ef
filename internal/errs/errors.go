// Package errs defines the error taxonomy shared by the session, room,
// attendance and enrollment packages. Every error here is a per-request
// failure; none is fatal to the process.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers unknown sessions, rooms and classes.
	ErrNotFound = errors.New("not found")

	// ErrEnrollmentMismatch is returned when the explicit and dynamic
	// enrollment paths disagree on a room. The resolver refuses to guess.
	ErrEnrollmentMismatch = errors.New("enrollment paths disagree")

	// ErrNotJoinable is returned when dispatch is attempted on a cancelled
	// or completed session.
	ErrNotJoinable = errors.New("session is not joinable")

	// ErrClockSkew marks a clamped negative interval. It is logged and
	// flagged, never surfaced as a request failure.
	ErrClockSkew = errors.New("clock skew detected")
)

// InvalidTransitionError rejects an illegal lifecycle mutation and carries
// the state the session was actually in.
type InvalidTransitionError struct {
	From   string
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a session in state %q", e.Action, e.From)
}

// NewInvalidTransition builds an InvalidTransitionError.
func NewInvalidTransition(from, action string) error {
	return &InvalidTransitionError{From: from, Action: action}
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var e *InvalidTransitionError
	return errors.As(err, &e)
}

// DispatchError wraps a video/portal back-end failure. The caller retries
// with backoff; the core is side-effect-free on the dispatch path and never
// retries itself.
type DispatchError struct {
	Reason string
	Err    error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dispatch failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("dispatch failed: %s", e.Reason)
}

func (e *DispatchError) Unwrap() error { return e.Err }
