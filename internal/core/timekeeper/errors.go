package timekeeper

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionActive is returned by Start while a session already exists.
	ErrSessionActive = errors.New("study session already active")
	// ErrNoSession is returned by commands that need an active session.
	ErrNoSession = errors.New("no active study session")
	// ErrNotRunning is returned by Pause when the countdown is not advancing.
	ErrNotRunning = errors.New("timer is not running")
	// ErrNotPaused is returned by Resume when the timer is not paused.
	ErrNotPaused = errors.New("timer is not paused")
	// ErrNotCompleted is returned by Acknowledge before the session ends.
	ErrNotCompleted = errors.New("study session has not completed")
	// ErrStopTokenInvalid is returned for unknown or already used stop tokens.
	ErrStopTokenInvalid = errors.New("stop confirmation token invalid")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("timekeeper closed")
)

// ValidationError rejects a command argument. No state is mutated.
type ValidationError struct {
	Field  string
	Reason string
}

func (err *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", err.Field, err.Reason)
}
