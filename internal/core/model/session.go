package model

import (
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Session is the single live study session. Remaining time is never stored:
// it is derived from StartInstant and Duration.
type Session struct {
	Topic        string
	StartInstant time.Time
	Duration     time.Duration
	Running      bool
	Active       bool
}

// Idle returns the inactive session.
func Idle() Session {
	return Session{}
}

// HasAnchor reports whether StartInstant is set.
func (session Session) HasAnchor() bool {
	return !session.StartInstant.IsZero()
}

// EndInstant is the instant the countdown reaches zero if it keeps running.
func (session Session) EndInstant() time.Time {
	return session.StartInstant.Add(session.Duration)
}

// RemainingAt derives the remaining time at now from the anchor.
// A paused session does not consult the clock. An instant before the anchor
// clamps to the full duration.
func (session Session) RemainingAt(now time.Time) time.Duration {
	if !session.Active || !session.HasAnchor() {
		return 0
	}
	if !session.Running {
		return session.Duration
	}
	elapsed := now.Sub(session.StartInstant)
	if elapsed < 0 {
		return session.Duration
	}
	remaining := session.Duration - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Snapshot is the persisted wire form of a Session.
type Snapshot struct {
	Topic           string `json:"topic"`
	Active          bool   `json:"active"`
	Running         bool   `json:"running"`
	StartInstant    *int64 `json:"startInstant"`
	DurationSeconds int64  `json:"durationSeconds"`
}

// SnapshotOf converts a session to its persisted form.
func SnapshotOf(session Session) Snapshot {
	snapshot := Snapshot{
		Topic:           session.Topic,
		Active:          session.Active,
		Running:         session.Running,
		DurationSeconds: int64(session.Duration / time.Second),
	}
	// A paused session keeps at least one second so it restores as Paused.
	if session.Active && !session.Running && session.Duration > 0 && snapshot.DurationSeconds == 0 {
		snapshot.DurationSeconds = 1
	}
	if session.HasAnchor() {
		millis := session.StartInstant.UnixMilli()
		snapshot.StartInstant = &millis
	}
	return snapshot
}

// Session converts the snapshot back, rejecting states that violate the
// session invariants.
func (snapshot Snapshot) Session() (Session, error) {
	if snapshot.DurationSeconds < 0 {
		return Session{}, &CorruptStateError{Reason: "negative duration"}
	}
	if !snapshot.Active {
		return Idle(), nil
	}
	if snapshot.StartInstant == nil || *snapshot.StartInstant <= 0 {
		return Session{}, &CorruptStateError{Reason: "active session without start instant"}
	}
	if strings.TrimSpace(snapshot.Topic) == "" {
		return Session{}, &CorruptStateError{Reason: "active session without topic"}
	}
	return Session{
		Topic:        snapshot.Topic,
		StartInstant: time.UnixMilli(*snapshot.StartInstant),
		Duration:     time.Duration(snapshot.DurationSeconds) * time.Second,
		Running:      snapshot.Running,
		Active:       true,
	}, nil
}

// EncodeSnapshot serializes a snapshot to JSON.
func EncodeSnapshot(snapshot Snapshot) ([]byte, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a snapshot. Any malformed payload yields a
// *CorruptStateError.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, &CorruptStateError{Reason: "unparseable snapshot", Err: err}
	}
	if _, err := snapshot.Session(); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

// CorruptStateError reports a persisted snapshot that cannot be trusted.
type CorruptStateError struct {
	Reason string
	Err    error
}

func (err *CorruptStateError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("corrupt timer state: %s: %v", err.Reason, err.Err)
	}
	return "corrupt timer state: " + err.Reason
}

func (err *CorruptStateError) Unwrap() error { return err.Err }
