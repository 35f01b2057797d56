package timekeeper

import "time"

// State represents the current TimeKeeper mode.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
)

// EventType defines the type of TimeKeeper event.
type EventType string

const (
	EventStateChange     EventType = "state_change"
	EventProgress        EventType = "progress"
	EventCompleted       EventType = "completed"
	EventSchedulingError EventType = "scheduling_error"
	EventPersistError    EventType = "persist_error"
)

// Event represents a TimeKeeper update for observers.
type Event struct {
	Type      EventType
	State     State
	Topic     string
	Remaining time.Duration
	Progress  float64
	Message   string
	At        time.Time
}

// Display is the read state consumed by the presentation layer.
type Display struct {
	Topic     string
	Minutes   int
	Seconds   int
	Remaining time.Duration
	Running   bool
	Active    bool
	State     State
}

// Clock renders the display as MM:SS.
func (display Display) Clock() string {
	return formatMinutesSeconds(display.Minutes, display.Seconds)
}
