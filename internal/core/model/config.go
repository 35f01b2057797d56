package model

import "time"

// NotificationText is the fixed content of the end-of-session alert.
type NotificationText struct {
	Title string
	Body  string
}

// TimerConfig contains runtime settings for the TimeKeeper state machine.
type TimerConfig struct {
	TickInterval    time.Duration
	DefaultDuration time.Duration
	Notification    NotificationText
}

// DefaultNotificationText returns the alert shown when a study session ends.
func DefaultNotificationText() NotificationText {
	return NotificationText{
		Title: "Timer finished!",
		Body:  "Your study time is over. Time for a break!",
	}
}
