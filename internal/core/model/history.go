package model

import "time"

// Outcome describes how a study session ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeStopped   Outcome = "stopped"
)

// HistoryRecord is one finished study session.
type HistoryRecord struct {
	ID        int64
	Topic     string
	StartedAt time.Time
	EndedAt   time.Time
	Planned   time.Duration
	Outcome   Outcome
}
