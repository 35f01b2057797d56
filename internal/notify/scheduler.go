package notify

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"studytimer/internal/core/clock"
	"studytimer/internal/core/model"
)

var (
	// ErrFireAtPassed indicates the requested instant is not in the future.
	ErrFireAtPassed = errors.New("fire instant already passed")
	// ErrNoSender indicates notifications are unavailable on this host.
	ErrNoSender = errors.New("notifications unavailable")
)

// Scheduler arms at most one fire-once alert for the study timer.
type Scheduler interface {
	// Schedule replaces any armed alert with one firing at fireAt.
	Schedule(fireAt time.Time) error
	// Cancel disarms the alert. It is a no-op when nothing is armed.
	Cancel() error
}

// Sender delivers a notification immediately.
type Sender interface {
	Send(title, body string)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(title, body string)

// Send calls fn.
func (fn SenderFunc) Send(title, body string) { fn(title, body) }

// SchedulingError wraps a failure to arm the alert.
type SchedulingError struct {
	FireAt time.Time
	Err    error
}

func (err *SchedulingError) Error() string {
	return fmt.Sprintf("schedule notification at %s: %v", err.FireAt.Format(time.RFC3339), err.Err)
}

func (err *SchedulingError) Unwrap() error { return err.Err }

// LocalScheduler arms an in-process timer that hands the alert to a Sender
// when it fires.
type LocalScheduler struct {
	mu         sync.Mutex
	clock      clock.Clock
	sender     Sender
	text       model.NotificationText
	logger     *slog.Logger
	armed      clock.Timer
	armedAt    time.Time
	generation uint64
	delivered  int
}

// NewLocalScheduler creates a scheduler. A nil sender makes every Schedule
// fail with ErrNoSender.
func NewLocalScheduler(clk clock.Clock, sender Sender, text model.NotificationText, logger *slog.Logger) *LocalScheduler {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if text.Title == "" && text.Body == "" {
		text = model.DefaultNotificationText()
	}
	return &LocalScheduler{
		clock:  clk,
		sender: sender,
		text:   text,
		logger: logger,
	}
}

// Schedule cancels any armed alert, then arms one for fireAt.
func (scheduler *LocalScheduler) Schedule(fireAt time.Time) error {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	scheduler.cancelLocked()

	if scheduler.sender == nil {
		return &SchedulingError{FireAt: fireAt, Err: ErrNoSender}
	}
	delay := fireAt.Sub(scheduler.clock.Now())
	if delay <= 0 {
		return &SchedulingError{FireAt: fireAt, Err: ErrFireAtPassed}
	}

	generation := scheduler.generation
	scheduler.armed = scheduler.clock.AfterFunc(delay, func() {
		scheduler.fire(generation)
	})
	scheduler.armedAt = fireAt
	scheduler.logger.Debug("notification scheduled", "fire_at", fireAt, "delay", delay)
	return nil
}

// Cancel disarms the pending alert, if any.
func (scheduler *LocalScheduler) Cancel() error {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if scheduler.cancelLocked() {
		scheduler.logger.Debug("notification cancelled")
	}
	return nil
}

// SetText replaces the alert text. An already armed alert picks it up when
// it fires.
func (scheduler *LocalScheduler) SetText(text model.NotificationText) {
	if text.Title == "" && text.Body == "" {
		text = model.DefaultNotificationText()
	}
	scheduler.mu.Lock()
	scheduler.text = text
	scheduler.mu.Unlock()
}

// Armed returns the fire instant of the pending alert.
func (scheduler *LocalScheduler) Armed() (time.Time, bool) {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if scheduler.armed == nil {
		return time.Time{}, false
	}
	return scheduler.armedAt, true
}

// Delivered returns how many alerts reached the sender.
func (scheduler *LocalScheduler) Delivered() int {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	return scheduler.delivered
}

func (scheduler *LocalScheduler) cancelLocked() bool {
	scheduler.generation++
	if scheduler.armed == nil {
		return false
	}
	scheduler.armed.Stop()
	scheduler.armed = nil
	scheduler.armedAt = time.Time{}
	return true
}

func (scheduler *LocalScheduler) fire(generation uint64) {
	scheduler.mu.Lock()
	if generation != scheduler.generation || scheduler.armed == nil {
		scheduler.mu.Unlock()
		return
	}
	scheduler.armed = nil
	scheduler.armedAt = time.Time{}
	scheduler.delivered++
	sender := scheduler.sender
	text := scheduler.text
	scheduler.mu.Unlock()

	scheduler.logger.Info("notification delivered", "title", text.Title)
	sender.Send(text.Title, text.Body)
}
