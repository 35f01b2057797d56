package platform

import (
	"log/slog"
	"sync"
)

// LifecycleListener receives foreground/background transitions.
type LifecycleListener interface {
	OnForeground()
	OnBackground()
}

// lifecycleHooks is the part of fyne.Lifecycle the observer binds to.
type lifecycleHooks interface {
	SetOnEnteredForeground(func())
	SetOnExitedForeground(func())
	SetOnStopped(func())
}

// LifecycleObserver translates host visibility changes into the two events
// the timer engine understands. Process stop is reported as a background
// transition so the final snapshot is written before exit.
type LifecycleObserver struct {
	mu          sync.Mutex
	listener    LifecycleListener
	logger      *slog.Logger
	foreground  bool
	transitions int
}

// ObserveLifecycle registers the observer on lifecycle. Pass the result of
// fyne.App.Lifecycle().
func ObserveLifecycle(lifecycle lifecycleHooks, listener LifecycleListener, logger *slog.Logger) *LifecycleObserver {
	if logger == nil {
		logger = slog.Default()
	}
	observer := &LifecycleObserver{
		listener: listener,
		logger:   logger,
	}
	lifecycle.SetOnEnteredForeground(observer.enteredForeground)
	lifecycle.SetOnExitedForeground(observer.exitedForeground)
	lifecycle.SetOnStopped(observer.stopped)
	return observer
}

// Foreground reports whether the app was last seen in the foreground.
func (observer *LifecycleObserver) Foreground() bool {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	return observer.foreground
}

// Transitions returns how many events were delivered.
func (observer *LifecycleObserver) Transitions() int {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	return observer.transitions
}

func (observer *LifecycleObserver) enteredForeground() {
	observer.mark(true)
	observer.logger.Debug("lifecycle: foregrounded")
	observer.listener.OnForeground()
}

func (observer *LifecycleObserver) exitedForeground() {
	observer.mark(false)
	observer.logger.Debug("lifecycle: backgrounded")
	observer.listener.OnBackground()
}

func (observer *LifecycleObserver) stopped() {
	observer.mark(false)
	observer.logger.Debug("lifecycle: stopped")
	observer.listener.OnBackground()
}

func (observer *LifecycleObserver) mark(foreground bool) {
	observer.mu.Lock()
	observer.foreground = foreground
	observer.transitions++
	observer.mu.Unlock()
}
