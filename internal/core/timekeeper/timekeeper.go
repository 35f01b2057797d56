package timekeeper

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"studytimer/internal/core/clock"
	"studytimer/internal/core/model"

	"github.com/google/uuid"
)

// SessionStore persists the single session snapshot.
type SessionStore interface {
	Save(snapshot model.Snapshot) error
	Load() (model.Snapshot, bool, error)
	Clear() error
}

// NotificationScheduler arms the end-of-session alert.
type NotificationScheduler interface {
	Schedule(fireAt time.Time) error
	Cancel() error
}

// HistoryRecorder receives finished sessions.
type HistoryRecorder interface {
	Record(record model.HistoryRecord) error
}

// Options contains the collaborators of a TimeKeeper. Nil Store, Scheduler
// and History disable that side effect.
type Options struct {
	Clock     clock.Clock
	Store     SessionStore
	Scheduler NotificationScheduler
	History   HistoryRecorder
	Logger    *slog.Logger
}

// StopToken identifies a pending stop confirmation.
type StopToken string

// TimeKeeper is the study session state machine. Remaining time is always
// derived from the session anchor and the clock; ticks only trigger a
// recomputation.
type TimeKeeper struct {
	mu        sync.Mutex
	config    model.TimerConfig
	clock     clock.Clock
	store     SessionStore
	scheduler NotificationScheduler
	history   HistoryRecorder
	logger    *slog.Logger

	session   model.Session
	state     State
	remaining time.Duration
	startedAt time.Time
	planned   time.Duration

	pendingStop StopToken

	events     []chan Event
	loopStop   chan struct{}
	loopTicker clock.Ticker
	loopGen    uint64
	closed     bool
}

// New creates an idle TimeKeeper. Call Restore to pick up a persisted session.
func New(config model.TimerConfig, options Options) *TimeKeeper {
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	if config.DefaultDuration <= 0 {
		config.DefaultDuration = 25 * time.Minute
	}
	if options.Clock == nil {
		options.Clock = clock.Real{}
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &TimeKeeper{
		config:    config,
		clock:     options.Clock,
		store:     options.Store,
		scheduler: options.Scheduler,
		history:   options.History,
		logger:    options.Logger,
		session:   model.Idle(),
		state:     StateIdle,
	}
}

// Subscribe registers a new observer channel.
func (keeper *TimeKeeper) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	keeper.mu.Lock()
	if keeper.closed {
		close(ch)
	} else {
		keeper.events = append(keeper.events, ch)
	}
	keeper.mu.Unlock()
	return ch
}

// Config returns the runtime configuration.
func (keeper *TimeKeeper) Config() model.TimerConfig {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.config
}

// UpdateConfig replaces the runtime configuration. A running tick loop is
// restarted with the new interval.
func (keeper *TimeKeeper) UpdateConfig(config model.TimerConfig) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	if config.DefaultDuration <= 0 {
		config.DefaultDuration = keeper.config.DefaultDuration
	}
	intervalChanged := config.TickInterval != keeper.config.TickInterval
	keeper.config = config
	if intervalChanged && keeper.loopStop != nil {
		keeper.stopLoopLocked()
		keeper.startLoopLocked()
	}
}

// Start begins a new session for topic lasting duration.
func (keeper *TimeKeeper) Start(topic string, duration time.Duration) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return &ValidationError{Field: "topic", Reason: "must not be blank"}
	}
	if err := validateDuration(duration); err != nil {
		return err
	}

	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return ErrClosed
	}
	if keeper.session.Active {
		return ErrSessionActive
	}

	now := keeper.now()
	duration = duration.Truncate(time.Second)
	keeper.session = model.Session{
		Topic:        topic,
		StartInstant: now,
		Duration:     duration,
		Running:      true,
		Active:       true,
	}
	keeper.startedAt = now
	keeper.planned = duration
	keeper.pendingStop = ""
	keeper.enterRunningLocked(now)

	keeper.logger.Info("study session started", "topic", topic, "duration", duration)
	return nil
}

// Reset re-anchors the active session at now with duration, keeping its topic.
func (keeper *TimeKeeper) Reset(duration time.Duration) error {
	if err := validateDuration(duration); err != nil {
		return err
	}

	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return ErrClosed
	}
	if !keeper.session.Active {
		return ErrNoSession
	}

	now := keeper.now()
	duration = duration.Truncate(time.Second)
	keeper.session.StartInstant = now
	keeper.session.Duration = duration
	keeper.session.Running = true
	keeper.startedAt = now
	keeper.planned = duration
	keeper.enterRunningLocked(now)

	keeper.logger.Info("study session reset", "topic", keeper.session.Topic, "duration", duration)
	return nil
}

// Pause freezes the countdown. The anchor is rebased so the session carries
// the exact frozen remaining time; the snapshot stores it in whole seconds.
func (keeper *TimeKeeper) Pause() error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return ErrClosed
	}

	now := keeper.now()
	keeper.reconcileLocked(now)
	if keeper.state != StateRunning {
		return ErrNotRunning
	}

	frozen := keeper.remaining
	keeper.session.StartInstant = now
	keeper.session.Duration = frozen
	keeper.session.Running = false
	keeper.state = StatePaused
	keeper.remaining = frozen

	keeper.stopLoopLocked()
	keeper.cancelNotificationLocked()
	keeper.persistLocked()
	keeper.emitStateLocked(now)

	keeper.logger.Info("study session paused", "topic", keeper.session.Topic, "remaining", frozen)
	return nil
}

// Resume continues a paused session from its frozen remaining time.
func (keeper *TimeKeeper) Resume() error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return ErrClosed
	}
	if keeper.state != StatePaused {
		return ErrNotPaused
	}

	now := keeper.now()
	keeper.session.StartInstant = now
	keeper.session.Running = true
	keeper.enterRunningLocked(now)

	keeper.logger.Info("study session resumed", "topic", keeper.session.Topic, "remaining", keeper.session.Duration)
	return nil
}

// RequestStop opens a stop confirmation. Nothing changes until ConfirmStop is
// called with the returned token; a newer request supersedes an older one.
func (keeper *TimeKeeper) RequestStop() (StopToken, error) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return "", ErrClosed
	}
	if !keeper.session.Active {
		return "", ErrNoSession
	}
	keeper.pendingStop = StopToken(uuid.NewString())
	return keeper.pendingStop, nil
}

// ConfirmStop ends the session: the tick loop and the notification are
// cancelled before it returns, the snapshot is cleared, and the state is Idle.
func (keeper *TimeKeeper) ConfirmStop(token StopToken) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if err := keeper.consumeStopTokenLocked(token); err != nil {
		return err
	}
	if !keeper.session.Active {
		return ErrNoSession
	}

	now := keeper.now()
	if keeper.state != StateCompleted {
		keeper.recordLocked(model.OutcomeStopped, now)
	}
	topic := keeper.session.Topic

	keeper.stopLoopLocked()
	keeper.cancelNotificationLocked()
	keeper.session = model.Idle()
	keeper.state = StateIdle
	keeper.remaining = 0
	keeper.startedAt = time.Time{}
	keeper.planned = 0
	keeper.persistLocked()
	keeper.emitStateLocked(now)

	keeper.logger.Info("study session stopped", "topic", topic)
	return nil
}

// CancelStop discards a pending stop confirmation.
func (keeper *TimeKeeper) CancelStop(token StopToken) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.consumeStopTokenLocked(token)
}

// Acknowledge dismisses a completed session and returns to Idle.
func (keeper *TimeKeeper) Acknowledge() error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.state != StateCompleted {
		return ErrNotCompleted
	}

	keeper.session = model.Idle()
	keeper.state = StateIdle
	keeper.remaining = 0
	keeper.pendingStop = ""
	keeper.startedAt = time.Time{}
	keeper.planned = 0
	keeper.emitStateLocked(keeper.now())
	return nil
}

// Reconcile recomputes the countdown at now and returns the display state.
func (keeper *TimeKeeper) Reconcile(now time.Time) Display {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.reconcileLocked(now)
	return keeper.displayLocked()
}

// Tick reconciles against the clock.
func (keeper *TimeKeeper) Tick() Display {
	return keeper.Reconcile(keeper.now())
}

// OnForeground reconciles immediately after the app becomes visible again.
func (keeper *TimeKeeper) OnForeground() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return
	}

	now := keeper.now()
	keeper.reconcileLocked(now)
	if keeper.state == StateRunning {
		keeper.startLoopLocked()
	}
	keeper.emitProgressLocked(now)
}

// OnBackground writes the snapshot so the session survives process death.
func (keeper *TimeKeeper) OnBackground() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return
	}
	keeper.persistLocked()
}

// Restore loads the persisted session. Missing, corrupt or unreadable state
// degrades to Idle. A running session is reconciled immediately and may
// complete on this first reconcile.
func (keeper *TimeKeeper) Restore() State {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed || keeper.session.Active {
		return keeper.state
	}

	now := keeper.now()
	session, ok := keeper.loadLocked()
	if !ok || !session.Active {
		keeper.emitStateLocked(now)
		return keeper.state
	}

	keeper.session = session
	keeper.startedAt = session.StartInstant
	keeper.planned = session.Duration
	keeper.remaining = session.Duration

	if !session.Running {
		keeper.state = StatePaused
		keeper.emitStateLocked(now)
		keeper.logger.Info("paused study session restored", "topic", session.Topic, "remaining", session.Duration)
		return keeper.state
	}

	keeper.state = StateRunning
	keeper.logger.Info("running study session restored", "topic", session.Topic, "ends_at", session.EndInstant())
	if keeper.reconcileLocked(now) {
		return keeper.state
	}
	keeper.armNotificationLocked(session.EndInstant())
	keeper.startLoopLocked()
	keeper.emitStateLocked(now)
	return keeper.state
}

// View returns the last reconciled display state without consulting the clock.
func (keeper *TimeKeeper) View() Display {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.displayLocked()
}

// Session returns a copy of the current session.
func (keeper *TimeKeeper) Session() model.Session {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.session
}

// State returns the current state.
func (keeper *TimeKeeper) State() State {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.state
}

// Close terminates the tick loop and closes observers.
func (keeper *TimeKeeper) Close() {
	keeper.mu.Lock()
	if keeper.closed {
		keeper.mu.Unlock()
		return
	}
	keeper.stopLoopLocked()
	keeper.closed = true
	events := keeper.events
	keeper.events = nil
	keeper.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

func (keeper *TimeKeeper) enterRunningLocked(now time.Time) {
	keeper.state = StateRunning
	keeper.remaining = keeper.session.RemainingAt(now)
	keeper.persistLocked()
	keeper.armNotificationLocked(keeper.session.EndInstant())
	keeper.stopLoopLocked()
	keeper.startLoopLocked()
	keeper.emitStateLocked(now)
}

// reconcileLocked reports whether the session completed during this call.
func (keeper *TimeKeeper) reconcileLocked(now time.Time) bool {
	switch keeper.state {
	case StateRunning:
	case StatePaused:
		keeper.remaining = keeper.session.Duration
		return false
	default:
		return false
	}

	previous := keeper.remaining
	keeper.remaining = keeper.session.RemainingAt(now)
	if keeper.remaining > 0 {
		if keeper.remaining != previous {
			keeper.emitProgressLocked(now)
		}
		return false
	}

	keeper.completeLocked(now)
	return true
}

func (keeper *TimeKeeper) completeLocked(now time.Time) {
	keeper.session.Running = false
	keeper.state = StateCompleted
	keeper.remaining = 0

	keeper.stopLoopLocked()
	keeper.cancelNotificationLocked()
	keeper.persistLocked()
	keeper.recordLocked(model.OutcomeCompleted, now)

	keeper.emitLocked(Event{
		Type:     EventCompleted,
		State:    StateCompleted,
		Topic:    keeper.session.Topic,
		Progress: 1,
		Message:  keeper.config.Notification.Body,
		At:       now,
	})
	keeper.emitStateLocked(now)

	keeper.logger.Info("study session completed", "topic", keeper.session.Topic)
}

func (keeper *TimeKeeper) loadLocked() (model.Session, bool) {
	if keeper.store == nil {
		return model.Session{}, false
	}

	snapshot, ok, err := keeper.store.Load()
	if err == nil && ok {
		var session model.Session
		session, err = snapshot.Session()
		if err == nil {
			return session, true
		}
	}
	if err == nil {
		return model.Session{}, false
	}

	var corrupt *model.CorruptStateError
	if errors.As(err, &corrupt) {
		keeper.logger.Warn("discarding corrupt timer state", "error", err)
		if clearErr := keeper.store.Clear(); clearErr != nil {
			keeper.logger.Warn("clear corrupt timer state", "error", clearErr)
		}
	} else {
		keeper.logger.Warn("load timer state", "error", err)
	}
	keeper.emitLocked(Event{
		Type:    EventPersistError,
		State:   keeper.state,
		Message: err.Error(),
		At:      keeper.now(),
	})
	keeper.cancelNotificationLocked()
	return model.Session{}, false
}

func (keeper *TimeKeeper) persistLocked() {
	if keeper.store == nil {
		return
	}

	var err error
	switch keeper.state {
	case StateRunning, StatePaused:
		err = keeper.store.Save(model.SnapshotOf(keeper.session))
	default:
		err = keeper.store.Clear()
	}
	if err == nil {
		return
	}

	keeper.logger.Warn("persist timer state", "state", keeper.state, "error", err)
	keeper.emitLocked(Event{
		Type:    EventPersistError,
		State:   keeper.state,
		Message: err.Error(),
		At:      keeper.now(),
	})
}

func (keeper *TimeKeeper) armNotificationLocked(fireAt time.Time) {
	if keeper.scheduler == nil {
		return
	}
	keeper.cancelNotificationLocked()
	if err := keeper.scheduler.Schedule(fireAt); err != nil {
		keeper.logger.Warn("schedule notification", "fire_at", fireAt, "error", err)
		keeper.emitLocked(Event{
			Type:    EventSchedulingError,
			State:   keeper.state,
			Topic:   keeper.session.Topic,
			Message: err.Error(),
			At:      keeper.now(),
		})
	}
}

func (keeper *TimeKeeper) cancelNotificationLocked() {
	if keeper.scheduler == nil {
		return
	}
	if err := keeper.scheduler.Cancel(); err != nil {
		keeper.logger.Warn("cancel notification", "error", err)
	}
}

func (keeper *TimeKeeper) recordLocked(outcome model.Outcome, now time.Time) {
	if keeper.history == nil || !keeper.session.Active {
		return
	}
	record := model.HistoryRecord{
		Topic:     keeper.session.Topic,
		StartedAt: keeper.startedAt,
		EndedAt:   now,
		Planned:   keeper.planned,
		Outcome:   outcome,
	}
	if err := keeper.history.Record(record); err != nil {
		keeper.logger.Warn("record study session", "outcome", outcome, "error", err)
	}
}

func (keeper *TimeKeeper) consumeStopTokenLocked(token StopToken) error {
	if token == "" || token != keeper.pendingStop {
		return ErrStopTokenInvalid
	}
	keeper.pendingStop = ""
	return nil
}

func (keeper *TimeKeeper) startLoopLocked() {
	if keeper.loopStop != nil {
		return
	}
	stop := make(chan struct{})
	ticker := keeper.clock.NewTicker(keeper.config.TickInterval)
	keeper.loopGen++
	keeper.loopStop = stop
	keeper.loopTicker = ticker
	go keeper.run(ticker, stop, keeper.loopGen)
}

func (keeper *TimeKeeper) stopLoopLocked() {
	if keeper.loopStop == nil {
		return
	}
	keeper.loopTicker.Stop()
	close(keeper.loopStop)
	keeper.loopStop = nil
	keeper.loopTicker = nil
	keeper.loopGen++
}

func (keeper *TimeKeeper) run(ticker clock.Ticker, stop <-chan struct{}, generation uint64) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			keeper.tick(generation)
		}
	}
}

func (keeper *TimeKeeper) tick(generation uint64) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed || generation != keeper.loopGen {
		return
	}
	keeper.reconcileLocked(keeper.now())
}

func (keeper *TimeKeeper) now() time.Time {
	return keeper.clock.Now().Truncate(time.Millisecond)
}

func (keeper *TimeKeeper) displayLocked() Display {
	total := int(ceilSecond(keeper.remaining) / time.Second)
	return Display{
		Topic:     keeper.session.Topic,
		Minutes:   total / 60,
		Seconds:   total % 60,
		Remaining: keeper.remaining,
		Running:   keeper.session.Running,
		Active:    keeper.session.Active,
		State:     keeper.state,
	}
}

func (keeper *TimeKeeper) progressLocked() float64 {
	if keeper.planned <= 0 {
		return 0
	}
	progress := float64(keeper.planned-keeper.remaining) / float64(keeper.planned)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

func (keeper *TimeKeeper) emitStateLocked(now time.Time) {
	keeper.emitLocked(Event{
		Type:      EventStateChange,
		State:     keeper.state,
		Topic:     keeper.session.Topic,
		Remaining: keeper.remaining,
		Progress:  keeper.progressLocked(),
		At:        now,
	})
}

func (keeper *TimeKeeper) emitProgressLocked(now time.Time) {
	keeper.emitLocked(Event{
		Type:      EventProgress,
		State:     keeper.state,
		Topic:     keeper.session.Topic,
		Remaining: keeper.remaining,
		Progress:  keeper.progressLocked(),
		At:        now,
	})
}

// emitLocked never blocks. A full subscriber misses the event, except
// EventCompleted, which evicts the oldest buffered event to make room.
func (keeper *TimeKeeper) emitLocked(event Event) {
	for _, ch := range keeper.events {
		select {
		case ch <- event:
			continue
		default:
		}
		if event.Type != EventCompleted {
			continue
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
			keeper.logger.Warn("completion event dropped", "topic", event.Topic)
		}
	}
}

func validateDuration(duration time.Duration) error {
	if duration < time.Second {
		return &ValidationError{Field: "duration", Reason: "must be at least one second"}
	}
	return nil
}

func ceilSecond(value time.Duration) time.Duration {
	if value <= 0 {
		return 0
	}
	if rem := value % time.Second; rem != 0 {
		return value - rem + time.Second
	}
	return value
}

func formatMinutesSeconds(minutes, seconds int) string {
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
