package screen

import (
	"errors"
	"image/color"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"studytimer/internal/core/timekeeper"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// Controller is the command surface the screen drives.
type Controller interface {
	Start(topic string, duration time.Duration) error
	Reset(duration time.Duration) error
	Pause() error
	Resume() error
	RequestStop() (timekeeper.StopToken, error)
	ConfirmStop(token timekeeper.StopToken) error
	CancelStop(token timekeeper.StopToken) error
	View() timekeeper.Display
}

// Window is the main StudyTimer window: a topic form while idle and the
// countdown while a session is active.
type Window struct {
	window          fyne.Window
	controller      Controller
	logger          *slog.Logger
	defaultDuration time.Duration

	topicEntry   *widget.Entry
	minutesEntry *widget.Entry
	startButton  *widget.Button
	formError    *widget.Label
	summaryLabel *widget.Label

	topicLabel   *widget.Label
	clockLabel   *canvas.Text
	toggleButton *widget.Button
	resetButton  *widget.Button
	stopButton   *widget.Button
	noticeLabel  *widget.Label

	initial *fyne.Container
	timer   *fyne.Container

	// askConfirm opens the stop prompt and reports the answer.
	askConfirm func(onResult func(confirmed bool))
}

// New builds the main window. Call Apply to render state.
func New(app fyne.App, controller Controller, defaultDuration time.Duration, logger *slog.Logger) *Window {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultDuration <= 0 {
		defaultDuration = 25 * time.Minute
	}

	window := app.NewWindow("StudyTimer")
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}

	topicEntry := widget.NewEntry()
	topicEntry.SetPlaceHolder("What are you studying?")
	minutesEntry := widget.NewEntry()
	minutesEntry.SetText(strconv.Itoa(minutesOf(defaultDuration)))
	startButton := widget.NewButton("Start", nil)
	startButton.Importance = widget.HighImportance
	formError := widget.NewLabel("")
	formError.Hide()
	summaryLabel := widget.NewLabel("")
	summaryLabel.Hide()

	initial := container.NewVBox(
		widget.NewLabelWithStyle("New study session", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		topicEntry,
		container.NewBorder(nil, nil, widget.NewLabel("Duration"), widget.NewLabel("min"), minutesEntry),
		formError,
		startButton,
		summaryLabel,
	)

	topicLabel := widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	clockLabel := canvas.NewText("00:00", color.NRGBA{R: 232, G: 190, B: 66, A: 255})
	clockLabel.Alignment = fyne.TextAlignCenter
	clockLabel.TextStyle = fyne.TextStyle{Monospace: true}
	clockLabel.TextSize = 48
	toggleButton := widget.NewButton("Pause", nil)
	resetButton := widget.NewButton("Reset", nil)
	stopButton := widget.NewButton("Stop", nil)
	stopButton.Importance = widget.DangerImportance
	noticeLabel := widget.NewLabel("")
	noticeLabel.Wrapping = fyne.TextWrapWord
	noticeLabel.Hide()

	timer := container.NewVBox(
		topicLabel,
		clockLabel,
		container.NewHBox(layout.NewSpacer(), toggleButton, resetButton, stopButton, layout.NewSpacer()),
		noticeLabel,
	)
	timer.Hide()

	window.SetContent(container.NewPadded(container.NewStack(initial, timer)))
	window.Resize(fyne.NewSize(360, 260))

	screen := &Window{
		window:          window,
		controller:      controller,
		logger:          logger,
		defaultDuration: defaultDuration,
		topicEntry:      topicEntry,
		minutesEntry:    minutesEntry,
		startButton:     startButton,
		formError:       formError,
		summaryLabel:    summaryLabel,
		topicLabel:      topicLabel,
		clockLabel:      clockLabel,
		toggleButton:    toggleButton,
		resetButton:     resetButton,
		stopButton:      stopButton,
		noticeLabel:     noticeLabel,
		initial:         initial,
		timer:           timer,
	}
	screen.askConfirm = screen.showStopDialog

	startButton.OnTapped = screen.handleStart
	topicEntry.OnSubmitted = func(string) { screen.handleStart() }
	toggleButton.OnTapped = screen.handleToggle
	resetButton.OnTapped = screen.handleReset
	stopButton.OnTapped = screen.RequestStop

	return screen
}

// Window exposes the underlying fyne window.
func (screen *Window) Window() fyne.Window {
	return screen.window
}

// Show displays and focuses the window.
func (screen *Window) Show() {
	screen.window.Show()
	screen.window.RequestFocus()
}

// SetDefaultDuration changes the duration used by the form and by Reset.
func (screen *Window) SetDefaultDuration(duration time.Duration) {
	if duration <= 0 {
		return
	}
	screen.defaultDuration = duration
	screen.minutesEntry.SetText(strconv.Itoa(minutesOf(duration)))
}

// SetSummary shows a line about past sessions under the form. Safe to call
// from any goroutine.
func (screen *Window) SetSummary(summary string) {
	fyne.Do(func() {
		screen.summaryLabel.SetText(summary)
		if summary == "" {
			screen.summaryLabel.Hide()
			return
		}
		screen.summaryLabel.Show()
	})
}

// Notify shows a non-fatal problem under the countdown. Safe to call from any
// goroutine.
func (screen *Window) Notify(message string) {
	fyne.Do(func() {
		screen.setNotice(message)
	})
}

// Apply renders display. Must run on the UI goroutine.
func (screen *Window) Apply(display timekeeper.Display) {
	if display.State == timekeeper.StateIdle {
		screen.timer.Hide()
		screen.initial.Show()
		screen.setNotice("")
		return
	}

	screen.initial.Hide()
	screen.timer.Show()
	screen.topicLabel.SetText(display.Topic)
	screen.clockLabel.Text = display.Clock()
	screen.clockLabel.Refresh()

	switch display.State {
	case timekeeper.StateRunning:
		screen.toggleButton.SetText("Pause")
		screen.toggleButton.Enable()
	case timekeeper.StatePaused:
		screen.toggleButton.SetText("Resume")
		screen.toggleButton.Enable()
	case timekeeper.StateCompleted:
		screen.toggleButton.SetText("Pause")
		screen.toggleButton.Disable()
	}
}

// RequestStop asks for confirmation before ending the session.
func (screen *Window) RequestStop() {
	token, err := screen.controller.RequestStop()
	if err != nil {
		screen.logger.Debug("stop requested without session", "error", err)
		return
	}
	screen.askConfirm(func(confirmed bool) {
		screen.resolveStop(token, confirmed)
	})
}

func (screen *Window) resolveStop(token timekeeper.StopToken, confirmed bool) {
	var err error
	if confirmed {
		err = screen.controller.ConfirmStop(token)
	} else {
		err = screen.controller.CancelStop(token)
	}
	if err != nil && !errors.Is(err, timekeeper.ErrStopTokenInvalid) {
		screen.logger.Warn("resolve stop", "confirmed", confirmed, "error", err)
	}
	screen.Apply(screen.controller.View())
}

func (screen *Window) showStopDialog(onResult func(confirmed bool)) {
	dialog.ShowConfirm("Stop timer", "Are you sure you want to stop the timer?", onResult, screen.window)
}

func (screen *Window) handleStart() {
	duration := screen.defaultDuration
	if raw := strings.TrimSpace(screen.minutesEntry.Text); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			screen.setFormError("Duration must be a whole number of minutes.")
			return
		}
		duration = time.Duration(minutes) * time.Minute
	}

	if err := screen.controller.Start(screen.topicEntry.Text, duration); err != nil {
		screen.setFormError(formMessage(err))
		return
	}
	screen.setFormError("")
	screen.topicEntry.SetText("")
	screen.Apply(screen.controller.View())
}

func (screen *Window) handleToggle() {
	var err error
	if screen.controller.View().State == timekeeper.StatePaused {
		err = screen.controller.Resume()
	} else {
		err = screen.controller.Pause()
	}
	if err != nil {
		screen.logger.Debug("toggle ignored", "error", err)
	}
	screen.Apply(screen.controller.View())
}

func (screen *Window) handleReset() {
	if err := screen.controller.Reset(screen.defaultDuration); err != nil {
		screen.logger.Debug("reset ignored", "error", err)
	}
	screen.Apply(screen.controller.View())
}

func (screen *Window) setFormError(message string) {
	screen.formError.SetText(message)
	if message == "" {
		screen.formError.Hide()
		return
	}
	screen.formError.Show()
}

func (screen *Window) setNotice(message string) {
	screen.noticeLabel.SetText(message)
	if message == "" {
		screen.noticeLabel.Hide()
		return
	}
	screen.noticeLabel.Show()
}

func formMessage(err error) string {
	var validation *timekeeper.ValidationError
	if errors.As(err, &validation) {
		switch validation.Field {
		case "topic":
			return "Enter a topic to study."
		case "duration":
			return "Duration must be at least one second."
		}
	}
	if errors.Is(err, timekeeper.ErrSessionActive) {
		return "A session is already running."
	}
	return err.Error()
}

func minutesOf(duration time.Duration) int {
	minutes := int(duration / time.Minute)
	if minutes < 1 {
		return 1
	}
	return minutes
}
