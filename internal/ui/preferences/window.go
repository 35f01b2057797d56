package preferences

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// Window handles the preferences UI.
type Window struct {
	window   fyne.Window
	settings Settings
	onSave   func(Settings)
	onCancel func()
	duration *widget.Entry
	title    *widget.Entry
	body     *widget.Entry
	store    *widget.RadioGroup
	history  *widget.Check
	logLevel *widget.Select
}

// New creates a preferences window.
func New(app fyne.App, settings Settings, onSave func(Settings)) *Window {
	window := app.NewWindow("StudyTimer Settings")

	duration := widget.NewEntry()
	title := widget.NewEntry()
	body := widget.NewMultiLineEntry()
	body.Wrapping = fyne.TextWrapWord

	store := widget.NewRadioGroup([]string{StorePreferences, StoreFile}, nil)
	store.Horizontal = true

	history := widget.NewCheck("Keep a history of study sessions", nil)
	logLevel := widget.NewSelect([]string{"debug", "info", "warn", "error"}, nil)

	form := container.NewVBox(
		widget.NewLabelWithStyle("Timer", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewBorder(nil, nil, widget.NewLabel("Session length"), widget.NewLabel("min"), duration),
		widget.NewLabelWithStyle("Notification", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		title,
		body,
		widget.NewLabelWithStyle("Storage", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		store,
		widget.NewLabel("Storage changes apply after restart."),
		history,
		container.NewBorder(nil, nil, widget.NewLabel("Log level"), nil, logLevel),
	)

	saveButton := widget.NewButton("Save", nil)
	cancelButton := widget.NewButton("Cancel", nil)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	content := container.NewBorder(nil, buttons, nil, nil, form)
	window.SetContent(content)
	window.Resize(fyne.NewSize(420, 460))
	window.SetCloseIntercept(func() {
		window.Hide()
	})

	prefs := &Window{
		window:   window,
		onSave:   onSave,
		duration: duration,
		title:    title,
		body:     body,
		store:    store,
		history:  history,
		logLevel: logLevel,
	}
	prefs.UpdateSettings(settings)

	saveButton.OnTapped = prefs.handleSave
	cancelButton.OnTapped = func() {
		window.Hide()
		prefs.UpdateSettings(prefs.settings)
		if prefs.onCancel != nil {
			prefs.onCancel()
		}
	}

	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// SetOnCancel sets the handler run when editing is abandoned.
func (prefs *Window) SetOnCancel(handler func()) {
	prefs.onCancel = handler
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.duration.SetText(fmt.Sprintf("%d", int(settings.DefaultDuration.Minutes())))
	prefs.title.SetText(settings.NotificationTitle)
	prefs.body.SetText(settings.NotificationBody)
	prefs.store.SetSelected(settings.Store)
	prefs.history.SetChecked(settings.HistoryEnabled)
	prefs.logLevel.SetSelected(settings.LogLevel)
}

func (prefs *Window) handleSave() {
	settings := prefs.settings

	if minutes, ok := parsePositiveInt(prefs.duration.Text); ok {
		settings.DefaultDuration = time.Duration(minutes) * time.Minute
	}
	if title := strings.TrimSpace(prefs.title.Text); title != "" {
		settings.NotificationTitle = title
	}
	if body := strings.TrimSpace(prefs.body.Text); body != "" {
		settings.NotificationBody = body
	}
	if prefs.store.Selected != "" {
		settings.Store = prefs.store.Selected
	}
	if prefs.logLevel.Selected != "" {
		settings.LogLevel = prefs.logLevel.Selected
	}
	settings.HistoryEnabled = prefs.history.Checked

	prefs.settings = settings
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
