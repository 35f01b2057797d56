package overlay

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// Config defines the completion alert text.
type Config struct {
	Title string
	Body  string
}

// Window is the alert shown when a study session completes.
type Window struct {
	app         fyne.App
	window      fyne.Window
	config      Config
	titleLabel  *canvas.Text
	topicLabel  *canvas.Text
	bodyLabel   *widget.Label
	againButton *widget.Button
	doneButton  *widget.Button
	onAgain     func()
	onDone      func()
	visible     bool
}

const (
	overlayWidthFraction  = float32(0.22)
	overlayHeightFraction = float32(0.22)
	defaultScreenWidth    = float32(1920)
	defaultScreenHeight   = float32(1080)
)

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// New creates the completion window. It stays hidden until Show.
func New(app fyne.App, config Config) *Window {
	window := app.NewWindow("StudyTimer")
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		// Splash window is undecorated (no native frame/buttons).
		window = driver.CreateSplashWindow()
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}

	background := canvas.NewRectangle(color.NRGBA{R: 0, G: 0, B: 0, A: 230})

	titleLabel := canvas.NewText(config.Title, color.NRGBA{R: 232, G: 190, B: 66, A: 255})
	titleLabel.Alignment = fyne.TextAlignCenter
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	titleLabel.TextSize = 22

	topicLabel := canvas.NewText("", color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	topicLabel.Alignment = fyne.TextAlignCenter
	topicLabel.TextStyle = fyne.TextStyle{Bold: true}
	topicLabel.TextSize = 16

	bodyLabel := widget.NewLabel(config.Body)
	bodyLabel.Alignment = fyne.TextAlignCenter
	bodyLabel.Wrapping = fyne.TextWrapWord

	againButton := widget.NewButton("Study again", nil)
	doneButton := widget.NewButton("Done", nil)
	doneButton.Importance = widget.HighImportance

	buttons := container.NewHBox(layout.NewSpacer(), againButton, doneButton, layout.NewSpacer())
	content := container.NewVBox(titleLabel, topicLabel, bodyLabel, buttons)
	window.SetContent(container.NewStack(background, container.NewPadded(content)))
	window.SetCloseIntercept(func() {
		doneButton.OnTapped()
	})

	overlay := &Window{
		app:         app,
		window:      window,
		config:      config,
		titleLabel:  titleLabel,
		topicLabel:  topicLabel,
		bodyLabel:   bodyLabel,
		againButton: againButton,
		doneButton:  doneButton,
	}
	againButton.OnTapped = func() {
		overlay.Hide()
		if overlay.onAgain != nil {
			overlay.onAgain()
		}
	}
	doneButton.OnTapped = func() {
		overlay.Hide()
		if overlay.onDone != nil {
			overlay.onDone()
		}
	}

	return overlay
}

// SetOnAgain sets the handler that restarts the finished topic.
func (overlay *Window) SetOnAgain(handler func()) {
	overlay.onAgain = handler
}

// SetOnDone sets the handler that dismisses the finished session.
func (overlay *Window) SetOnDone(handler func()) {
	overlay.onDone = handler
}

// Show presents the alert for topic. Must run on the UI goroutine.
func (overlay *Window) Show(topic string) {
	overlay.topicLabel.Text = topic
	overlay.topicLabel.Refresh()
	overlay.resizeToScreenFraction()
	overlay.visible = true
	overlay.window.Show()
	overlay.window.RequestFocus()
}

// Hide closes the alert.
func (overlay *Window) Hide() {
	overlay.visible = false
	overlay.window.Hide()
}

// Visible reports whether the alert is showing.
func (overlay *Window) Visible() bool {
	return overlay.visible
}

// UpdateConfig updates the alert text.
func (overlay *Window) UpdateConfig(config Config) {
	overlay.config = config
	overlay.titleLabel.Text = config.Title
	overlay.titleLabel.Refresh()
	overlay.bodyLabel.SetText(config.Body)
}

func (overlay *Window) resizeToScreenFraction() {
	screenSize := fyne.NewSize(defaultScreenWidth, defaultScreenHeight)
	canvasSize := overlay.window.Canvas().Size()
	// Canvas size can be reused as a proxy for monitor size when it is clearly screen-like.
	if canvasSize.Width >= 1024 && canvasSize.Height >= 720 {
		screenSize = canvasSize
	}

	width := screenSize.Width * overlayWidthFraction
	height := screenSize.Height * overlayHeightFraction
	minSize := overlay.window.Content().MinSize()
	if width < minSize.Width {
		width = minSize.Width
	}
	if height < minSize.Height {
		height = minSize.Height
	}

	overlay.window.Resize(fyne.NewSize(width, height))
	overlay.window.CenterOnScreen()
}
