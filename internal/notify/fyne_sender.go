package notify

import "fyne.io/fyne/v2"

// AppSender delivers notifications through the fyne application.
type AppSender struct {
	app fyne.App
}

// NewAppSender wraps app.
func NewAppSender(app fyne.App) *AppSender {
	return &AppSender{app: app}
}

// Send posts a desktop/mobile notification on the UI thread.
func (sender *AppSender) Send(title, body string) {
	fyne.Do(func() {
		sender.app.SendNotification(fyne.NewNotification(title, body))
	})
}
