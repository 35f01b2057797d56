package preferences

import (
	"time"

	"studytimer/internal/core/model"
)

// Store backends for the timer snapshot.
const (
	StorePreferences = "preferences"
	StoreFile        = "file"
)

// Settings defines editable user preferences.
type Settings struct {
	DefaultDuration time.Duration
	TickInterval    time.Duration

	NotificationTitle string
	NotificationBody  string

	Store          string
	HistoryEnabled bool
	LogLevel       string
}

// DefaultSettings returns default settings for StudyTimer.
func DefaultSettings() Settings {
	text := model.DefaultNotificationText()
	return Settings{
		DefaultDuration:   25 * time.Minute,
		TickInterval:      time.Second,
		NotificationTitle: text.Title,
		NotificationBody:  text.Body,
		Store:             StorePreferences,
		HistoryEnabled:    true,
		LogLevel:          "info",
	}
}

// TimerConfig converts settings to TimerConfig.
func (settings Settings) TimerConfig() model.TimerConfig {
	return model.TimerConfig{
		TickInterval:    settings.TickInterval,
		DefaultDuration: settings.DefaultDuration,
		Notification: model.NotificationText{
			Title: settings.NotificationTitle,
			Body:  settings.NotificationBody,
		},
	}
}
