package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"studytimer/internal/core/clock"
	"studytimer/internal/core/timekeeper"
	"studytimer/internal/notify"
	"studytimer/internal/platform"
	"studytimer/internal/storage"
	"studytimer/internal/ui/overlay"
	"studytimer/internal/ui/preferences"
	"studytimer/internal/ui/screen"
	"studytimer/internal/ui/tray"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
)

const (
	appName = "StudyTimer"
	appID   = "com.studytimer.app"
)

func main() {
	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		log.Printf("single instance: %v", err)
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	settings, err := storage.LoadSettings(appName)
	if err != nil {
		log.Printf("load settings: %v", err)
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(parseLevel(settings.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	fyneApp := app.NewWithID(appID)
	fyneApp.SetIcon(theme.HistoryIcon())

	store, err := openSessionStore(fyneApp, settings.Store)
	if err != nil {
		logger.Warn("file session store unavailable, using preferences", "error", err)
		store = storage.NewPreferencesStore(fyneApp.Preferences())
	}

	var history *storage.HistoryStore
	if settings.HistoryEnabled {
		history, err = storage.OpenDefaultHistory(appName)
		if err != nil {
			logger.Warn("session history disabled", "error", err)
			history = nil
		} else {
			defer history.Close()
		}
	}

	realClock := clock.Real{}
	scheduler := notify.NewLocalScheduler(realClock, notify.NewAppSender(fyneApp),
		settings.TimerConfig().Notification, logger.With("component", "notify"))

	options := timekeeper.Options{
		Clock:     realClock,
		Store:     store,
		Scheduler: scheduler,
		Logger:    logger.With("component", "timekeeper"),
	}
	if history != nil {
		options.History = history
	}
	keeper := timekeeper.New(settings.TimerConfig(), options)
	defer keeper.Close()

	mainScreen := screen.New(fyneApp, keeper, settings.DefaultDuration, logger.With("component", "screen"))

	completion := overlay.New(fyneApp, overlay.Config{
		Title: settings.NotificationTitle,
		Body:  settings.NotificationBody,
	})
	completion.SetOnDone(func() {
		if err := keeper.Acknowledge(); err != nil && !errors.Is(err, timekeeper.ErrNotCompleted) {
			logger.Warn("acknowledge completion", "error", err)
		}
		mainScreen.Apply(keeper.View())
	})
	completion.SetOnAgain(func() {
		if err := keeper.Reset(settings.DefaultDuration); err != nil {
			logger.Warn("restart session", "error", err)
		}
		mainScreen.Apply(keeper.View())
		mainScreen.Show()
	})

	prefsWindow := preferences.New(fyneApp, settings, func(updated preferences.Settings) {
		if updated.Store != settings.Store || updated.HistoryEnabled != settings.HistoryEnabled {
			logger.Info("storage settings change applies after restart")
		}
		settings = updated
		if err := storage.SaveSettings(appName, settings); err != nil {
			logger.Warn("save settings", "error", err)
		}
		logLevel.Set(parseLevel(settings.LogLevel))
		keeper.UpdateConfig(settings.TimerConfig())
		scheduler.SetText(settings.TimerConfig().Notification)
		completion.UpdateConfig(overlay.Config{
			Title: settings.NotificationTitle,
			Body:  settings.NotificationBody,
		})
		mainScreen.SetDefaultDuration(settings.DefaultDuration)
	})

	var trayManager *tray.Manager
	if desktopApp, ok := fyneApp.(desktop.App); ok {
		trayManager = tray.New(desktopApp, tray.Callbacks{
			OnShow: mainScreen.Show,
			OnPreferences: func() {
				prefsWindow.Show()
			},
			OnTogglePause: func() {
				var err error
				if keeper.State() == timekeeper.StatePaused {
					err = keeper.Resume()
				} else {
					err = keeper.Pause()
				}
				if err != nil {
					logger.Debug("tray toggle ignored", "error", err)
				}
			},
			OnStop: func() {
				mainScreen.Show()
				mainScreen.RequestStop()
			},
			OnQuit: func() {
				fyneApp.Quit()
			},
		})
		desktopApp.SetSystemTrayIcon(theme.HistoryIcon())
		mainScreen.Window().SetCloseIntercept(func() {
			mainScreen.Window().Hide()
		})
	} else {
		mainScreen.Window().SetMaster()
	}

	events := keeper.Subscribe(16)
	go func() {
		for event := range events {
			handleEvent(event, keeper, mainScreen, completion, trayManager, history)
		}
	}()

	platform.ObserveLifecycle(fyneApp.Lifecycle(), keeper, logger.With("component", "lifecycle"))

	state := keeper.Restore()
	logger.Info("timer restored", "state", state)
	mainScreen.Apply(keeper.View())
	updateSummary(mainScreen, history, logger)

	mainScreen.Show()
	fyneApp.Run()
}

func openSessionStore(fyneApp fyne.App, backend string) (timekeeper.SessionStore, error) {
	if backend == preferences.StoreFile {
		store, err := storage.NewDefaultFileStore(appName)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return storage.NewPreferencesStore(fyneApp.Preferences()), nil
}

func handleEvent(event timekeeper.Event, keeper *timekeeper.TimeKeeper, mainScreen *screen.Window, completion *overlay.Window, trayManager *tray.Manager, history *storage.HistoryStore) {
	display := keeper.View()
	fyne.Do(func() {
		mainScreen.Apply(display)
		if trayManager != nil {
			trayManager.Update(display)
		}
		if event.Type == timekeeper.EventCompleted {
			completion.Show(event.Topic)
		}
		if event.Type == timekeeper.EventStateChange && event.State == timekeeper.StateIdle && completion.Visible() {
			completion.Hide()
		}
	})

	switch event.Type {
	case timekeeper.EventSchedulingError:
		mainScreen.Notify("Notifications are unavailable. The timer still finishes while the app is open.")
	case timekeeper.EventPersistError:
		mainScreen.Notify("The timer could not be saved and may not survive a restart.")
	case timekeeper.EventCompleted:
		updateSummary(mainScreen, history, slog.Default())
	}
}

func updateSummary(mainScreen *screen.Window, history *storage.HistoryStore, logger *slog.Logger) {
	if history == nil {
		return
	}
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count, total, err := history.CompletedSince(startOfDay)
	if err != nil {
		logger.Warn("study summary", "error", err)
		return
	}
	if count == 0 {
		mainScreen.SetSummary("")
		return
	}
	mainScreen.SetSummary(fmt.Sprintf("Today: %d sessions, %s studied", count, formatTotal(total)))
}

func formatTotal(total time.Duration) string {
	hours := int(total / time.Hour)
	minutes := int(total % time.Hour / time.Minute)
	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh%02dm", hours, minutes)
}

func parseLevel(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo
	}
	return level
}
