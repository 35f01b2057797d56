package tray

import (
	"fmt"

	"studytimer/internal/core/timekeeper"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShow        func()
	OnPreferences func()
	OnTogglePause func()
	OnStop        func()
	OnQuit        func()
}

// Manager handles system tray state.
type Manager struct {
	app         desktop.App
	statusItem  *fyne.MenuItem
	pauseItem   *fyne.MenuItem
	stopItem    *fyne.MenuItem
	callbacks   Callbacks
	paused      bool
	active      bool
	statusLabel string
}

// New creates a tray manager with the provided callbacks. A nil app keeps the
// menu state without installing it.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:         app,
		callbacks:   callbacks,
		statusLabel: "idle",
	}

	manager.statusItem = fyne.NewMenuItem("", nil)
	manager.statusItem.Disabled = true

	manager.pauseItem = fyne.NewMenuItem("Pause", func() {
		if manager.callbacks.OnTogglePause != nil {
			manager.callbacks.OnTogglePause()
		}
	})
	manager.pauseItem.Disabled = true

	manager.stopItem = fyne.NewMenuItem("Stop...", func() {
		if manager.callbacks.OnStop != nil {
			manager.callbacks.OnStop()
		}
	})
	manager.stopItem.Disabled = true

	manager.refreshStatus()
	return manager
}

// Update reflects display in the menu.
func (manager *Manager) Update(display timekeeper.Display) {
	manager.statusLabel = Status(display)
	manager.active = display.Active
	manager.paused = display.State == timekeeper.StatePaused

	if manager.paused {
		manager.pauseItem.Label = "Resume"
	} else {
		manager.pauseItem.Label = "Pause"
	}
	running := display.State == timekeeper.StateRunning
	manager.pauseItem.Disabled = !running && !manager.paused
	manager.stopItem.Disabled = !manager.active
	manager.refreshStatus()
}

// Status renders display as a one-line tray status.
func Status(display timekeeper.Display) string {
	switch display.State {
	case timekeeper.StateRunning:
		return fmt.Sprintf("%s %s", display.Topic, display.Clock())
	case timekeeper.StatePaused:
		return fmt.Sprintf("%s %s (paused)", display.Topic, display.Clock())
	case timekeeper.StateCompleted:
		return fmt.Sprintf("%s finished", display.Topic)
	default:
		return "idle"
	}
}

func (manager *Manager) refreshStatus() {
	manager.statusItem.Label = fmt.Sprintf("Status: %s", manager.statusLabel)
	manager.refreshMenu()
}

func (manager *Manager) menu() *fyne.Menu {
	return fyne.NewMenu("StudyTimer",
		manager.statusItem,
		fyne.NewMenuItem("Show timer", func() {
			if manager.callbacks.OnShow != nil {
				manager.callbacks.OnShow()
			}
		}),
		manager.pauseItem,
		manager.stopItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Preferences", func() {
			if manager.callbacks.OnPreferences != nil {
				manager.callbacks.OnPreferences()
			}
		}),
		fyne.NewMenuItem("Quit", func() {
			if manager.callbacks.OnQuit != nil {
				manager.callbacks.OnQuit()
			}
		}),
	)
}

func (manager *Manager) refreshMenu() {
	if manager.app != nil {
		manager.app.SetSystemTrayMenu(manager.menu())
	}
}
