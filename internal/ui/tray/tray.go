package tray

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnPreferences func()
	OnTakeBreak   func()
	OnSkipBreak   func()
	OnFocusFor    func(time.Duration)
	OnStopFocus   func()
	OnQuit        func()
}

// focusPresets are offered next to the configured focus duration, which is passed as zero.
var focusPresets = []time.Duration{25 * time.Minute, 60 * time.Minute, 90 * time.Minute}

// Manager handles system tray state.
type Manager struct {
	app         desktop.App
	statusItem  *fyne.MenuItem
	breakItem   *fyne.MenuItem
	skipItem    *fyne.MenuItem
	focusItem   *fyne.MenuItem
	stopFocus   *fyne.MenuItem
	callbacks   Callbacks
	inBreak     bool
	focusActive bool
	suppressed  bool
	statusLabel string
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
	}

	manager.statusItem = fyne.NewMenuItem("Status: starting...", nil)
	manager.statusItem.Disabled = true

	manager.breakItem = fyne.NewMenuItem("Take a break now", func() {
		if manager.callbacks.OnTakeBreak != nil {
			manager.callbacks.OnTakeBreak()
		}
	})

	children := []*fyne.MenuItem{fyne.NewMenuItem("Default duration", func() {
		manager.focusFor(0)
	})}
	for _, preset := range focusPresets {
		preset := preset
		children = append(children, fyne.NewMenuItem(fmt.Sprintf("%d minutes", int(preset.Minutes())), func() {
			manager.focusFor(preset)
		}))
	}
	manager.focusItem = fyne.NewMenuItem("Focus mode", nil)
	manager.focusItem.ChildMenu = fyne.NewMenu("", children...)

	manager.stopFocus = fyne.NewMenuItem("Stop focus mode", func() {
		if manager.callbacks.OnStopFocus != nil {
			manager.callbacks.OnStopFocus()
		}
	})
	manager.stopFocus.Disabled = true

	manager.skipItem = fyne.NewMenuItem("Skip break", func() {
		if manager.callbacks.OnSkipBreak != nil {
			manager.callbacks.OnSkipBreak()
		}
	})
	manager.skipItem.Disabled = true

	manager.refreshMenu()
	return manager
}

// SetStatus updates the status label.
func (manager *Manager) SetStatus(status string) {
	if status == manager.statusLabel {
		return
	}
	manager.statusLabel = status
	manager.statusItem.Label = fmt.Sprintf("Status: %s", status)
	manager.refreshMenu()
}

// SetInBreak toggles break-related menu items.
func (manager *Manager) SetInBreak(inBreak bool) {
	manager.inBreak = inBreak
	manager.refreshItems()
}

// SetFocusActive toggles focus-related menu items.
func (manager *Manager) SetFocusActive(active bool) {
	manager.focusActive = active
	manager.refreshItems()
}

// SetSuppressed disables manual breaks during sleep time or on disabled days.
func (manager *Manager) SetSuppressed(suppressed bool) {
	manager.suppressed = suppressed
	manager.refreshItems()
}

func (manager *Manager) focusFor(duration time.Duration) {
	if manager.callbacks.OnFocusFor != nil {
		manager.callbacks.OnFocusFor(duration)
	}
}

func (manager *Manager) refreshItems() {
	manager.skipItem.Disabled = !manager.inBreak
	manager.breakItem.Disabled = manager.inBreak || manager.focusActive || manager.suppressed
	manager.stopFocus.Disabled = !manager.focusActive
	manager.refreshMenu()
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(fyne.NewMenu("blinkbreak",
		manager.statusItem,
		fyne.NewMenuItem("Preferences", func() {
			if manager.callbacks.OnPreferences != nil {
				manager.callbacks.OnPreferences()
			}
		}),
		manager.breakItem,
		manager.focusItem,
		manager.stopFocus,
		manager.skipItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			if manager.callbacks.OnQuit != nil {
				manager.callbacks.OnQuit()
			}
		}),
	))
}
