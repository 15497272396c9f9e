package main

import (
	"fmt"
	"log"
	"time"

	"blinkbreak/internal/core/timekeeper"
	"blinkbreak/internal/platform"
	"blinkbreak/internal/storage"
	"blinkbreak/internal/ui/notifier"
	"blinkbreak/internal/ui/overlay"
	"blinkbreak/internal/ui/preferences"
	"blinkbreak/internal/ui/tray"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	appName      = "blinkbreak"
	breakMessage = "Look away from the screen and rest your eyes."
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

	settings := preferences.DefaultSettings()
	store, err := storage.OpenUserStore(appName)
	if err != nil {
		log.Printf("open settings: %v", err)
	} else {
		if err := store.Reload(); err != nil {
			log.Printf("load settings: %v", err)
		}
		settings = storage.LoadSettings(store)
	}

	fyneApp := app.NewWithID("com.blinkbreak.app")
	fyneApp.SetIcon(theme.VisibilityIcon())
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		log.Printf("system tray unsupported on this platform")
		return
	}

	trayWindow := fyneApp.NewWindow("blinkbreak")
	trayWindow.SetContent(widget.NewLabel("blinkbreak is running in the system tray."))
	trayWindow.SetCloseIntercept(func() {
		trayWindow.Hide()
	})
	trayWindow.Hide()
	desktopApp.SetSystemTrayWindow(trayWindow)

	keeper := timekeeper.New(settings.TimeKeeperConfig(), timekeeper.Config{
		TickInterval: time.Second,
		ResumeDelay:  timekeeper.DefaultResumeDelay,
	})

	overlayWindow := overlay.New(fyneApp, overlayConfig(settings))
	overlayWindow.SetOnSkip(func() {
		keeper.SkipBreak()
	})

	prefsWindow := preferences.New(fyneApp, settings, keeper.SettingsLocked, func(updated preferences.Settings) {
		settings = updated
		if store != nil {
			if err := storage.SaveSettings(store, settings); err != nil {
				log.Printf("save settings: %v", err)
			}
		}
		keeper.UpdateConfig(settings.TimeKeeperConfig(), settings.LockOnSave)
		overlayWindow.UpdateConfig(overlayConfig(settings))
	})

	trayManager := tray.New(desktopApp, tray.Callbacks{
		OnPreferences: func() {
			prefsWindow.Show()
		},
		OnTakeBreak: func() {
			keeper.TakeBreak()
		},
		OnSkipBreak: func() {
			keeper.SkipBreak()
		},
		OnFocusFor: func(duration time.Duration) {
			keeper.StartFocus(duration)
		},
		OnStopFocus: func() {
			keeper.StopFocus()
		},
		OnQuit: func() {
			keeper.Stop()
			fyneApp.Quit()
		},
	})
	desktopApp.SetSystemTrayIcon(theme.VisibilityIcon())

	keeper.SetNotifier(notifier.New(fyneApp, func(seconds int) {
		fyne.Do(func() {
			trayManager.SetStatus(fmt.Sprintf("break in %ds", seconds))
		})
	}))

	events := keeper.Subscribe(16)
	go func() {
		for event := range events {
			event := event
			fyne.Do(func() {
				handleEvent(event, keeper, overlayWindow, prefsWindow, trayManager)
			})
		}
	}()

	keeper.Start()
	fyneApp.Run()
}

func handleEvent(event timekeeper.Event, keeper *timekeeper.TimeKeeper, overlayWindow *overlay.Window, prefsWindow *preferences.Window, trayManager *tray.Manager) {
	switch event.Type {
	case timekeeper.EventBreakStart:
		trayManager.SetInBreak(true)
		trayManager.SetStatus("on break")
		overlayWindow.ShowBreak(keeper.BreakRemaining)
	case timekeeper.EventBreakEnd:
		trayManager.SetInBreak(false)
		if keeper.Snapshot().InSleep {
			overlayWindow.ShowSleep()
		} else {
			overlayWindow.Hide()
		}
	case timekeeper.EventTimeUpdate:
		trayManager.SetStatus(workStatus(event.Seconds, keeper.Snapshot()))
	case timekeeper.EventFocusUpdate:
		trayManager.SetFocusActive(event.Seconds > 0)
	case timekeeper.EventSleepModeChange:
		handleSleepChange(event.InSleep, overlayWindow, trayManager)
	case timekeeper.EventBreakWarning:
		trayManager.SetStatus(fmt.Sprintf("break in %d min", event.Minutes))
	case timekeeper.EventSettingsChange:
		prefsWindow.RefreshLock()
		snapshot := keeper.Snapshot()
		trayManager.SetSuppressed(snapshot.InSleep || !snapshot.DayAllowed)
	}
}

func handleSleepChange(inSleep bool, overlayWindow *overlay.Window, trayManager *tray.Manager) {
	trayManager.SetSuppressed(inSleep)
	visible, mode := overlayWindow.Visible()
	if visible && mode == overlay.ModeBreak {
		return
	}
	if inSleep {
		overlayWindow.ShowSleep()
		return
	}
	overlayWindow.Hide()
}

func workStatus(remainingSeconds int, snapshot timekeeper.Snapshot) string {
	switch {
	case snapshot.FocusActive:
		return "focus mode, " + formatSeconds(snapshot.FocusRemaining) + " left"
	case snapshot.InSleep:
		return "sleep time"
	case !snapshot.DayAllowed:
		return "breaks off today"
	case snapshot.State == timekeeper.StateBreak:
		return "on break"
	}
	return "next break in " + formatSeconds(remainingSeconds)
}

func formatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func overlayConfig(settings preferences.Settings) overlay.Config {
	return overlay.Config{
		Opacity:    opacityToAlpha(settings.OverlayOpacity),
		Fullscreen: settings.Fullscreen,
		Message:    breakMessage,
	}
}

func opacityToAlpha(opacity float64) uint8 {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return uint8(opacity * 255)
}
