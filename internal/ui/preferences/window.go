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

// LockQuery reports whether edits are currently refused and for how long.
type LockQuery func() (bool, time.Duration)

// weekdayOrder lists days Monday first for display.
var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// Window handles the preferences UI.
type Window struct {
	window     fyne.Window
	settings   Settings
	onSave     func(Settings)
	isLocked   LockQuery
	lockLabel  *widget.Label
	workInt    *widget.Entry
	breakDur   *widget.Entry
	lockDur    *widget.Entry
	focusDur   *widget.Entry
	lockOnSave *widget.Check
	notify     *widget.Check
	systemNote *widget.Check
	thresholds *widget.Entry
	sleep      *widget.Check
	sleepStart *widget.Entry
	sleepEnd   *widget.Entry
	schedule   *widget.Check
	days       map[time.Weekday]*widget.Check
	opacity    *widget.Slider
	fullscreen *widget.Check
	saveButton *widget.Button
}

// New creates a preferences window.
func New(app fyne.App, settings Settings, isLocked LockQuery, onSave func(Settings)) *Window {
	window := app.NewWindow("blinkbreak Settings")

	prefs := &Window{
		window:     window,
		onSave:     onSave,
		isLocked:   isLocked,
		lockLabel:  widget.NewLabel(""),
		workInt:    widget.NewEntry(),
		breakDur:   widget.NewEntry(),
		lockDur:    widget.NewEntry(),
		focusDur:   widget.NewEntry(),
		lockOnSave: widget.NewCheck("Lock settings after saving", nil),
		notify:     widget.NewCheck("Warn before breaks", nil),
		systemNote: widget.NewCheck("Use system notifications", nil),
		thresholds: widget.NewEntry(),
		sleep:      widget.NewCheck("Enable sleep time", nil),
		sleepStart: widget.NewEntry(),
		sleepEnd:   widget.NewEntry(),
		schedule:   widget.NewCheck("Only on selected days", nil),
		days:       make(map[time.Weekday]*widget.Check, len(weekdayOrder)),
		opacity:    widget.NewSlider(0.7, 0.95),
		fullscreen: widget.NewCheck("Fullscreen overlay", nil),
	}
	prefs.opacity.Step = 0.01
	prefs.thresholds.SetPlaceHolder("5, 2, 1")

	dayRow := container.NewHBox()
	for _, day := range weekdayOrder {
		check := widget.NewCheck(day.String()[:3], nil)
		prefs.days[day] = check
		dayRow.Add(check)
	}

	form := container.NewVBox(
		widget.NewLabelWithStyle("Breaks", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Break every"), prefs.workInt, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Break duration"), prefs.breakDur, widget.NewLabel("sec")),
		container.NewHBox(widget.NewLabel("Focus mode duration"), prefs.focusDur, widget.NewLabel("min")),
		widget.NewLabelWithStyle("Notifications", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.notify,
		prefs.systemNote,
		container.NewHBox(widget.NewLabel("Warn at"), prefs.thresholds, widget.NewLabel("min before")),
		widget.NewLabelWithStyle("Sleep time", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.sleep,
		container.NewHBox(widget.NewLabel("From"), prefs.sleepStart, widget.NewLabel("to"), prefs.sleepEnd),
		widget.NewLabelWithStyle("Schedule", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.schedule,
		dayRow,
		widget.NewLabelWithStyle("Overlay", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Overlay opacity"),
		prefs.opacity,
		prefs.fullscreen,
		widget.NewLabelWithStyle("Lock", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.lockOnSave,
		container.NewHBox(widget.NewLabel("Lock for"), prefs.lockDur, widget.NewLabel("min")),
		prefs.lockLabel,
	)

	prefs.saveButton = widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", func() {
		window.Hide()
	})
	buttons := container.NewHBox(prefs.saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, container.NewVScroll(form)))
	window.Resize(fyne.NewSize(480, 620))

	prefs.UpdateSettings(settings)
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.refreshLock()
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.workInt.SetText(strconv.Itoa(int(settings.WorkInterval.Minutes())))
	prefs.breakDur.SetText(strconv.Itoa(int(settings.BreakDuration.Seconds())))
	prefs.lockDur.SetText(strconv.Itoa(int(settings.LockDuration.Minutes())))
	prefs.focusDur.SetText(strconv.Itoa(int(settings.FocusDuration.Minutes())))
	prefs.lockOnSave.SetChecked(settings.LockOnSave)
	prefs.notify.SetChecked(settings.NotificationsEnabled)
	prefs.systemNote.SetChecked(settings.SystemNotifications)
	prefs.thresholds.SetText(formatMinutesList(settings.NotificationMinutes))
	prefs.sleep.SetChecked(settings.SleepEnabled)
	prefs.sleepStart.SetText(formatClock(settings.SleepStartHour, settings.SleepStartMinute))
	prefs.sleepEnd.SetText(formatClock(settings.SleepEndHour, settings.SleepEndMinute))
	prefs.schedule.SetChecked(settings.ScheduleEnabled)
	for day, check := range prefs.days {
		check.SetChecked(settings.ScheduleDays[day])
	}
	prefs.opacity.Value = settings.OverlayOpacity
	prefs.opacity.Refresh()
	prefs.fullscreen.SetChecked(settings.Fullscreen)
}

// RefreshLock updates the lock label and Save button from the lock state.
func (prefs *Window) RefreshLock() {
	prefs.refreshLock()
}

func (prefs *Window) refreshLock() bool {
	if prefs.isLocked == nil {
		return false
	}
	locked, remaining := prefs.isLocked()
	if !locked {
		prefs.lockLabel.SetText("")
		prefs.saveButton.Enable()
		return false
	}
	prefs.lockLabel.SetText(fmt.Sprintf("Settings are locked for %s", remaining.Round(time.Second)))
	prefs.saveButton.Disable()
	return true
}

func (prefs *Window) handleSave() {
	if prefs.refreshLock() {
		return
	}
	settings := prefs.settings

	if minutes, ok := parsePositiveInt(prefs.workInt.Text); ok {
		settings.WorkInterval = time.Duration(minutes) * time.Minute
	}
	if seconds, ok := parsePositiveInt(prefs.breakDur.Text); ok {
		settings.BreakDuration = time.Duration(seconds) * time.Second
	}
	if minutes, ok := parsePositiveInt(prefs.lockDur.Text); ok {
		settings.LockDuration = time.Duration(minutes) * time.Minute
	}
	if minutes, ok := parsePositiveInt(prefs.focusDur.Text); ok {
		settings.FocusDuration = time.Duration(minutes) * time.Minute
	}
	if minutes, ok := parseMinutesList(prefs.thresholds.Text); ok {
		settings.NotificationMinutes = minutes
	}
	if hour, minute, ok := parseClock(prefs.sleepStart.Text); ok {
		settings.SleepStartHour, settings.SleepStartMinute = hour, minute
	}
	if hour, minute, ok := parseClock(prefs.sleepEnd.Text); ok {
		settings.SleepEndHour, settings.SleepEndMinute = hour, minute
	}

	settings.LockOnSave = prefs.lockOnSave.Checked
	settings.NotificationsEnabled = prefs.notify.Checked
	settings.SystemNotifications = prefs.systemNote.Checked
	settings.SleepEnabled = prefs.sleep.Checked
	settings.ScheduleEnabled = prefs.schedule.Checked
	for day, check := range prefs.days {
		settings.ScheduleDays[day] = check.Checked
	}
	settings.OverlayOpacity = prefs.opacity.Value
	settings.Fullscreen = prefs.fullscreen.Checked

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

// parseClock accepts "H:MM" or "HH:MM" in 24-hour time.
func parseClock(value string) (int, int, bool) {
	hourText, minuteText, found := strings.Cut(strings.TrimSpace(value), ":")
	if !found {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(hourText)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(minuteText)
	if err != nil || minute < 0 || minute > 59 || len(minuteText) != 2 {
		return 0, 0, false
	}
	return hour, minute, true
}

func formatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// parseMinutesList reads a comma separated list of positive minutes. An empty list is valid.
func parseMinutesList(value string) ([]int, bool) {
	result := []int{}
	for _, field := range strings.Split(value, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		minutes, ok := parsePositiveInt(field)
		if !ok {
			return nil, false
		}
		result = append(result, minutes)
	}
	return result, true
}

func formatMinutesList(values []int) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		parts = append(parts, strconv.Itoa(value))
	}
	return strings.Join(parts, ", ")
}
