package timekeeper

import "time"

// State represents the current TimeKeeper mode.
type State string

const (
	// StateIdle is the gap before a work session begins, including the settle delay after a break.
	StateIdle  State = "idle"
	StateWork  State = "work"
	StateBreak State = "break"
)

// EventType defines the type of TimeKeeper event.
type EventType string

const (
	EventBreakStart      EventType = "break_start"
	EventBreakEnd        EventType = "break_end"
	EventTimeUpdate      EventType = "time_update"
	EventFocusUpdate     EventType = "focus_update"
	EventSleepModeChange EventType = "sleep_mode_change"
	EventBreakWarning    EventType = "break_warning"
	EventBreakCountdown  EventType = "break_countdown"
	EventSettingsChange  EventType = "settings_change"
)

// Event represents a TimeKeeper update for observers.
type Event struct {
	Type  EventType
	State State
	// Seconds carries the remaining work, break, focus or countdown seconds depending on Type.
	Seconds int
	// Minutes is set on EventBreakWarning.
	Minutes int
	InSleep bool
	At      time.Time
}

// Snapshot is a point-in-time view of the scheduler.
type Snapshot struct {
	State          State
	WorkRemaining  int
	WorkInterval   int
	BreakRemaining int
	FocusActive    bool
	FocusRemaining int
	InSleep        bool
	DayAllowed     bool
	SettingsLocked bool
	LockRemaining  time.Duration
}
