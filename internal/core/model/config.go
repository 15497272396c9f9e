package model

import "time"

// SleepWindow is a daily time-of-day range [Start, End) that may wrap past midnight.
type SleepWindow struct {
	Enabled     bool
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
}

// StartMinutes returns the window start as minutes since midnight.
func (window SleepWindow) StartMinutes() int {
	return window.StartHour*60 + window.StartMinute
}

// EndMinutes returns the window end as minutes since midnight.
func (window SleepWindow) EndMinutes() int {
	return window.EndHour*60 + window.EndMinute
}

// WeeklySchedule enables the break cycle per weekday.
// Days is indexed by time.Weekday (Sunday=0).
type WeeklySchedule struct {
	Enabled bool
	Days    [7]bool
}

// NotificationConfig controls advance warnings before a break.
type NotificationConfig struct {
	Enabled bool
	// UseSystem routes warnings to OS notifications instead of the in-app indicator.
	UseSystem bool
	// Thresholds are the minutes-before-break at which a warning fires.
	Thresholds []int
}

// TimeKeeperConfig contains runtime settings for the TimeKeeper state machine.
type TimeKeeperConfig struct {
	WorkInterval  time.Duration
	BreakDuration time.Duration
	LockDuration  time.Duration
	FocusDuration time.Duration

	Notifications NotificationConfig
	Sleep         SleepWindow
	Schedule      WeeklySchedule
}
