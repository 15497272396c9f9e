package preferences

import (
	"time"

	"blinkbreak/internal/core/model"
)

// Settings defines editable user preferences.
type Settings struct {
	WorkInterval  time.Duration
	BreakDuration time.Duration
	LockDuration  time.Duration
	FocusDuration time.Duration
	LockOnSave    bool

	NotificationsEnabled bool
	SystemNotifications  bool
	NotificationMinutes  []int

	SleepEnabled     bool
	SleepStartHour   int
	SleepStartMinute int
	SleepEndHour     int
	SleepEndMinute   int

	ScheduleEnabled bool
	// ScheduleDays is indexed by time.Weekday.
	ScheduleDays [7]bool

	OverlayOpacity float64
	Fullscreen     bool
}

// DefaultSettings returns default settings for blinkbreak.
func DefaultSettings() Settings {
	return Settings{
		WorkInterval:  20 * time.Minute,
		BreakDuration: 20 * time.Second,
		LockDuration:  5 * time.Minute,
		FocusDuration: time.Hour,
		LockOnSave:    true,

		NotificationsEnabled: true,
		SystemNotifications:  true,
		NotificationMinutes:  []int{5, 2, 1},

		SleepEnabled:     false,
		SleepStartHour:   22,
		SleepStartMinute: 0,
		SleepEndHour:     7,
		SleepEndMinute:   0,

		ScheduleEnabled: false,
		ScheduleDays:    [7]bool{false, true, true, true, true, true, false},

		OverlayOpacity: 0.85,
		Fullscreen:     true,
	}
}

// TimeKeeperConfig converts settings to TimeKeeperConfig.
func (settings Settings) TimeKeeperConfig() model.TimeKeeperConfig {
	return model.TimeKeeperConfig{
		WorkInterval:  settings.WorkInterval,
		BreakDuration: settings.BreakDuration,
		LockDuration:  settings.LockDuration,
		FocusDuration: settings.FocusDuration,
		Notifications: model.NotificationConfig{
			Enabled:    settings.NotificationsEnabled,
			UseSystem:  settings.SystemNotifications,
			Thresholds: append([]int(nil), settings.NotificationMinutes...),
		},
		Sleep: model.SleepWindow{
			Enabled:     settings.SleepEnabled,
			StartHour:   settings.SleepStartHour,
			StartMinute: settings.SleepStartMinute,
			EndHour:     settings.SleepEndHour,
			EndMinute:   settings.SleepEndMinute,
		},
		Schedule: model.WeeklySchedule{
			Enabled: settings.ScheduleEnabled,
			Days:    settings.ScheduleDays,
		},
	}
}
