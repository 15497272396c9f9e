package storage

import (
	"fmt"
	"time"

	"blinkbreak/internal/ui/preferences"

	"github.com/spf13/cast"
)

// Persisted setting keys.
const (
	KeyWorkIntervalSeconds    = "work_interval_seconds"
	KeyBreakDurationSeconds   = "break_duration_seconds"
	KeySettingsLockSeconds    = "settings_lock_seconds"
	KeyFocusDurationSeconds   = "focus_duration_seconds"
	KeyLockOnSave             = "lock_on_save"
	KeyNotificationsEnabled   = "notifications_enabled"
	KeyUseSystemNotifications = "use_system_notifications"
	KeyNotificationThresholds = "notification_thresholds"
	KeySleepEnabled           = "sleep_enabled"
	KeySleepStartHour         = "sleep_start_hour"
	KeySleepStartMinute       = "sleep_start_minute"
	KeySleepEndHour           = "sleep_end_hour"
	KeySleepEndMinute         = "sleep_end_minute"
	KeyScheduleEnabled        = "schedule_enabled"
	KeyOverlayOpacity         = "overlay_opacity"
	KeyFullscreen             = "fullscreen"
)

// ScheduleDayKey returns the key for a weekday numbered Sunday=1 through Saturday=7.
func ScheduleDayKey(weekday int) string {
	return fmt.Sprintf("schedule_day_%d", weekday)
}

type batchSaver interface {
	SaveAll(values map[string]any) error
}

// LoadSettings reads user preferences from the store.
// Absent or invalid values fall back to the defaults.
func LoadSettings(store Store) preferences.Settings {
	settings := preferences.DefaultSettings()
	reader := settingsReader{store: store}

	settings.WorkInterval = reader.seconds(KeyWorkIntervalSeconds, settings.WorkInterval)
	settings.BreakDuration = reader.seconds(KeyBreakDurationSeconds, settings.BreakDuration)
	settings.LockDuration = reader.seconds(KeySettingsLockSeconds, settings.LockDuration)
	settings.FocusDuration = reader.seconds(KeyFocusDurationSeconds, settings.FocusDuration)
	settings.LockOnSave = reader.boolean(KeyLockOnSave, settings.LockOnSave)

	settings.NotificationsEnabled = reader.boolean(KeyNotificationsEnabled, settings.NotificationsEnabled)
	settings.SystemNotifications = reader.boolean(KeyUseSystemNotifications, settings.SystemNotifications)
	settings.NotificationMinutes = reader.minutes(KeyNotificationThresholds, settings.NotificationMinutes)

	settings.SleepEnabled = reader.boolean(KeySleepEnabled, settings.SleepEnabled)
	settings.SleepStartHour = reader.ranged(KeySleepStartHour, settings.SleepStartHour, 0, 23)
	settings.SleepStartMinute = reader.ranged(KeySleepStartMinute, settings.SleepStartMinute, 0, 59)
	settings.SleepEndHour = reader.ranged(KeySleepEndHour, settings.SleepEndHour, 0, 23)
	settings.SleepEndMinute = reader.ranged(KeySleepEndMinute, settings.SleepEndMinute, 0, 59)

	settings.ScheduleEnabled = reader.boolean(KeyScheduleEnabled, settings.ScheduleEnabled)
	for day := range settings.ScheduleDays {
		settings.ScheduleDays[day] = reader.boolean(ScheduleDayKey(day+1), settings.ScheduleDays[day])
	}

	if opacity, ok := reader.float(KeyOverlayOpacity); ok && opacity >= 0.7 && opacity <= 0.95 {
		settings.OverlayOpacity = opacity
	}
	settings.Fullscreen = reader.boolean(KeyFullscreen, settings.Fullscreen)
	return settings
}

// SaveSettings writes user preferences to the store.
func SaveSettings(store Store, settings preferences.Settings) error {
	values := map[string]any{
		KeyWorkIntervalSeconds:    int(settings.WorkInterval / time.Second),
		KeyBreakDurationSeconds:   int(settings.BreakDuration / time.Second),
		KeySettingsLockSeconds:    int(settings.LockDuration / time.Second),
		KeyFocusDurationSeconds:   int(settings.FocusDuration / time.Second),
		KeyLockOnSave:             settings.LockOnSave,
		KeyNotificationsEnabled:   settings.NotificationsEnabled,
		KeyUseSystemNotifications: settings.SystemNotifications,
		KeyNotificationThresholds: append([]int{}, settings.NotificationMinutes...),
		KeySleepEnabled:           settings.SleepEnabled,
		KeySleepStartHour:         settings.SleepStartHour,
		KeySleepStartMinute:       settings.SleepStartMinute,
		KeySleepEndHour:           settings.SleepEndHour,
		KeySleepEndMinute:         settings.SleepEndMinute,
		KeyScheduleEnabled:        settings.ScheduleEnabled,
		KeyOverlayOpacity:         settings.OverlayOpacity,
		KeyFullscreen:             settings.Fullscreen,
	}
	for day, enabled := range settings.ScheduleDays {
		values[ScheduleDayKey(day+1)] = enabled
	}

	if saver, ok := store.(batchSaver); ok {
		if err := saver.SaveAll(values); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		return nil
	}
	for key, value := range values {
		if err := store.Save(key, value); err != nil {
			return fmt.Errorf("save setting %s: %w", key, err)
		}
	}
	return nil
}

type settingsReader struct {
	store Store
}

func (reader settingsReader) seconds(key string, fallback time.Duration) time.Duration {
	value, ok := reader.store.Load(key)
	if !ok {
		return fallback
	}
	seconds, err := cast.ToIntE(value)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func (reader settingsReader) boolean(key string, fallback bool) bool {
	value, ok := reader.store.Load(key)
	if !ok {
		return fallback
	}
	parsed, err := cast.ToBoolE(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (reader settingsReader) ranged(key string, fallback, low, high int) int {
	value, ok := reader.store.Load(key)
	if !ok {
		return fallback
	}
	parsed, err := cast.ToIntE(value)
	if err != nil || parsed < low || parsed > high {
		return fallback
	}
	return parsed
}

func (reader settingsReader) float(key string) (float64, bool) {
	value, ok := reader.store.Load(key)
	if !ok {
		return 0, false
	}
	parsed, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func (reader settingsReader) minutes(key string, fallback []int) []int {
	value, ok := reader.store.Load(key)
	if !ok {
		return fallback
	}
	parsed, err := cast.ToIntSliceE(value)
	if err != nil {
		return fallback
	}
	result := make([]int, 0, len(parsed))
	for _, minutes := range parsed {
		if minutes > 0 {
			result = append(result, minutes)
		}
	}
	return result
}
