// Package calendar evaluates time-of-day and weekday rules that suppress breaks.
package calendar

import (
	"time"

	"blinkbreak/internal/core/model"
)

const minutesPerDay = 24 * 60

// InSleepWindow reports whether now falls inside the sleep window.
// A window whose start equals its end is empty.
func InSleepWindow(now time.Time, window model.SleepWindow) bool {
	if !window.Enabled {
		return false
	}
	return inWindow(now.Hour()*60+now.Minute(), window.StartMinutes(), window.EndMinutes())
}

func inWindow(current, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return current >= start && current < end
	}
	return current >= start || current < end
}

// DayAllowed reports whether breaks run on the given weekday,
// numbered Sunday=1 through Saturday=7. Unknown weekdays are allowed.
func DayAllowed(weekday int, schedule model.WeeklySchedule) bool {
	if !schedule.Enabled {
		return true
	}
	if weekday < 1 || weekday > 7 {
		return true
	}
	return schedule.Days[weekday-1]
}

// DayAllowedAt is DayAllowed for the weekday of now.
func DayAllowedAt(now time.Time, schedule model.WeeklySchedule) bool {
	return DayAllowed(WeekdayNumber(now.Weekday()), schedule)
}

// WeekdayNumber converts a time.Weekday to Sunday=1 numbering.
func WeekdayNumber(day time.Weekday) int {
	return int(day) + 1
}
