// Package notify decides when advance break warnings fire during a work interval.
package notify

import (
	"sort"

	"blinkbreak/internal/core/model"
)

// Kind identifies the delivery channel for a notification.
type Kind string

const (
	KindAdvanceWarning Kind = "advance_warning"
	KindInAppIndicator Kind = "in_app_indicator"
)

const countdownWindowSecs = 60

// Notifier delivers notifications decided by the scheduler.
// value is minutes for KindAdvanceWarning and seconds for KindInAppIndicator.
type Notifier interface {
	Deliver(kind Kind, value int)
}

// Decision is the outcome of a single Evaluate call.
type Decision struct {
	// Fire lists the thresholds, in minutes, that fired on this evaluation.
	Fire []int
	// Countdown is the per-second indicator value; valid when HasCountdown is set.
	Countdown    int
	HasCountdown bool
}

// Scheduler tracks which thresholds fired within the current work interval.
// It is not safe for concurrent use; the TimeKeeper serializes access.
type Scheduler struct {
	enabled    bool
	useSystem  bool
	thresholds []int
	fired      map[int]bool
}

// NewScheduler creates a scheduler for the given plan.
func NewScheduler(config model.NotificationConfig) *Scheduler {
	scheduler := &Scheduler{fired: make(map[int]bool)}
	scheduler.SetPlan(config)
	return scheduler
}

// SetPlan replaces the plan and forgets fired thresholds.
func (scheduler *Scheduler) SetPlan(config model.NotificationConfig) {
	scheduler.enabled = config.Enabled
	scheduler.useSystem = config.UseSystem
	scheduler.thresholds = normalizeThresholds(config.Thresholds)
	scheduler.Reset()
}

// UsesSystem reports whether warnings go to the system notification channel.
func (scheduler *Scheduler) UsesSystem() bool {
	return scheduler.useSystem
}

// Thresholds returns the active thresholds in descending order.
func (scheduler *Scheduler) Thresholds() []int {
	return append([]int(nil), scheduler.thresholds...)
}

// Reset clears the fired set for a new interval.
func (scheduler *Scheduler) Reset() {
	for minutes := range scheduler.fired {
		delete(scheduler.fired, minutes)
	}
}

// Evaluate applies the plan for the remaining work time.
func (scheduler *Scheduler) Evaluate(remainingSeconds, intervalSeconds int) Decision {
	var decision Decision
	if remainingSeconds == intervalSeconds {
		scheduler.Reset()
	}
	if !scheduler.enabled {
		return decision
	}

	minutesRemaining := remainingSeconds / 60
	secondsIntoMinute := remainingSeconds % 60
	// 1Hz ticks may land on either side of the minute boundary.
	if secondsIntoMinute <= 1 {
		for _, threshold := range scheduler.thresholds {
			if threshold != minutesRemaining || scheduler.fired[threshold] {
				continue
			}
			scheduler.fired[threshold] = true
			decision.Fire = append(decision.Fire, threshold)
		}
	}

	if !scheduler.useSystem && remainingSeconds > 0 && remainingSeconds <= countdownWindowSecs {
		decision.Countdown = remainingSeconds
		decision.HasCountdown = true
	}
	return decision
}

func normalizeThresholds(values []int) []int {
	seen := make(map[int]bool, len(values))
	result := make([]int, 0, len(values))
	for _, value := range values {
		if value <= 0 || seen[value] {
			continue
		}
		seen[value] = true
		result = append(result, value)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(result)))
	return result
}
