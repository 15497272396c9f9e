// Package lock provides the advisory settings lockout that follows a save.
package lock

import (
	"sync"
	"time"
)

// SettingsLock records when the settings lock expires.
// The zero value is unlocked and ready to use.
type SettingsLock struct {
	mu          sync.Mutex
	lockedUntil time.Time
}

// Lock engages the lock for duration starting at now. Non-positive durations are ignored.
func (settingsLock *SettingsLock) Lock(now time.Time, duration time.Duration) {
	if duration <= 0 {
		return
	}
	settingsLock.mu.Lock()
	settingsLock.lockedUntil = now.Add(duration)
	settingsLock.mu.Unlock()
}

// Unlock clears the lock.
func (settingsLock *SettingsLock) Unlock() {
	settingsLock.mu.Lock()
	settingsLock.lockedUntil = time.Time{}
	settingsLock.mu.Unlock()
}

// IsLocked reports whether the lock is still engaged at now.
func (settingsLock *SettingsLock) IsLocked(now time.Time) bool {
	return settingsLock.Remaining(now) > 0
}

// Remaining returns the time left until the lock expires, never negative.
func (settingsLock *SettingsLock) Remaining(now time.Time) time.Duration {
	settingsLock.mu.Lock()
	lockedUntil := settingsLock.lockedUntil
	settingsLock.mu.Unlock()

	if lockedUntil.IsZero() || !now.Before(lockedUntil) {
		return 0
	}
	return lockedUntil.Sub(now)
}

// LockedUntil returns the expiry timestamp, or the zero time when never locked.
func (settingsLock *SettingsLock) LockedUntil() time.Time {
	settingsLock.mu.Lock()
	defer settingsLock.mu.Unlock()
	return settingsLock.lockedUntil
}
