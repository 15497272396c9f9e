package timekeeper

import (
	"sync"
	"time"

	"blinkbreak/internal/core/calendar"
	"blinkbreak/internal/core/lock"
	"blinkbreak/internal/core/model"
	"blinkbreak/internal/core/notify"
)

const (
	DefaultWorkInterval  = 20 * time.Minute
	DefaultBreakDuration = 20 * time.Second
	DefaultLockDuration  = 5 * time.Minute
	DefaultFocusDuration = time.Hour
	// DefaultResumeDelay lets the overlay close before the next work session starts.
	DefaultResumeDelay = 500 * time.Millisecond
)

// Config contains runtime options for TimeKeeper.
type Config struct {
	// TickInterval is the wall-clock period of one countdown second.
	TickInterval time.Duration
	// ResumeDelay separates a break end from the next work session. Zero resumes immediately.
	ResumeDelay time.Duration
	Now         func() time.Time
}

// TimeKeeper is a state machine that manages break scheduling.
type TimeKeeper struct {
	mu      sync.Mutex
	config  model.TimeKeeperConfig
	options Config
	state   State

	workInterval   int
	workRemaining  int
	breakDuration  int
	breakRemaining int
	breakMark      time.Time
	// workGeneration invalidates a pending work resume whenever a session is replaced.
	workGeneration uint64

	focusActive    bool
	focusRemaining int

	inSleep    bool
	dayAllowed bool

	notifications *notify.Scheduler
	notifier      notify.Notifier
	deliveries    []delivery
	settingsLock  lock.SettingsLock

	subscribers []*subscriber
	stopCh      chan struct{}
	running     bool
	ticking     bool
	stopped     bool
}

type delivery struct {
	kind  notify.Kind
	value int
}

// New creates a TimeKeeper with the provided configuration.
func New(config model.TimeKeeperConfig, options Config) *TimeKeeper {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.ResumeDelay < 0 {
		options.ResumeDelay = 0
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	keeper := &TimeKeeper{
		options:       options,
		state:         StateIdle,
		stopCh:        make(chan struct{}),
		notifications: notify.NewScheduler(config.Notifications),
	}
	keeper.config = mergeConfig(model.TimeKeeperConfig{
		WorkInterval:  DefaultWorkInterval,
		BreakDuration: DefaultBreakDuration,
		LockDuration:  DefaultLockDuration,
		FocusDuration: DefaultFocusDuration,
	}, config)
	keeper.applyDurationsLocked()
	keeper.workRemaining = keeper.workInterval
	keeper.dayAllowed = calendar.DayAllowedAt(options.Now(), keeper.config.Schedule)
	return keeper
}

// SetNotifier injects the notification delivery collaborator.
func (keeper *TimeKeeper) SetNotifier(notifier notify.Notifier) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.notifier = notifier
}

// Subscribe registers a new observer channel. Events arrive in emission order.
func (keeper *TimeKeeper) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	sub := newSubscriber(buffer)
	keeper.mu.Lock()
	if keeper.stopped {
		sub.close()
	} else {
		keeper.subscribers = append(keeper.subscribers, sub)
	}
	keeper.mu.Unlock()
	return sub.out
}

// Start begins the first work session and launches the ticking loop.
func (keeper *TimeKeeper) Start() {
	if keeper.begin(true) {
		go keeper.run()
	}
}

// begin starts the first work session; ticking records whether run will be launched.
func (keeper *TimeKeeper) begin(ticking bool) bool {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.running || keeper.stopped {
		return false
	}
	keeper.running = true
	keeper.ticking = ticking
	now := keeper.options.Now()
	keeper.refreshSuppressionLocked(now)
	keeper.workGeneration++
	keeper.beginWorkLocked(now)
	return true
}

// Stop terminates the ticking loop and closes observers once queued events are delivered.
func (keeper *TimeKeeper) Stop() {
	keeper.mu.Lock()
	if keeper.stopped {
		keeper.mu.Unlock()
		return
	}
	if keeper.ticking {
		close(keeper.stopCh)
	}
	keeper.running = false
	keeper.ticking = false
	keeper.stopped = true
	keeper.workGeneration++
	subscribers := keeper.subscribers
	keeper.subscribers = nil
	keeper.mu.Unlock()

	for _, sub := range subscribers {
		sub.close()
	}
}

// UpdateConfig replaces the configuration. Non-positive durations keep their previous value.
// When engageLock is set the settings lock starts for the configured lock duration.
// The work session restarts from the full interval unless a break is in progress.
func (keeper *TimeKeeper) UpdateConfig(config model.TimeKeeperConfig, engageLock bool) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	now := keeper.options.Now()
	keeper.config = mergeConfig(keeper.config, config)
	keeper.applyDurationsLocked()
	keeper.notifications.SetPlan(keeper.config.Notifications)
	keeper.refreshSuppressionLocked(now)

	if engageLock {
		keeper.settingsLock.Lock(now, keeper.config.LockDuration)
	}

	switch {
	case !keeper.running:
		keeper.workRemaining = keeper.workInterval
	case keeper.state != StateBreak:
		keeper.workGeneration++
		keeper.beginWorkLocked(now)
	}

	keeper.emitLocked(Event{Type: EventSettingsChange, State: keeper.state, At: now})
}

// Config returns the active configuration.
func (keeper *TimeKeeper) Config() model.TimeKeeperConfig {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.config
}

// TakeBreak starts a break immediately unless one is running or breaks are suppressed.
func (keeper *TimeKeeper) TakeBreak() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if !keeper.running || keeper.state == StateBreak || keeper.focusActive {
		return
	}
	now := keeper.options.Now()
	keeper.refreshSuppressionLocked(now)
	if keeper.inSleep || !keeper.dayAllowed {
		return
	}
	keeper.startBreakLocked(now)
}

// SkipBreak ends the current break and schedules the next work session.
func (keeper *TimeKeeper) SkipBreak() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if keeper.state != StateBreak {
		return
	}
	keeper.finishBreakLocked(keeper.options.Now())
}

// StartFocus suppresses work countdowns for duration, or the configured focus duration when duration is not positive.
func (keeper *TimeKeeper) StartFocus(duration time.Duration) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if !keeper.running {
		return
	}
	seconds := toSeconds(duration)
	if seconds <= 0 {
		seconds = toSeconds(keeper.config.FocusDuration)
	}
	keeper.focusActive = true
	keeper.focusRemaining = seconds
	keeper.emitLocked(Event{
		Type:    EventFocusUpdate,
		State:   keeper.state,
		Seconds: seconds,
		At:      keeper.options.Now(),
	})
}

// StopFocus ends focus mode early.
func (keeper *TimeKeeper) StopFocus() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if !keeper.focusActive {
		return
	}
	keeper.endFocusLocked(keeper.options.Now())
}

// Snapshot returns the current scheduler state.
func (keeper *TimeKeeper) Snapshot() Snapshot {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	now := keeper.options.Now()
	return Snapshot{
		State:          keeper.state,
		WorkRemaining:  keeper.workRemaining,
		WorkInterval:   keeper.workInterval,
		BreakRemaining: keeper.breakRemaining,
		FocusActive:    keeper.focusActive,
		FocusRemaining: keeper.focusRemaining,
		InSleep:        keeper.inSleep,
		DayAllowed:     keeper.dayAllowed,
		SettingsLocked: keeper.settingsLock.IsLocked(now),
		LockRemaining:  keeper.settingsLock.Remaining(now),
	}
}

// BreakRemaining estimates the time left in the current break with sub-second precision.
// It is meant for display refreshes faster than the tick rate and does not mutate state.
func (keeper *TimeKeeper) BreakRemaining() time.Duration {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if keeper.state != StateBreak {
		return 0
	}
	whole := time.Duration(keeper.breakRemaining) * time.Second
	estimate := whole - keeper.options.Now().Sub(keeper.breakMark)
	if estimate < 0 {
		return 0
	}
	if estimate > whole {
		return whole
	}
	return estimate
}

// SettingsLocked reports whether settings edits should be refused and for how long.
func (keeper *TimeKeeper) SettingsLocked() (bool, time.Duration) {
	now := keeper.options.Now()
	remaining := keeper.settingsLock.Remaining(now)
	return remaining > 0, remaining
}

func (keeper *TimeKeeper) run() {
	ticker := time.NewTicker(keeper.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-keeper.stopCh:
			return
		case <-ticker.C:
			keeper.tick(keeper.options.Now())
		}
	}
}

// tick advances every countdown by one second.
func (keeper *TimeKeeper) tick(now time.Time) {
	keeper.mu.Lock()
	if !keeper.running {
		keeper.mu.Unlock()
		return
	}

	keeper.refreshSuppressionLocked(now)
	keeper.advanceFocusLocked(now)
	switch keeper.state {
	case StateBreak:
		keeper.advanceBreakLocked(now)
	case StateWork:
		keeper.advanceWorkLocked(now)
	}

	notifier := keeper.notifier
	deliveries := keeper.deliveries
	keeper.deliveries = nil
	keeper.mu.Unlock()

	if notifier == nil {
		return
	}
	for _, item := range deliveries {
		notifier.Deliver(item.kind, item.value)
	}
}

func (keeper *TimeKeeper) refreshSuppressionLocked(now time.Time) {
	keeper.dayAllowed = calendar.DayAllowedAt(now, keeper.config.Schedule)

	inSleep := calendar.InSleepWindow(now, keeper.config.Sleep)
	if inSleep == keeper.inSleep {
		return
	}
	keeper.inSleep = inSleep
	keeper.emitLocked(Event{
		Type:    EventSleepModeChange,
		State:   keeper.state,
		InSleep: inSleep,
		At:      now,
	})
}

// Focus counts down through breaks, sleep windows and disabled days.
func (keeper *TimeKeeper) advanceFocusLocked(now time.Time) {
	if !keeper.focusActive {
		return
	}
	keeper.focusRemaining--
	if keeper.focusRemaining > 0 {
		keeper.emitLocked(Event{
			Type:    EventFocusUpdate,
			State:   keeper.state,
			Seconds: keeper.focusRemaining,
			At:      now,
		})
		return
	}
	keeper.endFocusLocked(now)
	keeper.emitLocked(Event{Type: EventSettingsChange, State: keeper.state, At: now})
}

func (keeper *TimeKeeper) endFocusLocked(now time.Time) {
	keeper.focusActive = false
	keeper.focusRemaining = 0
	keeper.emitLocked(Event{Type: EventFocusUpdate, State: keeper.state, At: now})
}

// Breaks ignore focus, sleep and schedule suppression once started.
func (keeper *TimeKeeper) advanceBreakLocked(now time.Time) {
	if keeper.breakRemaining > 0 {
		keeper.breakRemaining--
	}
	keeper.breakMark = now
	if keeper.breakRemaining > 0 {
		return
	}
	keeper.finishBreakLocked(now)
}

func (keeper *TimeKeeper) advanceWorkLocked(now time.Time) {
	if keeper.focusActive || keeper.inSleep || !keeper.dayAllowed {
		keeper.emitTimeUpdateLocked(now)
		return
	}

	if keeper.workRemaining > 0 {
		keeper.workRemaining--
	}
	keeper.applyNotificationsLocked(now)
	keeper.emitTimeUpdateLocked(now)

	if keeper.workRemaining <= 0 {
		keeper.startBreakLocked(now)
	}
}

func (keeper *TimeKeeper) applyNotificationsLocked(now time.Time) {
	decision := keeper.notifications.Evaluate(keeper.workRemaining, keeper.workInterval)
	useSystem := keeper.notifications.UsesSystem()

	for _, minutes := range decision.Fire {
		if useSystem {
			keeper.deliveries = append(keeper.deliveries, delivery{kind: notify.KindAdvanceWarning, value: minutes})
			continue
		}
		keeper.emitLocked(Event{
			Type:    EventBreakWarning,
			State:   keeper.state,
			Seconds: keeper.workRemaining,
			Minutes: minutes,
			At:      now,
		})
	}

	if decision.HasCountdown {
		keeper.deliveries = append(keeper.deliveries, delivery{kind: notify.KindInAppIndicator, value: decision.Countdown})
		keeper.emitLocked(Event{
			Type:    EventBreakCountdown,
			State:   keeper.state,
			Seconds: decision.Countdown,
			At:      now,
		})
	}
}

func (keeper *TimeKeeper) startBreakLocked(now time.Time) {
	keeper.workGeneration++
	keeper.state = StateBreak
	keeper.breakRemaining = keeper.breakDuration
	keeper.breakMark = now
	keeper.notifications.Reset()

	keeper.emitLocked(Event{
		Type:    EventBreakStart,
		State:   StateBreak,
		Seconds: keeper.breakRemaining,
		At:      now,
	})
}

func (keeper *TimeKeeper) finishBreakLocked(now time.Time) {
	keeper.state = StateIdle
	keeper.breakRemaining = 0
	keeper.emitLocked(Event{Type: EventBreakEnd, State: StateIdle, At: now})

	keeper.workGeneration++
	if keeper.options.ResumeDelay <= 0 {
		keeper.beginWorkLocked(now)
		return
	}
	generation := keeper.workGeneration
	time.AfterFunc(keeper.options.ResumeDelay, func() {
		keeper.resumeWork(generation)
	})
}

func (keeper *TimeKeeper) resumeWork(generation uint64) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if !keeper.running || keeper.state != StateIdle || generation != keeper.workGeneration {
		return
	}
	keeper.beginWorkLocked(keeper.options.Now())
}

func (keeper *TimeKeeper) beginWorkLocked(now time.Time) {
	keeper.state = StateWork
	keeper.workRemaining = keeper.workInterval
	keeper.notifications.Reset()
	keeper.emitTimeUpdateLocked(now)
}

func (keeper *TimeKeeper) emitTimeUpdateLocked(now time.Time) {
	keeper.emitLocked(Event{
		Type:    EventTimeUpdate,
		State:   keeper.state,
		Seconds: keeper.workRemaining,
		At:      now,
	})
}

func (keeper *TimeKeeper) applyDurationsLocked() {
	keeper.workInterval = toSeconds(keeper.config.WorkInterval)
	keeper.breakDuration = toSeconds(keeper.config.BreakDuration)
}

func (keeper *TimeKeeper) emitLocked(event Event) {
	for _, sub := range keeper.subscribers {
		sub.push(event)
	}
}

func mergeConfig(previous, next model.TimeKeeperConfig) model.TimeKeeperConfig {
	merged := next
	merged.WorkInterval = keepPositive(previous.WorkInterval, next.WorkInterval)
	merged.BreakDuration = keepPositive(previous.BreakDuration, next.BreakDuration)
	merged.LockDuration = keepPositive(previous.LockDuration, next.LockDuration)
	merged.FocusDuration = keepPositive(previous.FocusDuration, next.FocusDuration)
	merged.Notifications.Thresholds = append([]int(nil), next.Notifications.Thresholds...)
	merged.Sleep = clampSleepWindow(next.Sleep)
	return merged
}

func keepPositive(previous, next time.Duration) time.Duration {
	if toSeconds(next) <= 0 {
		return previous
	}
	return next
}

func toSeconds(duration time.Duration) int {
	return int(duration / time.Second)
}

func clampSleepWindow(window model.SleepWindow) model.SleepWindow {
	window.StartHour = clamp(window.StartHour, 0, 23)
	window.StartMinute = clamp(window.StartMinute, 0, 59)
	window.EndHour = clamp(window.EndHour, 0, 23)
	window.EndMinute = clamp(window.EndMinute, 0, 59)
	return window
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
