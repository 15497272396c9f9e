package timekeeper

import (
	"sync"
	"testing"
	"time"

	"blinkbreak/internal/core/model"
	"blinkbreak/internal/core/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fakeClock) Advance(delta time.Duration) {
	clock.mu.Lock()
	clock.now = clock.now.Add(delta)
	clock.mu.Unlock()
}

type notification struct {
	kind  notify.Kind
	value int
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []notification
}

func (notifier *recordingNotifier) Deliver(kind notify.Kind, value int) {
	notifier.mu.Lock()
	notifier.items = append(notifier.items, notification{kind: kind, value: value})
	notifier.mu.Unlock()
}

func (notifier *recordingNotifier) ofKind(kind notify.Kind) []int {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	var values []int
	for _, item := range notifier.items {
		if item.kind == kind {
			values = append(values, item.value)
		}
	}
	return values
}

// monday noon, outside any default sleep window.
var startTime = time.Date(2024, time.March, 4, 12, 0, 0, 0, time.Local)

func baseConfig() model.TimeKeeperConfig {
	return model.TimeKeeperConfig{
		WorkInterval:  1500 * time.Second,
		BreakDuration: 20 * time.Second,
		LockDuration:  300 * time.Second,
		FocusDuration: time.Hour,
	}
}

type harness struct {
	keeper *TimeKeeper
	clock  *fakeClock
	events <-chan Event
}

func newHarness(t *testing.T, config model.TimeKeeperConfig, at time.Time) *harness {
	t.Helper()
	clock := &fakeClock{now: at}
	keeper := New(config, Config{Now: clock.Now})
	events := keeper.Subscribe(16)
	require.True(t, keeper.begin(false))
	t.Cleanup(keeper.Stop)
	return &harness{keeper: keeper, clock: clock, events: events}
}

func (h *harness) tickN(count int) {
	for i := 0; i < count; i++ {
		h.clock.Advance(time.Second)
		h.keeper.tick(h.clock.Now())
	}
}

// collect stops the keeper and returns every event it emitted.
func (h *harness) collect() []Event {
	h.keeper.Stop()
	var events []Event
	for event := range h.events {
		events = append(events, event)
	}
	return events
}

func ofType(events []Event, eventType EventType) []Event {
	var filtered []Event
	for _, event := range events {
		if event.Type == eventType {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

func indexOf(events []Event, eventType EventType) int {
	for index, event := range events {
		if event.Type == eventType {
			return index
		}
	}
	return -1
}

func TestWorkBreakCycle(t *testing.T) {
	t.Parallel()

	h := newHarness(t, baseConfig(), startTime)

	h.tickN(1499)
	snapshot := h.keeper.Snapshot()
	assert.Equal(t, StateWork, snapshot.State)
	assert.Equal(t, 1, snapshot.WorkRemaining)

	h.tickN(1)
	snapshot = h.keeper.Snapshot()
	assert.Equal(t, StateBreak, snapshot.State)
	assert.Equal(t, 20, snapshot.BreakRemaining)

	h.tickN(19)
	assert.Equal(t, StateBreak, h.keeper.Snapshot().State)

	h.tickN(1)
	snapshot = h.keeper.Snapshot()
	assert.Equal(t, StateWork, snapshot.State)
	assert.Equal(t, 1500, snapshot.WorkRemaining)

	events := h.collect()
	starts := ofType(events, EventBreakStart)
	require.Len(t, starts, 1)
	assert.Equal(t, 20, starts[0].Seconds)
	require.Len(t, ofType(events, EventBreakEnd), 1)

	breakEnd := indexOf(events, EventBreakEnd)
	assert.Less(t, indexOf(events, EventBreakStart), breakEnd)
	last := events[len(events)-1]
	assert.Equal(t, EventTimeUpdate, last.Type)
	assert.Equal(t, 1500, last.Seconds)
	assert.Greater(t, len(events)-1, breakEnd)
}

func TestTimeUpdatesCountDown(t *testing.T) {
	t.Parallel()

	h := newHarness(t, baseConfig(), startTime)
	h.tickN(5)

	updates := ofType(h.collect(), EventTimeUpdate)
	require.Len(t, updates, 6)
	for index, update := range updates {
		assert.Equal(t, 1500-index, update.Seconds)
	}
}

func TestWorkFrozenWhileSuppressed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(config *model.TimeKeeperConfig)
		focus bool
	}{
		{
			name:  "focus mode",
			focus: true,
		},
		{
			name: "sleep window",
			setup: func(config *model.TimeKeeperConfig) {
				config.Sleep = model.SleepWindow{Enabled: true, StartHour: 11, EndHour: 13}
			},
		},
		{
			name: "disabled day",
			setup: func(config *model.TimeKeeperConfig) {
				config.Schedule = model.WeeklySchedule{Enabled: true}
				config.Schedule.Days[time.Tuesday] = true
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			config := baseConfig()
			if tc.setup != nil {
				tc.setup(&config)
			}
			h := newHarness(t, config, startTime)
			if tc.focus {
				h.keeper.StartFocus(10 * time.Minute)
			}

			h.tickN(30)
			assert.Equal(t, 1500, h.keeper.Snapshot().WorkRemaining)

			updates := ofType(h.collect(), EventTimeUpdate)
			require.Len(t, updates, 31)
			for _, update := range updates {
				assert.Equal(t, 1500, update.Seconds)
			}
		})
	}
}

func TestTakeBreakIsIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, baseConfig(), startTime)
	h.tickN(10)
	h.keeper.TakeBreak()
	h.keeper.TakeBreak()
	h.tickN(1)
	h.keeper.TakeBreak()

	snapshot := h.keeper.Snapshot()
	assert.Equal(t, StateBreak, snapshot.State)
	assert.Equal(t, 19, snapshot.BreakRemaining)
	assert.Len(t, ofType(h.collect(), EventBreakStart), 1)
}

func TestTakeBreakIgnoredWhileSuppressed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(config *model.TimeKeeperConfig)
		focus bool
	}{
		{name: "focus mode", focus: true},
		{
			name: "sleep window",
			setup: func(config *model.TimeKeeperConfig) {
				config.Sleep = model.SleepWindow{Enabled: true, StartHour: 22, EndHour: 13}
			},
		},
		{
			name: "disabled day",
			setup: func(config *model.TimeKeeperConfig) {
				config.Schedule = model.WeeklySchedule{Enabled: true}
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			config := baseConfig()
			if tc.setup != nil {
				tc.setup(&config)
			}
			h := newHarness(t, config, startTime)
			if tc.focus {
				h.keeper.StartFocus(0)
			}
			h.keeper.TakeBreak()

			assert.Equal(t, StateWork, h.keeper.Snapshot().State)
			assert.Empty(t, ofType(h.collect(), EventBreakStart))
		})
	}
}

func TestTakeBreakRequiresRunning(t *testing.T) {
	t.Parallel()

	keeper := New(baseConfig(), Config{})
	keeper.TakeBreak()
	assert.Equal(t, StateIdle, keeper.Snapshot().State)
}

func TestSystemNotificationsFireOncePerThreshold(t *testing.T) {
	t.Parallel()

	config := baseConfig()
	config.Notifications = model.NotificationConfig{Enabled: true, UseSystem: true, Thresholds: []int{5, 2, 1}}
	h := newHarness(t, config, startTime)
	notifier := &recordingNotifier{}
	h.keeper.SetNotifier(notifier)

	h.tickN(1500)
	assert.Equal(t, []int{5, 2, 1}, notifier.ofKind(notify.KindAdvanceWarning))
	assert.Empty(t, notifier.ofKind(notify.KindInAppIndicator))

	h.tickN(20 + 1500)
	assert.Equal(t, []int{5, 2, 1, 5, 2, 1}, notifier.ofKind(notify.KindAdvanceWarning))

	events := h.collect()
	assert.Empty(t, ofType(events, EventBreakWarning))
	assert.Empty(t, ofType(events, EventBreakCountdown))
}

func TestInAppNotifications(t *testing.T) {
	t.Parallel()

	config := baseConfig()
	config.Notifications = model.NotificationConfig{Enabled: true, UseSystem: false, Thresholds: []int{5, 2, 1}}
	h := newHarness(t, config, startTime)
	notifier := &recordingNotifier{}
	h.keeper.SetNotifier(notifier)

	h.tickN(1500)

	countdown := notifier.ofKind(notify.KindInAppIndicator)
	require.Len(t, countdown, 60)
	assert.Equal(t, 60, countdown[0])
	assert.Equal(t, 1, countdown[59])
	assert.Empty(t, notifier.ofKind(notify.KindAdvanceWarning))

	events := h.collect()
	warnings := ofType(events, EventBreakWarning)
	require.Len(t, warnings, 3)
	for index, minutes := range []int{5, 2, 1} {
		assert.Equal(t, minutes, warnings[index].Minutes)
		assert.GreaterOrEqual(t, warnings[index].Seconds, minutes*60)
		assert.LessOrEqual(t, warnings[index].Seconds, minutes*60+1)
	}
	assert.Len(t, ofType(events, EventBreakCountdown), 60)
}

func TestSleepModeEdges(t *testing.T) {
	t.Parallel()

	config := baseConfig()
	config.Sleep = model.SleepWindow{Enabled: true, StartHour: 12, EndHour: 12, EndMinute: 2}
	h := newHarness(t, config, startTime.Add(-time.Minute))

	h.tickN(200)
	snapshot := h.keeper.Snapshot()
	assert.False(t, snapshot.InSleep)
	assert.Equal(t, 1500-80, snapshot.WorkRemaining)

	changes := ofType(h.collect(), EventSleepModeChange)
	require.Len(t, changes, 2)
	assert.True(t, changes[0].InSleep)
	assert.False(t, changes[1].InSleep)
}

func TestBreakIgnoresSuppression(t *testing.T) {
	t.Parallel()

	config := baseConfig()
	h := newHarness(t, config, startTime)
	h.keeper.TakeBreak()

	config.Sleep = model.SleepWindow{Enabled: true, StartHour: 0, EndHour: 23, EndMinute: 59}
	h.keeper.UpdateConfig(config, false)
	h.keeper.StartFocus(time.Minute)
	h.tickN(5)

	snapshot := h.keeper.Snapshot()
	assert.Equal(t, StateBreak, snapshot.State)
	assert.True(t, snapshot.InSleep)
	assert.Equal(t, 15, snapshot.BreakRemaining)
}

func TestFocusCountdown(t *testing.T) {
	t.Parallel()

	h := newHarness(t, baseConfig(), startTime)
	h.keeper.StartFocus(5 * time.Second)
	h.tickN(5)

	// The tick that ends focus already counts toward work.
	snapshot := h.keeper.Snapshot()
	assert.False(t, snapshot.FocusActive)
	assert.Zero(t, snapshot.FocusRemaining)
	assert.Equal(t, 1499, snapshot.WorkRemaining)

	events := h.collect()
	var seconds []int
	for _, event := range ofType(events, EventFocusUpdate) {
		seconds = append(seconds, event.Seconds)
	}
	assert.Equal(t, []int{5, 4, 3, 2, 1, 0}, seconds)
	assert.Len(t, ofType(events, EventSettingsChange), 1)
}

func TestFocusRunsDuringBreak(t *testing.T) {
	t.Parallel()

	h := newHarness(t, baseConfig(), startTime)
	h.keeper.TakeBreak()
	h.keeper.StartFocus(3 * time.Second)
	h.tickN(3)

	snapshot := h.keeper.Snapshot()
	assert.False(t, snapshot.FocusActive)
	assert.Equal(t, 17, snapshot.BreakRemaining)
}

func TestStartFocusDefaultsAndStop(t *testing.T) {
	t.Parallel()

	h := newHarness(t, baseConfig(), startTime)
	h.keeper.StartFocus(-time.Second)
	assert.Equal(t, 3600, h.keeper.Snapshot().FocusRemaining)

	h.keeper.StopFocus()
	h.keeper.StopFocus()
	assert.False(t, h.keeper.Snapshot().FocusActive)

	updates := ofType(h.collect(), EventFocusUpdate)
	require.Len(t, updates, 2)
	assert.Equal(t, 3600, updates[0].Seconds)
	assert.Zero(t, updates[1].Seconds)
}

func TestUpdateConfigKeepsInvalidDurations(t *testing.T) {
	t.Parallel()

	h := newHarness(t, baseConfig(), startTime)
	h.keeper.UpdateConfig(model.TimeKeeperConfig{
		WorkInterval:  0,
		BreakDuration: -5 * time.Second,
		LockDuration:  500 * time.Millisecond,
		FocusDuration: 30 * time.Minute,
	}, false)

	config := h.keeper.Config()
	assert.Equal(t, 1500*time.Second, config.WorkInterval)
	assert.Equal(t, 20*time.Second, config.BreakDuration)
	assert.Equal(t, 300*time.Second, config.LockDuration)
	assert.Equal(t, 30*time.Minute, config.FocusDuration)
}

func TestUpdateConfigRestartsWork(t *testing.T) {
	t.Parallel()

	h := newHarness(t, baseConfig(), startTime)
	h.tickN(100)

	config := baseConfig()
	config.WorkInterval = 600 * time.Second
	h.keeper.UpdateConfig(config, false)

	snapshot := h.keeper.Snapshot()
	assert.Equal(t, StateWork, snapshot.State)
	assert.Equal(t, 600, snapshot.WorkRemaining)
	assert.Equal(t, 600, snapshot.WorkInterval)
	assert.Len(t, ofType(h.collect(), EventSettingsChange), 1)
}

func TestUpdateConfigDuringBreak(t *testing.T) {
	t.Parallel()

	h := newHarness(t, baseConfig(), startTime)
	h.keeper.TakeBreak()
	h.tickN(5)

	config := baseConfig()
	config.WorkInterval = 600 * time.Second
	config.BreakDuration = 60 * time.Second
	h.keeper.UpdateConfig(config, false)

	snapshot := h.keeper.Snapshot()
	assert.Equal(t, StateBreak, snapshot.State)
	assert.Equal(t, 15, snapshot.BreakRemaining)

	h.tickN(15)
	snapshot = h.keeper.Snapshot()
	assert.Equal(t, StateWork, snapshot.State)
	assert.Equal(t, 600, snapshot.WorkRemaining)
}

func TestUpdateConfigEngagesLock(t *testing.T) {
	t.Parallel()

	h := newHarness(t, baseConfig(), startTime)
	locked, _ := h.keeper.SettingsLocked()
	assert.False(t, locked)

	h.keeper.UpdateConfig(baseConfig(), true)
	locked, remaining := h.keeper.SettingsLocked()
	assert.True(t, locked)
	assert.Equal(t, 300*time.Second, remaining)

	h.clock.Advance(299 * time.Second)
	assert.True(t, h.keeper.Snapshot().SettingsLocked)

	h.clock.Advance(time.Second)
	locked, remaining = h.keeper.SettingsLocked()
	assert.False(t, locked)
	assert.Zero(t, remaining)
}

func TestUpdateConfigEmitsSleepEdge(t *testing.T) {
	t.Parallel()

	h := newHarness(t, baseConfig(), startTime)
	config := baseConfig()
	config.Sleep = model.SleepWindow{Enabled: true, StartHour: 11, EndHour: 13}
	h.keeper.UpdateConfig(config, false)
	assert.True(t, h.keeper.Snapshot().InSleep)

	changes := ofType(h.collect(), EventSleepModeChange)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].InSleep)
}

func TestUpdateConfigClampsSleepWindow(t *testing.T) {
	t.Parallel()

	keeper := New(baseConfig(), Config{})
	config := baseConfig()
	config.Sleep = model.SleepWindow{Enabled: true, StartHour: 30, StartMinute: -4, EndHour: -1, EndMinute: 75}
	keeper.UpdateConfig(config, false)

	sleep := keeper.Config().Sleep
	assert.Equal(t, 23, sleep.StartHour)
	assert.Zero(t, sleep.StartMinute)
	assert.Zero(t, sleep.EndHour)
	assert.Equal(t, 59, sleep.EndMinute)
}

func TestBreakRemainingEstimate(t *testing.T) {
	t.Parallel()

	h := newHarness(t, baseConfig(), startTime)
	assert.Zero(t, h.keeper.BreakRemaining())

	h.keeper.TakeBreak()
	assert.Equal(t, 20*time.Second, h.keeper.BreakRemaining())

	h.clock.Advance(300 * time.Millisecond)
	assert.Equal(t, 19700*time.Millisecond, h.keeper.BreakRemaining())
	assert.Equal(t, 20, h.keeper.Snapshot().BreakRemaining)

	h.clock.Advance(700 * time.Millisecond)
	h.keeper.tick(h.clock.Now())
	assert.Equal(t, 19*time.Second, h.keeper.BreakRemaining())
}

func TestSkipBreakWithResumeDelay(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: startTime}
	keeper := New(baseConfig(), Config{Now: clock.Now, ResumeDelay: 20 * time.Millisecond})
	require.True(t, keeper.begin(false))
	defer keeper.Stop()

	keeper.TakeBreak()
	keeper.SkipBreak()
	assert.Equal(t, StateIdle, keeper.Snapshot().State)

	require.Eventually(t, func() bool {
		return keeper.Snapshot().State == StateWork
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1500, keeper.Snapshot().WorkRemaining)
}

func TestReplacedSessionInvalidatesPendingResume(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: startTime}
	keeper := New(baseConfig(), Config{Now: clock.Now, ResumeDelay: 20 * time.Millisecond})
	require.True(t, keeper.begin(false))
	defer keeper.Stop()

	keeper.TakeBreak()
	keeper.SkipBreak()
	keeper.TakeBreak()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, StateBreak, keeper.Snapshot().State)
}

func TestSubscribeAfterStopIsClosed(t *testing.T) {
	t.Parallel()

	keeper := New(baseConfig(), Config{})
	keeper.Stop()
	_, ok := <-keeper.Subscribe(1)
	assert.False(t, ok)
}

func TestStartAndStopTicker(t *testing.T) {
	t.Parallel()

	keeper := New(baseConfig(), Config{TickInterval: time.Millisecond})
	events := keeper.Subscribe(4)
	keeper.Start()
	keeper.Start()

	require.Eventually(t, func() bool {
		return keeper.Snapshot().WorkRemaining < 1500
	}, time.Second, time.Millisecond)
	keeper.Stop()
	keeper.Stop()

	var count int
	for range events {
		count++
	}
	assert.Greater(t, count, 1)
}
