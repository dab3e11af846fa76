package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/edumarques81/superplayer/internal/domain/mediatime"
	"github.com/edumarques81/superplayer/internal/domain/notification"
	"github.com/edumarques81/superplayer/internal/domain/player"
	"github.com/edumarques81/superplayer/internal/domain/playeritem"
	"github.com/edumarques81/superplayer/internal/domain/superplayer"
)

const testURL = "https://example/video.mp4"

// recordingExecutor records executed commands and fails the ones listed.
type recordingExecutor struct {
	mu       sync.Mutex
	commands []string
	fail     map[string]error
	onExec   func(cmd superplayer.Command)
}

func (e *recordingExecutor) Execute(_ context.Context, cmd superplayer.Command) error {
	e.mu.Lock()
	e.commands = append(e.commands, cmd.String())
	err := e.fail[cmd.String()]
	hook := e.onExec
	e.mu.Unlock()

	if hook != nil {
		hook(cmd)
	}
	return err
}

func (e *recordingExecutor) Commands() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.commands...)
}

func (e *recordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commands = nil
}

func newTestStore(env superplayer.Environment) (*Store, *recordingExecutor, *manualClock) {
	exec := &recordingExecutor{}
	clock := &manualClock{}
	st := New(superplayer.NewReducer(env), superplayer.NewState(0), WithExecutor(exec), WithClock(clock))
	return st, exec, clock
}

func countLoads(st *Store) *int {
	n := 0
	st.OnAction(func(a superplayer.Action) {
		if _, ok := a.(superplayer.Load); ok {
			n++
		}
	})
	return &n
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStoreExecutesLoadCommandsInOrder(t *testing.T) {
	st, exec, _ := newTestStore(superplayer.DefaultEnvironment())
	defer st.Close()

	st.Send(superplayer.Load{URL: testURL, AutoPlay: true})

	want := []string{
		"player.replaceCurrentItem(" + testURL + ")",
		"playerItem.startObservers",
		"notificationCenter.startPlayerItemObservers",
		"player.play",
	}
	if got := exec.Commands(); !equal(got, want) {
		t.Errorf("commands = %v, want %v", got, want)
	}
	if st.State().CurrentURL != testURL {
		t.Errorf("CurrentURL = %q", st.State().CurrentURL)
	}
}

func TestStoreSubscribersReceiveSnapshots(t *testing.T) {
	st, _, _ := newTestStore(superplayer.DefaultEnvironment())
	defer st.Close()

	var seen []string
	unsubscribe := st.Subscribe(func(s superplayer.State) {
		seen = append(seen, s.CurrentURL)
	})

	st.Send(superplayer.Load{URL: testURL})
	unsubscribe()
	st.Send(superplayer.Unload{})

	if len(seen) != 1 || seen[0] != testURL {
		t.Errorf("seen = %v, want one snapshot with the loaded URL", seen)
	}
}

func TestStoreBoundedWindowPause(t *testing.T) {
	st, exec, clock := newTestStore(superplayer.DefaultEnvironment())
	defer st.Close()

	st.Send(
		superplayer.Load{URL: testURL, AutoPlay: true},
		superplayer.PlayerItem{Action: playeritem.DurationChanged{Duration: 120 * time.Second}},
		superplayer.PlaybackWindow(0, 100*time.Second),
		superplayer.Player{Action: player.CurrentTimeChanged{Time: 10 * time.Second}},
		superplayer.PlayerItem{Action: playeritem.LoadedTimeRangesChanged{
			Ranges: []mediatime.TimeRange{mediatime.NewTimeRange(0, 125*time.Second)},
		}},
	)
	exec.Reset()

	if !st.Scheduler().Pending(superplayer.CancelPlaybackTimeRange) {
		t.Fatal("expected a pending pause")
	}
	clock.Advance(89 * time.Second)
	if got := exec.Commands(); len(got) != 0 {
		t.Fatalf("commands before the window end = %v", got)
	}
	clock.Advance(time.Second)
	if got := exec.Commands(); !equal(got, []string{"player.pause"}) {
		t.Errorf("commands = %v, want [player.pause]", got)
	}
	if st.State().PlaybackTimeRange.IsPresent() {
		t.Error("expected the window to be cleared")
	}
}

func TestStoreNewWindowSupersedesPause(t *testing.T) {
	st, exec, clock := newTestStore(superplayer.DefaultEnvironment())
	defer st.Close()

	loaded := superplayer.PlayerItem{Action: playeritem.LoadedTimeRangesChanged{
		Ranges: []mediatime.TimeRange{mediatime.NewTimeRange(0, 125*time.Second)},
	}}
	st.Send(superplayer.PlaybackWindow(0, 30*time.Second), loaded)
	clock.Advance(10 * time.Second)
	st.Send(superplayer.PlaybackWindow(0, 60*time.Second), loaded)

	clock.Advance(25 * time.Second)
	if got := exec.Commands(); len(got) != 0 {
		t.Fatalf("superseded pause fired: %v", got)
	}
	clock.Advance(time.Hour)
	if got := exec.Commands(); !equal(got, []string{"player.pause"}) {
		t.Errorf("commands = %v, want exactly one pause", got)
	}
}

func TestStoreReloadsOnceAfterEnd(t *testing.T) {
	st, exec, clock := newTestStore(superplayer.DefaultEnvironment())
	defer st.Close()
	loads := countLoads(st)

	st.Send(
		superplayer.Load{URL: testURL, AutoPlay: true},
		superplayer.PlayerItem{Action: playeritem.DurationChanged{Duration: 60 * time.Second}},
	)
	exec.Reset()
	*loads = 0

	end := superplayer.NotificationCenter{Action: notification.Notify(notification.EventDidPlayToEndTime)}
	st.Send(end, end)
	clock.Advance(499 * time.Millisecond)
	if *loads != 0 {
		t.Fatal("reloaded before the delay")
	}
	clock.Advance(time.Second)

	if *loads != 1 {
		t.Errorf("loads = %d, want 1", *loads)
	}
	if got := exec.Commands(); got[len(got)-1] != "player.pause" {
		t.Errorf("commands = %v, want a paused reload", got)
	}
}

func TestStoreReportsFailedCommands(t *testing.T) {
	st, exec, _ := newTestStore(superplayer.DefaultEnvironment())
	defer st.Close()
	exec.fail = map[string]error{"player.play": errors.New("not connected")}

	st.Send(superplayer.Load{URL: testURL, AutoPlay: true})

	logs := st.State().NotificationCenter.Logs
	if len(logs) != 1 {
		t.Fatalf("logs = %v, want one engine error", logs)
	}
	entry, ok := logs[0].(notification.ErrorLog)
	if !ok || entry.Domain != superplayer.EngineLogDomain {
		t.Errorf("entry = %+v", logs[0])
	}
}

func TestStoreReentrantSendIsQueued(t *testing.T) {
	st, exec, _ := newTestStore(superplayer.DefaultEnvironment())
	defer st.Close()

	exec.onExec = func(cmd superplayer.Command) {
		if cmd.String() == "player.play" {
			st.Send(superplayer.Player{Action: player.RateChanged{Rate: 1}})
		}
	}

	st.Send(superplayer.Load{URL: testURL, AutoPlay: true})

	if st.State().Control.PlayIcon != superplayer.IconPause {
		t.Errorf("PlayIcon = %q, want the reentrant rate change applied", st.State().Control.PlayIcon)
	}
}

func TestStoreConcurrentSends(t *testing.T) {
	st, _, _ := newTestStore(superplayer.DefaultEnvironment())
	defer st.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Send(superplayer.NotificationCenter{Action: notification.Notify(notification.EventPlaybackStalled)})
		}()
	}
	wg.Wait()

	if got := st.State().NumberOfStalls; got != 50 {
		t.Errorf("NumberOfStalls = %d, want 50", got)
	}
}

func TestStoreTaskResultsAreSent(t *testing.T) {
	env := superplayer.DefaultEnvironment()
	env.RetryOnResourceError = true
	env.CheckResource = func(context.Context, string) superplayer.CheckResult {
		return superplayer.CheckResult{StatusCode: 200}
	}
	st, _, _ := newTestStore(env)
	defer st.Close()

	st.Send(
		superplayer.Load{URL: testURL, AutoPlay: true},
		superplayer.PlayerItem{Action: playeritem.DurationChanged{Duration: mediatime.Indefinite}},
		superplayer.NotificationCenter{Action: notification.LogReceived{Log: notification.ErrorLog{Comment: "404"}}},
	)
	st.tasks.Wait()

	if !st.Scheduler().Pending(superplayer.CancelCheckResource) {
		t.Error("expected a reload scheduled from the task result")
	}
}

func TestStoreActionListenersSeeFollowUps(t *testing.T) {
	st, _, _ := newTestStore(superplayer.DefaultEnvironment())
	defer st.Close()

	var seen []string
	st.OnAction(func(a superplayer.Action) {
		switch a.(type) {
		case superplayer.Load:
			seen = append(seen, "load")
		case superplayer.ResetPlayerItem:
			seen = append(seen, "reset")
		}
	})

	st.Send(superplayer.Load{URL: testURL, AutoPlay: true})

	if !equal(seen, []string{"load", "reset"}) {
		t.Errorf("seen = %v, want [load reset]", seen)
	}
}

func TestStoreCancelsOnlyWhatItScheduled(t *testing.T) {
	st, _, clock := newTestStore(superplayer.DefaultEnvironment())
	defer st.Close()

	fired := 0
	st.Scheduler().Schedule(superplayer.CancelPlaybackTimeRange, time.Second, func() { fired++ })

	st.Send(superplayer.NoPlaybackWindow())
	clock.Advance(time.Second)

	if fired != 1 {
		t.Errorf("fired = %d, want the externally scheduled callback to survive", fired)
	}
}

func TestStoreCancelAfterFireIsNoop(t *testing.T) {
	st, exec, clock := newTestStore(superplayer.DefaultEnvironment())
	defer st.Close()

	loaded := superplayer.PlayerItem{Action: playeritem.LoadedTimeRangesChanged{
		Ranges: []mediatime.TimeRange{mediatime.NewTimeRange(0, 125*time.Second)},
	}}
	st.Send(superplayer.PlaybackWindow(0, 30*time.Second), loaded)
	clock.Advance(30 * time.Second)
	st.Send(superplayer.NoPlaybackWindow())
	clock.Advance(time.Hour)

	if got := exec.Commands(); !equal(got, []string{"player.pause"}) {
		t.Errorf("commands = %v, want exactly one pause", got)
	}
}
