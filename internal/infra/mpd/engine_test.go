package mpd

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/fhs/gompd/v2/mpd"

	"github.com/edumarques81/superplayer/internal/domain/mediatime"
	"github.com/edumarques81/superplayer/internal/domain/notification"
	"github.com/edumarques81/superplayer/internal/domain/player"
	"github.com/edumarques81/superplayer/internal/domain/playeritem"
	"github.com/edumarques81/superplayer/internal/domain/superplayer"
	"github.com/edumarques81/superplayer/internal/engine"
	"github.com/edumarques81/superplayer/internal/store"
)

type fakeConn struct {
	mu     sync.Mutex
	status mpd.Attrs
	calls  []string
	err    error
}

func (c *fakeConn) record(call string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
	return c.err
}

func (c *fakeConn) setStatus(attrs mpd.Attrs) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = attrs
}

func (c *fakeConn) Status() (mpd.Attrs, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := mpd.Attrs{}
	for k, v := range c.status {
		out[k] = v
	}
	return out, c.err
}

func (c *fakeConn) Play(pos int) error         { return c.record("play") }
func (c *fakeConn) Pause(pause bool) error     { return c.record("pause") }
func (c *fakeConn) Stop() error                { return c.record("stop") }
func (c *fakeConn) Seek(d time.Duration) error { return c.record("seek " + d.String()) }
func (c *fakeConn) SetVolume(vol int) error    { return c.record("volume " + strconv.Itoa(vol)) }
func (c *fakeConn) SetRepeat(on bool) error    { return c.record("repeat " + btoa(on)) }
func (c *fakeConn) SetSingle(on bool) error    { return c.record("single " + btoa(on)) }
func (c *fakeConn) Clear() error               { return c.record("clear") }
func (c *fakeConn) Add(uri string) error       { return c.record("add " + uri) }
func (c *fakeConn) ClearError() error          { return c.record("clearerror") }

func btoa(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

type recorder struct {
	mu      sync.Mutex
	actions []superplayer.Action
}

func (r *recorder) Send(actions ...superplayer.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, actions...)
}

func (r *recorder) take() []superplayer.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.actions
	r.actions = nil
	return out
}

func find[T any](actions []superplayer.Action, pick func(superplayer.Action) (T, bool)) (T, bool) {
	for _, a := range actions {
		if v, ok := pick(a); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func playerAction[T player.Action](a superplayer.Action) (T, bool) {
	var zero T
	p, ok := a.(superplayer.Player)
	if !ok {
		return zero, false
	}
	v, ok := p.Action.(T)
	return v, ok
}

func itemAction[T playeritem.Action](a superplayer.Action) (T, bool) {
	var zero T
	p, ok := a.(superplayer.PlayerItem)
	if !ok {
		return zero, false
	}
	v, ok := p.Action.(T)
	return v, ok
}

func events(actions []superplayer.Action) []notification.Event {
	var out []notification.Event
	for _, a := range actions {
		n, ok := a.(superplayer.NotificationCenter)
		if !ok {
			continue
		}
		if r, ok := n.Action.(notification.Received); ok {
			if ev, ok := r.Event.Get(); ok {
				out = append(out, ev)
			}
		}
	}
	return out
}

func logs(actions []superplayer.Action) []notification.Log {
	var out []notification.Log
	for _, a := range actions {
		n, ok := a.(superplayer.NotificationCenter)
		if !ok {
			continue
		}
		if r, ok := n.Action.(notification.LogReceived); ok {
			out = append(out, r.Log)
		}
	}
	return out
}

func startedEngine(t *testing.T, conn *fakeConn) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	e := NewEngine(conn, rec, time.Second)
	ctx := context.Background()
	for _, start := range []func(context.Context) error{
		e.StartPlayerObservers, e.StartItemObservers, e.StartNotificationObservers,
	} {
		if err := start(ctx); err != nil {
			t.Fatalf("start observers: %v", err)
		}
	}
	rec.take()
	return e, rec
}

func TestReplaceCurrentItem(t *testing.T) {
	conn := &fakeConn{status: mpd.Attrs{"state": "stop"}}
	e, _ := startedEngine(t, conn)

	if err := e.ReplaceCurrentItem(context.Background(), "http://radio.example/live"); err != nil {
		t.Fatal(err)
	}
	if err := e.ReplaceCurrentItem(context.Background(), ""); err != nil {
		t.Fatal(err)
	}

	want := []string{"clear", "add http://radio.example/live", "clear"}
	if len(conn.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", conn.calls, want)
	}
	for i := range want {
		if conn.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", conn.calls, want)
		}
	}
}

func TestReplaceCurrentItemWrapsErrors(t *testing.T) {
	conn := &fakeConn{err: ErrNotConnected}
	e := NewEngine(conn, &recorder{}, time.Second)

	err := e.ReplaceCurrentItem(context.Background(), "song.flac")
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}

func TestPollReportsPlayingFile(t *testing.T) {
	conn := &fakeConn{status: mpd.Attrs{"state": "stop"}}
	e, rec := startedEngine(t, conn)
	ctx := context.Background()

	_ = e.ReplaceCurrentItem(ctx, "music/album/track.flac")
	_ = e.Play(ctx)
	conn.setStatus(mpd.Attrs{
		"state":    "play",
		"song":     "0",
		"elapsed":  "12.500",
		"duration": "180.000",
		"audio":    "96000:24:2",
		"volume":   "80",
	})
	if err := e.Poll(); err != nil {
		t.Fatal(err)
	}
	actions := rec.take()

	if tc, ok := find(actions, playerAction[player.TimeControlStatusChanged]); !ok || tc.Status != player.TimeControlPlaying {
		t.Errorf("time control = %+v, %v", tc, ok)
	}
	if ct, ok := find(actions, playerAction[player.CurrentTimeChanged]); !ok || ct.Time != 12500*time.Millisecond {
		t.Errorf("current time = %+v, %v", ct, ok)
	}
	if d, ok := find(actions, itemAction[playeritem.DurationChanged]); !ok || d.Duration != 180*time.Second {
		t.Errorf("duration = %+v, %v", d, ok)
	}
	if r, ok := find(actions, itemAction[playeritem.LoadedTimeRangesChanged]); !ok || len(r.Ranges) != 1 || r.Ranges[0].End() != 180*time.Second {
		t.Errorf("ranges = %+v, %v", r, ok)
	}
	if tr, ok := find(actions, itemAction[playeritem.AssetTracksChanged]); !ok || len(tr.Tracks) != 1 || !tr.Tracks[0].Decodable {
		t.Errorf("tracks = %+v, %v", tr, ok)
	}
	if v, ok := find(actions, playerAction[player.VolumeChanged]); !ok || v.Volume != 0.8 {
		t.Errorf("volume = %+v, %v", v, ok)
	}

	if err := e.Poll(); err != nil {
		t.Fatal(err)
	}
	if again := rec.take(); len(events(again)) != 1 {
		t.Errorf("unchanged elapsed while playing should report one stall, got %v", again)
	}
}

func TestPollReportsDroppedLiveStream(t *testing.T) {
	conn := &fakeConn{status: mpd.Attrs{"state": "stop"}}
	e, rec := startedEngine(t, conn)
	ctx := context.Background()

	_ = e.ReplaceCurrentItem(ctx, "http://radio.example/live")
	_ = e.Play(ctx)
	conn.setStatus(mpd.Attrs{
		"state": "play",
		"song":  "0",
		"error": "Failed to decode http://radio.example/live; CURL failed: The requested URL returned error: 404",
	})
	_ = e.Poll()
	actions := rec.take()

	if d, ok := find(actions, itemAction[playeritem.DurationChanged]); !ok || !mediatime.IsIndefinite(d.Duration) {
		t.Errorf("duration = %+v, %v; want indefinite", d, ok)
	}
	entries := logs(actions)
	if len(entries) != 1 {
		t.Fatalf("logs = %v, want one error", entries)
	}
	entry := entries[0].(notification.ErrorLog)
	if entry.StatusCode != 404 || entry.Domain != LogDomain || entry.ServerAddress != "radio.example" {
		t.Errorf("entry = %+v", entry)
	}

	conn.setStatus(mpd.Attrs{"state": "stop", "error": entry.Comment})
	_ = e.Poll()
	actions = rec.take()
	reason, ok := find(actions, playerAction[player.WaitingReasonChanged])
	if !ok {
		t.Fatal("expected a waiting reason")
	}
	if r, _ := reason.Reason.Get(); r != player.WaitingNoItemToPlay {
		t.Errorf("reason = %v, want noItemToPlay", r)
	}
	if len(logs(actions)) != 0 {
		t.Error("the same MPD error must be logged once")
	}
	if d, ok := find(actions, itemAction[playeritem.DurationChanged]); ok {
		t.Errorf("dropped stream reported duration %v, want it to stay indefinite", d.Duration)
	}
}

// stepClock fires every pending timer on Step, one simulated second at a time.
type stepClock struct {
	mu      sync.Mutex
	pending []*stepTimer
}

type stepTimer struct {
	clock   *stepClock
	f       func()
	stopped bool
}

func (c *stepClock) AfterFunc(_ time.Duration, f func()) store.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &stepTimer{clock: c, f: f}
	c.pending = append(c.pending, t)
	return t
}

func (t *stepTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *stepClock) Step() {
	c.mu.Lock()
	due := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, t := range due {
		t.clock.mu.Lock()
		run := !t.stopped
		t.stopped = true
		t.clock.mu.Unlock()
		if run {
			t.f()
		}
	}
}

func TestDroppedLiveStreamIsReloaded(t *testing.T) {
	const url = "http://radio.example/live"
	conn := &fakeConn{status: mpd.Attrs{"state": "stop"}}
	clock := &stepClock{}

	var st *store.Store
	e := NewEngine(conn, engine.DispatcherFunc(func(actions ...superplayer.Action) {
		st.Send(actions...)
	}), time.Second)
	st = store.New(
		superplayer.NewReducer(superplayer.DefaultEnvironment()),
		superplayer.NewState(0),
		store.WithExecutor(engine.NewBridge(e)),
		store.WithClock(clock),
	)
	defer st.Close()

	reloader := engine.NewReloader(st, 3*time.Second, clock)
	defer reloader.Stop()
	st.Subscribe(reloader.Observe)

	var mu sync.Mutex
	reloads := 0
	st.OnAction(func(a superplayer.Action) {
		if l, ok := a.(superplayer.Load); ok && l.URL == url {
			mu.Lock()
			reloads++
			mu.Unlock()
		}
	})

	st.Send(superplayer.Begin{SessionID: "s1"}, superplayer.Load{URL: url, AutoPlay: true})
	conn.setStatus(mpd.Attrs{"state": "play", "song": "0", "elapsed": "4.0"})
	if err := e.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !st.State().IsLive {
		t.Fatal("expected the stream to be live")
	}

	conn.setStatus(mpd.Attrs{"state": "stop", "error": "CURL failed: The requested URL returned error: 404"})
	if err := e.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}

	s := st.State()
	if reason, _ := s.Player.WaitingReason.Get(); reason != player.WaitingNoItemToPlay {
		t.Fatalf("waiting reason = %v, want noItemToPlay", reason)
	}
	if !s.IsLive || s.ReloadCountdown != 3 {
		t.Fatalf("isLive=%v countdown=%d, want a live item counting down from 3", s.IsLive, s.ReloadCountdown)
	}

	mu.Lock()
	reloads = 0
	mu.Unlock()
	for i := 0; i < 6; i++ {
		clock.Step()
		if err := e.Poll(); err != nil {
			t.Fatalf("Poll: %v", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if reloads != 2 {
		t.Errorf("reloads = %d, want 2 over two intervals", reloads)
	}
	if got := st.State().ReloadCountdown; got != 3 {
		t.Errorf("ReloadCountdown = %d, want 3 after a reload", got)
	}
}

func TestPollDetectsPlayedToEnd(t *testing.T) {
	conn := &fakeConn{status: mpd.Attrs{"state": "stop"}}
	e, rec := startedEngine(t, conn)
	ctx := context.Background()

	_ = e.ReplaceCurrentItem(ctx, "music/track.flac")
	_ = e.Play(ctx)
	conn.setStatus(mpd.Attrs{"state": "play", "song": "0", "elapsed": "179.9", "duration": "180.0"})
	_ = e.Poll()
	rec.take()

	conn.setStatus(mpd.Attrs{"state": "stop"})
	_ = e.Poll()

	got := events(rec.take())
	if len(got) != 1 || got[0] != notification.EventDidPlayToEndTime {
		t.Errorf("events = %v, want [didPlayToEndTime]", got)
	}
}

func TestPauseIsNotEndOfMedia(t *testing.T) {
	conn := &fakeConn{status: mpd.Attrs{"state": "stop"}}
	e, rec := startedEngine(t, conn)
	ctx := context.Background()

	_ = e.ReplaceCurrentItem(ctx, "music/track.flac")
	_ = e.Play(ctx)
	conn.setStatus(mpd.Attrs{"state": "play", "song": "0", "elapsed": "10", "duration": "180"})
	_ = e.Poll()
	_ = e.Pause(ctx)
	conn.setStatus(mpd.Attrs{"state": "stop"})
	_ = e.Poll()

	for _, ev := range events(rec.take()) {
		if ev == notification.EventDidPlayToEndTime {
			t.Error("pause reported as end of media")
		}
	}
}

func TestAccessLogOncePerItem(t *testing.T) {
	conn := &fakeConn{status: mpd.Attrs{"state": "stop"}}
	e, rec := startedEngine(t, conn)
	ctx := context.Background()

	_ = e.ReplaceCurrentItem(ctx, "http://radio.example/live")
	_ = e.Play(ctx)
	conn.setStatus(mpd.Attrs{"state": "play", "song": "0", "elapsed": "1", "bitrate": "128"})
	_ = e.Poll()
	conn.setStatus(mpd.Attrs{"state": "play", "song": "0", "elapsed": "2", "bitrate": "128"})
	_ = e.Poll()

	entries := logs(rec.take())
	if len(entries) != 1 {
		t.Fatalf("logs = %v, want one access entry", entries)
	}
	access := entries[0].(notification.AccessLog)
	if access.PlaybackType != notification.PlaybackLive || access.ObservedBitrate != 128000 {
		t.Errorf("access = %+v", access)
	}
}

func TestPollWithoutObserversIsSilent(t *testing.T) {
	conn := &fakeConn{status: mpd.Attrs{"state": "play", "song": "0"}}
	rec := &recorder{}
	e := NewEngine(conn, rec, time.Second)

	if err := e.Poll(); err != nil {
		t.Fatal(err)
	}
	if len(rec.take()) != 0 {
		t.Error("expected no actions before observers start")
	}
}

func TestApplySettings(t *testing.T) {
	conn := &fakeConn{}
	e := NewEngine(conn, &recorder{}, time.Second)
	ctx := context.Background()

	_ = e.ApplySettings(ctx, engine.Settings{Volume: 0.5})
	_ = e.ApplySettings(ctx, engine.Settings{Volume: 0.5, Muted: true})
	_ = e.ApplySettings(ctx, engine.Settings{Volume: 0.5, Muted: true, Looping: true})

	want := []string{"volume 50", "repeat off", "single off", "volume 0", "repeat on", "single on"}
	if len(conn.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", conn.calls, want)
	}
	for i := range want {
		if conn.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", conn.calls, want)
		}
	}
}

func TestPictureInPictureUnsupported(t *testing.T) {
	e := NewEngine(&fakeConn{}, &recorder{}, time.Second)

	if err := e.StartPictureInPicture(context.Background()); !errors.Is(err, engine.ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestParseAudioFormat(t *testing.T) {
	tests := []struct {
		audio  string
		ok     bool
		format string
		bits   int
	}{
		{"44100:16:2", true, "PCM", 16},
		{"2822400:1:2", true, "DSD64", 1},
		{"48000:f:2", true, "PCM", 32},
		{"garbage", false, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.audio, func(t *testing.T) {
			f, ok := parseAudioFormat(tt.audio)
			if ok != tt.ok || f.Format != tt.format || f.BitDepth != tt.bits {
				t.Errorf("parseAudioFormat(%q) = %+v, %v", tt.audio, f, ok)
			}
		})
	}
}
