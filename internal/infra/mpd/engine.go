package mpd

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/edumarques81/superplayer/internal/domain/mediatime"
	"github.com/edumarques81/superplayer/internal/domain/notification"
	"github.com/edumarques81/superplayer/internal/domain/player"
	"github.com/edumarques81/superplayer/internal/domain/playeritem"
	"github.com/edumarques81/superplayer/internal/domain/superplayer"
	"github.com/edumarques81/superplayer/internal/engine"
)

// LogDomain is the error-log domain of errors reported by MPD.
const LogDomain = "mpd"

// Conn is the part of the MPD client the engine drives.
type Conn interface {
	Status() (mpd.Attrs, error)
	Play(pos int) error
	Pause(pause bool) error
	Stop() error
	Seek(d time.Duration) error
	SetVolume(vol int) error
	SetRepeat(on bool) error
	SetSingle(on bool) error
	Clear() error
	Add(uri string) error
	ClearError() error
}

// Watcher is implemented by connections that can report subsystem changes.
type Watcher interface {
	Watch(subsystems ...string) (<-chan string, error)
}

var httpStatus = regexp.MustCompile(`\b([45]\d\d)\b`)

// observed is what the last poll reported, so that only changes are sent.
type observed struct {
	valid       bool
	state       string
	hasSong     bool
	status      player.Status
	timeControl player.TimeControlStatus
	reason      player.WaitingReason
	elapsed     time.Duration
	volume      int
	duration    time.Duration
	rangeEnd    time.Duration
	tracks      string
	bufferEmpty bool
	bufferFull  bool
	keepUp      bool
}

// Engine implements engine.Engine on MPD.
type Engine struct {
	conn       Conn
	dispatcher engine.Dispatcher
	interval   time.Duration

	mu            sync.Mutex
	url           string
	wantPlay      bool
	players       bool
	items         bool
	notifications bool
	last          observed
	settings      mo.Option[engine.Settings]
	stalls        int
	stalled       bool
	lastError     string
	accessLogged  bool
}

// NewEngine creates an engine polling conn every interval and reporting to d.
func NewEngine(conn Conn, d engine.Dispatcher, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = time.Second
	}
	return &Engine{
		conn:       conn,
		dispatcher: d,
		interval:   interval,
	}
}

// Run polls MPD until ctx is done. Subsystem events from the idle watcher
// trigger an immediate poll between ticks.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	var events <-chan string
	if w, ok := e.conn.(Watcher); ok {
		ch, err := w.Watch("player", "mixer", "options", "playlist")
		if err != nil {
			log.Warn().Err(err).Msg("MPD watcher unavailable, polling only")
		} else {
			events = ch
		}
	}

	log.Info().Dur("interval", e.interval).Msg("MPD engine running")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.pollLogged()
		case subsystem, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			log.Debug().Str("subsystem", subsystem).Msg("MPD subsystem changed")
			e.pollLogged()
		}
	}
}

func (e *Engine) pollLogged() {
	if err := e.Poll(); err != nil {
		log.Warn().Err(err).Msg("MPD poll failed")
	}
}

// Poll reads MPD status and sends the changes since the previous poll.
func (e *Engine) Poll() error {
	e.mu.Lock()
	active := e.players || e.items || e.notifications
	e.mu.Unlock()
	if !active {
		return nil
	}

	status, err := e.conn.Status()
	if err != nil {
		return fmt.Errorf("poll status: %w", err)
	}

	e.mu.Lock()
	actions := e.diffLocked(status)
	e.mu.Unlock()

	if len(actions) > 0 {
		e.dispatcher.Send(actions...)
	}
	return nil
}

func (e *Engine) diffLocked(status mpd.Attrs) []superplayer.Action {
	prev := e.last
	cur := e.observe(status)
	e.last = cur
	changed := func(differs bool) bool { return !prev.valid || differs }

	var actions []superplayer.Action
	if e.players {
		if changed(cur.status != prev.status) {
			actions = append(actions, superplayer.Player{Action: player.StatusChanged{Status: cur.status}})
		}
		if changed(cur.timeControl != prev.timeControl) {
			actions = append(actions, superplayer.Player{Action: player.TimeControlStatusChanged{Status: cur.timeControl}})
		}
		if changed(cur.reason != prev.reason) {
			reason := mo.None[player.WaitingReason]()
			if cur.reason != "" {
				reason = mo.Some(cur.reason)
			}
			actions = append(actions, superplayer.Player{Action: player.WaitingReasonChanged{Reason: reason}})
		}
		if changed(cur.state != prev.state) {
			rate := float32(0)
			if cur.state == "play" {
				rate = 1
			}
			actions = append(actions, superplayer.Player{Action: player.RateChanged{Rate: rate}})
		}
		if changed(cur.elapsed != prev.elapsed) {
			actions = append(actions, superplayer.Player{Action: player.CurrentTimeChanged{Time: cur.elapsed}})
		}
		if muted := e.mutedLocked(); !muted && cur.volume >= 0 && changed(cur.volume != prev.volume) {
			actions = append(actions, superplayer.Player{Action: player.VolumeChanged{Volume: float32(cur.volume) / 100}})
		}
	}

	if e.items {
		if changed(cur.duration != prev.duration) {
			actions = append(actions, superplayer.PlayerItem{Action: playeritem.DurationChanged{Duration: cur.duration}})
		}
		if changed(cur.tracks != prev.tracks) {
			tracks := tracksFor(status["audio"], status["error"], cur.hasSong)
			actions = append(actions, superplayer.PlayerItem{Action: playeritem.AssetTracksChanged{Tracks: tracks}})
			if f, ok := parseAudioFormat(status["audio"]); ok {
				log.Debug().Stringer("format", f).Msg("Audio format changed")
			}
		}
		if changed(cur.bufferEmpty != prev.bufferEmpty) {
			actions = append(actions, superplayer.PlayerItem{Action: playeritem.PlaybackBufferEmptyChanged{Empty: cur.bufferEmpty}})
		}
		if changed(cur.bufferFull != prev.bufferFull) {
			actions = append(actions, superplayer.PlayerItem{Action: playeritem.PlaybackBufferFullChanged{Full: cur.bufferFull}})
		}
		if changed(cur.keepUp != prev.keepUp) {
			actions = append(actions, superplayer.PlayerItem{Action: playeritem.PlaybackLikelyToKeepUpChanged{LikelyToKeepUp: cur.keepUp}})
		}
		if changed(cur.rangeEnd != prev.rangeEnd) {
			var ranges []mediatime.TimeRange
			if cur.hasSong {
				ranges = []mediatime.TimeRange{mediatime.NewTimeRange(0, cur.rangeEnd)}
			}
			actions = append(actions, superplayer.PlayerItem{Action: playeritem.LoadedTimeRangesChanged{Ranges: ranges}})
		}
	}

	if e.notifications {
		actions = append(actions, e.notificationsLocked(prev, cur, status)...)
	}
	return actions
}

func (e *Engine) notificationsLocked(prev, cur observed, status mpd.Attrs) []superplayer.Action {
	var actions []superplayer.Action
	notify := func(ev notification.Event) {
		actions = append(actions, superplayer.NotificationCenter{Action: notification.Notify(ev)})
	}

	finite := !mediatime.IsIndefinite(prev.duration) && prev.duration > 0
	if prev.valid && prev.state == "play" && cur.state == "stop" && e.wantPlay && finite {
		e.wantPlay = false
		notify(notification.EventDidPlayToEndTime)
	}

	if prev.valid && prev.state == "play" && cur.state == "play" && cur.elapsed == prev.elapsed {
		if !e.stalled {
			e.stalled = true
			e.stalls++
			notify(notification.EventPlaybackStalled)
		}
	} else if cur.elapsed != prev.elapsed {
		e.stalled = false
	}

	if msg := status["error"]; msg != "" && msg != e.lastError {
		e.lastError = msg
		code := 0
		if m := httpStatus.FindStringSubmatch(msg); m != nil {
			code, _ = strconv.Atoi(m[1])
		}
		actions = append(actions, superplayer.NotificationCenter{Action: notification.LogReceived{Log: notification.ErrorLog{
			URI:           e.url,
			ServerAddress: host(e.url),
			StatusCode:    code,
			Domain:        LogDomain,
			Comment:       msg,
		}}})
	}

	if !e.accessLogged && cur.state == "play" && status["bitrate"] != "" {
		if kbps, err := strconv.ParseFloat(status["bitrate"], 64); err == nil {
			e.accessLogged = true
			actions = append(actions, superplayer.NotificationCenter{Action: notification.LogReceived{Log: notification.AccessLog{
				URI:              e.url,
				ServerAddress:    host(e.url),
				MediaRequests:    1,
				PlaybackType:     playbackType(e.url, cur.duration),
				Stalls:           e.stalls,
				IndicatedBitrate: kbps * 1000,
				ObservedBitrate:  kbps * 1000,
			}}})
		}
	}
	return actions
}

func (e *Engine) observe(status mpd.Attrs) observed {
	state := status["state"]
	hasSong := e.url != "" && status["song"] != ""
	mpdErr := status["error"]
	elapsed := parseSeconds(status["elapsed"])

	// A stream MPD has dropped keeps its indefinite duration until another
	// duration is reported, so the item still reads as live while it waits.
	duration := parseSeconds(status["duration"])
	if duration <= 0 && isStream(e.url) && (hasSong || mediatime.IsIndefinite(e.last.duration)) {
		duration = mediatime.Indefinite
	}

	o := observed{
		valid:    true,
		state:    state,
		hasSong:  hasSong,
		elapsed:  elapsed,
		volume:   -1,
		duration: duration,
		tracks:   status["audio"] + "|" + mpdErr + "|" + strconv.FormatBool(hasSong),
	}
	if v, err := strconv.Atoi(status["volume"]); err == nil {
		o.volume = v
	}

	switch {
	case mpdErr != "":
		o.status = player.StatusFailed
	case hasSong:
		o.status = player.StatusReadyToPlay
	default:
		o.status = player.StatusUnknown
	}

	switch {
	case state == "play":
		o.timeControl = player.TimeControlPlaying
	case e.wantPlay:
		o.timeControl = player.TimeControlWaitingToPlayAtSpecifiedRate
		if !hasSong || mpdErr != "" {
			o.reason = player.WaitingNoItemToPlay
		} else {
			o.reason = player.WaitingToMinimizeStalls
		}
	default:
		o.timeControl = player.TimeControlPaused
	}

	live := mediatime.IsIndefinite(duration)
	o.rangeEnd = lo.Ternary(live, elapsed, duration)
	o.bufferEmpty = !hasSong || (e.wantPlay && state != "play")
	o.bufferFull = hasSong && !live
	o.keepUp = state == "play"
	return o
}

func (e *Engine) mutedLocked() bool {
	s, ok := e.settings.Get()
	return ok && s.Muted
}

// StartPlayerObservers starts reporting player properties.
func (e *Engine) StartPlayerObservers(context.Context) error {
	e.mu.Lock()
	e.players = true
	e.last.valid = false
	e.mu.Unlock()
	return e.Poll()
}

// ReplaceCurrentItem replaces the queue with url, or empties it.
func (e *Engine) ReplaceCurrentItem(_ context.Context, uri string) error {
	if err := e.conn.Clear(); err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}

	e.mu.Lock()
	hadError := e.lastError != ""
	e.url = ""
	e.wantPlay = false
	e.last.valid = false
	e.stalls = 0
	e.stalled = false
	e.lastError = ""
	e.accessLogged = false
	e.mu.Unlock()

	if hadError {
		if err := e.conn.ClearError(); err != nil {
			log.Warn().Err(err).Msg("Failed to clear MPD error")
		}
	}
	if uri == "" {
		return nil
	}
	if err := e.conn.Add(uri); err != nil {
		return fmt.Errorf("add %s: %w", uri, err)
	}

	e.mu.Lock()
	e.url = uri
	e.mu.Unlock()
	log.Info().Str("url", uri).Msg("Replaced current item")
	return nil
}

// Play starts or resumes playback.
func (e *Engine) Play(context.Context) error {
	e.mu.Lock()
	e.wantPlay = true
	e.mu.Unlock()

	if err := e.conn.Play(-1); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	return nil
}

// PlayImmediately is Play: MPD never delays playback to fill its buffer.
func (e *Engine) PlayImmediately(ctx context.Context) error {
	return e.Play(ctx)
}

// Pause pauses playback.
func (e *Engine) Pause(context.Context) error {
	e.mu.Lock()
	e.wantPlay = false
	e.mu.Unlock()

	if err := e.conn.Pause(true); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	return nil
}

// Seek moves the playhead.
func (e *Engine) Seek(_ context.Context, t time.Duration) error {
	if err := e.conn.Seek(t); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	return nil
}

// StartItemObservers starts reporting item properties.
func (e *Engine) StartItemObservers(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = true
	e.last.valid = false
	return nil
}

// StopItemObservers stops reporting item properties.
func (e *Engine) StopItemObservers(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = false
	return nil
}

// StartLifecycleObservers is a no-op: a daemon has no foreground.
func (e *Engine) StartLifecycleObservers(context.Context) error {
	log.Debug().Msg("Lifecycle observers not applicable to MPD")
	return nil
}

// StartNotificationObservers starts reporting stalls, end of media and logs.
func (e *Engine) StartNotificationObservers(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifications = true
	return nil
}

// StopNotificationObservers stops reporting item notifications.
func (e *Engine) StopNotificationObservers(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifications = false
	return nil
}

// StartPictureInPicture is unsupported; MPD has no video surface.
func (e *Engine) StartPictureInPicture(context.Context) error {
	return engine.ErrUnsupported
}

// StopPictureInPicture is a no-op.
func (e *Engine) StopPictureInPicture(context.Context) error {
	return nil
}

// TakeAudioFocus is a no-op; MPD owns its outputs.
func (e *Engine) TakeAudioFocus(context.Context) error {
	log.Debug().Msg("Audio focus is implicit on MPD")
	return nil
}

// ApplySettings writes volume and looping to MPD. Buffering settings have
// no MPD counterpart.
func (e *Engine) ApplySettings(_ context.Context, s engine.Settings) error {
	e.mu.Lock()
	prev, had := e.settings.Get()
	e.settings = mo.Some(s)
	e.mu.Unlock()

	if !had || prev.Muted != s.Muted || prev.Volume != s.Volume {
		vol := int(math.Round(float64(s.Volume) * 100))
		if s.Muted {
			vol = 0
		}
		if err := e.conn.SetVolume(vol); err != nil {
			return fmt.Errorf("set volume: %w", err)
		}
	}
	if !had || prev.Looping != s.Looping {
		if err := e.conn.SetRepeat(s.Looping); err != nil {
			return fmt.Errorf("set repeat: %w", err)
		}
		if err := e.conn.SetSingle(s.Looping); err != nil {
			return fmt.Errorf("set single: %w", err)
		}
	}
	return nil
}

func parseSeconds(s string) time.Duration {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return mediatime.FromSeconds(f)
}

func isStream(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

func host(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return u.Host
}

func playbackType(uri string, duration time.Duration) notification.PlaybackType {
	switch {
	case !isStream(uri):
		return notification.PlaybackFile
	case mediatime.IsIndefinite(duration):
		return notification.PlaybackLive
	default:
		return notification.PlaybackVOD
	}
}
