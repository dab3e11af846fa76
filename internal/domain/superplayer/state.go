// Package superplayer is the root playback reducer. It composes the player,
// player item, notification and picture-in-picture slices and adds the
// cross-cutting playback policy: load lifecycle, seeking, buffer-driven
// auto-resume, bounded playback windows, replay on end and picture-in-picture
// hand-off. Reducers here are pure; asynchronous work is returned as Effects.
package superplayer

import (
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/edumarques81/superplayer/internal/domain/mediatime"
	"github.com/edumarques81/superplayer/internal/domain/notification"
	"github.com/edumarques81/superplayer/internal/domain/pip"
	"github.com/edumarques81/superplayer/internal/domain/player"
	"github.com/edumarques81/superplayer/internal/domain/playeritem"
)

// Play icon keys rendered by the control overlay.
const (
	IconPlay  = "pip_play"
	IconPause = "pip_pause"
)

// VideoGravity is how video fills the rendering surface.
type VideoGravity string

const (
	GravityResize           VideoGravity = "resize"
	GravityResizeAspect     VideoGravity = "resizeAspect"
	GravityResizeAspectFill VideoGravity = "resizeAspectFill"
)

// Color is a debug color key for loaded-time segments.
type Color string

const (
	ColorClear  Color = "clear"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
)

// Method is a command addressed to the host rather than the engine.
type Method int

const (
	// MethodShutOtherAudioApps takes exclusive audio focus.
	MethodShutOtherAudioApps Method = iota
)

func (m Method) String() string {
	return "superPlayer.shutOtherAudioApps"
}

// MediaInfo is the diagnostic view of one asset track.
type MediaInfo struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
}

// LoadedTime is the seek-bar geometry of one loaded range.
type LoadedTime struct {
	BarWidth    float64 `json:"barWidth"`
	BarOffset   float64 `json:"barOffset"`
	StartValue  string  `json:"startValue"`
	StartOffset float64 `json:"startOffset"`
	EndValue    string  `json:"endValue"`
	EndOffset   float64 `json:"endOffset"`
	TimeColor   Color   `json:"timeColor"`
}

// ControlState holds display fields derived for the control overlay.
// It is a projection, never an input.
type ControlState struct {
	ActualDuration      time.Duration
	ActualDurationLabel string
	CurrentTimeLabel    string
	RemainingTimeLabel  string
	LoadedTimes         []LoadedTime
	SeekBarWidth        float64
	SeekerPosition      float64
	PlayIcon            string
}

// State is the root playback state.
type State struct {
	Method mo.Option[Method]

	SessionID         string
	CurrentURL        string
	IsLive            bool
	AvailableMedia    []MediaInfo
	PlaybackTimeRange mo.Option[mediatime.TimeRange]
	RetryCount        int
	ReloadCountdown   int
	NumberOfStalls    int

	// SuspendedBufferDuration holds the forward buffer duration to restore
	// while prefetching is stopped for a playback window.
	SuspendedBufferDuration mo.Option[time.Duration]

	VideoGravity         VideoGravity
	LooperEnabled        bool
	PictureInPictureMode bool

	Control            ControlState
	Player             player.State
	PlayerItem         playeritem.State
	NotificationCenter notification.State
	PictureInPicture   pip.State
}

// NewState creates the root state for a player session. logLimit bounds the
// in-state access/error log.
func NewState(logLimit int) State {
	return State{
		VideoGravity: GravityResizeAspectFill,
		Control: ControlState{
			ActualDurationLabel: "00:00",
			CurrentTimeLabel:    "00:00",
			RemainingTimeLabel:  "00:00",
			PlayIcon:            IconPlay,
		},
		Player:             player.NewState(),
		PlayerItem:         playeritem.NewState(),
		NotificationCenter: notification.NewState(logLimit),
	}
}

// IsLoaded reports whether a media resource is loaded.
func (s State) IsLoaded() bool {
	return s.CurrentURL != ""
}

// Clone returns a deep copy suitable for handing to readers.
func (s State) Clone() State {
	c := s
	c.AvailableMedia = append([]MediaInfo(nil), s.AvailableMedia...)
	c.Control.LoadedTimes = append([]LoadedTime(nil), s.Control.LoadedTimes...)
	c.PlayerItem = s.PlayerItem.Clone()
	c.NotificationCenter = s.NotificationCenter.Clone()
	return c
}

// LogsJSON returns the in-state log projection, newest first.
func (s State) LogsJSON() []map[string]interface{} {
	return lo.Map(s.NotificationCenter.Logs, func(l notification.Log, _ int) map[string]interface{} {
		return map[string]interface{}{"kind": l.Kind(), "entry": l}
	})
}

// ToJSON returns the UI projection of the state as a map suitable for JSON
// serialization.
func (s State) ToJSON() map[string]interface{} {
	pictureInPicture := map[string]interface{}{
		"enabled":  s.PictureInPicture.Enabled,
		"possible": s.PictureInPicture.Possible,
	}
	if d, ok := s.PictureInPicture.Delegate.Get(); ok {
		pictureInPicture["delegate"] = d.String()
	}

	m := map[string]interface{}{
		"sessionId":             s.SessionID,
		"url":                   s.CurrentURL,
		"isLive":                s.IsLive,
		"availableMedia":        s.AvailableMedia,
		"retryCount":            s.RetryCount,
		"reloadCountdown":       s.ReloadCountdown,
		"numberOfStalls":        s.NumberOfStalls,
		"videoGravity":          s.VideoGravity,
		"isLooperEnabled":       s.LooperEnabled,
		"isPictureInPicture":    s.PictureInPictureMode,
		"actualDurationLabel":   s.Control.ActualDurationLabel,
		"currentTimeLabel":      s.Control.CurrentTimeLabel,
		"remainingTimeLabel":    s.Control.RemainingTimeLabel,
		"loadedTimes":           s.Control.LoadedTimes,
		"seekBarWidth":          s.Control.SeekBarWidth,
		"seekerPosition":        s.Control.SeekerPosition,
		"playIcon":              s.Control.PlayIcon,
		"player":                s.Player.ToJSON(),
		"isPlaybackBufferEmpty": s.PlayerItem.PlaybackBufferEmpty,
		"isPlaybackBufferFull":  s.PlayerItem.PlaybackBufferFull,
		"isLikelyToKeepUp":      s.PlayerItem.PlaybackLikelyToKeepUp,
		"pictureInPicture":      pictureInPicture,
		"logs":                  s.LogsJSON(),
	}
	if r, ok := s.PlaybackTimeRange.Get(); ok {
		m["playbackTimeRange"] = map[string]interface{}{
			"start": r.Start.Seconds(),
			"end":   r.End().Seconds(),
		}
	}
	return m
}
