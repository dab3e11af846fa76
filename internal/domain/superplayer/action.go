package superplayer

import (
	"time"

	"github.com/samber/mo"

	"github.com/edumarques81/superplayer/internal/domain/mediatime"
	"github.com/edumarques81/superplayer/internal/domain/notification"
	"github.com/edumarques81/superplayer/internal/domain/pip"
	"github.com/edumarques81/superplayer/internal/domain/player"
	"github.com/edumarques81/superplayer/internal/domain/playeritem"
)

// Action is an input to the root reducer.
type Action interface {
	superPlayerAction()
}

// CallMethod places a host command in the root mailbox. A None method clears it.
type CallMethod struct{ Method mo.Option[Method] }

// Begin starts a player session.
type Begin struct{ SessionID string }

// ResetPlayerItem replaces the item state for a freshly loaded URL.
type ResetPlayerItem struct{ URL string }

// Load replaces the engine item with URL and plays or pauses it.
type Load struct {
	URL      string
	AutoPlay bool
}

// Unload removes the engine item.
type Unload struct{}

// End terminates the resource retry loop.
type End struct{}

// SeekBarWidth reports the seek bar width in pixels.
type SeekBarWidth struct{ Width float64 }

// Backward seeks back by a duration, flooring at zero.
type Backward struct{ By time.Duration }

// Forward seeks forward by a duration, capped at the item duration.
type Forward struct{ By time.Duration }

// SlidingSeeker moves the seeker to a pixel position during a drag.
type SlidingSeeker struct{ To float64 }

// DoneSeeking ends a drag: seek to the dragged time and play.
type DoneSeeking struct{}

// SetPlaybackTimeRange sets or clears the bounded playback window.
type SetPlaybackTimeRange struct{ Range mo.Option[mediatime.TimeRange] }

// RestoreBuffering resumes prefetching suspended for a playback window.
type RestoreBuffering struct{}

// CheckResource probes a failing live resource.
type CheckResource struct{ URL string }

// ResourceChecked reports the outcome of a CheckResource probe.
type ResourceChecked struct {
	URL    string
	Result CheckResult
}

// SetReloadCountdown sets the countdown shown while a live reload is armed.
type SetReloadCountdown struct{ Countdown int }

// SetVideoGravity sets how video fills the surface.
type SetVideoGravity struct{ Gravity VideoGravity }

// SetLooperEnabled turns looping on or off.
type SetLooperEnabled struct{ Enabled bool }

// SetPictureInPictureMode enters or leaves picture-in-picture.
type SetPictureInPictureMode struct{ Enabled bool }

// EngineCommandFailed reports a command the adapter could not execute.
type EngineCommandFailed struct {
	Command string
	Err     string
}

// Player wraps a player slice action.
type Player struct{ Action player.Action }

// PlayerItem wraps a player item slice action.
type PlayerItem struct{ Action playeritem.Action }

// NotificationCenter wraps a notification slice action.
type NotificationCenter struct{ Action notification.Action }

// PictureInPicture wraps a picture-in-picture slice action.
type PictureInPicture struct{ Action pip.Action }

func (CallMethod) superPlayerAction()              {}
func (Begin) superPlayerAction()                   {}
func (ResetPlayerItem) superPlayerAction()         {}
func (Load) superPlayerAction()                    {}
func (Unload) superPlayerAction()                  {}
func (End) superPlayerAction()                     {}
func (SeekBarWidth) superPlayerAction()            {}
func (Backward) superPlayerAction()                {}
func (Forward) superPlayerAction()                 {}
func (SlidingSeeker) superPlayerAction()           {}
func (DoneSeeking) superPlayerAction()             {}
func (SetPlaybackTimeRange) superPlayerAction()    {}
func (RestoreBuffering) superPlayerAction()        {}
func (CheckResource) superPlayerAction()           {}
func (ResourceChecked) superPlayerAction()         {}
func (SetReloadCountdown) superPlayerAction()      {}
func (SetVideoGravity) superPlayerAction()         {}
func (SetLooperEnabled) superPlayerAction()        {}
func (SetPictureInPictureMode) superPlayerAction() {}
func (EngineCommandFailed) superPlayerAction()     {}
func (Player) superPlayerAction()                  {}
func (PlayerItem) superPlayerAction()              {}
func (NotificationCenter) superPlayerAction()      {}
func (PictureInPicture) superPlayerAction()        {}

// PlaybackWindow is shorthand for setting a bounded playback window.
func PlaybackWindow(start, end time.Duration) SetPlaybackTimeRange {
	return SetPlaybackTimeRange{Range: mo.Some(mediatime.NewTimeRange(start, end))}
}

// NoPlaybackWindow is shorthand for clearing the bounded playback window.
func NoPlaybackWindow() SetPlaybackTimeRange {
	return SetPlaybackTimeRange{Range: mo.None[mediatime.TimeRange]()}
}
