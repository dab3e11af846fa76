package playeritem

import (
	"time"

	"github.com/samber/mo"

	"github.com/edumarques81/superplayer/internal/domain/mediatime"
)

// Method is a command addressed to the adapter's item observers.
type Method int

const (
	MethodStartObservers Method = iota
	MethodStopObservers
)

func (m Method) String() string {
	switch m {
	case MethodStartObservers:
		return "playerItem.startObservers"
	case MethodStopObservers:
		return "playerItem.stopObservers"
	default:
		return "playerItem.unknown"
	}
}

// Action is an input to the player item reducer.
type Action interface {
	playerItemAction()
}

// CallMethod places a command in the mailbox. A None method clears it.
type CallMethod struct{ Method mo.Option[Method] }

// PreferredForwardBufferDurationChanged sets how far ahead the engine buffers.
type PreferredForwardBufferDurationChanged struct{ Duration time.Duration }

// AssetTracksChanged reports the item's tracks.
type AssetTracksChanged struct{ Tracks []AssetTrack }

// PlaybackBufferEmptyChanged reports the buffer-empty flag.
type PlaybackBufferEmptyChanged struct{ Empty bool }

// PlaybackBufferFullChanged reports the buffer-full flag.
type PlaybackBufferFullChanged struct{ Full bool }

// PlaybackLikelyToKeepUpChanged reports the likely-to-keep-up flag.
type PlaybackLikelyToKeepUpChanged struct{ LikelyToKeepUp bool }

// DurationChanged reports the item duration; mediatime.Indefinite for live items.
type DurationChanged struct{ Duration time.Duration }

// LoadedTimeRangesChanged reports the buffered ranges.
type LoadedTimeRangesChanged struct{ Ranges []mediatime.TimeRange }

func (CallMethod) playerItemAction()                            {}
func (PreferredForwardBufferDurationChanged) playerItemAction() {}
func (AssetTracksChanged) playerItemAction()                    {}
func (PlaybackBufferEmptyChanged) playerItemAction()            {}
func (PlaybackBufferFullChanged) playerItemAction()             {}
func (PlaybackLikelyToKeepUpChanged) playerItemAction()         {}
func (DurationChanged) playerItemAction()                       {}
func (LoadedTimeRangesChanged) playerItemAction()               {}

// Call is shorthand for a CallMethod carrying m.
func Call(m Method) CallMethod {
	return CallMethod{Method: mo.Some(m)}
}

// Clear is the follow-up that empties the mailbox.
func Clear() CallMethod {
	return CallMethod{Method: mo.None[Method]()}
}

// Reduce applies a to s and returns the follow-up actions to process next.
func Reduce(s *State, a Action) []Action {
	switch a := a.(type) {
	case CallMethod:
		s.Method = a.Method
		if a.Method.IsPresent() {
			return []Action{Clear()}
		}
	case PreferredForwardBufferDurationChanged:
		s.PreferredForwardBufferDuration = a.Duration
	case AssetTracksChanged:
		s.AssetTracks = a.Tracks
	case PlaybackBufferEmptyChanged:
		s.PlaybackBufferEmpty = a.Empty
	case PlaybackBufferFullChanged:
		s.PlaybackBufferFull = a.Full
	case PlaybackLikelyToKeepUpChanged:
		s.PlaybackLikelyToKeepUp = a.LikelyToKeepUp
	case DurationChanged:
		s.Duration = a.Duration
	case LoadedTimeRangesChanged:
		s.LoadedTimeRanges = a.Ranges
	}
	return nil
}
