package player

import (
	"time"

	"github.com/samber/mo"
)

// Action is an input to the player reducer.
type Action interface {
	playerAction()
}

// CallMethod places a command in the mailbox. A None method clears it.
type CallMethod struct{ Method mo.Option[Method] }

// StatusChanged reports the engine player's status.
type StatusChanged struct{ Status Status }

// TimeControlStatusChanged reports the engine's time-control status.
type TimeControlStatusChanged struct{ Status TimeControlStatus }

// WaitingReasonChanged reports why the engine is waiting, if it is.
type WaitingReasonChanged struct{ Reason mo.Option[WaitingReason] }

// RateChanged reports the playback rate.
type RateChanged struct{ Rate float32 }

// CurrentTimeChanged reports the playhead position.
type CurrentTimeChanged struct{ Time time.Duration }

// AutomaticallyWaitsChanged sets whether the engine delays playback to minimize stalls.
type AutomaticallyWaitsChanged struct{ Enabled bool }

// MutedChanged sets the mute flag.
type MutedChanged struct{ Muted bool }

// VolumeChanged sets the volume (0.0-1.0).
type VolumeChanged struct{ Volume float32 }

func (CallMethod) playerAction()                {}
func (StatusChanged) playerAction()             {}
func (TimeControlStatusChanged) playerAction()  {}
func (WaitingReasonChanged) playerAction()      {}
func (RateChanged) playerAction()               {}
func (CurrentTimeChanged) playerAction()        {}
func (AutomaticallyWaitsChanged) playerAction() {}
func (MutedChanged) playerAction()              {}
func (VolumeChanged) playerAction()             {}

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
		if a.Method.IsAbsent() {
			s.Method = a.Method
			return nil
		}
		s.Method = a.Method
		return []Action{Clear()}

	case StatusChanged:
		s.Status = a.Status
	case TimeControlStatusChanged:
		s.TimeControlStatus = a.Status
	case WaitingReasonChanged:
		s.WaitingReason = a.Reason
	case RateChanged:
		s.Rate = a.Rate
	case CurrentTimeChanged:
		s.CurrentTime = a.Time
	case AutomaticallyWaitsChanged:
		s.AutomaticallyWaitsToMinimizeStalling = a.Enabled
	case MutedChanged:
		s.Muted = a.Muted
	case VolumeChanged:
		volume := a.Volume
		if volume < 0 {
			volume = 0
		} else if volume > 1 {
			volume = 1
		}
		s.Volume = volume
	}
	return nil
}
