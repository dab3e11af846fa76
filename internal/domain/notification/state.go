// Package notification holds item and lifecycle notifications: a single-shot
// event slot, a single-shot method mailbox, and the item's access/error log.
package notification

import (
	"github.com/samber/mo"
)

// Method is a command for the adapter's notification subscriptions.
type Method int

const (
	MethodStartLifecycleObservers Method = iota
	MethodStartPlayerItemObservers
	MethodStopPlayerItemObservers
)

func (m Method) String() string {
	switch m {
	case MethodStartLifecycleObservers:
		return "notificationCenter.startLifecycleObservers"
	case MethodStartPlayerItemObservers:
		return "notificationCenter.startPlayerItemObservers"
	case MethodStopPlayerItemObservers:
		return "notificationCenter.stopPlayerItemObservers"
	default:
		return "notificationCenter.unknown"
	}
}

// Event is a lifecycle or item notification.
type Event int

const (
	EventDidEnterBackground Event = iota
	EventWillEnterForeground
	EventPlaybackStalled
	EventDidPlayToEndTime
)

func (e Event) String() string {
	switch e {
	case EventDidEnterBackground:
		return "didEnterBackground"
	case EventWillEnterForeground:
		return "willEnterForeground"
	case EventPlaybackStalled:
		return "playerItemPlaybackStalled"
	case EventDidPlayToEndTime:
		return "playerItemDidPlayToEndTime"
	default:
		return "unknown"
	}
}

// DefaultHistoryLimit bounds the in-state log when no limit is configured.
const DefaultHistoryLimit = 200

// State represents the notification slice.
type State struct {
	Method mo.Option[Method]
	Event  mo.Option[Event]

	// Logs is newest first and holds at most HistoryLimit entries.
	Logs         []Log
	HistoryLimit int
}

// NewState creates a notification state keeping at most limit log entries.
// A non-positive limit selects DefaultHistoryLimit.
func NewState(limit int) State {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return State{HistoryLimit: limit}
}

// Clone returns a copy that shares no slices with s.
func (s State) Clone() State {
	c := s
	c.Logs = append([]Log(nil), s.Logs...)
	return c
}
