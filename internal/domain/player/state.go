// Package player holds the player sub-state: a mirror of the engine's player
// properties plus a single-slot mailbox for commands addressed to the player.
package player

import (
	"time"

	"github.com/samber/mo"
)

// Status mirrors the engine player's readiness.
type Status int

const (
	StatusUnknown Status = iota
	StatusReadyToPlay
	StatusFailed
)

// TimeControlStatus mirrors whether the engine is paused, playing, or waiting.
type TimeControlStatus int

const (
	TimeControlPaused TimeControlStatus = iota
	TimeControlWaitingToPlayAtSpecifiedRate
	TimeControlPlaying
)

// WaitingReason explains a TimeControlWaitingToPlayAtSpecifiedRate status.
type WaitingReason string

const (
	WaitingEvaluatingBufferingRate WaitingReason = "evaluatingBufferingRate"
	WaitingToMinimizeStalls        WaitingReason = "toMinimizeStalls"
	WaitingNoItemToPlay            WaitingReason = "noItemToPlay"
)

// State represents the player properties reported by the engine.
type State struct {
	// Method is the pending command, cleared right after it is observed.
	Method mo.Option[Method]

	Status                               Status
	TimeControlStatus                    TimeControlStatus
	WaitingReason                        mo.Option[WaitingReason]
	Rate                                 float32
	CurrentTime                          time.Duration
	AutomaticallyWaitsToMinimizeStalling bool
	Muted                                bool
	Volume                               float32
}

// NewState creates a player state with engine defaults.
func NewState() State {
	return State{
		Status:                               StatusUnknown,
		TimeControlStatus:                    TimeControlPaused,
		AutomaticallyWaitsToMinimizeStalling: true,
		Volume:                               1.0,
	}
}

// IsPlaying reports whether the engine is advancing playback.
func (s State) IsPlaying() bool {
	return s.Rate > 0
}

// ToJSON returns the state as a map suitable for JSON serialization.
func (s State) ToJSON() map[string]interface{} {
	m := map[string]interface{}{
		"status":                               s.Status.String(),
		"timeControlStatus":                    s.TimeControlStatus.String(),
		"rate":                                 s.Rate,
		"currentTime":                          s.CurrentTime.Seconds(),
		"automaticallyWaitsToMinimizeStalling": s.AutomaticallyWaitsToMinimizeStalling,
		"muted":                                s.Muted,
		"volume":                               s.Volume,
	}
	if reason, ok := s.WaitingReason.Get(); ok {
		m["waitingReason"] = string(reason)
	}
	if method, ok := s.Method.Get(); ok {
		m["method"] = method.String()
	}
	return m
}
