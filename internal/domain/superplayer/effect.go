package superplayer

import (
	"context"
	"fmt"
	"time"
)

// CancelID identifies a delayed effect. Scheduling under an ID cancels any
// effect still pending under the same ID.
type CancelID string

const (
	CancelPlaybackTimeRange CancelID = "playbackTimeRange"
	CancelReloadAfterEnd    CancelID = "reloadAfterEnd"
	CancelCheckResource     CancelID = "checkResource"
)

// Command is a method value the engine adapter executes: a player.Method,
// playeritem.Method, notification.Method, pip.Method or Method.
type Command = fmt.Stringer

// Task is asynchronous work whose result is fed back as an action.
type Task func(ctx context.Context) Action

// Effect is a follow-up returned by the reducer. Exactly one of its forms is set:
//   - Command: hand a command to the engine adapter
//   - Cancel: cancel the pending effect under ID
//   - Task: run work off the action queue and send its result
//   - Actions with Delay or ID: schedule the actions, cancellable by ID
//   - Actions alone: process the actions next, in order
type Effect struct {
	Actions []Action
	Delay   time.Duration
	ID      CancelID
	Cancel  bool
	Command Command
	Task    Task
}

// IsScheduled reports whether the effect must go through the scheduler.
func (e Effect) IsScheduled() bool {
	return e.Command == nil && !e.Cancel && e.Task == nil && (e.Delay > 0 || e.ID != "")
}

// Send processes actions immediately after the current one.
func Send(actions ...Action) Effect {
	return Effect{Actions: actions}
}

// After schedules actions to be sent after d under id.
func After(d time.Duration, id CancelID, actions ...Action) Effect {
	if d < 0 {
		d = 0
	}
	return Effect{Actions: actions, Delay: d, ID: id}
}

// Cancel cancels the effect pending under id, if any.
func Cancel(id CancelID) Effect {
	return Effect{ID: id, Cancel: true}
}

// Execute hands cmd to the engine adapter.
func Execute(cmd Command) Effect {
	return Effect{Command: cmd}
}

// Run executes task asynchronously and sends its result.
func Run(task Task) Effect {
	return Effect{Task: task}
}
