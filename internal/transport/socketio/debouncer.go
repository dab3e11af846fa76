package socketio

import (
	"sync"
	"time"
)

// Topic names a kind of push to UI clients.
type Topic int

const (
	// TopicState pushes the state projection.
	TopicState Topic = iota
	// TopicLogs pushes the access/error log.
	TopicLogs
)

// BroadcastDebouncer collapses bursts of state changes into batched pushes.
// Any number of triggers within the window yield a single push per topic.
type BroadcastDebouncer struct {
	window        time.Duration
	stateCallback func()
	logsCallback  func()

	mu           sync.Mutex
	pendingState bool
	pendingLogs  bool
	timer        *time.Timer
	stopped      bool
}

// NewBroadcastDebouncer creates a debouncer with the given window.
func NewBroadcastDebouncer(window time.Duration, stateCallback, logsCallback func()) *BroadcastDebouncer {
	return &BroadcastDebouncer{
		window:        window,
		stateCallback: stateCallback,
		logsCallback:  logsCallback,
	}
}

// Trigger marks topic dirty and restarts the window.
func (d *BroadcastDebouncer) Trigger(topic Topic) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	switch topic {
	case TopicState:
		d.pendingState = true
	case TopicLogs:
		d.pendingLogs = true
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *BroadcastDebouncer) flush() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	doState := d.pendingState
	doLogs := d.pendingLogs
	d.pendingState = false
	d.pendingLogs = false
	d.mu.Unlock()

	if doState && d.stateCallback != nil {
		d.stateCallback()
	}
	if doLogs && d.logsCallback != nil {
		d.logsCallback()
	}
}

// Stop prevents any further callbacks from firing.
func (d *BroadcastDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pendingState = false
	d.pendingLogs = false
}
