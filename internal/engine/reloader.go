package engine

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/superplayer/internal/domain/player"
	"github.com/edumarques81/superplayer/internal/domain/superplayer"
	"github.com/edumarques81/superplayer/internal/store"
)

// Reloader re-issues Load for a live item the engine has dropped. While a
// loaded live item waits with no item to play, it reloads the URL every
// interval and publishes a per-second countdown for display.
type Reloader struct {
	dispatcher Dispatcher
	clock      store.Clock
	seconds    int

	mu        sync.Mutex
	url       string
	countdown int
	timer     store.Timer
	gen       uint64
}

// NewReloader creates a reloader that sends to d every interval.
func NewReloader(d Dispatcher, interval time.Duration, clock store.Clock) *Reloader {
	if clock == nil {
		clock = store.RealClock()
	}
	return &Reloader{
		dispatcher: d,
		clock:      clock,
		seconds:    max(int(interval/time.Second), 1),
	}
}

// Observe arms or disarms the loop from a state snapshot. It is meant to be
// registered as a store subscriber.
func (r *Reloader) Observe(s superplayer.State) {
	reason, waiting := s.Player.WaitingReason.Get()
	armed := s.IsLive && s.IsLoaded() && waiting && reason == player.WaitingNoItemToPlay

	r.mu.Lock()
	var countdown int
	switch {
	case armed && r.timer == nil:
		r.url = s.CurrentURL
		r.countdown = r.seconds
		r.gen++
		r.schedule(r.gen)
		countdown = r.countdown
		log.Info().Str("url", r.url).Int("interval", r.seconds).Msg("Live reload armed")
	case armed:
		r.url = s.CurrentURL
		r.mu.Unlock()
		return
	case r.timer != nil:
		r.disarmLocked()
		log.Info().Msg("Live reload disarmed")
	default:
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	r.dispatcher.Send(superplayer.SetReloadCountdown{Countdown: countdown})
}

func (r *Reloader) schedule(gen uint64) {
	r.timer = r.clock.AfterFunc(time.Second, func() { r.tick(gen) })
}

func (r *Reloader) tick(gen uint64) {
	r.mu.Lock()
	if gen != r.gen || r.timer == nil {
		r.mu.Unlock()
		return
	}

	var actions []superplayer.Action
	if r.countdown <= 1 {
		actions = append(actions, superplayer.Load{URL: r.url, AutoPlay: true})
		r.countdown = r.seconds
	} else {
		r.countdown--
	}
	actions = append(actions, superplayer.SetReloadCountdown{Countdown: r.countdown})
	r.schedule(gen)
	r.mu.Unlock()

	r.dispatcher.Send(actions...)
}

func (r *Reloader) disarmLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.gen++
}

// Stop disarms the loop.
func (r *Reloader) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disarmLocked()
}
