package store

import (
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/superplayer/internal/domain/superplayer"
)

// Token identifies one scheduling of a delayed effect.
type Token struct {
	ID  superplayer.CancelID
	seq uint64
}

type scheduled struct {
	seq   uint64
	timer Timer
}

// Scheduler runs delayed callbacks with at most one pending callback per ID.
// Scheduling under an ID replaces the pending callback. Cancellation and
// firing are decided under one lock, so a callback that has started firing
// can no longer be cancelled and a cancelled callback never fires.
type Scheduler struct {
	clock Clock

	mu      sync.Mutex
	seq     uint64
	pending map[superplayer.CancelID]scheduled
	stopped bool
}

// NewScheduler creates a scheduler on clock.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	return &Scheduler{
		clock:   clock,
		pending: make(map[superplayer.CancelID]scheduled),
	}
}

// Schedule runs fire after d under id, cancelling anything pending under id.
// An empty id gets a unique identity that nothing else can cancel.
func (s *Scheduler) Schedule(id superplayer.CancelID, d time.Duration, fire func()) Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if id == "" {
		id = superplayer.CancelID("#" + strconv.FormatUint(s.seq, 10))
	}
	tok := Token{ID: id, seq: s.seq}
	if s.stopped {
		return tok
	}

	if prev, ok := s.pending[id]; ok {
		prev.timer.Stop()
		log.Debug().Str("id", string(id)).Msg("Replaced pending effect")
	}

	timer := s.clock.AfterFunc(d, func() {
		if s.claim(tok) {
			fire()
		}
	})
	s.pending[id] = scheduled{seq: tok.seq, timer: timer}
	log.Debug().Str("id", string(id)).Dur("delay", d).Msg("Scheduled effect")
	return tok
}

// claim removes tok from the pending set if it is still current.
func (s *Scheduler) claim(tok Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.pending[tok.ID]
	if !ok || cur.seq != tok.seq || s.stopped {
		return false
	}
	delete(s.pending, tok.ID)
	return true
}

// Cancel cancels whatever is pending under id. It reports whether anything was.
func (s *Scheduler) Cancel(id superplayer.CancelID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.pending[id]
	if !ok {
		return false
	}
	cur.timer.Stop()
	delete(s.pending, id)
	log.Debug().Str("id", string(id)).Msg("Cancelled effect")
	return true
}

// CancelToken cancels tok only if it is still the pending scheduling for its ID.
func (s *Scheduler) CancelToken(tok Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.pending[tok.ID]
	if !ok || cur.seq != tok.seq {
		return false
	}
	cur.timer.Stop()
	delete(s.pending, tok.ID)
	return true
}

// Pending reports whether a callback is pending under id.
func (s *Scheduler) Pending(id superplayer.CancelID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

// Stop cancels everything and refuses further scheduling.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, cur := range s.pending {
		cur.timer.Stop()
		delete(s.pending, id)
	}
}
