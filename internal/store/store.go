// Package store runs the root reducer as a single logical actor.
//
// Actions sent from any goroutine are queued and processed one at a time.
// Each action is reduced to completion, including its immediate follow-ups
// depth-first, before the next queued action is taken. Engine commands
// emitted while reducing are executed in order once the state lock is
// released, then subscribers receive a snapshot.
package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/superplayer/internal/domain/superplayer"
)

// Executor carries out engine commands.
type Executor interface {
	Execute(ctx context.Context, cmd superplayer.Command) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, cmd superplayer.Command) error

func (f ExecutorFunc) Execute(ctx context.Context, cmd superplayer.Command) error {
	return f(ctx, cmd)
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for delayed effects.
func WithClock(c Clock) Option {
	return func(s *Store) { s.scheduler = NewScheduler(c) }
}

// WithExecutor sets the command executor. Without one, commands are dropped.
func WithExecutor(e Executor) Option {
	return func(s *Store) { s.executor = e }
}

// Store holds the root state and serializes every transition.
type Store struct {
	reducer   superplayer.Reducer
	scheduler *Scheduler
	executor  Executor

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup

	mu     sync.Mutex
	state  superplayer.State
	timers map[superplayer.CancelID]Token // latest delayed effect per ID, owned by this store

	inboxMu  sync.Mutex
	inbox    []superplayer.Action
	draining bool

	listenersMu     sync.RWMutex
	nextID          int
	subscribers     map[int]func(superplayer.State)
	actionListeners []func(superplayer.Action)
}

// New creates a store with initial state.
func New(reducer superplayer.Reducer, initial superplayer.State, opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		reducer:     reducer,
		state:       initial,
		ctx:         ctx,
		cancel:      cancel,
		timers:      make(map[superplayer.CancelID]Token),
		subscribers: make(map[int]func(superplayer.State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scheduler == nil {
		s.scheduler = NewScheduler(RealClock())
	}
	return s
}

// State returns a snapshot of the current state.
func (s *Store) State() superplayer.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Scheduler exposes the delayed-effect scheduler.
func (s *Store) Scheduler() *Scheduler {
	return s.scheduler
}

// Subscribe registers fn to receive a snapshot after every processed action.
// The returned function unregisters it.
func (s *Store) Subscribe(fn func(superplayer.State)) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.subscribers, id)
	}
}

// OnAction registers fn to observe every reduced action, follow-ups included.
func (s *Store) OnAction(fn func(superplayer.Action)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.actionListeners = append(s.actionListeners, fn)
}

// Send queues actions for processing. The first caller to find the queue
// idle drains it; concurrent and reentrant callers only enqueue.
func (s *Store) Send(actions ...superplayer.Action) {
	if len(actions) == 0 {
		return
	}

	s.inboxMu.Lock()
	s.inbox = append(s.inbox, actions...)
	if s.draining {
		s.inboxMu.Unlock()
		return
	}
	s.draining = true
	s.inboxMu.Unlock()

	s.drain()
}

func (s *Store) drain() {
	for {
		s.inboxMu.Lock()
		if len(s.inbox) == 0 {
			s.draining = false
			s.inboxMu.Unlock()
			return
		}
		a := s.inbox[0]
		s.inbox = s.inbox[1:]
		s.inboxMu.Unlock()

		s.process(a)
	}
}

func (s *Store) process(a superplayer.Action) {
	var (
		commands []superplayer.Command
		reduced  []superplayer.Action
	)

	s.mu.Lock()
	s.apply(a, &commands, &reduced)
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.listenersMu.RLock()
	listeners := append([]func(superplayer.Action){}, s.actionListeners...)
	subscribers := make([]func(superplayer.State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.listenersMu.RUnlock()

	for _, r := range reduced {
		for _, fn := range listeners {
			fn(r)
		}
	}

	for _, cmd := range commands {
		s.execute(cmd)
	}

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

// apply reduces a and its immediate follow-ups depth-first. Called with mu held.
func (s *Store) apply(a superplayer.Action, commands *[]superplayer.Command, reduced *[]superplayer.Action) {
	*reduced = append(*reduced, a)

	for _, e := range s.reducer.Reduce(&s.state, a) {
		switch {
		case e.Command != nil:
			*commands = append(*commands, e.Command)
		case e.Cancel:
			if tok, ok := s.timers[e.ID]; ok {
				s.scheduler.CancelToken(tok)
				delete(s.timers, e.ID)
			}
		case e.Task != nil:
			s.spawn(e.Task)
		case e.IsScheduled():
			actions := e.Actions
			tok := s.scheduler.Schedule(e.ID, e.Delay, func() { s.Send(actions...) })
			if e.ID != "" {
				s.timers[e.ID] = tok
			}
		default:
			for _, next := range e.Actions {
				s.apply(next, commands, reduced)
			}
		}
	}
}

func (s *Store) execute(cmd superplayer.Command) {
	if s.executor == nil {
		log.Debug().Stringer("command", cmd).Msg("No executor, dropping command")
		return
	}
	if err := s.executor.Execute(s.ctx, cmd); err != nil {
		log.Error().Err(err).Stringer("command", cmd).Msg("Engine command failed")
		s.Send(superplayer.EngineCommandFailed{Command: cmd.String(), Err: err.Error()})
	}
}

func (s *Store) spawn(task superplayer.Task) {
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		a := task(s.ctx)
		if a == nil || s.ctx.Err() != nil {
			return
		}
		s.Send(a)
	}()
}

// Close cancels pending effects and waits for running tasks.
func (s *Store) Close() {
	s.cancel()
	s.scheduler.Stop()
	s.tasks.Wait()
}
