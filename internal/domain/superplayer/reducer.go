package superplayer

import (
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/edumarques81/superplayer/internal/domain/notification"
	"github.com/edumarques81/superplayer/internal/domain/pip"
	"github.com/edumarques81/superplayer/internal/domain/player"
	"github.com/edumarques81/superplayer/internal/domain/playeritem"
)

// Reducer is the root reducer. Each action is applied in three stages:
// the owning slice reducer first, then the playback policy, then the debug
// projections. All three are pure; side effects are returned as Effects.
type Reducer struct {
	Env Environment
}

// NewReducer creates a root reducer with env.
func NewReducer(env Environment) Reducer {
	return Reducer{Env: env}
}

// Reduce applies a to s and returns the effects to process next, in order.
func (r Reducer) Reduce(s *State, a Action) []Effect {
	effects := reduceSlice(s, a)
	effects = append(effects, r.policy(s, a)...)
	effects = append(effects, r.retry(s, a)...)
	effects = append(effects, debug(s, a)...)
	return effects
}

// reduceSlice routes wrapped actions to their slice reducer and lifts the
// slice's follow-ups back into root actions. A present method in a CallMethod
// is also handed to the engine adapter as a Command.
func reduceSlice(s *State, a Action) []Effect {
	switch a := a.(type) {
	case CallMethod:
		s.Method = a.Method
		if m, ok := a.Method.Get(); ok {
			return []Effect{Execute(m), Send(CallMethod{Method: mo.None[Method]()})}
		}
		return nil

	case Player:
		var effects []Effect
		if c, ok := a.Action.(player.CallMethod); ok {
			effects = command(c.Method)
		}
		follow := player.Reduce(&s.Player, a.Action)
		return append(effects, lift(follow, func(f player.Action) Action { return Player{Action: f} })...)

	case PlayerItem:
		var effects []Effect
		if c, ok := a.Action.(playeritem.CallMethod); ok {
			effects = command(c.Method)
		}
		follow := playeritem.Reduce(&s.PlayerItem, a.Action)
		return append(effects, lift(follow, func(f playeritem.Action) Action { return PlayerItem{Action: f} })...)

	case NotificationCenter:
		var effects []Effect
		if c, ok := a.Action.(notification.CallMethod); ok {
			effects = command(c.Method)
		}
		follow := notification.Reduce(&s.NotificationCenter, a.Action)
		return append(effects, lift(follow, func(f notification.Action) Action { return NotificationCenter{Action: f} })...)

	case PictureInPicture:
		var effects []Effect
		if c, ok := a.Action.(pip.CallMethod); ok {
			effects = command(c.Method)
		}
		follow := pip.Reduce(&s.PictureInPicture, a.Action)
		return append(effects, lift(follow, func(f pip.Action) Action { return PictureInPicture{Action: f} })...)
	}
	return nil
}

func command[M Command](m mo.Option[M]) []Effect {
	if v, ok := m.Get(); ok {
		return []Effect{Execute(v)}
	}
	return nil
}

func lift[A any](follow []A, wrap func(A) Action) []Effect {
	if len(follow) == 0 {
		return nil
	}
	return []Effect{Send(lo.Map(follow, func(f A, _ int) Action { return wrap(f) })...)}
}
