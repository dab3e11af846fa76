package socketio

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/edumarques81/superplayer/internal/domain/mediatime"
	"github.com/edumarques81/superplayer/internal/domain/pip"
	"github.com/edumarques81/superplayer/internal/domain/player"
	"github.com/edumarques81/superplayer/internal/domain/superplayer"
)

// DefaultSkip is the backward/forward step when a client sends none.
const DefaultSkip = 10 * time.Second

var (
	// ErrUnknownEvent is returned for events with no action mapping.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrBadPayload is returned when an event's arguments cannot be decoded.
	ErrBadPayload = errors.New("bad payload")
)

type decoder func(args []any) ([]superplayer.Action, error)

// decoders maps UI events to the actions they send.
var decoders = map[string]decoder{
	"load": func(args []any) ([]superplayer.Action, error) {
		url, ok := text(args, "url")
		if !ok || url == "" {
			return nil, fmt.Errorf("%w: load needs a url", ErrBadPayload)
		}
		autoPlay, ok := boolean(args, "autoPlay")
		if !ok {
			autoPlay = true
		}
		return one(superplayer.Load{URL: url, AutoPlay: autoPlay}), nil
	},
	"unload": constant(superplayer.Unload{}),

	"play":            constant(superplayer.Player{Action: player.Call(player.Play())}),
	"playImmediately": constant(superplayer.Player{Action: player.Call(player.PlayImmediately())}),
	"pause":           constant(superplayer.Player{Action: player.Call(player.Pause())}),

	"seek": func(args []any) ([]superplayer.Action, error) {
		sec, ok := number(args, "seconds")
		if !ok || sec < 0 {
			return nil, fmt.Errorf("%w: seek needs non-negative seconds", ErrBadPayload)
		}
		to := mediatime.FromSeconds(sec)
		if mediatime.IsIndefinite(to) {
			return nil, fmt.Errorf("%w: seek target out of range", ErrBadPayload)
		}
		return one(superplayer.Player{Action: player.Call(player.Seek(to))}), nil
	},
	"backward": func(args []any) ([]superplayer.Action, error) {
		return one(superplayer.Backward{By: skip(args)}), nil
	},
	"forward": func(args []any) ([]superplayer.Action, error) {
		return one(superplayer.Forward{By: skip(args)}), nil
	},
	"slidingSeeker": func(args []any) ([]superplayer.Action, error) {
		pos, ok := number(args, "position")
		if !ok {
			return nil, fmt.Errorf("%w: slidingSeeker needs a position", ErrBadPayload)
		}
		return one(superplayer.SlidingSeeker{To: pos}), nil
	},
	"doneSeeking": constant(superplayer.DoneSeeking{}),
	"seekBarWidth": func(args []any) ([]superplayer.Action, error) {
		width, ok := number(args, "width")
		if !ok || width < 0 {
			return nil, fmt.Errorf("%w: seekBarWidth needs a non-negative width", ErrBadPayload)
		}
		return one(superplayer.SeekBarWidth{Width: width}), nil
	},
	"playbackTimeRange": func(args []any) ([]superplayer.Action, error) {
		m := payload(args)
		if m == nil {
			return one(superplayer.NoPlaybackWindow()), nil
		}
		start, okStart := m["start"].(float64)
		end, okEnd := m["end"].(float64)
		if !okStart || !okEnd || start < 0 || end <= start {
			return nil, fmt.Errorf("%w: playbackTimeRange needs 0 <= start < end", ErrBadPayload)
		}
		return one(superplayer.PlaybackWindow(mediatime.FromSeconds(start), mediatime.FromSeconds(end))), nil
	},

	"videoGravity": func(args []any) ([]superplayer.Action, error) {
		v, _ := text(args, "value")
		g := superplayer.VideoGravity(v)
		switch g {
		case superplayer.GravityResize, superplayer.GravityResizeAspect, superplayer.GravityResizeAspectFill:
			return one(superplayer.SetVideoGravity{Gravity: g}), nil
		}
		return nil, fmt.Errorf("%w: unknown video gravity %q", ErrBadPayload, v)
	},
	"looper": flag(func(v bool) superplayer.Action {
		return superplayer.SetLooperEnabled{Enabled: v}
	}),
	"pictureInPicture": flag(func(v bool) superplayer.Action {
		return superplayer.SetPictureInPictureMode{Enabled: v}
	}),
	"pictureInPictureEnabled": flag(func(v bool) superplayer.Action {
		return superplayer.PictureInPicture{Action: pip.EnabledChanged{Enabled: v}}
	}),
	"mute": flag(func(v bool) superplayer.Action {
		return superplayer.Player{Action: player.MutedChanged{Muted: v}}
	}),
	"volume": func(args []any) ([]superplayer.Action, error) {
		vol, ok := number(args, "value")
		if !ok {
			return nil, fmt.Errorf("%w: volume needs a value", ErrBadPayload)
		}
		vol = lo.Clamp(vol, 0, 100)
		return one(superplayer.Player{Action: player.VolumeChanged{Volume: float32(vol / 100)}}), nil
	},
	"shutOtherAudioApps": constant(superplayer.CallMethod{Method: mo.Some(superplayer.MethodShutOtherAudioApps)}),
}

// decodeEvent maps a UI event and its arguments to actions.
func decodeEvent(event string, args []any) ([]superplayer.Action, error) {
	d, ok := decoders[event]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
	return d(args)
}

func one(a superplayer.Action) []superplayer.Action {
	return []superplayer.Action{a}
}

func constant(a superplayer.Action) decoder {
	return func([]any) ([]superplayer.Action, error) { return one(a), nil }
}

func flag(build func(bool) superplayer.Action) decoder {
	return func(args []any) ([]superplayer.Action, error) {
		v, ok := boolean(args, "value")
		if !ok {
			return nil, fmt.Errorf("%w: expected a boolean value", ErrBadPayload)
		}
		return one(build(v)), nil
	}
}

func skip(args []any) time.Duration {
	if sec, ok := number(args, "seconds"); ok && sec > 0 {
		return mediatime.FromSeconds(sec)
	}
	return DefaultSkip
}

// payload returns the first argument as an object, or nil.
func payload(args []any) map[string]interface{} {
	if len(args) == 0 {
		return nil
	}
	m, _ := args[0].(map[string]interface{})
	return m
}

// number reads a bare numeric argument or the key of an object argument.
func number(args []any, key string) (float64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	if v, ok := args[0].(float64); ok {
		return v, true
	}
	v, ok := payload(args)[key].(float64)
	return v, ok
}

func boolean(args []any, key string) (bool, bool) {
	if len(args) == 0 {
		return false, false
	}
	if v, ok := args[0].(bool); ok {
		return v, true
	}
	v, ok := payload(args)[key].(bool)
	return v, ok
}

func text(args []any, key string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	if v, ok := args[0].(string); ok {
		return v, true
	}
	v, ok := payload(args)[key].(string)
	return v, ok
}
