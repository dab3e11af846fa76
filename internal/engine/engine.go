// Package engine is the boundary between the playback store and a concrete
// media engine. The Bridge turns reducer commands into Engine calls and keeps
// engine settings in step with state; the Reloader drives the live reload
// loop.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/edumarques81/superplayer/internal/domain/superplayer"
)

// ErrUnsupported is returned for commands an engine cannot carry out.
var ErrUnsupported = errors.New("engine: unsupported command")

// Settings are engine properties written from state rather than sent as commands.
type Settings struct {
	AutomaticallyWaitsToMinimizeStalling bool
	PreferredForwardBufferDuration       time.Duration
	Muted                                bool
	Volume                               float32
	VideoGravity                         superplayer.VideoGravity
	Looping                              bool
	PictureInPictureEnabled              bool
}

// SettingsFrom derives engine settings from a state snapshot.
func SettingsFrom(s superplayer.State) Settings {
	return Settings{
		AutomaticallyWaitsToMinimizeStalling: s.Player.AutomaticallyWaitsToMinimizeStalling,
		PreferredForwardBufferDuration:       s.PlayerItem.PreferredForwardBufferDuration,
		Muted:                                s.Player.Muted,
		Volume:                               s.Player.Volume,
		VideoGravity:                         s.VideoGravity,
		Looping:                              s.LooperEnabled,
		PictureInPictureEnabled:              s.PictureInPicture.Enabled,
	}
}

// Engine is a media engine. Observers report through the Dispatcher the
// engine was created with; Start and Stop calls scope those reports.
type Engine interface {
	StartPlayerObservers(ctx context.Context) error
	ReplaceCurrentItem(ctx context.Context, url string) error
	Play(ctx context.Context) error
	PlayImmediately(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, t time.Duration) error

	StartItemObservers(ctx context.Context) error
	StopItemObservers(ctx context.Context) error

	StartLifecycleObservers(ctx context.Context) error
	StartNotificationObservers(ctx context.Context) error
	StopNotificationObservers(ctx context.Context) error

	StartPictureInPicture(ctx context.Context) error
	StopPictureInPicture(ctx context.Context) error

	TakeAudioFocus(ctx context.Context) error
	ApplySettings(ctx context.Context, s Settings) error
}

// Dispatcher accepts actions reported by an engine.
type Dispatcher interface {
	Send(actions ...superplayer.Action)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(actions ...superplayer.Action)

func (f DispatcherFunc) Send(actions ...superplayer.Action) {
	f(actions...)
}
