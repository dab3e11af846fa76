package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/mo"

	"github.com/edumarques81/superplayer/internal/domain/notification"
	"github.com/edumarques81/superplayer/internal/domain/pip"
	"github.com/edumarques81/superplayer/internal/domain/player"
	"github.com/edumarques81/superplayer/internal/domain/playeritem"
	"github.com/edumarques81/superplayer/internal/domain/superplayer"
)

// Bridge executes reducer commands on an Engine and pushes settings changes.
type Bridge struct {
	engine Engine

	mu   sync.Mutex
	last mo.Option[Settings]
}

// NewBridge creates a bridge for e.
func NewBridge(e Engine) *Bridge {
	return &Bridge{engine: e}
}

// Execute runs cmd on the engine.
func (b *Bridge) Execute(ctx context.Context, cmd superplayer.Command) error {
	var err error
	switch m := cmd.(type) {
	case player.Method:
		err = b.executePlayer(ctx, m)
	case playeritem.Method:
		switch m {
		case playeritem.MethodStartObservers:
			err = b.engine.StartItemObservers(ctx)
		case playeritem.MethodStopObservers:
			err = b.engine.StopItemObservers(ctx)
		}
	case notification.Method:
		switch m {
		case notification.MethodStartLifecycleObservers:
			err = b.engine.StartLifecycleObservers(ctx)
		case notification.MethodStartPlayerItemObservers:
			err = b.engine.StartNotificationObservers(ctx)
		case notification.MethodStopPlayerItemObservers:
			err = b.engine.StopNotificationObservers(ctx)
		}
	case pip.Method:
		if m == pip.MethodStart {
			err = b.engine.StartPictureInPicture(ctx)
		} else {
			err = b.engine.StopPictureInPicture(ctx)
		}
	case superplayer.Method:
		err = b.engine.TakeAudioFocus(ctx)
	default:
		err = ErrUnsupported
	}
	if err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

func (b *Bridge) executePlayer(ctx context.Context, m player.Method) error {
	switch m.Kind {
	case player.MethodStartObservers:
		return b.engine.StartPlayerObservers(ctx)
	case player.MethodReplaceCurrentItem:
		if err := b.engine.ReplaceCurrentItem(ctx, m.URL); err != nil {
			return err
		}
		// A fresh item starts from engine defaults; resend everything.
		b.mu.Lock()
		b.last = mo.None[Settings]()
		b.mu.Unlock()
		return nil
	case player.MethodPlay:
		return b.engine.Play(ctx)
	case player.MethodPlayImmediately:
		return b.engine.PlayImmediately(ctx)
	case player.MethodPause:
		return b.engine.Pause(ctx)
	case player.MethodSeek:
		return b.engine.Seek(ctx, m.Time)
	default:
		return ErrUnsupported
	}
}

// Sync applies the settings in s when they differ from the last applied ones.
// It is meant to be registered as a store subscriber.
func (b *Bridge) Sync(s superplayer.State) {
	next := SettingsFrom(s)

	b.mu.Lock()
	if last, ok := b.last.Get(); ok && last == next {
		b.mu.Unlock()
		return
	}
	b.last = mo.Some(next)
	b.mu.Unlock()

	if err := b.engine.ApplySettings(context.Background(), next); err != nil {
		log.Warn().Err(err).Msg("Failed to apply engine settings")
		b.mu.Lock()
		b.last = mo.None[Settings]()
		b.mu.Unlock()
	}
}
