package player

import (
	"fmt"
	"time"

	"github.com/edumarques81/superplayer/internal/domain/mediatime"
)

// MethodKind identifies a command for the engine player.
type MethodKind int

const (
	MethodStartObservers MethodKind = iota
	MethodReplaceCurrentItem
	MethodPlay
	MethodPlayImmediately
	MethodPause
	MethodSeek
)

// Method is a command addressed to the engine player.
// URL is only meaningful for MethodReplaceCurrentItem, where an empty URL
// removes the current item. Time is only meaningful for MethodSeek.
type Method struct {
	Kind MethodKind
	URL  string
	Time time.Duration
}

// StartObservers asks the adapter to begin reporting player properties.
func StartObservers() Method { return Method{Kind: MethodStartObservers} }

// ReplaceCurrentItem swaps the engine's item for url, or clears it when url is empty.
func ReplaceCurrentItem(url string) Method {
	return Method{Kind: MethodReplaceCurrentItem, URL: url}
}

// Play resumes playback at the default rate.
func Play() Method { return Method{Kind: MethodPlay} }

// PlayImmediately resumes playback without waiting for the buffer.
func PlayImmediately() Method { return Method{Kind: MethodPlayImmediately} }

// Pause pauses playback.
func Pause() Method { return Method{Kind: MethodPause} }

// Seek moves the playhead to t.
func Seek(t time.Duration) Method { return Method{Kind: MethodSeek, Time: t} }

func (m Method) String() string {
	switch m.Kind {
	case MethodStartObservers:
		return "player.startObservers"
	case MethodReplaceCurrentItem:
		if m.URL == "" {
			return "player.replaceCurrentItem(nil)"
		}
		return fmt.Sprintf("player.replaceCurrentItem(%s)", m.URL)
	case MethodPlay:
		return "player.play"
	case MethodPlayImmediately:
		return "player.playImmediately"
	case MethodPause:
		return "player.pause"
	case MethodSeek:
		return fmt.Sprintf("player.seek(%s)", mediatime.Readable(m.Time))
	default:
		return "player.unknown"
	}
}
