package superplayer

import (
	"context"
	"time"
)

// Policy constants.
const (
	// SufficientBuffer is how far the last loaded range must run ahead of the
	// playhead before a waiting engine is told to play immediately.
	SufficientBuffer = 3 * time.Second

	// WindowForwardBufferDuration is the forward buffer used once a playback
	// window's end has been loaded.
	WindowForwardBufferDuration = time.Second

	// ReplayReloadDelay separates end of media from the reload that rewinds it.
	ReplayReloadDelay = 500 * time.Millisecond

	// LiveBufferWarmup is how long a recovered live resource is given to
	// accumulate segments before it is reloaded.
	LiveBufferWarmup = 15 * time.Second
)

// CheckResult is the outcome of probing a resource.
type CheckResult struct {
	StatusCode int
	// Retryable marks transport failures worth probing again
	// (connection refused or reset, unreachable network, timeout).
	Retryable bool
	Err       string
}

// Environment carries the reducer's configuration and collaborators.
type Environment struct {
	MaximumRetryCount int
	ReloadInterval    time.Duration

	// RetryOnResourceError enables the resource retry loop for live items.
	// It is off by default; the backoff has not been re-verified against
	// current engine behavior.
	RetryOnResourceError bool

	CheckResource func(ctx context.Context, url string) CheckResult
}

// DefaultEnvironment returns the production defaults with the retry loop off.
func DefaultEnvironment() Environment {
	return Environment{
		MaximumRetryCount: 90,
		ReloadInterval:    15 * time.Second,
	}
}
