package logstore

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/superplayer/internal/domain/notification"
	"github.com/edumarques81/superplayer/internal/domain/superplayer"
)

// writeTimeout bounds a single insert made from the action path.
const writeTimeout = 2 * time.Second

// Appender is the write side of Store.
type Appender interface {
	Append(ctx context.Context, sessionID string, l notification.Log) (Entry, error)
}

// Recorder persists every log entry that reaches the notification center.
// Register Observe with the action processor.
type Recorder struct {
	mu        sync.Mutex
	appender  Appender
	sessionID string
}

// NewRecorder returns a recorder writing to a. sessionID is used until a
// Begin action names a new session.
func NewRecorder(a Appender, sessionID string) *Recorder {
	return &Recorder{appender: a, sessionID: sessionID}
}

// SessionID returns the session entries are currently filed under.
func (r *Recorder) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

// Observe inspects one reduced action.
func (r *Recorder) Observe(a superplayer.Action) {
	switch a := a.(type) {
	case superplayer.Begin:
		r.mu.Lock()
		r.sessionID = a.SessionID
		r.mu.Unlock()

	case superplayer.NotificationCenter:
		received, ok := a.Action.(notification.LogReceived)
		if !ok || received.Log == nil {
			return
		}
		sessionID := r.SessionID()

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if _, err := r.appender.Append(ctx, sessionID, received.Log); err != nil {
			log.Warn().Err(err).
				Str("session", sessionID).
				Str("kind", string(received.Log.Kind())).
				Msg("Failed to persist playback log")
		}
	}
}
