// Package socketio provides the Socket.io server for UI clients.
package socketio

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/edumarques81/superplayer/internal/domain/notification"
	"github.com/edumarques81/superplayer/internal/domain/superplayer"
)

// DefaultBroadcastWindow is the debounce window for pushes.
const DefaultBroadcastWindow = 50 * time.Millisecond

// Store is the action processor the server reads from and sends to.
type Store interface {
	State() superplayer.State
	Send(actions ...superplayer.Action)
}

// Options configures a Server.
type Options struct {
	BroadcastWindow  time.Duration
	MaxRemoteClients int
	// Engine names the playback engine in system info.
	Engine string
}

// Server handles Socket.io connections and events.
type Server struct {
	io        *socket.Server
	store     Store
	debouncer *BroadcastDebouncer
	limiter   *ConnectionLimiter
	engine    string

	mu      sync.RWMutex
	clients map[string]*socket.Socket

	lastMu    sync.Mutex
	lastState []byte
	lastLogs  int
	lastHead  notification.Log
}

// NewServer creates a new Socket.io server bound to store.
func NewServer(store Store, opts Options) (*Server, error) {
	if store == nil {
		return nil, errors.New("socketio: nil store")
	}
	if opts.BroadcastWindow <= 0 {
		opts.BroadcastWindow = DefaultBroadcastWindow
	}

	sopts := socket.DefaultServerOptions()
	sopts.SetPingTimeout(20 * time.Second)
	sopts.SetPingInterval(25 * time.Second)
	sopts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	s := &Server{
		io:      socket.NewServer(nil, sopts),
		store:   store,
		limiter: NewConnectionLimiter(opts.MaxRemoteClients),
		engine:  opts.Engine,
		clients: make(map[string]*socket.Socket),
	}
	s.debouncer = NewBroadcastDebouncer(opts.BroadcastWindow, s.BroadcastState, s.BroadcastLogs)

	s.setupHandlers()

	return s, nil
}

// Events returns the UI events mapped to actions, sorted.
func Events() []string {
	names := lo.Keys(decoders)
	sort.Strings(names)
	return names
}

func (s *Server) setupHandlers() {
	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		clientID := string(client.Id())
		address := client.Handshake().Address

		log.Info().Str("id", clientID).Str("address", address).Msg("Client connected")

		s.mu.Lock()
		s.clients[clientID] = client
		s.mu.Unlock()

		if _, evicted := s.limiter.TryAdd(clientID, address); evicted != "" {
			s.evict(evicted)
		}

		// Send initial state after small delay
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.pushState(client)
			s.pushLogs(client)
		}()

		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				if r, ok := args[0].(string); ok {
					reason = r
				}
			}
			log.Info().Str("id", clientID).Str("reason", reason).Msg("Client disconnected")

			s.limiter.Remove(clientID)
			s.mu.Lock()
			delete(s.clients, clientID)
			s.mu.Unlock()
		})

		client.On("getState", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getState")
			s.pushState(client)
		})

		client.On("getLogs", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getLogs")
			s.pushLogs(client)
		})

		client.On("getSystemInfo", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getSystemInfo")
			client.Emit("pushSystemInfo", GetSystemInfo(s.engine, s.store.State().SessionID))
		})

		for _, event := range Events() {
			event := event
			client.On(event, func(args ...any) {
				log.Debug().Str("id", clientID).Interface("data", args).Msg(event)
				s.dispatch(client, event, args)
			})
		}
	})
}

func (s *Server) dispatch(client *socket.Socket, event string, args []any) {
	actions, err := decodeEvent(event, args)
	if err != nil {
		log.Warn().Err(err).Str("event", event).Msg("Rejected client event")
		client.Emit("pushError", map[string]interface{}{
			"event":   event,
			"message": err.Error(),
		})
		return
	}
	s.store.Send(actions...)
}

func (s *Server) evict(clientID string) {
	s.mu.Lock()
	client, ok := s.clients[clientID]
	delete(s.clients, clientID)
	s.mu.Unlock()

	if !ok {
		return
	}
	log.Info().Str("id", clientID).Msg("Evicting oldest remote client")
	client.Disconnect(true)
}

// Observe schedules pushes for a new snapshot. Register it with Store.Subscribe.
func (s *Server) Observe(state superplayer.State) {
	s.debouncer.Trigger(TopicState)

	logs := state.NotificationCenter.Logs
	var head notification.Log
	if len(logs) > 0 {
		head = logs[0]
	}

	s.lastMu.Lock()
	changed := len(logs) != s.lastLogs || head != s.lastHead
	s.lastLogs = len(logs)
	s.lastHead = head
	s.lastMu.Unlock()

	if changed {
		s.debouncer.Trigger(TopicLogs)
	}
}

func (s *Server) pushState(client *socket.Socket) {
	client.Emit("pushState", s.store.State().ToJSON())
}

func (s *Server) pushLogs(client *socket.Socket) {
	client.Emit("pushLogs", s.store.State().LogsJSON())
}

// BroadcastState sends the state projection to all clients unless it is
// unchanged since the last broadcast.
func (s *Server) BroadcastState() {
	state := s.store.State().ToJSON()
	if s.isStateSame(state) {
		return
	}
	s.saveLastState(state)

	s.io.Emit("pushState", state)

	if log.Debug().Enabled() {
		s.mu.RLock()
		clientCount := len(s.clients)
		s.mu.RUnlock()
		log.Debug().Int("clients", clientCount).Msg("Broadcast state")
	}
}

// BroadcastLogs sends the log projection to all clients.
func (s *Server) BroadcastLogs() {
	s.io.Emit("pushLogs", s.store.State().LogsJSON())
}

func (s *Server) isStateSame(state map[string]interface{}) bool {
	data, err := json.Marshal(state)
	if err != nil {
		return false
	}
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	return s.lastState != nil && bytes.Equal(data, s.lastState)
}

func (s *Server) saveLastState(state map[string]interface{}) {
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	s.lastMu.Lock()
	s.lastState = data
	s.lastMu.Unlock()
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ServeHTTP implements http.Handler for the Socket.io server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.io.ServeHandler(nil).ServeHTTP(w, r)
}

// Close stops pending pushes and closes the Socket.io server.
func (s *Server) Close() error {
	s.debouncer.Stop()
	s.io.Close(nil)
	return nil
}
