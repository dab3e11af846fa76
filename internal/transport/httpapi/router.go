// Package httpapi serves the REST surface, metrics and the Socket.io mount.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/superplayer/internal/domain/superplayer"
	"github.com/edumarques81/superplayer/internal/infra/logstore"
	"github.com/edumarques81/superplayer/internal/platform/metrics"
	"github.com/edumarques81/superplayer/internal/version"
)

const socketPath = "/socket.io/"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// Store is the action processor behind the API.
type Store interface {
	State() superplayer.State
	Send(actions ...superplayer.Action)
}

// Pinger reports engine connectivity.
type Pinger interface {
	Ping() error
}

// LogLister reads persisted log entries.
type LogLister interface {
	List(ctx context.Context, sessionID string, limit int) ([]logstore.Entry, error)
}

// Deps are the collaborators of the router. Only Store is required.
type Deps struct {
	Store     Store
	Engine    Pinger
	Logs      LogLister
	Metrics   *metrics.Metrics
	Socket    http.Handler
	StaticDir string
}

type api struct {
	Deps
}

// NewRouter builds the HTTP handler. Socket.io traffic bypasses the
// middleware stack so websocket upgrades reach the socket server untouched.
func NewRouter(d Deps) http.Handler {
	a := &api{Deps: d}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(requestLogger)
	if d.Metrics != nil {
		r.Use(metrics.RequestMiddleware(d.Metrics))
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Get("/health", a.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/version", a.version)
		r.Get("/state", a.state)
		r.Get("/logs", a.logs)
		r.Post("/load", a.load)
		r.Post("/unload", a.unload)
	})

	if d.StaticDir != "" {
		log.Info().Str("dir", d.StaticDir).Msg("Serving static files")
		r.NotFound(spaHandler(d.StaticDir))
	}

	if d.Socket == nil {
		return r
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.URL.Path, socketPath) {
			d.Socket.ServeHTTP(w, req)
			return
		}
		r.ServeHTTP(w, req)
	})
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	if a.Engine != nil {
		if err := a.Engine.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "error",
				"engine": "disconnected",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "engine": "connected"})
}

func (a *api) version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.GetInfo())
}

func (a *api) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Store.State().ToJSON())
}

func (a *api) logs(w http.ResponseWriter, r *http.Request) {
	if a.Logs == nil {
		writeError(w, http.StatusNotFound, "log persistence disabled")
		return
	}

	q := r.URL.Query()
	// No session means the current one; "*" lists every session.
	sessionID := q.Get("session")
	switch sessionID {
	case "":
		sessionID = a.Store.State().SessionID
	case "*":
		sessionID = ""
	}
	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := a.Logs.List(r.Context(), sessionID, limit)
	if err != nil {
		log.Error().Err(err).Str("session", sessionID).Msg("Failed to list logs")
		writeError(w, http.StatusInternalServerError, "failed to list logs")
		return
	}
	if entries == nil {
		entries = []logstore.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": sessionID,
		"entries":   entries,
	})
}

type loadRequest struct {
	URL      string `json:"url"`
	AutoPlay *bool  `json:"autoPlay,omitempty"`
}

func (a *api) load(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	autoPlay := req.AutoPlay == nil || *req.AutoPlay
	a.Store.Send(superplayer.Load{URL: req.URL, AutoPlay: autoPlay})
	writeJSON(w, http.StatusAccepted, a.Store.State().ToJSON())
}

func (a *api) unload(w http.ResponseWriter, r *http.Request) {
	a.Store.Send(superplayer.Unload{})
	writeJSON(w, http.StatusAccepted, a.Store.State().ToJSON())
}

// spaHandler serves files from dir, falling back to index.html for client routes.
func spaHandler(dir string) http.HandlerFunc {
	fs := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errors.New("request body too large")
		}
		return errors.New("invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
