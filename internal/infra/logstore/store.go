// Package logstore persists access and error log entries per playback session.
package logstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/superplayer/internal/domain/notification"
)

const (
	// CurrentSchemaVersion is the current database schema version.
	CurrentSchemaVersion = "1"

	// DefaultDBPath is the default path for the log database.
	DefaultDBPath = "data/superplayer.db"

	// DefaultListLimit caps List when no limit is given.
	DefaultListLimit = 100

	// timeLayout is fixed width so created_at sorts as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrNotOpen is returned when the database has not been opened.
var ErrNotOpen = errors.New("database not open")

// Entry is one persisted log row.
type Entry struct {
	ID        string               `json:"id"`
	SessionID string               `json:"sessionId"`
	Kind      notification.LogKind `json:"kind"`
	URI       string               `json:"uri,omitempty"`
	Payload   json.RawMessage      `json:"payload"`
	CreatedAt time.Time            `json:"createdAt"`
}

// Log decodes the payload back into an access or error log.
func (e Entry) Log() (notification.Log, error) {
	switch e.Kind {
	case notification.LogAccess:
		var l notification.AccessLog
		if err := json.Unmarshal(e.Payload, &l); err != nil {
			return nil, fmt.Errorf("decode access log %s: %w", e.ID, err)
		}
		return l, nil
	case notification.LogError:
		var l notification.ErrorLog
		if err := json.Unmarshal(e.Payload, &l); err != nil {
			return nil, fmt.Errorf("decode error log %s: %w", e.ID, err)
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unknown log kind %q", e.Kind)
	}
}

// Store is the SQLite log database.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
	now  func() time.Time
}

// New creates a store at path. An empty path selects DefaultDBPath.
func New(path string) *Store {
	if path == "" {
		path = DefaultDBPath
	}
	return &Store{
		path: path,
		now:  time.Now,
	}
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Open opens the database and initializes the schema.
func (s *Store) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open log database: %w", err)
	}

	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s.db = db

	if err := s.initSchema(); err != nil {
		db.Close()
		s.db = nil
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info().Str("path", s.path).Msg("Log database opened")
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if version := s.schemaVersion(); version != CurrentSchemaVersion {
		if err := s.setMeta("schema_version", CurrentSchemaVersion); err != nil {
			return err
		}
		log.Info().Str("version", CurrentSchemaVersion).Msg("Log schema created")
	}
	return nil
}

const schema = `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated_at TEXT DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS playback_logs (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		uri TEXT,
		payload TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_playback_logs_session ON playback_logs(session_id, created_at DESC);
`

func (s *Store) schemaVersion() string {
	var version string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	if err != nil {
		return ""
	}
	return version
}

func (s *Store) setMeta(key, value string) error {
	now := s.now().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO meta (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = ?
	`, key, value, now, value, now)
	return err
}

// SchemaVersion returns the stored schema version.
func (s *Store) SchemaVersion() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return "", ErrNotOpen
	}
	return s.schemaVersion(), nil
}

// Append persists l under sessionID.
func (s *Store) Append(ctx context.Context, sessionID string, l notification.Log) (Entry, error) {
	if l == nil {
		return Entry{}, errors.New("nil log")
	}
	payload, err := json.Marshal(l)
	if err != nil {
		return Entry{}, fmt.Errorf("encode %s log: %w", l.Kind(), err)
	}

	entry := Entry{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Kind:      l.Kind(),
		Payload:   payload,
		CreatedAt: s.now().UTC(),
	}
	if u := l.URL(); u != nil {
		entry.URI = u.String()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return Entry{}, ErrNotOpen
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO playback_logs (id, session_id, kind, uri, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.SessionID, string(entry.Kind), entry.URI, string(entry.Payload),
		entry.CreatedAt.Format(timeLayout))
	if err != nil {
		return Entry{}, fmt.Errorf("insert log: %w", err)
	}
	return entry, nil
}

// List returns up to limit entries of sessionID, newest first.
// An empty sessionID lists across all sessions.
func (s *Store) List(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotOpen
	}

	query := `
		SELECT id, session_id, kind, uri, payload, created_at
		FROM playback_logs`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			kind      string
			uri       sql.NullString
			payload   string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &kind, &uri, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		e.Kind = notification.LogKind(kind)
		e.URI = uri.String
		e.Payload = json.RawMessage(payload)
		e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of entries stored for sessionID.
func (s *Store) Count(ctx context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return 0, ErrNotOpen
	}

	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM playback_logs WHERE session_id = ?", sessionID).Scan(&n)
	return n, err
}

// Prune deletes entries older than cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return 0, ErrNotOpen
	}

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM playback_logs WHERE created_at < ?", cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune logs: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		log.Info().Int64("removed", n).Time("cutoff", cutoff).Msg("Pruned playback logs")
	}
	return n, nil
}
