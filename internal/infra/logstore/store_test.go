package logstore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/edumarques81/superplayer/internal/domain/notification"
	"github.com/edumarques81/superplayer/internal/domain/superplayer"
	"github.com/edumarques81/superplayer/internal/infra/logstore"
)

func openStore(t *testing.T) *logstore.Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "nested", "logs.db")
	s := logstore.New(dbPath)
	if err := s.Open(); err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewDefaultPath(t *testing.T) {
	s := logstore.New("")
	if s.Path() != logstore.DefaultDBPath {
		t.Errorf("Path() = %q, want %q", s.Path(), logstore.DefaultDBPath)
	}
}

func TestOpenCreatesFileAndSchema(t *testing.T) {
	s := openStore(t)

	if _, err := os.Stat(s.Path()); os.IsNotExist(err) {
		t.Error("Database file should exist after Open()")
	}

	version, err := s.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != logstore.CurrentSchemaVersion {
		t.Errorf("schema version = %q, want %q", version, logstore.CurrentSchemaVersion)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "logs.db")
	ctx := context.Background()

	s := logstore.New(dbPath)
	if err := s.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Append(ctx, "s1", notification.ErrorLog{URI: "http://a/live.m3u8", StatusCode: 404}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	s.Close()

	s = logstore.New(dbPath)
	if err := s.Open(); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	n, err := s.Count(ctx, "s1")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d after reopen, want 1", n)
	}
}

func TestAppendAndList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	logs := []notification.Log{
		notification.AccessLog{URI: "http://a/1.m3u8", PlaybackType: notification.PlaybackLive, Stalls: 1},
		notification.ErrorLog{URI: "http://a/1.m3u8", StatusCode: 404, Domain: "http", Comment: "404 not found"},
		notification.AccessLog{URI: "http://a/2.m3u8", PlaybackType: notification.PlaybackVOD},
	}
	for _, l := range logs {
		if _, err := s.Append(ctx, "s1", l); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if _, err := s.Append(ctx, "s2", notification.AccessLog{URI: "http://b/x.mp3"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := s.List(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List returned %d entries, want 3", len(entries))
	}

	// Newest first.
	if entries[0].URI != "http://a/2.m3u8" {
		t.Errorf("entries[0].URI = %q, want the last appended", entries[0].URI)
	}
	if entries[1].Kind != notification.LogError {
		t.Errorf("entries[1].Kind = %q, want %q", entries[1].Kind, notification.LogError)
	}

	decoded, err := entries[1].Log()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	errLog, ok := decoded.(notification.ErrorLog)
	if !ok {
		t.Fatalf("decoded %T, want ErrorLog", decoded)
	}
	if errLog.StatusCode != 404 || errLog.Comment != "404 not found" {
		t.Errorf("decoded = %+v", errLog)
	}

	all, err := s.List(ctx, "", 10)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("List across sessions returned %d, want 4", len(all))
	}

	limited, err := s.List(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited List returned %d, want 2", len(limited))
	}
}

func TestAppendNilLog(t *testing.T) {
	s := openStore(t)

	if _, err := s.Append(context.Background(), "s1", nil); err == nil {
		t.Error("Append(nil) should fail")
	}
}

func TestPrune(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.Append(ctx, "s1", notification.AccessLog{URI: "http://a/old"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	n, err := s.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("Prune removed %d, want 1", n)
	}

	count, _ := s.Count(ctx, "s1")
	if count != 0 {
		t.Errorf("Count after prune = %d, want 0", count)
	}
}

func TestClosedStore(t *testing.T) {
	s := logstore.New(filepath.Join(t.TempDir(), "logs.db"))
	ctx := context.Background()

	if _, err := s.Append(ctx, "s1", notification.AccessLog{}); !errors.Is(err, logstore.ErrNotOpen) {
		t.Errorf("Append error = %v, want ErrNotOpen", err)
	}
	if _, err := s.List(ctx, "s1", 1); !errors.Is(err, logstore.ErrNotOpen) {
		t.Errorf("List error = %v, want ErrNotOpen", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close on unopened store: %v", err)
	}
}

func TestRecorder(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	r := logstore.NewRecorder(s, "boot")

	r.Observe(superplayer.NotificationCenter{Action: notification.LogReceived{
		Log: notification.AccessLog{URI: "http://a/1"},
	}})
	r.Observe(superplayer.Begin{SessionID: "s1"})
	r.Observe(superplayer.NotificationCenter{Action: notification.LogReceived{
		Log: notification.ErrorLog{URI: "http://a/1", Domain: "engine", Comment: "player.play: boom"},
	}})

	// Ignored: not a log, and an empty log.
	r.Observe(superplayer.NotificationCenter{Action: notification.Notify(notification.EventPlaybackStalled)})
	r.Observe(superplayer.NotificationCenter{Action: notification.LogReceived{}})
	r.Observe(superplayer.End{})

	if r.SessionID() != "s1" {
		t.Errorf("SessionID = %q, want s1", r.SessionID())
	}

	tests := []struct {
		session string
		want    int
	}{
		{"boot", 1},
		{"s1", 1},
	}
	for _, tt := range tests {
		t.Run(tt.session, func(t *testing.T) {
			n, err := s.Count(ctx, tt.session)
			if err != nil {
				t.Fatalf("Count: %v", err)
			}
			if n != tt.want {
				t.Errorf("Count(%s) = %d, want %d", tt.session, n, tt.want)
			}
		})
	}
}
