// Package config loads process configuration from flags, the environment
// and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the resolved process configuration.
type Config struct {
	Port      string
	StaticDir string

	MPDHost     string
	MPDPort     int
	MPDPassword string

	DBPath string

	LogLevel  string
	LogFormat string

	MaximumRetryCount    int
	ReloadInterval       time.Duration
	LiveReloadInterval   time.Duration
	RetryOnResourceError bool
	ProbeTimeout         time.Duration

	LogHistoryLimit  int
	PollInterval     time.Duration
	BroadcastWindow  time.Duration
	MaxRemoteClients int
}

// LoadEnv reads .env files into the environment without overriding
// variables that are already set. A missing file is not an error.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Parse resolves configuration from args. Environment variables provide the
// flag defaults, so an explicit flag always wins.
func Parse(name string, args []string, output io.Writer) (Config, error) {
	var c Config
	fset := flag.NewFlagSet(name, flag.ContinueOnError)
	if output != nil {
		fset.SetOutput(output)
	}

	debug := fset.Bool("debug", false, "Enable debug logging (same as LOG_LEVEL=debug)")

	fset.StringVar(&c.Port, "port", GetEnv("PORT", "3002"), "HTTP server port")
	fset.StringVar(&c.StaticDir, "static", GetEnv("STATIC_DIR", ""), "Directory to serve static files from (optional)")
	fset.StringVar(&c.MPDHost, "mpd-host", GetEnv("MPD_HOST", "localhost"), "MPD host")
	fset.IntVar(&c.MPDPort, "mpd-port", GetEnvInt("MPD_PORT", 6600), "MPD port")
	fset.StringVar(&c.MPDPassword, "mpd-password", GetEnv("MPD_PASSWORD", ""), "MPD password")
	fset.StringVar(&c.DBPath, "db", GetEnv("DB_PATH", "data/superplayer.db"), "SQLite log database path (empty disables persistence)")
	fset.StringVar(&c.LogLevel, "log-level", GetEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	fset.StringVar(&c.LogFormat, "log-format", GetEnv("LOG_FORMAT", "console"), "Log format: console or json")
	fset.IntVar(&c.MaximumRetryCount, "max-retry-count", GetEnvInt("MAX_RETRY_COUNT", 90), "Resource checks before giving up")
	fset.DurationVar(&c.ReloadInterval, "reload-interval", GetEnvDuration("RELOAD_INTERVAL", 15*time.Second), "Delay between resource checks")
	fset.DurationVar(&c.LiveReloadInterval, "live-reload-interval", GetEnvDuration("LIVE_RELOAD_INTERVAL", time.Second), "Live reload loop tick")
	fset.BoolVar(&c.RetryOnResourceError, "retry-on-resource-error", GetEnvBool("RETRY_ON_RESOURCE_ERROR", false), "Probe and reload live streams after a 404")
	fset.DurationVar(&c.ProbeTimeout, "probe-timeout", GetEnvDuration("PROBE_TIMEOUT", 10*time.Second), "Timeout of one resource check")
	fset.IntVar(&c.LogHistoryLimit, "log-history-limit", GetEnvInt("LOG_HISTORY_LIMIT", 200), "Log entries kept in state")
	fset.DurationVar(&c.PollInterval, "poll-interval", GetEnvDuration("POLL_INTERVAL", time.Second), "Engine status poll interval")
	fset.DurationVar(&c.BroadcastWindow, "broadcast-window", GetEnvDuration("BROADCAST_WINDOW", 50*time.Millisecond), "Debounce window for UI pushes")
	fset.IntVar(&c.MaxRemoteClients, "max-remote-clients", GetEnvInt("MAX_REMOTE_CLIENTS", 0), "Concurrent non-local UI clients (0 = unlimited)")

	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}
	if *debug {
		c.LogLevel = "debug"
	}
	return c, c.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("port %q is not a number", c.Port))
	}
	if c.MPDPort <= 0 || c.MPDPort > 65535 {
		errs = append(errs, fmt.Errorf("mpd port %d out of range", c.MPDPort))
	}
	if c.MaximumRetryCount < 0 {
		errs = append(errs, errors.New("max retry count must not be negative"))
	}
	for name, d := range map[string]time.Duration{
		"reload interval":      c.ReloadInterval,
		"live reload interval": c.LiveReloadInterval,
		"poll interval":        c.PollInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.LogHistoryLimit <= 0 {
		errs = append(errs, errors.New("log history limit must be positive"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of key, or fallback if the variable is
// unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvBool returns the boolean value of key, or fallback.
func GetEnvBool(key string, fallback bool) bool {
	if s := os.Getenv(key); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return fallback
}

// GetEnvDuration returns the duration value of key, or fallback. Bare
// integers are read as seconds.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
