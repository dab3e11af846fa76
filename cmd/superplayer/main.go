// Package main is the entry point for the SuperPlayer playback controller.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/superplayer/internal/config"
	"github.com/edumarques81/superplayer/internal/domain/superplayer"
	"github.com/edumarques81/superplayer/internal/engine"
	"github.com/edumarques81/superplayer/internal/infra/logstore"
	"github.com/edumarques81/superplayer/internal/infra/mpd"
	"github.com/edumarques81/superplayer/internal/infra/probe"
	"github.com/edumarques81/superplayer/internal/platform/metrics"
	"github.com/edumarques81/superplayer/internal/store"
	"github.com/edumarques81/superplayer/internal/transport/httpapi"
	"github.com/edumarques81/superplayer/internal/transport/socketio"
	"github.com/edumarques81/superplayer/internal/version"
)

const (
	shutdownTimeout = 5 * time.Second
	logRetention    = 30 * 24 * time.Hour
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Warn().Err(err).Msg("Ignoring unreadable .env file")
	}

	cfg, err := config.Parse(os.Args[0], os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	setupLogging(cfg.LogLevel, cfg.LogFormat)

	versionInfo := version.GetInfo()
	log.Info().Msgf("%s", versionInfo.String())
	log.Info().
		Str("port", cfg.Port).
		Str("mpd_host", cfg.MPDHost).
		Int("mpd_port", cfg.MPDPort).
		Bool("password_set", cfg.MPDPassword != "").
		Str("db", cfg.DBPath).
		Bool("retry_on_resource_error", cfg.RetryOnResourceError).
		Msg("Configuration")

	mpdClient := mpd.NewClient(cfg.MPDHost, cfg.MPDPort, cfg.MPDPassword)
	if err := mpdClient.Connect(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MPD")
	}
	defer mpdClient.Close()

	if err := mpdClient.Ping(); err != nil {
		log.Fatal().Err(err).Msg("MPD ping failed")
	}
	log.Info().Msg("MPD connection verified")

	env := superplayer.DefaultEnvironment()
	env.MaximumRetryCount = cfg.MaximumRetryCount
	env.ReloadInterval = cfg.ReloadInterval
	env.RetryOnResourceError = cfg.RetryOnResourceError
	if cfg.RetryOnResourceError {
		checker := probe.NewChecker(cfg.ProbeTimeout)
		defer checker.Close()
		env.CheckResource = checker.Check
	}

	met := metrics.New()

	// The engine reports into the store, which executes commands on the engine.
	var st *store.Store
	mpdEngine := mpd.NewEngine(mpdClient, engine.DispatcherFunc(func(actions ...superplayer.Action) {
		st.Send(actions...)
	}), cfg.PollInterval)
	bridge := engine.NewBridge(mpdEngine)

	st = store.New(
		superplayer.NewReducer(env),
		superplayer.NewState(cfg.LogHistoryLimit),
		store.WithExecutor(met.Executor(bridge)),
	)
	defer st.Close()

	sessionID := uuid.New().String()

	var logs httpapi.LogLister
	if cfg.DBPath != "" {
		db := logstore.New(cfg.DBPath)
		if err := db.Open(); err != nil {
			log.Fatal().Err(err).Msg("Failed to open log database")
		}
		defer db.Close()

		if _, err := db.Prune(context.Background(), time.Now().Add(-logRetention)); err != nil {
			log.Warn().Err(err).Msg("Failed to prune playback logs")
		}
		st.OnAction(logstore.NewRecorder(db, sessionID).Observe)
		logs = db
	}

	st.OnAction(met.ObserveAction)
	st.Subscribe(met.ObserveState)
	st.Subscribe(bridge.Sync)

	reloader := engine.NewReloader(st, cfg.LiveReloadInterval, store.RealClock())
	defer reloader.Stop()
	st.Subscribe(reloader.Observe)

	socketServer, err := socketio.NewServer(st, socketio.Options{
		BroadcastWindow:  cfg.BroadcastWindow,
		MaxRemoteClients: cfg.MaxRemoteClients,
		Engine:           "mpd",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Socket.io server")
	}
	defer socketServer.Close()
	st.Subscribe(socketServer.Observe)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st.Send(superplayer.Begin{SessionID: sessionID})
	log.Info().Str("session", sessionID).Msg("Player session started")

	go mpdEngine.Run(ctx)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Store:     st,
			Engine:    mpdClient,
			Logs:      logs,
			Metrics:   met,
			Socket:    socketServer,
			StaticDir: cfg.StaticDir,
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	st.Send(superplayer.Unload{})
	log.Info().Msg("Server stopped")
}

func setupLogging(level, format string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if strings.EqualFold(format, "json") {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
