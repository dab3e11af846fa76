// Package metrics exposes Prometheus counters and gauges for the player.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edumarques81/superplayer/internal/domain/notification"
	"github.com/edumarques81/superplayer/internal/domain/superplayer"
	"github.com/edumarques81/superplayer/internal/store"
)

// Metrics holds the player's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	actionsTotal        *prometheus.CounterVec
	commandsTotal       *prometheus.CounterVec
	commandFailures     *prometheus.CounterVec
	stallsTotal         prometheus.Counter
	loadsTotal          prometheus.Counter
	resourceChecksTotal prometheus.Counter
	logsTotal           *prometheus.CounterVec
	requestsTotal       prometheus.Counter
	errorsTotal         prometheus.Counter

	playing         prometheus.Gauge
	live            prometheus.Gauge
	retryCount      prometheus.Gauge
	reloadCountdown prometheus.Gauge
}

// New creates and registers the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "superplayer_actions_total",
			Help: "Total number of reduced actions, follow-ups included",
		}, []string{"action"}),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "superplayer_engine_commands_total",
			Help: "Total number of engine commands executed",
		}, []string{"command"}),
		commandFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "superplayer_engine_command_failures_total",
			Help: "Total number of engine commands that returned an error",
		}, []string{"command"}),
		stallsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "superplayer_stalls_total",
			Help: "Total number of playback stalls reported by the engine",
		}),
		loadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "superplayer_loads_total",
			Help: "Total number of load requests, reloads included",
		}),
		resourceChecksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "superplayer_resource_checks_total",
			Help: "Total number of resource availability checks",
		}),
		logsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "superplayer_logs_total",
			Help: "Total number of access and error log entries received",
		}, []string{"kind"}),
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "superplayer_http_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "superplayer_http_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		playing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "superplayer_playing",
			Help: "1 while the player rate is positive",
		}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "superplayer_live",
			Help: "1 while the current item is a live stream",
		}),
		retryCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "superplayer_retry_count",
			Help: "Resource checks made since the last load",
		}),
		reloadCountdown: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "superplayer_reload_countdown_seconds",
			Help: "Seconds until the live reload loop reloads the item",
		}),
	}

	m.registry.MustRegister(
		m.actionsTotal,
		m.commandsTotal,
		m.commandFailures,
		m.stallsTotal,
		m.loadsTotal,
		m.resourceChecksTotal,
		m.logsTotal,
		m.requestsTotal,
		m.errorsTotal,
		m.playing,
		m.live,
		m.retryCount,
		m.reloadCountdown,
	)
	return m
}

// ObserveAction counts one reduced action. Register it with Store.OnAction.
func (m *Metrics) ObserveAction(a superplayer.Action) {
	m.actionsTotal.WithLabelValues(ActionName(a)).Inc()

	switch a := a.(type) {
	case superplayer.Load:
		m.loadsTotal.Inc()
	case superplayer.CheckResource:
		m.resourceChecksTotal.Inc()
	case superplayer.NotificationCenter:
		switch n := a.Action.(type) {
		case notification.Received:
			if e, ok := n.Event.Get(); ok && e == notification.EventPlaybackStalled {
				m.stallsTotal.Inc()
			}
		case notification.LogReceived:
			if n.Log != nil {
				m.logsTotal.WithLabelValues(string(n.Log.Kind())).Inc()
			}
		}
	}
}

// ObserveState refreshes the gauges from a snapshot. Register it with Store.Subscribe.
func (m *Metrics) ObserveState(s superplayer.State) {
	m.playing.Set(boolValue(s.Player.IsPlaying()))
	m.live.Set(boolValue(s.IsLive))
	m.retryCount.Set(float64(s.RetryCount))
	m.reloadCountdown.Set(float64(s.ReloadCountdown))
}

// Executor wraps next so every command it runs is counted.
func (m *Metrics) Executor(next store.Executor) store.Executor {
	return store.ExecutorFunc(func(ctx context.Context, cmd superplayer.Command) error {
		name := CommandName(cmd)
		m.commandsTotal.WithLabelValues(name).Inc()
		err := next.Execute(ctx, cmd)
		if err != nil {
			m.commandFailures.WithLabelValues(name).Inc()
		}
		return err
	})
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ActionName labels a by its type, unwrapping sub-state actions.
func ActionName(a superplayer.Action) string {
	switch w := a.(type) {
	case superplayer.Player:
		return typeName(w.Action)
	case superplayer.PlayerItem:
		return typeName(w.Action)
	case superplayer.NotificationCenter:
		return typeName(w.Action)
	case superplayer.PictureInPicture:
		return typeName(w.Action)
	}
	return typeName(a)
}

// CommandName labels cmd by its method name with arguments dropped.
func CommandName(cmd superplayer.Command) string {
	name, _, _ := strings.Cut(cmd.String(), "(")
	return name
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
