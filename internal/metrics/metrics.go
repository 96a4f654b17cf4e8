// Package metrics exposes game and transport counters to Prometheus.
// Labels stay bounded: nothing is labelled per player.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arena-server/internal/game"
)

// Metrics implements game.Observer and records transport events
type Metrics struct {
	reg *prometheus.Registry

	tickDuration prometheus.Histogram
	ticks        prometheus.Counter
	players      prometheus.Gauge
	bullets      prometheus.Gauge
	explosives   prometheus.Gauge
	objects      prometheus.Gauge
	framesSent   prometheus.Counter
	dropped      prometheus.Counter
	kills        *prometheus.CounterVec
	sessions     *prometheus.CounterVec

	connections        prometheus.Gauge
	connectionRejected *prometheus.CounterVec
	messagesLimited    prometheus.Counter
	sendDropped        prometheus.Counter
}

// New registers every collector on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "arena_tick_duration_seconds",
			Help:    "Time spent in one game tick",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.02, 0.04},
		}),
		ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "arena_ticks_total",
			Help: "Completed game ticks",
		}),
		players: f.NewGauge(prometheus.GaugeOpts{
			Name: "arena_players",
			Help: "Joined players",
		}),
		bullets: f.NewGauge(prometheus.GaugeOpts{
			Name: "arena_bullets",
			Help: "Live bullets",
		}),
		explosives: f.NewGauge(prometheus.GaugeOpts{
			Name: "arena_explosives",
			Help: "Live explosives",
		}),
		objects: f.NewGauge(prometheus.GaugeOpts{
			Name: "arena_objects",
			Help: "Placed map objects",
		}),
		framesSent: f.NewCounter(prometheus.CounterOpts{
			Name: "arena_frames_sent_total",
			Help: "Outbound frames flushed to players",
		}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "arena_packets_dropped_total",
			Help: "Packets dropped on full player queues",
		}),
		kills: f.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_kills_total",
			Help: "Player deaths by cause",
		}, []string{"cause"}), // "player", "environment"
		sessions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_sessions_total",
			Help: "Player joins and leaves",
		}, []string{"event"}), // "join", "leave"
		connections: f.NewGauge(prometheus.GaugeOpts{
			Name: "arena_websocket_connections",
			Help: "Open websocket connections",
		}),
		connectionRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_connections_rejected_total",
			Help: "Connections refused before upgrade",
		}, []string{"reason"}), // "capacity", "per_ip", "origin"
		messagesLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "arena_messages_rate_limited_total",
			Help: "Inbound frames discarded by the per-connection limiter",
		}),
		sendDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "arena_send_dropped_total",
			Help: "Outbound frames dropped on a full client buffer",
		}),
	}
}

func (m *Metrics) OnTick(s game.TickStats) {
	m.tickDuration.Observe(s.Duration.Seconds())
	m.ticks.Inc()
	m.players.Set(float64(s.Players))
	m.bullets.Set(float64(s.Bullets))
	m.explosives.Set(float64(s.Explosives))
	m.objects.Set(float64(s.Objects))
	m.framesSent.Add(float64(s.FramesSent))
	m.dropped.Add(float64(s.Dropped))
}

func (m *Metrics) OnKill(e game.KillEvent) {
	if e.KillerUID == 0 {
		m.kills.WithLabelValues("environment").Inc()
		return
	}
	m.kills.WithLabelValues("player").Inc()
}

func (m *Metrics) OnSession(e game.SessionEvent) {
	if e.Joined {
		m.sessions.WithLabelValues("join").Inc()
		return
	}
	m.sessions.WithLabelValues("leave").Inc()
}

func (m *Metrics) ConnectionOpened() { m.connections.Inc() }
func (m *Metrics) ConnectionClosed() { m.connections.Dec() }

func (m *Metrics) ConnectionRejected(reason string) {
	m.connectionRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) MessageLimited() { m.messagesLimited.Inc() }
func (m *Metrics) SendDropped()    { m.sendDropped.Inc() }

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }
