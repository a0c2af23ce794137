// Package metrics exposes hub activity as Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements core.Metrics on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	ActiveRooms        prometheus.Gauge
	ActiveParticipants prometheus.Gauge
	CommandsTotal      *prometheus.CounterVec
	DroppedTotal       *prometheus.CounterVec
	EvictionsTotal     prometheus.Counter
	ConnectionsTotal   prometheus.Counter
}

// New creates the collectors together with Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ActiveRooms: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wirecanvas_active_rooms",
			Help: "Current number of rooms with at least one participant",
		}),
		ActiveParticipants: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wirecanvas_active_participants",
			Help: "Current number of joined participants across all rooms",
		}),
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wirecanvas_commands_total",
			Help: "Client commands handled by the hub, by event name",
		}, []string{"event"}),
		DroppedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wirecanvas_dropped_events_total",
			Help: "Events dropped instead of delivered, by event name and reason",
		}, []string{"event", "reason"}),
		EvictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "wirecanvas_evictions_total",
			Help: "Connections closed because they could not keep up",
		}),
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "wirecanvas_connections_total",
			Help: "Websocket connections accepted",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the underlying registry, mostly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) RoomOpened() {
	if m == nil {
		return
	}
	m.ActiveRooms.Inc()
}

func (m *Metrics) RoomClosed() {
	if m == nil {
		return
	}
	m.ActiveRooms.Dec()
}

func (m *Metrics) ParticipantJoined() {
	if m == nil {
		return
	}
	m.ActiveParticipants.Inc()
}

func (m *Metrics) ParticipantLeft() {
	if m == nil {
		return
	}
	m.ActiveParticipants.Dec()
}

func (m *Metrics) CommandHandled(kind string) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) EventDropped(kind, reason string) {
	if m == nil {
		return
	}
	m.DroppedTotal.WithLabelValues(kind, reason).Inc()
}

func (m *Metrics) ClientEvicted() {
	if m == nil {
		return
	}
	m.EvictionsTotal.Inc()
}

func (m *Metrics) ConnectionAccepted() {
	if m == nil {
		return
	}
	m.ConnectionsTotal.Inc()
}
