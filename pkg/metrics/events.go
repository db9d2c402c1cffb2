package metrics

import "github.com/prometheus/client_golang/prometheus"

func (m *Manager) initEventMetrics(cfg Config) {
	m.eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_events_published_total",
			Help: "Total number of lifecycle events published by type",
		},
		[]string{"type"},
	)

	m.wsClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "saga_event_stream_clients",
			Help: "Current number of connected event stream clients",
		},
	)

	m.wsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "saga_event_stream_dropped_total",
			Help: "Total number of events dropped on slow stream clients",
		},
	)

	m.busPublishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_event_bus_publishes_total",
			Help: "Total number of event bus publish attempts by status",
		},
		[]string{"status"},
	)

	m.busRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "saga_event_bus_retries_total",
			Help: "Total number of event bus publish retries",
		},
	)

	m.busDegraded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "saga_event_bus_degraded",
			Help: "Whether the event bus publisher is in degraded mode (0 or 1)",
		},
	)

	m.registry.MustRegister(m.eventsPublished)
	m.registry.MustRegister(m.wsClients)
	m.registry.MustRegister(m.wsDropped)
	m.registry.MustRegister(m.busPublishes)
	m.registry.MustRegister(m.busRetries)
	m.registry.MustRegister(m.busDegraded)
}

// RecordEventPublished records one published lifecycle event.
func (m *Manager) RecordEventPublished(eventType string) {
	if !m.enabled {
		return
	}
	m.eventsPublished.WithLabelValues(eventType).Inc()
}

// IncStreamClients increments the connected event stream client count.
func (m *Manager) IncStreamClients() {
	if !m.enabled {
		return
	}
	m.wsClients.Inc()
}

// DecStreamClients decrements the connected event stream client count.
func (m *Manager) DecStreamClients() {
	if !m.enabled {
		return
	}
	m.wsClients.Dec()
}

// RecordStreamDrop records one event dropped on a slow stream client.
func (m *Manager) RecordStreamDrop() {
	if !m.enabled {
		return
	}
	m.wsDropped.Inc()
}

// RecordPublish records one event bus publish attempt.
func (m *Manager) RecordPublish(status string) {
	if !m.enabled {
		return
	}
	m.busPublishes.WithLabelValues(status).Inc()
}

// RecordRetry records one event bus publish retry.
func (m *Manager) RecordRetry() {
	if !m.enabled {
		return
	}
	m.busRetries.Inc()
}

// SetDegradedMode flags whether the event bus publisher is degraded.
func (m *Manager) SetDegradedMode(active bool) {
	if !m.enabled {
		return
	}
	if active {
		m.busDegraded.Set(1)
	} else {
		m.busDegraded.Set(0)
	}
}
