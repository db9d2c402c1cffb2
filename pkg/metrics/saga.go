package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func (m *Manager) initSagaMetrics(cfg Config) {
	m.sagaExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_executions_total",
			Help: "Total number of saga executions by terminal status",
		},
		[]string{"status"},
	)

	m.sagaDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saga_duration_seconds",
			Help:    "Saga execution duration in seconds",
			Buckets: cfg.SagaDurationBuckets,
		},
		[]string{"status"},
	)

	m.sagaActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "saga_active_count",
			Help: "Current number of active saga executions",
		},
	)

	m.sagaCompensations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_compensations_total",
			Help: "Total number of step compensations by outcome",
		},
		[]string{"status"},
	)

	m.sagaCompensationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "saga_compensation_duration_seconds",
			Help:    "Full reverse-order compensation pass duration in seconds",
			Buckets: cfg.StepDurationBuckets,
		},
	)

	m.sagaRecovery = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_recovery_total",
			Help: "Total number of saga resume operations by prior status",
		},
		[]string{"status"},
	)

	m.stepExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_step_executions_total",
			Help: "Total number of step attempts by step and outcome",
		},
		[]string{"step", "status"},
	)

	m.stepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saga_step_duration_seconds",
			Help:    "Step attempt duration in seconds",
			Buckets: cfg.StepDurationBuckets,
		},
		[]string{"step"},
	)

	m.stepRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_step_retries_total",
			Help: "Total number of step retries by step",
		},
		[]string{"step"},
	)

	m.registry.MustRegister(m.sagaExecutions)
	m.registry.MustRegister(m.sagaDuration)
	m.registry.MustRegister(m.sagaActive)
	m.registry.MustRegister(m.sagaCompensations)
	m.registry.MustRegister(m.sagaCompensationDuration)
	m.registry.MustRegister(m.sagaRecovery)
	m.registry.MustRegister(m.stepExecutions)
	m.registry.MustRegister(m.stepDuration)
	m.registry.MustRegister(m.stepRetries)
}

// RecordSagaExecution records one saga execution outcome.
func (m *Manager) RecordSagaExecution(status string) {
	if !m.enabled {
		return
	}
	m.sagaExecutions.WithLabelValues(status).Inc()
}

// RecordSagaDuration records saga execution latency.
func (m *Manager) RecordSagaDuration(status string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.sagaDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// IncActiveSagas increments current active saga count.
func (m *Manager) IncActiveSagas() {
	if !m.enabled {
		return
	}
	m.sagaActive.Inc()
}

// DecActiveSagas decrements current active saga count.
func (m *Manager) DecActiveSagas() {
	if !m.enabled {
		return
	}
	m.sagaActive.Dec()
}

// RecordStepExecution records one step attempt.
func (m *Manager) RecordStepExecution(stepID, status string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.stepExecutions.WithLabelValues(stepID, status).Inc()
	m.stepDuration.WithLabelValues(stepID).Observe(duration.Seconds())
}

// RecordStepRetry records one step retry.
func (m *Manager) RecordStepRetry(stepID string) {
	if !m.enabled {
		return
	}
	m.stepRetries.WithLabelValues(stepID).Inc()
}

// RecordCompensation records one step compensation outcome.
func (m *Manager) RecordCompensation(status string) {
	if !m.enabled {
		return
	}
	m.sagaCompensations.WithLabelValues(status).Inc()
}

// RecordCompensationDuration records compensation pass duration.
func (m *Manager) RecordCompensationDuration(duration time.Duration) {
	if !m.enabled {
		return
	}
	m.sagaCompensationDuration.Observe(duration.Seconds())
}

// RecordSagaRecovery records one resume operation outcome.
func (m *Manager) RecordSagaRecovery(status string) {
	if !m.enabled {
		return
	}
	m.sagaRecovery.WithLabelValues(status).Inc()
}
