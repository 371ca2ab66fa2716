package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for agent calls.
type Metrics struct {
	// Call latency by agent and outcome
	CallLatency *prometheus.HistogramVec

	// Calls by agent and outcome
	Calls *prometheus.CounterVec

	// Circuit breaker trips by agent
	CircuitOpened *prometheus.CounterVec
}

// New registers agent metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kycflow_agent_call_duration_seconds",
			Help:    "Duration of agent calls by agent and outcome",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"agent", "outcome"}), // outcome: "completed", "failed", "timed_out"

		Calls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kycflow_agent_calls_total",
			Help: "Total agent calls by agent and outcome",
		}, []string{"agent", "outcome"}),

		CircuitOpened: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kycflow_agent_circuit_opened_total",
			Help: "Times an agent circuit breaker opened",
		}, []string{"agent"}),
	}
}

// ObserveCall records one agent call.
func (m *Metrics) ObserveCall(agent, outcome string, d time.Duration) {
	if m != nil {
		m.CallLatency.WithLabelValues(agent, outcome).Observe(d.Seconds())
		m.Calls.WithLabelValues(agent, outcome).Inc()
	}
}

// IncrementCircuitOpened records a breaker trip.
func (m *Metrics) IncrementCircuitOpened(agent string) {
	if m != nil {
		m.CircuitOpened.WithLabelValues(agent).Inc()
	}
}
