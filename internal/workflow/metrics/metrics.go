package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for case orchestration.
type Metrics struct {
	// End-to-end case latency by recommendation
	CaseLatency *prometheus.HistogramVec

	// Finished cases by recommendation
	Cases *prometheus.CounterVec

	// Cases that ended on the fallback path
	Fallbacks prometheus.Counter

	// Cases short-circuited by the data-quality gate
	GateRejections prometheus.Counter

	// Publisher failures by publisher name
	PublishFailures *prometheus.CounterVec
}

// New registers workflow metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CaseLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kycflow_case_duration_seconds",
			Help:    "Duration of case orchestration by recommendation",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 150},
		}, []string{"recommendation"}),

		Cases: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kycflow_cases_total",
			Help: "Total finished cases by recommendation",
		}, []string{"recommendation"}),

		Fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "kycflow_case_fallbacks_total",
			Help: "Total cases that ended with the orchestrator fallback result",
		}),

		GateRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "kycflow_quality_gate_rejections_total",
			Help: "Total cases stopped by the data-quality gate",
		}),

		PublishFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kycflow_publish_failures_total",
			Help: "Total result publish failures by publisher",
		}, []string{"publisher"}),
	}
}

// ObserveCase records one finished case.
func (m *Metrics) ObserveCase(recommendation string, d time.Duration) {
	if m != nil {
		m.CaseLatency.WithLabelValues(recommendation).Observe(d.Seconds())
		m.Cases.WithLabelValues(recommendation).Inc()
	}
}

func (m *Metrics) IncrementFallback() {
	if m != nil {
		m.Fallbacks.Inc()
	}
}

func (m *Metrics) IncrementGateRejection() {
	if m != nil {
		m.GateRejections.Inc()
	}
}

func (m *Metrics) IncrementPublishFailure(publisher string) {
	if m != nil {
		m.PublishFailures.WithLabelValues(publisher).Inc()
	}
}
