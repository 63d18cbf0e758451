// Package metrics provides observability for qualification sessions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks reconciliation passes, rejected writes and exports.
// A nil *Metrics records nothing.
type Metrics struct {
	Passes         *prometheus.CounterVec
	PassDuration   prometheus.Histogram
	Warnings       *prometheus.CounterVec
	RejectedWrites prometheus.Counter
	Corrections    prometheus.Counter
	Exports        *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
}

// New registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Passes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "qualify_passes_total",
			Help: "Reconciliation passes by kind (advanced, legacy, reprocess) and outcome",
		}, []string{"kind", "outcome"}),
		PassDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "qualify_submit_duration_seconds",
			Help:    "Duration of a batch submission including the service round trip",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		Warnings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "qualify_warnings_total",
			Help: "Non-fatal warnings raised during passes",
		}, []string{"code"}),
		RejectedWrites: f.NewCounter(prometheus.CounterOpts{
			Name: "qualify_rejected_writes_total",
			Help: "Direct checklist writes rejected because edit mode was off",
		}),
		Corrections: f.NewCounter(prometheus.CounterOpts{
			Name: "qualify_corrections_total",
			Help: "Document reclassifications recorded",
		}),
		Exports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "qualify_exports_total",
			Help: "Exports by artifact (report, note), format and outcome",
		}, []string{"artifact", "format", "outcome"}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "qualify_active_sessions",
			Help: "Sessions currently held by the server",
		}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObservePass records one reconciliation pass.
func (m *Metrics) ObservePass(kind string, err error) {
	if m == nil {
		return
	}
	m.Passes.WithLabelValues(kind, outcome(err)).Inc()
}

// ObserveSubmit records the duration of a submission.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time) {
	if m == nil {
		return
	}
	m.PassDuration.Observe(time.Since(start).Seconds())
}

// IncrementWarning records a warning by code.
func (m *Metrics) IncrementWarning(code string) {
	if m == nil {
		return
	}
	m.Warnings.WithLabelValues(code).Inc()
}

// IncrementRejectedWrite records a rejected direct write.
func (m *Metrics) IncrementRejectedWrite() {
	if m == nil {
		return
	}
	m.RejectedWrites.Inc()
}

// IncrementCorrection records a reclassification.
func (m *Metrics) IncrementCorrection() {
	if m == nil {
		return
	}
	m.Corrections.Inc()
}

// ObserveExport records an export attempt.
func (m *Metrics) ObserveExport(artifact, format string, err error) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(artifact, format, outcome(err)).Inc()
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}
