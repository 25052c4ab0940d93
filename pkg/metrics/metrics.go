// Package metrics exposes Prometheus instrumentation for session loading and
// replica serving.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the adapter's Prometheus collectors.
type Recorder struct {
	// sessionLoads counts session load attempts by outcome.
	sessionLoads *prometheus.CounterVec
	// sessionLoadDuration observes session load latency.
	sessionLoadDuration prometheus.Histogram
	// activeReplicas tracks live serving replicas.
	activeReplicas prometheus.Gauge
	// tasks counts served tasks by outcome.
	tasks *prometheus.CounterVec
}

// NewRecorder creates a Recorder and registers its collectors with the given
// registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		sessionLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onnx_runner",
			Name:      "session_loads_total",
			Help:      "Session load attempts by outcome.",
		}, []string{"outcome"}),
		sessionLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "onnx_runner",
			Name:      "session_load_duration_seconds",
			Help:      "Session load latency.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		activeReplicas: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "onnx_runner",
			Name:      "active_replicas",
			Help:      "Live serving replicas.",
		}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onnx_runner",
			Name:      "tasks_total",
			Help:      "Served tasks by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(r.sessionLoads, r.sessionLoadDuration, r.activeReplicas, r.tasks)
	return r
}

// ObserveLoad records one session load attempt.
func (r *Recorder) ObserveLoad(start time.Time, err error) {
	r.sessionLoadDuration.Observe(time.Since(start).Seconds())
	r.sessionLoads.WithLabelValues(outcome(err)).Inc()
}

// ReplicaUp records a replica entering service.
func (r *Recorder) ReplicaUp() {
	r.activeReplicas.Inc()
}

// ReplicaDown records a replica leaving service.
func (r *Recorder) ReplicaDown() {
	r.activeReplicas.Dec()
}

// ObserveTask records one served task.
func (r *Recorder) ObserveTask(err error) {
	r.tasks.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
