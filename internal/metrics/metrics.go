// Package metrics exposes Prometheus metrics for classification runs and
// settings synchronization. A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "triage"

// Metric label keys.
const (
	labelCategory = "category"
	labelKind     = "kind"
)

// Recorder holds the application metrics.
type Recorder struct {
	messagesClassified   *prometheus.CounterVec
	classificationErrors prometheus.Counter
	batchRuns            prometheus.Counter
	batchDuration        prometheus.Histogram

	changesApplied   *prometheus.CounterVec
	persistFailures  prometheus.Counter
	listenerFailures prometheus.Counter
	drainPasses      prometheus.Counter
	queueDepth       prometheus.Gauge
}

// NewRecorder creates the metrics and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		messagesClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_classified_total",
			Help:      "Total number of classified messages by category.",
		}, []string{labelCategory}),
		classificationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classification_errors_total",
			Help:      "Total number of messages whose classification failed.",
		}),
		batchRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_runs_total",
			Help:      "Total number of batch classification runs.",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Duration of batch classification runs in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		changesApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settings_changes_applied_total",
			Help:      "Total number of applied settings changes by kind.",
		}, []string{labelKind}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settings_persist_failures_total",
			Help:      "Total number of settings changes that could not be persisted.",
		}),
		listenerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settings_listener_failures_total",
			Help:      "Total number of settings listeners that failed.",
		}),
		drainPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settings_drain_passes_total",
			Help:      "Total number of settings queue drain passes.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "settings_queue_depth",
			Help:      "Number of settings changes waiting to be applied.",
		}),
	}

	collectors := []prometheus.Collector{
		r.messagesClassified, r.classificationErrors, r.batchRuns, r.batchDuration,
		r.changesApplied, r.persistFailures, r.listenerFailures, r.drainPasses, r.queueDepth,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return r, nil
}

// ObserveClassification counts one classified message.
func (r *Recorder) ObserveClassification(category string) {
	if r == nil {
		return
	}
	r.messagesClassified.WithLabelValues(category).Inc()
}

// ObserveClassificationError counts one failed classification.
func (r *Recorder) ObserveClassificationError() {
	if r == nil {
		return
	}
	r.classificationErrors.Inc()
}

// ObserveBatch records a finished batch run.
func (r *Recorder) ObserveBatch(d time.Duration) {
	if r == nil {
		return
	}
	r.batchRuns.Inc()
	r.batchDuration.Observe(d.Seconds())
}

// ObserveChangeApplied counts an applied settings change.
func (r *Recorder) ObserveChangeApplied(kind string) {
	if r == nil {
		return
	}
	r.changesApplied.WithLabelValues(kind).Inc()
}

// ObservePersistFailure counts a settings change that was not persisted.
func (r *Recorder) ObservePersistFailure() {
	if r == nil {
		return
	}
	r.persistFailures.Inc()
}

// ObserveListenerFailure counts a failed settings listener.
func (r *Recorder) ObserveListenerFailure() {
	if r == nil {
		return
	}
	r.listenerFailures.Inc()
}

// ObserveDrainPass counts a drain pass.
func (r *Recorder) ObserveDrainPass() {
	if r == nil {
		return
	}
	r.drainPasses.Inc()
}

// SetQueueDepth records the number of pending changes.
func (r *Recorder) SetQueueDepth(n int) {
	if r == nil {
		return
	}
	r.queueDepth.Set(float64(n))
}
