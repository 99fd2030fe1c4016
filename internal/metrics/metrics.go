// Package metrics records mailbox operation outcomes for Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mailbox"

type Recorder struct {
	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	closeFailures prometheus.Counter
}

// New registers the collectors on reg. A nil reg gives a recorder that is
// not exported anywhere, which is what tests use.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Mailbox operations by name and outcome.",
		}, []string{"operation", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Mailbox operation latency including connection setup.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"operation"}),
		closeFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_close_failures_total",
			Help:      "Sessions whose logout or quit failed.",
		}),
	}
}

func (r *Recorder) Observe(operation, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(operation, status).Inc()
	r.duration.WithLabelValues(operation).Observe(d.Seconds())
}

func (r *Recorder) CloseFailed() {
	if r == nil {
		return
	}
	r.closeFailures.Inc()
}
