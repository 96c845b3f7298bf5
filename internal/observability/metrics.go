package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Submission outcomes used as metric labels
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
	OutcomeBusy      = "busy"
)

// Metrics holds the Prometheus metrics for chat submissions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Registry owns these metrics
	Registry *prometheus.Registry

	submissions        *prometheus.CounterVec
	submissionDuration *prometheus.HistogramVec
	chunks             prometheus.Counter
}

// Snapshot is a point-in-time view of the submission counters
type Snapshot struct {
	Succeeded float64
	Failed    float64
	Rejected  float64
	Busy      float64
	Chunks    float64
}

// Total returns the number of submissions that reached a terminal state
func (s Snapshot) Total() float64 {
	return s.Succeeded + s.Failed + s.Rejected
}

// NewMetrics creates a dedicated registry and registers the chat metrics in it.
// A private registry keeps repeated construction in tests from panicking.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatweb_submissions_total",
				Help: "Total submissions by outcome.",
			},
			[]string{"outcome"},
		),
		submissionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chatweb_submission_duration_seconds",
				Help:    "Duration of submissions by response mode.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		chunks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chatweb_display_updates_total",
				Help: "Total display updates produced from responses.",
			},
		),
	}
}

// IncrSubmission increments the submission counter for an outcome
func (m *Metrics) IncrSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// RecordSubmissionDuration records how long a submission took
func (m *Metrics) RecordSubmissionDuration(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.submissionDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// IncrUpdates counts display updates
func (m *Metrics) IncrUpdates() {
	if m == nil {
		return
	}
	m.chunks.Inc()
}

// Snapshot gathers current counter values
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Succeeded: getCounterValue(m.submissions, OutcomeSucceeded),
		Failed:    getCounterValue(m.submissions, OutcomeFailed),
		Rejected:  getCounterValue(m.submissions, OutcomeRejected),
		Busy:      getCounterValue(m.submissions, OutcomeBusy),
		Chunks:    metricValue(m.chunks),
	}
}

// getCounterValue extracts the current value from a CounterVec for a given label
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return metricValue(cv.WithLabelValues(label))
}

func metricValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
