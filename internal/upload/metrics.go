package upload

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for upload activity
type Metrics struct {
	chunks       *prometheus.CounterVec
	retries      prometheus.Counter
	tasks        *prometheus.CounterVec
	bytes        prometheus.Counter
	taskDuration prometheus.Histogram
	active       prometheus.Gauge
}

// MustNewMetrics registers the upload collectors with reg and panics on a
// registration conflict. A nil reg uses the default registerer.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "harbor",
			Subsystem: "upload",
			Name:      "chunks_total",
			Help:      "Chunk send attempts by result.",
		}, []string{"result"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "harbor",
			Subsystem: "upload",
			Name:      "chunk_retries_total",
			Help:      "Chunk sends that were retries of a failed attempt.",
		}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "harbor",
			Subsystem: "upload",
			Name:      "tasks_total",
			Help:      "Upload tasks by outcome.",
		}, []string{"outcome"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "harbor",
			Subsystem: "upload",
			Name:      "bytes_total",
			Help:      "Payload bytes acknowledged by the server.",
		}),
		taskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "harbor",
			Subsystem: "upload",
			Name:      "task_duration_seconds",
			Help:      "Wall time from first chunk to task completion.",
			Buckets:   prometheus.DefBuckets,
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "harbor",
			Subsystem: "upload",
			Name:      "tasks_active",
			Help:      "Tasks currently sending chunks.",
		}),
	}
	reg.MustRegister(m.chunks, m.retries, m.tasks, m.bytes, m.taskDuration, m.active)
	return m
}

func (m *Metrics) chunkSent(n int) {
	if m == nil {
		return
	}
	m.chunks.WithLabelValues("ok").Inc()
	m.bytes.Add(float64(n))
}

func (m *Metrics) chunkFailed(retry bool) {
	if m == nil {
		return
	}
	m.chunks.WithLabelValues("error").Inc()
	if retry {
		m.retries.Inc()
	}
}

func (m *Metrics) taskStarted() {
	if m == nil {
		return
	}
	m.active.Inc()
}

func (m *Metrics) taskFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.active.Dec()
	m.tasks.WithLabelValues(outcome).Inc()
	m.taskDuration.Observe(d.Seconds())
}

func (m *Metrics) taskRejected() {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues("rejected").Inc()
}
