package queue

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 按 queue/job 计数。nil *Metrics 不记录任何东西
type Metrics struct {
	enqueued  *prometheus.CounterVec
	completed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	dead      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	labels := []string{"queue", "job"}
	m := &Metrics{
		enqueued:  prometheus.NewCounterVec(prometheus.CounterOpts{Name: "jobs_enqueued_total", Help: "Jobs accepted by the broker."}, labels),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "jobs_completed_total", Help: "Jobs whose handler succeeded."}, labels),
		failed:    prometheus.NewCounterVec(prometheus.CounterOpts{Name: "jobs_failed_total", Help: "Handler invocations that returned an error."}, labels),
		dead:      prometheus.NewCounterVec(prometheus.CounterOpts{Name: "jobs_dead_total", Help: "Jobs parked after exhausting attempts."}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Handler latency.",
			Buckets: prometheus.DefBuckets,
		}, labels),
	}
	if reg != nil {
		reg.MustRegister(m.enqueued, m.completed, m.failed, m.dead, m.duration)
	}
	return m
}

func (m *Metrics) incEnqueued(queue, name string) {
	if m != nil {
		m.enqueued.WithLabelValues(queue, name).Inc()
	}
}

func (m *Metrics) incDead(job *Job) {
	if m != nil {
		m.dead.WithLabelValues(job.Queue, job.Name).Inc()
	}
}

func (m *Metrics) observe(job *Job, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(job.Queue, job.Name).Observe(d.Seconds())
	if err != nil {
		m.failed.WithLabelValues(job.Queue, job.Name).Inc()
		return
	}
	m.completed.WithLabelValues(job.Queue, job.Name).Inc()
}
