package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// drop reasons used as the "reason" label
const (
	dropReasonStopping = "stopping"
	dropReasonBusy     = "busy"
	dropReasonInvalid  = "invalid"
)

// task outcomes used as the "outcome" label
const (
	outcomeOK    = "ok"
	outcomePanic = "panic"
)

// Metrics holds Prometheus collectors shared by any number of workers.
// Every series carries a "worker" label with the worker name.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	posted       *prometheus.CounterVec
	dropped      *prometheus.CounterVec
	executed     *prometheus.CounterVec
	discarded    *prometheus.CounterVec
	queueDepth   *prometheus.GaugeVec
	taskDuration *prometheus.HistogramVec
	liveWorkers  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		posted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "tasks_posted_total",
			Help:      "Total number of tasks appended to a worker queue",
		}, []string{"worker"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "tasks_dropped_total",
			Help:      "Total number of submissions that were not enqueued",
		}, []string{"worker", "reason"}),
		executed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "tasks_executed_total",
			Help:      "Total number of task bodies run by a worker",
		}, []string{"worker", "outcome"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "tasks_discarded_total",
			Help:      "Total number of queued tasks destroyed unexecuted at release",
		}, []string{"worker"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "queue_depth",
			Help:      "Current number of tasks waiting in a worker queue",
		}, []string{"worker"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "task_duration_seconds",
			Help:      "Histogram of task body execution time",
			Buckets:   prometheus.DefBuckets,
		}, []string{"worker"}),
		liveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "live",
			Help:      "Current number of workers that have not destroyed themselves",
		}),
	}

	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// MustNewMetrics is like NewMetrics but panics on registration failure
func MustNewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m, err := NewMetrics(namespace, reg)
	if err != nil {
		panic(err)
	}
	return m
}

// Collectors returns every collector owned by m
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.posted,
		m.dropped,
		m.executed,
		m.discarded,
		m.queueDepth,
		m.taskDuration,
		m.liveWorkers,
	}
}

func (m *Metrics) workerStarted() {
	if m == nil {
		return
	}
	m.liveWorkers.Inc()
}

func (m *Metrics) workerDestroyed(worker string, discarded int) {
	if m == nil {
		return
	}
	m.liveWorkers.Dec()
	if discarded > 0 {
		m.discarded.WithLabelValues(worker).Add(float64(discarded))
	}
	m.queueDepth.DeleteLabelValues(worker)
}

func (m *Metrics) taskPosted(worker string, depth int) {
	if m == nil {
		return
	}
	m.posted.WithLabelValues(worker).Inc()
	m.queueDepth.WithLabelValues(worker).Set(float64(depth))
}

func (m *Metrics) taskDropped(worker, reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(worker, reason).Inc()
}

func (m *Metrics) taskDequeued(worker string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(worker).Set(float64(depth))
}

func (m *Metrics) taskFinished(worker string, elapsed time.Duration, failed bool) {
	if m == nil {
		return
	}
	outcome := outcomeOK
	if failed {
		outcome = outcomePanic
	}
	m.executed.WithLabelValues(worker, outcome).Inc()
	m.taskDuration.WithLabelValues(worker).Observe(elapsed.Seconds())
}
