package worker

import (
	"sync"
	"testing"
	"time"

	"github.com/jzx17/servicethread/internal/testutils"
	"github.com/jzx17/servicethread/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := NewMetrics("svc", reg)
	require.NoError(t, err)
	assert.Len(t, m.Collectors(), 7)

	// the same names cannot be registered twice
	_, err = NewMetrics("svc", reg)
	assert.Error(t, err)
	assert.Panics(t, func() { MustNewMetrics("svc", reg) })

	// a different namespace is fine
	assert.NotPanics(t, func() { MustNewMetrics("other", reg) })
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.workerStarted()
		m.taskPosted("w", 1)
		m.taskDropped("w", dropReasonBusy)
		m.taskDequeued("w", 0)
		m.taskFinished("w", time.Millisecond, false)
		m.workerDestroyed("w", 3)
	})
}

func TestWorker_Metrics(t *testing.T) {
	m, err := NewMetrics("svc", prometheus.NewRegistry())
	require.NoError(t, err)

	w := newTestWorker(t, func(c *Config) {
		c.Name = "metered"
		c.Metrics = m
	})
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.liveWorkers))

	gate := blockWorker(t, w)
	require.True(t, w.Post(func() {}))
	require.True(t, w.Post(func() {}))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(m.queueDepth.WithLabelValues("metered")))

	w.mu.Lock()
	assert.Equal(t, types.PostLockBusy, w.TryPost(func() {}))
	w.mu.Unlock()

	w.Release()
	assert.False(t, w.Post(func() {}))

	gate.Open()
	testutils.RequireClosed(t, w.Done(), waitTimeout)

	assert.Equal(t, 3.0, promtestutil.ToFloat64(m.posted.WithLabelValues("metered")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.dropped.WithLabelValues("metered", dropReasonStopping)))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.dropped.WithLabelValues("metered", dropReasonBusy)))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.executed.WithLabelValues("metered", outcomeOK)))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(m.discarded.WithLabelValues("metered")))
	assert.Equal(t, 0.0, promtestutil.ToFloat64(m.liveWorkers))
	assert.Equal(t, 1, promtestutil.CollectAndCount(m.taskDuration))

	// the queue depth series goes away with the worker
	assert.Equal(t, 0, promtestutil.CollectAndCount(m.queueDepth))
}

func TestWorker_MetricsPanicOutcome(t *testing.T) {
	m, err := NewMetrics("svc", prometheus.NewRegistry())
	require.NoError(t, err)

	w := newTestWorker(t, func(c *Config) {
		c.Name = "panicky"
		c.Metrics = m
	})

	require.True(t, w.Post(func() { panic("boom") }))
	w.ReleaseAfterWork()
	testutils.RequireClosed(t, w.Done(), waitTimeout)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.executed.WithLabelValues("panicky", outcomePanic)))
	assert.Equal(t, 0.0, promtestutil.ToFloat64(m.executed.WithLabelValues("panicky", outcomeOK)))
}

func TestWorker_MetricsQueueDepthMatchesQueue(t *testing.T) {
	m, err := NewMetrics("svc", prometheus.NewRegistry())
	require.NoError(t, err)

	w := newTestWorker(t, func(c *Config) {
		c.Name = "depth"
		c.Metrics = m
	})
	depth := m.queueDepth.WithLabelValues("depth")

	stop := make(chan struct{})
	var producers sync.WaitGroup
	for p := 0; p < 2; p++ {
		producers.Add(1)
		go func() {
			defer producers.Done()
			for {
				select {
				case <-stop:
					return
				default:
					w.Post(func() {})
				}
			}
		}()
	}

	// whoever holds the queue lock sees a gauge that agrees with the queue
	for i := 0; i < 2000; i++ {
		w.mu.Lock()
		want := float64(w.queue.len())
		got := promtestutil.ToFloat64(depth)
		w.mu.Unlock()
		if !assert.Equal(t, want, got, "sample %d", i) {
			break
		}
	}

	close(stop)
	producers.Wait()
}

func TestMetrics_SharedAcrossWorkers(t *testing.T) {
	m, err := NewMetrics("svc", prometheus.NewRegistry())
	require.NoError(t, err)

	names := []string{"a", "b", "c"}
	workers := make([]*Worker, 0, len(names))
	for _, name := range names {
		name := name
		workers = append(workers, newTestWorker(t, func(c *Config) {
			c.Name = name
			c.Metrics = m
		}))
	}
	assert.Equal(t, 3.0, promtestutil.ToFloat64(m.liveWorkers))

	for _, w := range workers {
		require.True(t, w.Post(func() {}))
		w.ReleaseAfterWork()
		testutils.RequireClosed(t, w.Done(), waitTimeout)
	}

	assert.Equal(t, 0.0, promtestutil.ToFloat64(m.liveWorkers))
	assert.Equal(t, 3, promtestutil.CollectAndCount(m.posted))
}
