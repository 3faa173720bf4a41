package core

import (
	"context"
	"sync/atomic"
	"time"
)

// QueueMetrics is an immutable snapshot of a profiled queue's activity since
// the previous snapshot was taken.
type QueueMetrics struct {
	// Label of the queue the metrics were collected on.
	Label string

	// Enqueued counts tasks submitted during the interval.
	Enqueued int64

	// Dequeued counts tasks that finished executing during the interval.
	Dequeued int64

	// TotalWaitTime is the accumulated time tasks spent queued before
	// starting; MaxWaitTime is the largest single wait.
	TotalWaitTime time.Duration
	MaxWaitTime   time.Duration

	// TotalRunTime is the accumulated task execution time; MaxRunTime is
	// the longest single execution.
	TotalRunTime time.Duration
	MaxRunTime   time.Duration
}

// MetricsCollector wraps submitted tasks to measure them. Implementations
// are transparent decorators: they must never change task ordering, enqueue
// decisions, or failure semantics.
type MetricsCollector interface {
	// Track wraps a task for measurement. The inactive collector returns
	// the task unchanged.
	Track(task Task) Task

	// Metrics returns a snapshot and resets the counters. The second
	// result is false when the collector does not measure anything.
	Metrics() (QueueMetrics, bool)

	// Active reports whether this collector instruments tasks.
	Active() bool
}

// =============================================================================
// Inactive collector
// =============================================================================

type inactiveMetricsCollector struct{}

var inactiveCollector MetricsCollector = inactiveMetricsCollector{}

// InactiveCollector returns the shared no-op collector.
func InactiveCollector() MetricsCollector {
	return inactiveCollector
}

func (inactiveMetricsCollector) Track(task Task) Task         { return task }
func (inactiveMetricsCollector) Metrics() (QueueMetrics, bool) { return QueueMetrics{}, false }
func (inactiveMetricsCollector) Active() bool                  { return false }

// =============================================================================
// Active collector
// =============================================================================

type activeMetricsCollector struct {
	queue Queue

	enqueued atomic.Int64
	dequeued atomic.Int64

	// durations in nanoseconds
	totalWait atomic.Int64
	maxWait   atomic.Int64
	totalRun  atomic.Int64
	maxRun    atomic.Int64
}

func newActiveCollector(queue Queue) MetricsCollector {
	return &activeMetricsCollector{queue: queue}
}

func (c *activeMetricsCollector) Active() bool { return true }

// Track records the enqueue time and returns a wrapper measuring wait and
// run durations. The run duration lands in the counters even when the task
// panics; the panic continues to propagate to the queue's panic handler.
func (c *activeMetricsCollector) Track(task Task) Task {
	c.enqueued.Add(1)
	enqueuedAt := time.Now()

	return func(ctx context.Context) {
		start := time.Now()
		wait := int64(start.Sub(enqueuedAt))
		c.totalWait.Add(wait)
		storeMax(&c.maxWait, wait)

		defer func() {
			run := int64(time.Since(start))
			c.totalRun.Add(run)
			storeMax(&c.maxRun, run)
			c.dequeued.Add(1)
		}()

		task(ctx)
	}
}

func (c *activeMetricsCollector) Metrics() (QueueMetrics, bool) {
	return QueueMetrics{
		Label:         c.queue.Label(),
		Enqueued:      c.enqueued.Swap(0),
		Dequeued:      c.dequeued.Swap(0),
		TotalWaitTime: time.Duration(c.totalWait.Swap(0)),
		MaxWaitTime:   time.Duration(c.maxWait.Swap(0)),
		TotalRunTime:  time.Duration(c.totalRun.Swap(0)),
		MaxRunTime:    time.Duration(c.maxRun.Swap(0)),
	}, true
}

func storeMax(a *atomic.Int64, v int64) {
	for {
		cur := a.Load()
		if v <= cur {
			return
		}
		if a.CompareAndSwap(cur, v) {
			return
		}
	}
}
