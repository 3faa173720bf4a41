package core

import (
	"fmt"
	"sync/atomic"
	"time"
)

// GlobalQueue is the pool-backed executor at the root of every queue
// hierarchy. It applies no ordering of its own: tasks run on whichever
// worker pulls them first, which is exactly what lets independent serial
// queues drain in parallel.
type GlobalQueue struct {
	dispatcher *Dispatcher
	priority   Priority
	label      atomic.Pointer[string]
	collector  atomic.Pointer[MetricsCollector]
}

var _ Queue = (*GlobalQueue)(nil)

func newGlobalQueue(d *Dispatcher, priority Priority) *GlobalQueue {
	q := &GlobalQueue{
		dispatcher: d,
		priority:   priority,
	}
	label := fmt.Sprintf("global:%s", priority)
	q.label.Store(&label)
	q.storeCollector(InactiveCollector())
	return q
}

func (q *GlobalQueue) Label() string {
	return *q.label.Load()
}

func (q *GlobalQueue) SetLabel(label string) {
	q.label.Store(&label)
}

func (q *GlobalQueue) Priority() Priority {
	return q.priority
}

// Execute hands the task to the shared pool. It runs as soon as a worker is
// free, concurrently with anything else the pool is running.
func (q *GlobalQueue) Execute(task Task) {
	if task == nil {
		panic("hawtdispatch: nil task submitted to queue " + q.Label())
	}
	q.dispatcher.pool.PostInternal(q.loadCollector().Track(task), q.priority)
}

// ExecuteAfter registers task with the shared timer; on expiry it is posted
// to the pool like any other submission.
func (q *GlobalQueue) ExecuteAfter(delay time.Duration, task Task) {
	if task == nil {
		panic("hawtdispatch: nil task submitted to queue " + q.Label())
	}
	q.dispatcher.delayManager.Schedule(task, q, delay)
}

// Dispatcher returns the owning dispatcher. Serial queues resolve timers and
// registries by walking their target chain down to this.
func (q *GlobalQueue) Dispatcher() *Dispatcher {
	return q.dispatcher
}

// Profile switches metrics collection for tasks submitted directly to this
// global queue (serial drains included).
func (q *GlobalQueue) Profile(on bool) {
	if !on && !q.loadCollector().Active() {
		return
	}
	if on {
		q.storeCollector(newActiveCollector(q))
		q.dispatcher.track(q)
	} else {
		q.dispatcher.untrack(q)
		q.storeCollector(InactiveCollector())
	}
}

// Metrics returns the profiling snapshot; false while profiling is off.
func (q *GlobalQueue) Metrics() (QueueMetrics, bool) {
	return q.loadCollector().Metrics()
}

func (q *GlobalQueue) loadCollector() MetricsCollector {
	return *q.collector.Load()
}

func (q *GlobalQueue) storeCollector(c MetricsCollector) {
	q.collector.Store(&c)
}

func (q *GlobalQueue) String() string {
	return fmt.Sprintf("global queue { priority: %s }", q.priority)
}
