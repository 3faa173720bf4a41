package core

import (
	"sync"
	"time"
)

// metricsSource is anything the profiling registry can snapshot.
type metricsSource interface {
	Metrics() (QueueMetrics, bool)
}

// Dispatcher is the process-wide context queues hang off: the shared pool,
// the timer facility, the three global queues, and the registry of profiled
// queues. It owns none of the queues created through it; a queue is simply
// garbage once nothing references it.
type Dispatcher struct {
	label        string
	config       *Config
	pool         ThreadPool
	delayManager *DelayManager
	globals      [3]*GlobalQueue

	mu       sync.Mutex
	profiled []metricsSource

	logger       Logger
	panicHandler PanicHandler
}

// NewDispatcher builds a dispatcher on top of an already running pool. The
// pool is borrowed, not owned: stopping it remains the caller's job.
func NewDispatcher(pool ThreadPool, config *Config) *Dispatcher {
	config = config.withDefaults()
	d := &Dispatcher{
		label:        config.Label,
		config:       config,
		pool:         pool,
		delayManager: NewDelayManager(),
		logger:       config.Logger,
		panicHandler: config.PanicHandler,
	}
	for _, p := range []Priority{PriorityLow, PriorityDefault, PriorityHigh} {
		d.globals[p] = newGlobalQueue(d, p)
	}
	return d
}

func (d *Dispatcher) Label() string {
	return d.label
}

// Pool returns the shared thread pool backing the global queues.
func (d *Dispatcher) Pool() ThreadPool {
	return d.pool
}

// Logger returns the dispatcher's diagnostic logger.
func (d *Dispatcher) Logger() Logger {
	return d.logger
}

// CreateQueue creates a serial queue targeted at the default global queue
// and activates it. The returned queue is ready for Execute immediately.
func (d *Dispatcher) CreateQueue(label string) *SerialQueue {
	q := NewSerialQueue(label)
	q.SetPanicHandler(d.panicHandler)
	q.SetTarget(d.GlobalQueue(PriorityDefault))
	if d.config.Profile {
		q.Profile(true)
	}
	q.onStartup()
	return q
}

// GlobalQueue returns the pool-backed queue for the given priority.
func (d *Dispatcher) GlobalQueue(priority Priority) *GlobalQueue {
	if priority < PriorityLow || priority > PriorityHigh {
		priority = PriorityDefault
	}
	return d.globals[priority]
}

// ExecuteAfter registers task with the shared timer, tagged with the queue
// it is submitted to when the delay elapses.
func (d *Dispatcher) ExecuteAfter(delay time.Duration, task Task, target Executor) {
	d.delayManager.Schedule(task, target, delay)
}

// DelayedTaskCount reports how many tasks are waiting on the timer.
func (d *Dispatcher) DelayedTaskCount() int {
	return d.delayManager.TaskCount()
}

func (d *Dispatcher) track(src metricsSource) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.profiled {
		if s == src {
			return
		}
	}
	d.profiled = append(d.profiled, src)
}

func (d *Dispatcher) untrack(src metricsSource) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, s := range d.profiled {
		if s == src {
			d.profiled = append(d.profiled[:i], d.profiled[i+1:]...)
			return
		}
	}
}

// Metrics snapshots every profiled queue, in registration order. Each
// snapshot resets the queue's counters, so polling yields per-interval data.
func (d *Dispatcher) Metrics() []QueueMetrics {
	d.mu.Lock()
	sources := make([]metricsSource, len(d.profiled))
	copy(sources, d.profiled)
	d.mu.Unlock()

	out := make([]QueueMetrics, 0, len(sources))
	for _, src := range sources {
		if m, ok := src.Metrics(); ok {
			out = append(out, m)
		}
	}
	return out
}

// Shutdown stops the timer facility and drops the profiling registry. The
// pool is not touched; its owner stops it.
func (d *Dispatcher) Shutdown() {
	d.delayManager.Stop()

	d.mu.Lock()
	d.profiled = nil
	d.mu.Unlock()
}
