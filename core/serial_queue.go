package core

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"
)

// SerialQueue is a strictly ordered task queue that rides on a shared
// executor instead of owning a goroutine. Tasks submitted to one queue never
// run concurrently with each other; independent queues drain fully in
// parallel across the pool.
//
// The serialization mechanism is a single atomic flag, not a lock: the first
// submitter to flip `scheduled` hands the drain to the target executor, every
// later submitter merely appends work and relies on that pending drain to
// pick it up.
type SerialQueue struct {
	label atomic.Pointer[string]

	// scheduled is true iff a drain is pending or running for this queue,
	// anywhere. The false->true transition is owned by exactly one caller
	// via compare-and-swap.
	scheduled atomic.Bool

	// inbound receives tasks submitted from outside an active drain.
	inbound *FIFOTaskQueue

	// ordered holds the stable batch about to run, plus reentrant
	// submissions. Touched only by the goroutine currently draining.
	ordered []Task

	// drainer is the goroutine id currently draining this queue, 0 when
	// idle. It stands in for the thread-local "draining here" flag: the
	// reentrant fast path is taken exactly when the submitter runs on this
	// goroutine.
	drainer atomic.Int64

	// suspended is a counter; the queue is active iff it is zero.
	suspended atomic.Int32

	// target is the executor drains are handed to. Non-owning; a single
	// global queue is typically the target of many serial queues.
	target atomic.Pointer[Executor]

	collector    atomic.Pointer[MetricsCollector]
	panicHandler PanicHandler

	drainTask Task
}

var _ Queue = (*SerialQueue)(nil)

// NewSerialQueue creates an idle queue with no target. Wire a target with
// SetTarget (or create queues through a Dispatcher, which does the wiring)
// before submitting work.
func NewSerialQueue(label string) *SerialQueue {
	q := &SerialQueue{
		inbound:      NewFIFOTaskQueue(),
		panicHandler: &DefaultPanicHandler{},
	}
	q.label.Store(&label)
	q.storeCollector(InactiveCollector())
	q.drainTask = q.drain
	return q
}

func (q *SerialQueue) Label() string {
	return *q.label.Load()
}

func (q *SerialQueue) SetLabel(label string) {
	q.label.Store(&label)
}

// SetTarget points the queue at the executor its drains are scheduled onto.
// Passing another SerialQueue forms a hierarchy: every drain of this queue
// becomes a task of the parent, recursively down to a pool-backed root.
func (q *SerialQueue) SetTarget(target Executor) {
	if target == nil {
		q.target.Store(nil)
		return
	}
	q.target.Store(&target)
}

func (q *SerialQueue) Target() Executor {
	if p := q.target.Load(); p != nil {
		return *p
	}
	return nil
}

// SetPanicHandler replaces the sink task panics are reported to. It only
// affects drains scheduled after the call.
func (q *SerialQueue) SetPanicHandler(h PanicHandler) {
	if h == nil {
		h = &DefaultPanicHandler{}
	}
	q.panicHandler = h
}

// Execute submits a task. Tasks submitted from the same goroutine run in
// submission order; a task submitted by a task currently running on this
// queue is appended behind the current batch without any synchronization.
func (q *SerialQueue) Execute(task Task) {
	if task == nil {
		panic("hawtdispatch: nil task submitted to queue " + q.Label())
	}
	q.enqueue(q.loadCollector().Track(task))
}

func (q *SerialQueue) enqueue(task Task) {
	// We can take a shortcut...
	if gid := goid.Get(); gid != 0 && gid == q.drainer.Load() {
		q.ordered = append(q.ordered, task)
		return
	}
	q.inbound.Push(task)
	q.trigger()
}

// trigger requests a drain. The compare-and-swap deduplicates concurrent
// requests: whoever wins the false->true transition schedules the drain, the
// losers rely on that drain to pick up their work.
func (q *SerialQueue) trigger() {
	if q.scheduled.CompareAndSwap(false, true) {
		target := q.Target()
		if target == nil {
			panic(fmt.Sprintf("hawtdispatch: serial queue %q has no target executor", q.Label()))
		}
		target.Execute(q.drainTask)
	}
}

// drain is the trampoline body. It is only ever invoked by the target
// executor, never by submitters directly.
func (q *SerialQueue) drain(ctx context.Context) {
	runCtx := withCurrentQueue(ctx, q)
	q.drainer.Store(goid.Get())
	defer q.finishDrain()

	// Import phase: move everything visible in the inbound queue into the
	// ordered batch in one bounded pass.
	q.ordered = q.inbound.DrainInto(q.ordered)

	for {
		if q.IsSuspended() {
			return
		}
		if len(q.ordered) == 0 {
			return
		}
		task := q.ordered[0]
		q.ordered[0] = nil
		q.ordered = q.ordered[1:]
		q.runTask(runCtx, task)
	}
}

// finishDrain always runs on drain exit, including the suspension path. The
// scheduled flag must be cleared before the leftover-work check: a submitter
// whose trigger raced the reset saw scheduled=true and skipped scheduling,
// so the exiting drain is the one obligated to reschedule.
func (q *SerialQueue) finishDrain() {
	if len(q.ordered) == 0 {
		q.ordered = nil
	}
	// ordered can only be non-empty here when suspension cut the drain
	// short; nobody else may touch it until a new drain starts, so the
	// read before the flag reset is exact.
	leftover := len(q.ordered) > 0

	q.drainer.Store(0)
	q.scheduled.Store(false)

	if leftover || !q.inbound.IsEmpty() {
		// While suspended, Resume owns the re-trigger; scheduling here
		// would spin the drain through the pool until resumed.
		if !q.IsSuspended() {
			q.trigger()
		}
	}
}

func (q *SerialQueue) runTask(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			q.panicHandler.HandlePanic(ctx, q.Label(), r, debug.Stack())
		}
	}()
	task(ctx)
}

// =============================================================================
// Suspend / Resume
// =============================================================================

// Suspend pauses execution of queued tasks. It is cooperative: an in-flight
// task runs to completion, remaining tasks stay queued in order. Calls nest;
// each Suspend needs a matching Resume.
func (q *SerialQueue) Suspend() {
	q.suspended.Add(1)
}

// Resume undoes one Suspend. When the count returns to zero the queue
// reschedules itself so queued work continues in the original order.
func (q *SerialQueue) Resume() {
	n := q.suspended.Add(-1)
	if n < 0 {
		panic(fmt.Sprintf("hawtdispatch: Resume without matching Suspend on queue %q", q.Label()))
	}
	if n == 0 {
		q.trigger()
	}
}

func (q *SerialQueue) IsSuspended() bool {
	return q.suspended.Load() > 0
}

// onStartup picks up anything submitted before the queue was wired to its
// target. A freshly created queue with no backlog schedules nothing.
func (q *SerialQueue) onStartup() {
	if !q.inbound.IsEmpty() {
		q.trigger()
	}
}

// =============================================================================
// Execution context assertions
// =============================================================================

// IsExecuting reports whether the calling goroutine is currently draining
// this queue.
func (q *SerialQueue) IsExecuting() bool {
	gid := goid.Get()
	return gid != 0 && gid == q.drainer.Load()
}

// AssertExecuting fails fast when called from outside this queue's drain.
// This guards programming errors, not recoverable runtime conditions.
func (q *SerialQueue) AssertExecuting() {
	if !q.IsExecuting() {
		panic(fmt.Sprintf("hawtdispatch: expected to be executing on queue %q", q.Label()))
	}
}

// =============================================================================
// Hierarchy and dispatcher resolution
// =============================================================================

type dispatcherProvider interface {
	Dispatcher() *Dispatcher
}

// Dispatcher resolves the process-wide dispatcher by walking target
// references to the root. A queue whose chain does not end at a pool-backed
// executor is a wiring error and panics immediately; no retry can fix it.
func (q *SerialQueue) Dispatcher() *Dispatcher {
	target := q.Target()
	if target == nil {
		panic(fmt.Sprintf("hawtdispatch: serial queue %q has no target executor; cannot resolve dispatcher", q.Label()))
	}
	provider, ok := target.(dispatcherProvider)
	if !ok {
		panic(fmt.Sprintf("hawtdispatch: target of serial queue %q is not backed by a dispatcher", q.Label()))
	}
	return provider.Dispatcher()
}

// CreateQueue creates a child queue whose drains are scheduled onto this
// queue, so the child shares this queue's serialization on top of its own.
func (q *SerialQueue) CreateQueue(label string) *SerialQueue {
	child := q.Dispatcher().CreateQueue(label)
	child.SetTarget(q)
	return child
}

// =============================================================================
// Profiling
// =============================================================================

// Profile switches metrics collection on or off. The active collector wraps
// every subsequently submitted task to record wait and run durations; it
// never alters ordering, enqueue decisions, or failure handling.
func (q *SerialQueue) Profile(on bool) {
	if !on && !q.loadCollector().Active() {
		return
	}
	if on {
		q.storeCollector(newActiveCollector(q))
		q.Dispatcher().track(q)
	} else {
		q.Dispatcher().untrack(q)
		q.storeCollector(InactiveCollector())
	}
}

// Metrics returns a snapshot of collected metrics. It reports false while
// profiling is off. Reading a snapshot resets the counters, so successive
// reads describe disjoint intervals.
func (q *SerialQueue) Metrics() (QueueMetrics, bool) {
	return q.loadCollector().Metrics()
}

func (q *SerialQueue) loadCollector() MetricsCollector {
	return *q.collector.Load()
}

func (q *SerialQueue) storeCollector(c MetricsCollector) {
	q.collector.Store(&c)
}

// =============================================================================
// Delayed execution
// =============================================================================

// ExecuteAfter registers task with the dispatcher's timer; when the delay
// elapses the task is submitted to this queue like any external submission.
func (q *SerialQueue) ExecuteAfter(delay time.Duration, task Task) {
	if task == nil {
		panic("hawtdispatch: nil task submitted to queue " + q.Label())
	}
	q.Dispatcher().delayManager.Schedule(task, q, delay)
}

// WaitIdle blocks until every task submitted before the call has completed.
// This is implemented by submitting a barrier task and waiting for it.
//
// Note: tasks submitted after WaitIdle is called are not waited for.
func (q *SerialQueue) WaitIdle(ctx context.Context) error {
	done := make(chan struct{})
	q.Execute(func(context.Context) {
		close(done)
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *SerialQueue) String() string {
	label := q.Label()
	if label == "" {
		return "serial queue"
	}
	return fmt.Sprintf("serial queue { label: %q }", label)
}
