package core

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"
)

const pinnedQueueBuffer = 100

// PinnedQueue binds a dedicated goroutine to execute tasks sequentially.
// Unlike SerialQueue, which serializes on top of the shared pool, every task
// submitted here runs on the same goroutine (affinity).
//
// Use cases:
// 1. Blocking IO that would otherwise tie up pool workers
// 2. CGO calls that require thread-local state
// 3. A root executor for serial queue hierarchies that must not share the pool
//
// A PinnedQueue is not backed by a dispatcher, so serial queues targeted at
// one cannot resolve the shared timer; use ExecuteAfter on the pinned queue
// itself for delayed work.
type PinnedQueue struct {
	label atomic.Pointer[string]

	// Task queue: buffered channel consumed by the dedicated goroutine
	workQueue chan Task

	// Lifecycle control
	ctx    context.Context
	cancel context.CancelFunc

	stopped      chan struct{}
	closed       atomic.Bool
	shutdownOnce sync.Once

	// gid of the dedicated goroutine, for execution assertions
	gid atomic.Int64

	panicHandler PanicHandler
}

var _ Queue = (*PinnedQueue)(nil)

// NewPinnedQueue creates the queue and immediately spawns its goroutine.
func NewPinnedQueue(label string) *PinnedQueue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &PinnedQueue{
		workQueue:    make(chan Task, pinnedQueueBuffer),
		ctx:          ctx,
		cancel:       cancel,
		stopped:      make(chan struct{}),
		panicHandler: &DefaultPanicHandler{},
	}
	q.label.Store(&label)

	go q.runLoop()

	return q
}

func (q *PinnedQueue) Label() string {
	return *q.label.Load()
}

func (q *PinnedQueue) SetLabel(label string) {
	q.label.Store(&label)
}

// SetPanicHandler replaces the sink task panics are reported to.
func (q *PinnedQueue) SetPanicHandler(h PanicHandler) {
	if h == nil {
		h = &DefaultPanicHandler{}
	}
	q.panicHandler = h
}

func (q *PinnedQueue) runLoop() {
	q.gid.Store(goid.Get())
	defer close(q.stopped)

	runCtx := withCurrentQueue(q.ctx, q)

	for {
		select {
		case <-q.ctx.Done():
			return
		case task := <-q.workQueue:
			q.runTask(runCtx, task)
		}
	}
}

func (q *PinnedQueue) runTask(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			q.panicHandler.HandlePanic(ctx, q.Label(), r, debug.Stack())
		}
	}()
	task(ctx)
}

// Execute submits a task to the dedicated goroutine. Tasks run in submission
// order. Submissions after Shutdown are dropped.
func (q *PinnedQueue) Execute(task Task) {
	if task == nil {
		panic("hawtdispatch: nil task submitted to queue " + q.Label())
	}
	if q.closed.Load() {
		return
	}

	select {
	case <-q.ctx.Done():
		// Queue stopped, drop task
	case q.workQueue <- task:
	}
}

// ExecuteAfter submits task after delay. The timer is independent of any
// dispatcher, so delayed IO work is unaffected by pool load.
func (q *PinnedQueue) ExecuteAfter(delay time.Duration, task Task) {
	if task == nil {
		panic("hawtdispatch: nil task submitted to queue " + q.Label())
	}
	if q.closed.Load() {
		return
	}

	time.AfterFunc(delay, func() {
		q.Execute(task)
	})
}

// IsExecuting reports whether the caller is on the dedicated goroutine.
func (q *PinnedQueue) IsExecuting() bool {
	return goid.Get() == q.gid.Load()
}

// AssertExecuting fails fast when called from any other goroutine.
func (q *PinnedQueue) AssertExecuting() {
	if !q.IsExecuting() {
		panic(fmt.Sprintf("hawtdispatch: expected to be executing on queue %q", q.Label()))
	}
}

// WaitIdle blocks until every task submitted before the call has completed.
func (q *PinnedQueue) WaitIdle(ctx context.Context) error {
	if q.closed.Load() {
		return fmt.Errorf("queue %q is shut down", q.Label())
	}

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

// Shutdown stops the dedicated goroutine. Queued but unstarted tasks are
// dropped; the in-flight task finishes. Safe to call more than once.
func (q *PinnedQueue) Shutdown() {
	q.shutdownOnce.Do(func() {
		q.closed.Store(true)
		q.cancel()
		<-q.stopped
	})
}

func (q *PinnedQueue) IsClosed() bool {
	return q.closed.Load()
}

func (q *PinnedQueue) String() string {
	return fmt.Sprintf("pinned queue { label: %q }", q.Label())
}
