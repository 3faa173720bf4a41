package core

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// delayedTask is a task registered for the future, tagged with the queue it
// is eventually submitted to.
type delayedTask struct {
	runAt  time.Time
	task   Task
	target Executor
	index  int // for heap interface
}

// delayedTaskHeap implements heap.Interface
type delayedTaskHeap []*delayedTask

func (h delayedTaskHeap) Len() int           { return len(h) }
func (h delayedTaskHeap) Less(i, j int) bool { return h[i].runAt.Before(h[j].runAt) }
func (h delayedTaskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *delayedTaskHeap) Push(x any) {
	n := len(*h)
	item := x.(*delayedTask)
	item.index = n
	*h = append(*h, item)
}

func (h *delayedTaskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.index = -1
	*h = old[0 : n-1]
	return item
}

func (h *delayedTaskHeap) Peek() *delayedTask {
	if len(*h) == 0 {
		return nil
	}
	return (*h)[0]
}

// DelayManager is the shared timer facility: one goroutine sleeping until
// the earliest deadline, submitting expired tasks to their target queue
// through Execute, exactly like an external submission.
type DelayManager struct {
	pq     delayedTaskHeap
	mu     sync.Mutex
	wakeup chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

func NewDelayManager() *DelayManager {
	ctx, cancel := context.WithCancel(context.Background())
	dm := &DelayManager{
		pq:     make(delayedTaskHeap, 0),
		wakeup: make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}
	heap.Init(&dm.pq)
	go dm.loop()
	return dm
}

// Schedule registers task to be submitted to target once delay has elapsed.
func (dm *DelayManager) Schedule(task Task, target Executor, delay time.Duration) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	item := &delayedTask{
		runAt:  time.Now().Add(delay),
		task:   task,
		target: target,
	}
	heap.Push(&dm.pq, item)

	if item.index == 0 {
		select {
		case dm.wakeup <- struct{}{}:
		default:
		}
	}
}

func (dm *DelayManager) loop() {
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		// Calculate next run time
		nextRun, ok := dm.calculateNextRun()
		if !ok {
			// No tasks, wait indefinitely
			nextRun = 1000 * time.Hour
		}

		timer.Reset(nextRun)

		select {
		case <-dm.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			// Timer fired, process all expired tasks in one go
			dm.processExpiredTasks()
		case <-dm.wakeup:
			// New task added, need to recalculate
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
	}
}

// calculateNextRun determines how long to wait until the next task. The
// second result is false when nothing is registered. An already-expired head
// yields a minimal wait so the timer fires right away.
func (dm *DelayManager) calculateNextRun() (time.Duration, bool) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	item := dm.pq.Peek()
	if item == nil {
		return 0, false
	}

	now := time.Now()
	if item.runAt.Before(now) {
		return time.Nanosecond, true
	}
	return item.runAt.Sub(now), true
}

// processExpiredTasks submits every expired task to its target queue.
func (dm *DelayManager) processExpiredTasks() {
	dm.mu.Lock()

	now := time.Now()
	// Collect all expired tasks to avoid holding lock while submitting
	var expired []*delayedTask

	for dm.pq.Len() > 0 {
		item := dm.pq.Peek()
		if item.runAt.After(now) {
			break // No more expired tasks
		}
		heap.Pop(&dm.pq)
		expired = append(expired, item)
	}

	dm.mu.Unlock()

	// Submit expired tasks outside the lock
	for _, item := range expired {
		item.target.Execute(item.task)
	}
}

func (dm *DelayManager) Stop() {
	dm.cancel()

	// Clear pq to release all queue references
	dm.mu.Lock()
	dm.pq = make(delayedTaskHeap, 0)
	heap.Init(&dm.pq)
	dm.mu.Unlock()
}

func (dm *DelayManager) TaskCount() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return len(dm.pq)
}
