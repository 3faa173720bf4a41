package core

import (
	"fmt"
	"sync/atomic"
	"time"
)

// ThreadPool is what the core schedules drains onto: the root executor of
// every queue hierarchy. The root package provides the goroutine-backed
// implementation.
type ThreadPool interface {
	PostInternal(task Task, priority Priority)

	ID() string
	IsRunning() bool

	WorkerCount() int
	QueuedTaskCount() int // In queue
	ActiveTaskCount() int // Executing
}

// TaskScheduler is the work source shared by the pool workers: a stable
// priority queue plus a wakeup signal. Priorities order whole drains against
// each other, never tasks within one serial queue.
type TaskScheduler struct {
	queue       *PriorityTaskQueue
	signal      chan struct{}
	workerCount int

	metricQueued int32 // Waiting in ReadyQueue
	metricActive int32 // Executing in Worker

	panicHandler PanicHandler
	logger       Logger

	// Lifecycle
	shuttingDown int32 // atomic flag
}

func NewTaskScheduler(workerCount int) *TaskScheduler {
	return NewTaskSchedulerWithConfig(workerCount, DefaultConfig())
}

func NewTaskSchedulerWithConfig(workerCount int, config *Config) *TaskScheduler {
	config = config.withDefaults()
	return &TaskScheduler{
		queue:        NewPriorityTaskQueue(),
		signal:       make(chan struct{}, workerCount*2),
		workerCount:  workerCount,
		panicHandler: config.PanicHandler,
		logger:       config.Logger,
	}
}

// Post enqueues a task for the next free worker.
func (s *TaskScheduler) Post(task Task, priority Priority) {
	// If shutting down, drop new work
	if atomic.LoadInt32(&s.shuttingDown) == 1 {
		s.logger.Warn("task rejected", F("reason", "shutting down"))
		return
	}

	s.queue.Push(task, priority)
	atomic.AddInt32(&s.metricQueued, 1) // Metric++

	select {
	case s.signal <- struct{}{}:
	default:
		// Signal channel full, but task is already queued
	}
}

// GetWork (Called by Worker)
func (s *TaskScheduler) GetWork(stopCh <-chan struct{}) (Task, bool) {
	for {
		// Try to pop one task
		if task, ok := s.queue.Pop(); ok {
			atomic.AddInt32(&s.metricQueued, -1) // Metric-- (Left Queue)
			return task, true
		}

		select {
		case <-s.signal:
			continue
		case <-stopCh:
			return nil, false
		}
	}
}

func (s *TaskScheduler) Shutdown() {
	// 1. Mark as shutting down to stop accepting new tasks
	atomic.StoreInt32(&s.shuttingDown, 1)

	// 2. Clear queue to release all task references (including drain bound methods)
	s.queue.Clear()
}

// ShutdownGraceful waits for all queued and active tasks to complete
// Returns error if timeout is exceeded before tasks complete
func (s *TaskScheduler) ShutdownGraceful(timeout time.Duration) error {
	// 1. Mark as shutting down to stop accepting new tasks
	atomic.StoreInt32(&s.shuttingDown, 1)

	// 2. Wait for the queue to drain and active tasks to complete
	deadline := time.After(timeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			// Timeout exceeded, force clear the remaining queue
			s.queue.Clear()
			return fmt.Errorf("shutdown graceful timeout after %v, forced clearing", timeout)
		case <-ticker.C:
			// Check if all work is done
			if s.QueuedTaskCount() == 0 && s.ActiveTaskCount() == 0 {
				return nil
			}
		}
	}
}

// Metrics
func (s *TaskScheduler) WorkerCount() int     { return s.workerCount }
func (s *TaskScheduler) QueuedTaskCount() int { return int(atomic.LoadInt32(&s.metricQueued)) }
func (s *TaskScheduler) ActiveTaskCount() int { return int(atomic.LoadInt32(&s.metricActive)) }

func (s *TaskScheduler) OnTaskStart() {
	atomic.AddInt32(&s.metricActive, 1)
}

func (s *TaskScheduler) OnTaskEnd() {
	atomic.AddInt32(&s.metricActive, -1)
}

// GetPanicHandler returns the panic handler for this scheduler
func (s *TaskScheduler) GetPanicHandler() PanicHandler {
	return s.panicHandler
}

// GetLogger returns the logger for this scheduler
func (s *TaskScheduler) GetLogger() Logger {
	return s.logger
}
