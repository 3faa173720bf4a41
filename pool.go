package hawtdispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Vivek89/hawtdispatch/core"
)

// GoroutinePool manages the set of worker goroutines backing the global
// queues. Workers pull tasks from the scheduler and execute them; they never
// know or care whether a task is a user task or a serial queue's drain.
type GoroutinePool struct {
	id        string
	workers   int
	scheduler *core.TaskScheduler
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	runningMu sync.RWMutex
}

var _ core.ThreadPool = (*GoroutinePool)(nil)

// NewGoroutinePool creates a pool with default configuration.
func NewGoroutinePool(id string, workers int) *GoroutinePool {
	return NewGoroutinePoolWithConfig(id, workers, core.DefaultConfig())
}

func NewGoroutinePoolWithConfig(id string, workers int, config *core.Config) *GoroutinePool {
	return &GoroutinePool{
		id:        id,
		workers:   workers,
		scheduler: core.NewTaskSchedulerWithConfig(workers, config),
	}
}

// Start starts all worker goroutines
func (tg *GoroutinePool) Start(ctx context.Context) {
	tg.runningMu.Lock()
	defer tg.runningMu.Unlock()

	if tg.running {
		return // Already running
	}

	tg.ctx, tg.cancel = context.WithCancel(ctx)
	tg.running = true

	for i := 0; i < tg.workers; i++ {
		tg.wg.Add(1)
		go tg.workerLoop(i, tg.ctx)
	}
}

// Stop stops the pool and drops queued work.
func (tg *GoroutinePool) Stop() {
	// Always shutdown the scheduler to release queued task references,
	// even if the pool was never started
	tg.scheduler.Shutdown()

	tg.runningMu.Lock()
	if !tg.running {
		tg.runningMu.Unlock()
		return
	}
	tg.runningMu.Unlock()

	if tg.cancel != nil {
		tg.cancel()
	}
	tg.Join()

	tg.runningMu.Lock()
	tg.running = false
	tg.runningMu.Unlock()
}

// StopGraceful stops the pool, waiting for queued tasks to complete.
// Returns error if timeout is exceeded before tasks complete.
func (tg *GoroutinePool) StopGraceful(timeout time.Duration) error {
	tg.runningMu.Lock()
	if !tg.running {
		// Not running, nothing to do
		tg.runningMu.Unlock()
		return nil
	}
	tg.runningMu.Unlock()

	// First, gracefully shutdown the scheduler (waits for the queue to drain)
	if err := tg.scheduler.ShutdownGraceful(timeout); err != nil {
		// Timeout occurred, but we still need to cancel workers
		if tg.cancel != nil {
			tg.cancel()
		}
		tg.Join()

		tg.runningMu.Lock()
		tg.running = false
		tg.runningMu.Unlock()

		return err
	}

	// Scheduler drained successfully, now cancel workers
	if tg.cancel != nil {
		tg.cancel()
	}
	tg.Join()

	tg.runningMu.Lock()
	tg.running = false
	tg.runningMu.Unlock()

	return nil
}

// ID returns the ID of the pool
func (tg *GoroutinePool) ID() string {
	return tg.id
}

// IsRunning returns whether the pool is running
func (tg *GoroutinePool) IsRunning() bool {
	tg.runningMu.RLock()
	defer tg.runningMu.RUnlock()
	return tg.running
}

// workerLoop is the main loop for each worker
func (tg *GoroutinePool) workerLoop(id int, ctx context.Context) {
	defer tg.wg.Done()
	stopCh := ctx.Done()
	label := fmt.Sprintf("%s#worker-%d", tg.id, id)
	panicHandler := tg.scheduler.GetPanicHandler()

	for {
		task, ok := tg.scheduler.GetWork(stopCh)
		if !ok {
			// Scheduler closed or context canceled
			return
		}

		tg.scheduler.OnTaskStart()

		// Execute task and capture panic. Serial drains recover their own
		// task panics; this guards tasks posted straight to global queues.
		func() {
			defer func() {
				tg.scheduler.OnTaskEnd()
				if r := recover(); r != nil {
					panicHandler.HandlePanic(ctx, label, r, debug.Stack())
				}
			}()
			task(ctx)
		}()
	}
}

// Join waits for all worker goroutines to finish
func (tg *GoroutinePool) Join() {
	tg.wg.Wait()
}

// WorkerCount returns the number of workers
func (tg *GoroutinePool) WorkerCount() int {
	return tg.workers
}

func (tg *GoroutinePool) QueuedTaskCount() int {
	return tg.scheduler.QueuedTaskCount()
}

func (tg *GoroutinePool) ActiveTaskCount() int {
	return tg.scheduler.ActiveTaskCount()
}

func (tg *GoroutinePool) PostInternal(task core.Task, priority core.Priority) {
	tg.scheduler.Post(task, priority)
}

// =============================================================================
// Global Dispatcher Helper (Singleton)
// =============================================================================

var (
	globalDispatcher *core.Dispatcher
	globalPool       *GoroutinePool
	globalMu         sync.Mutex
)

// Init initializes the process-wide dispatcher with the given number of pool
// workers and starts the pool immediately.
func Init(workers int) {
	config := core.DefaultConfig()
	config.Workers = workers
	InitWithConfig(config)
}

// InitWithConfig initializes the process-wide dispatcher. Calling it again
// without Shutdown is a no-op.
func InitWithConfig(config *core.Config) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalDispatcher != nil {
		return // Already initialized
	}

	config = normalizeConfig(config)
	globalPool = NewGoroutinePoolWithConfig(config.Label+"-pool", config.Workers, config)
	globalPool.Start(context.Background())
	globalDispatcher = core.NewDispatcher(globalPool, config)
}

func normalizeConfig(config *core.Config) *core.Config {
	if config == nil {
		config = core.DefaultConfig()
	}
	if config.Label == "" {
		config.Label = "hawtdispatch"
	}
	if config.Workers <= 0 {
		config.Workers = core.DefaultConfig().Workers
	}
	return config
}

// Get returns the process-wide dispatcher.
// It panics if Init has not been called.
func Get() *core.Dispatcher {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalDispatcher == nil {
		panic("hawtdispatch: dispatcher not initialized. Call Init() first.")
	}
	return globalDispatcher
}

// Shutdown stops the process-wide dispatcher and its pool.
func Shutdown() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalDispatcher != nil {
		globalDispatcher.Shutdown()
		globalDispatcher = nil
	}
	if globalPool != nil {
		globalPool.Stop()
		globalPool = nil
	}
}

// CreateQueue creates a new serial queue backed by the process-wide
// dispatcher. This is the recommended way to get a queue.
func CreateQueue(label string) *core.SerialQueue {
	return Get().CreateQueue(label)
}

// GetGlobalQueue returns the pool-backed queue for the given priority.
func GetGlobalQueue(priority core.Priority) *core.GlobalQueue {
	return Get().GlobalQueue(priority)
}
