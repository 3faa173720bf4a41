package hawtdispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Vivek89/hawtdispatch/core"
)

func newQuietConfig() *core.Config {
	config := core.DefaultConfig()
	config.Logger = &core.NoOpLogger{}
	return config
}

// TestGoroutinePool_ExecutesPostedTasks verifies the worker loop
// Given: A running pool
// When: Tasks are posted
// Then: All of them execute
func TestGoroutinePool_ExecutesPostedTasks(t *testing.T) {
	pool := NewGoroutinePoolWithConfig("test", 4, newQuietConfig())
	pool.Start(context.Background())
	defer pool.Stop()

	const total = 100
	var executed atomic.Int64
	var wg sync.WaitGroup
	wg.Add(total)
	for i := 0; i < total; i++ {
		pool.PostInternal(func(ctx context.Context) {
			executed.Add(1)
			wg.Done()
		}, core.PriorityDefault)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not drain posted tasks")
	}

	if got := executed.Load(); got != total {
		t.Errorf("executed %d tasks, want %d", got, total)
	}
}

// TestGoroutinePool_StartIdempotent verifies double Start is a no-op
func TestGoroutinePool_StartIdempotent(t *testing.T) {
	pool := NewGoroutinePoolWithConfig("test", 2, newQuietConfig())
	pool.Start(context.Background())
	pool.Start(context.Background())
	defer pool.Stop()

	if !pool.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if got := pool.WorkerCount(); got != 2 {
		t.Errorf("WorkerCount() = %d, want 2", got)
	}
}

// TestGoroutinePool_Stop verifies workers exit and late posts are dropped
func TestGoroutinePool_Stop(t *testing.T) {
	pool := NewGoroutinePoolWithConfig("test", 2, newQuietConfig())
	pool.Start(context.Background())
	pool.Stop()

	if pool.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}

	// Dropped, not executed
	pool.PostInternal(func(ctx context.Context) {
		t.Error("task ran after Stop")
	}, core.PriorityDefault)
	time.Sleep(50 * time.Millisecond)
}

// TestGoroutinePool_StopGraceful verifies queued work completes first
// Given: A pool with slow tasks queued
// When: StopGraceful runs with enough budget
// Then: All tasks complete before the workers exit
func TestGoroutinePool_StopGraceful(t *testing.T) {
	pool := NewGoroutinePoolWithConfig("test", 2, newQuietConfig())
	pool.Start(context.Background())

	const total = 20
	var executed atomic.Int64
	for i := 0; i < total; i++ {
		pool.PostInternal(func(ctx context.Context) {
			time.Sleep(time.Millisecond)
			executed.Add(1)
		}, core.PriorityDefault)
	}

	if err := pool.StopGraceful(5 * time.Second); err != nil {
		t.Fatalf("StopGraceful: %v", err)
	}
	if got := executed.Load(); got != total {
		t.Errorf("executed %d tasks, want %d", got, total)
	}
}

// TestGoroutinePool_StopGracefulTimeout verifies the timeout path
// Given: A pool whose workers are stuck in a long task
// When: StopGraceful has a tiny budget
// Then: It reports the timeout and still brings the workers down
func TestGoroutinePool_StopGracefulTimeout(t *testing.T) {
	pool := NewGoroutinePoolWithConfig("test", 1, newQuietConfig())
	pool.Start(context.Background())

	release := make(chan struct{})
	pool.PostInternal(func(ctx context.Context) {
		<-release
	}, core.PriorityDefault)
	pool.PostInternal(func(ctx context.Context) {}, core.PriorityDefault)

	// StopGraceful joins the workers after the timeout, and the joined
	// worker is stuck until the task is released. Unblock it once the
	// graceful budget has certainly elapsed.
	time.AfterFunc(300*time.Millisecond, func() { close(release) })

	errCh := make(chan error, 1)
	go func() {
		errCh <- pool.StopGraceful(100 * time.Millisecond)
	}()

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("StopGraceful did not report the timeout")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("StopGraceful hung")
	}
}

// TestGoroutinePool_PanicReachesHandler verifies worker-level panic capture
// Given: A pool with a recording panic handler
// When: A task posted straight to the pool panics
// Then: The handler receives it and the worker keeps serving
func TestGoroutinePool_PanicReachesHandler(t *testing.T) {
	config := newQuietConfig()
	var mu sync.Mutex
	var captured []any
	config.PanicHandler = panicRecorderFunc(func(info any) {
		mu.Lock()
		captured = append(captured, info)
		mu.Unlock()
	})

	pool := NewGoroutinePoolWithConfig("test", 1, config)
	pool.Start(context.Background())
	defer pool.Stop()

	pool.PostInternal(func(ctx context.Context) {
		panic("worker boom")
	}, core.PriorityDefault)

	survived := make(chan struct{})
	pool.PostInternal(func(ctx context.Context) {
		close(survived)
	}, core.PriorityDefault)

	select {
	case <-survived:
	case <-time.After(5 * time.Second):
		t.Fatal("worker died after a task panic")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(captured) != 1 || captured[0] != "worker boom" {
		t.Errorf("captured panics = %v, want [worker boom]", captured)
	}
}

// panicRecorderFunc adapts a closure to the PanicHandler interface.
type panicRecorderFunc func(info any)

func (f panicRecorderFunc) HandlePanic(ctx context.Context, queueLabel string, panicInfo any, stackTrace []byte) {
	f(panicInfo)
}
