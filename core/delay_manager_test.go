package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

// collectingExecutor records executed tasks and runs them inline, standing in
// for a queue as the delay target.
type collectingExecutor struct {
	mu    sync.Mutex
	count int
}

func (e *collectingExecutor) Execute(task Task) {
	task(context.Background())
}

func (e *collectingExecutor) bump() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.count++
}

func (e *collectingExecutor) executed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

// TestDelayManager_SchedulesAfterDelay verifies the basic timer path
// Given: A task scheduled 30ms out
// When: Time passes
// Then: The task is submitted to its target after the delay, not before
func TestDelayManager_SchedulesAfterDelay(t *testing.T) {
	dm := NewDelayManager()
	defer dm.Stop()

	target := &collectingExecutor{}
	fired := make(chan time.Time, 1)
	start := time.Now()

	dm.Schedule(func(ctx context.Context) {
		target.bump()
		fired <- time.Now()
	}, target, 30*time.Millisecond)

	select {
	case at := <-fired:
		if elapsed := at.Sub(start); elapsed < 25*time.Millisecond {
			t.Errorf("task fired after %v, want >= 25ms", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("delayed task never fired")
	}
	if target.executed() != 1 {
		t.Errorf("executed = %d, want 1", target.executed())
	}
}

// TestDelayManager_EarlierTaskPreempts verifies deadline reordering
// Given: A far-out task already registered
// When: A nearer task is scheduled afterwards
// Then: The nearer task fires first
func TestDelayManager_EarlierTaskPreempts(t *testing.T) {
	dm := NewDelayManager()
	defer dm.Stop()

	target := &collectingExecutor{}
	order := make(chan string, 2)

	dm.Schedule(func(ctx context.Context) {
		order <- "far"
	}, target, 200*time.Millisecond)
	dm.Schedule(func(ctx context.Context) {
		order <- "near"
	}, target, 20*time.Millisecond)

	select {
	case first := <-order:
		if first != "near" {
			t.Errorf("first fired = %s, want near", first)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no task fired")
	}
	select {
	case second := <-order:
		if second != "far" {
			t.Errorf("second fired = %s, want far", second)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("far task never fired")
	}
}

// TestDelayManager_ZeroDelay verifies immediate scheduling
func TestDelayManager_ZeroDelay(t *testing.T) {
	dm := NewDelayManager()
	defer dm.Stop()

	target := &collectingExecutor{}
	fired := make(chan struct{})
	dm.Schedule(func(ctx context.Context) {
		close(fired)
	}, target, 0)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("zero-delay task never fired")
	}
}

// TestDelayManager_TaskCount verifies pending accounting
func TestDelayManager_TaskCount(t *testing.T) {
	dm := NewDelayManager()
	defer dm.Stop()

	target := &collectingExecutor{}
	dm.Schedule(func(ctx context.Context) {}, target, time.Hour)
	dm.Schedule(func(ctx context.Context) {}, target, time.Hour)

	if got := dm.TaskCount(); got != 2 {
		t.Errorf("TaskCount() = %d, want 2", got)
	}
}

// TestDelayManager_Stop verifies pending tasks are dropped on stop
// Given: Tasks registered for the future
// When: The manager is stopped
// Then: The registry empties and nothing fires
func TestDelayManager_Stop(t *testing.T) {
	dm := NewDelayManager()
	target := &collectingExecutor{}

	dm.Schedule(func(ctx context.Context) {
		t.Error("task fired after Stop")
	}, target, 50*time.Millisecond)

	dm.Stop()
	if got := dm.TaskCount(); got != 0 {
		t.Errorf("TaskCount() = %d after Stop, want 0", got)
	}
	time.Sleep(100 * time.Millisecond)
}
