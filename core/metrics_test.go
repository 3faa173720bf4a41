package core

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// TestInactiveCollector verifies the no-op collector is fully transparent
func TestInactiveCollector(t *testing.T) {
	collector := InactiveCollector()

	if collector.Active() {
		t.Error("Active() = true, want false")
	}
	if _, ok := collector.Metrics(); ok {
		t.Error("Metrics() reported a snapshot, want none")
	}

	// Track must return the task unchanged so the inactive path costs nothing
	var ran bool
	task := func(ctx context.Context) { ran = true }
	wrapped := collector.Track(task)
	wrapped(context.Background())
	if !ran {
		t.Error("tracked task did not run")
	}
}

// TestActiveCollector_Counts verifies enqueue/dequeue accounting
// Given: An active collector
// When: Tracked tasks run
// Then: The snapshot reports matching enqueued and dequeued counts
func TestActiveCollector_Counts(t *testing.T) {
	queue := NewSerialQueue("profiled")
	collector := newActiveCollector(queue)

	for i := 0; i < 3; i++ {
		collector.Track(func(ctx context.Context) {})(context.Background())
	}
	// One more tracked but not yet run
	collector.Track(func(ctx context.Context) {})

	metrics, ok := collector.Metrics()
	if !ok {
		t.Fatal("Metrics() reported no snapshot")
	}
	if metrics.Label != "profiled" {
		t.Errorf("Label = %q, want profiled", metrics.Label)
	}
	if metrics.Enqueued != 4 {
		t.Errorf("Enqueued = %d, want 4", metrics.Enqueued)
	}
	if metrics.Dequeued != 3 {
		t.Errorf("Dequeued = %d, want 3", metrics.Dequeued)
	}
}

// TestActiveCollector_Durations verifies wait and run time measurement
func TestActiveCollector_Durations(t *testing.T) {
	queue := NewSerialQueue("timed")
	collector := newActiveCollector(queue)

	wrapped := collector.Track(func(ctx context.Context) {
		time.Sleep(20 * time.Millisecond)
	})
	time.Sleep(10 * time.Millisecond) // simulated queue wait
	wrapped(context.Background())

	metrics, _ := collector.Metrics()
	if metrics.TotalWaitTime < 5*time.Millisecond {
		t.Errorf("TotalWaitTime = %v, want >= 5ms", metrics.TotalWaitTime)
	}
	if metrics.TotalRunTime < 15*time.Millisecond {
		t.Errorf("TotalRunTime = %v, want >= 15ms", metrics.TotalRunTime)
	}
	if metrics.MaxWaitTime > metrics.TotalWaitTime {
		t.Errorf("MaxWaitTime %v exceeds TotalWaitTime %v", metrics.MaxWaitTime, metrics.TotalWaitTime)
	}
	if metrics.MaxRunTime > metrics.TotalRunTime {
		t.Errorf("MaxRunTime %v exceeds TotalRunTime %v", metrics.MaxRunTime, metrics.TotalRunTime)
	}
}

// TestActiveCollector_ResetOnRead verifies interval semantics
// Given: A collector with recorded activity
// When: A snapshot is taken
// Then: The next snapshot starts from zero
func TestActiveCollector_ResetOnRead(t *testing.T) {
	queue := NewSerialQueue("interval")
	collector := newActiveCollector(queue)

	collector.Track(func(ctx context.Context) {})(context.Background())

	first, _ := collector.Metrics()
	if first.Enqueued != 1 || first.Dequeued != 1 {
		t.Fatalf("first snapshot = %+v, want 1 enqueued / 1 dequeued", first)
	}

	second, ok := collector.Metrics()
	if !ok {
		t.Fatal("collector deactivated after a read")
	}
	if second.Enqueued != 0 || second.Dequeued != 0 || second.TotalRunTime != 0 {
		t.Errorf("second snapshot = %+v, want all zero", second)
	}
}

// TestActiveCollector_PanickingTask verifies run time is recorded on panic
func TestActiveCollector_PanickingTask(t *testing.T) {
	queue := NewSerialQueue("faulty")
	collector := newActiveCollector(queue)

	wrapped := collector.Track(func(ctx context.Context) {
		panic("boom")
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic did not propagate through the wrapper")
			}
		}()
		wrapped(context.Background())
	}()

	metrics, _ := collector.Metrics()
	if metrics.Dequeued != 1 {
		t.Errorf("Dequeued = %d, want 1: panicking tasks still complete", metrics.Dequeued)
	}
}

// TestStoreMax verifies the monotonic maximum helper
func TestStoreMax(t *testing.T) {
	var max atomic.Int64
	storeMax(&max, 10)
	storeMax(&max, 5)
	storeMax(&max, 20)
	if got := max.Load(); got != 20 {
		t.Errorf("max = %d, want 20", got)
	}
}
