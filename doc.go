// Package hawtdispatch provides serial task queues that ride on a shared
// goroutine pool, in the style of libdispatch.
//
// A SerialQueue guarantees that tasks submitted to it never run concurrently
// with each other, while independent queues drain fully in parallel across
// the pool. No queue owns a goroutine: a queue with pending work schedules a
// single drain onto its target executor, and the drain reschedules itself
// only when more work remains. The whole mechanism is one atomic flag, not a
// lock.
//
// # Quick Start
//
// Initialize the global dispatcher at application startup:
//
//	hawtdispatch.Init(4) // 4 pool workers
//	defer hawtdispatch.Shutdown()
//
// Create a serial queue and submit work:
//
//	queue := hawtdispatch.CreateQueue("orders")
//	queue.Execute(func(ctx context.Context) {
//		// Your code here - guaranteed sequential execution
//	})
//
// # Key Concepts
//
// SerialQueue: strictly ordered execution without a dedicated goroutine.
// Tasks submitted by a task already running on the queue take a
// synchronization-free fast path and run before anything submitted
// externally afterwards.
//
// GlobalQueue: the pool-backed executor at the root of every queue
// hierarchy. Three exist, one per Priority; priority decides when a drain
// gets a worker, never the order within a serial queue.
//
// Hierarchies: a serial queue's target may be another serial queue, so a
// child serializes on top of its parent, recursively down to a pool-backed
// root.
//
// PinnedQueue: sequential execution bound to one dedicated goroutine, for
// blocking IO or thread-affine work.
//
// # Flow control and failure
//
// Suspend/Resume pause a queue cooperatively between tasks. A task panic is
// reported to the queue's panic handler and never stops the queue; the next
// task still runs.
//
// # Profiling
//
// queue.Profile(true) wraps every subsequent task to measure wait and run
// time; Dispatcher.Metrics() snapshots all profiled queues. The
// observability/prometheus package exports those snapshots.
//
// # Example
//
//	import (
//		"context"
//
//		hawtdispatch "github.com/Vivek89/hawtdispatch"
//	)
//
//	func main() {
//		hawtdispatch.Init(4)
//		defer hawtdispatch.Shutdown()
//
//		queue := hawtdispatch.CreateQueue("events")
//
//		// Tasks execute sequentially
//		queue.Execute(func(ctx context.Context) {
//			println("Task 1")
//		})
//		queue.Execute(func(ctx context.Context) {
//			println("Task 2")
//		})
//
//		// Delayed task
//		queue.ExecuteAfter(time.Second, func(ctx context.Context) {
//			println("Task 3 - delayed")
//		})
//	}
package hawtdispatch
