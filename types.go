package hawtdispatch

import "github.com/Vivek89/hawtdispatch/core"

// Re-export commonly used types from the core package for convenience.
// This allows users to import only the hawtdispatch package for most use cases.

// Task is the unit of work (Closure)
type Task = core.Task

// Priority determines when a queue's drain gets a pool worker
type Priority = core.Priority

// Queue is the interface shared by serial, global and pinned queues
type Queue = core.Queue

// Executor accepts tasks and eventually runs them
type Executor = core.Executor

// SerialQueue runs its tasks strictly in order on top of the shared pool
type SerialQueue = core.SerialQueue

// GlobalQueue is the pool-backed root executor
type GlobalQueue = core.GlobalQueue

// PinnedQueue runs all of its tasks on one dedicated goroutine
type PinnedQueue = core.PinnedQueue

// Dispatcher is the process-wide context: pool, timer, global queues, registry
type Dispatcher = core.Dispatcher

// Config holds dispatcher configuration
type Config = core.Config

// QueueMetrics is a profiling snapshot of one queue
type QueueMetrics = core.QueueMetrics

// PoolStats is an observability sample of the shared pool
type PoolStats = core.PoolStats

// Priority constants
const (
	PriorityLow     Priority = core.PriorityLow
	PriorityDefault Priority = core.PriorityDefault
	PriorityHigh    Priority = core.PriorityHigh
)

// NewSerialQueue creates an unwired serial queue. Most callers want
// CreateQueue, which wires the queue to the global dispatcher.
func NewSerialQueue(label string) *SerialQueue {
	return core.NewSerialQueue(label)
}

// NewPinnedQueue creates a queue with a dedicated goroutine.
// Use this for blocking IO, CGO calls with thread-local storage, or as a
// pool-independent root for queue hierarchies.
func NewPinnedQueue(label string) *PinnedQueue {
	return core.NewPinnedQueue(label)
}

// GetCurrentQueue retrieves the queue draining the calling task from ctx
var GetCurrentQueue = core.GetCurrentQueue

// DefaultConfig returns a Config with default values filled in
var DefaultConfig = core.DefaultConfig
