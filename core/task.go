package core

import (
	"context"
	"time"
)

// Task is the unit of work (Closure)
type Task func(ctx context.Context)

// =============================================================================
// Priority: scheduling class for the global queues
// =============================================================================

type Priority int

const (
	// PriorityLow: background work, scheduled after everything else
	PriorityLow Priority = iota

	// PriorityDefault: the default scheduling class
	PriorityDefault

	// PriorityHigh: scheduled before default and low work.
	// Priority determines when a queue's drain gets a pool worker,
	// never the order of tasks within one serial queue.
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityDefault:
		return "default"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// =============================================================================
// Executor: anything that can accept a task and eventually run it
// =============================================================================

// Executor accepts a task and eventually runs it exactly once, on some
// goroutine, under its own ordering rules. Both GlobalQueue (pool backed)
// and SerialQueue satisfy it, which is what allows serial queues to be
// chained into hierarchies.
type Executor interface {
	Execute(task Task)
}

// Queue is the user-facing surface shared by all queue flavours.
type Queue interface {
	Executor

	// Label returns the diagnostic label. It has no semantic effect.
	Label() string
	SetLabel(label string)

	// ExecuteAfter submits task to this queue once delay has elapsed.
	ExecuteAfter(delay time.Duration, task Task)
}

// =============================================================================
// Context Helper
// =============================================================================

type currentQueueKeyType struct{}

var currentQueueKey currentQueueKeyType

// GetCurrentQueue returns the queue whose drain is running the calling task,
// or nil when the context does not originate from a queue drain.
func GetCurrentQueue(ctx context.Context) Queue {
	if v := ctx.Value(currentQueueKey); v != nil {
		return v.(Queue)
	}
	return nil
}

func withCurrentQueue(ctx context.Context, q Queue) context.Context {
	return context.WithValue(ctx, currentQueueKey, q)
}
