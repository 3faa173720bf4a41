package core

import (
	"context"
	"fmt"
	"runtime"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task panics during execution. A panic is
// local to the task that raised it: the drain reports it here and keeps
// running the remaining tasks, so one failing task can neither corrupt
// ordering nor starve its successors.
//
// Implementations must be safe for concurrent use.
type PanicHandler interface {
	// HandlePanic is called with the context of the panicked task, the
	// label of the queue it ran on, the recovered value, and the stack
	// trace captured at recovery time.
	HandlePanic(ctx context.Context, queueLabel string, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler provides a basic panic handler that prints to stdout.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stdout.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, queueLabel string, panicInfo any, stackTrace []byte) {
	fmt.Printf("[Queue %s] Panic: %v\nStack trace:\n%s", queueLabel, panicInfo, stackTrace)
}

// LogPanicHandler reports panics through a structured Logger.
type LogPanicHandler struct {
	Logger Logger
}

func (h *LogPanicHandler) HandlePanic(ctx context.Context, queueLabel string, panicInfo any, stackTrace []byte) {
	h.Logger.Error("task panic",
		F("queue", queueLabel),
		F("panic", panicInfo),
		F("stack", string(stackTrace)),
	)
}

// =============================================================================
// Config: Configuration for a Dispatcher
// =============================================================================

// Config holds the knobs for a Dispatcher. Every field is optional; zero
// values fall back to the defaults below.
type Config struct {
	// Label names the dispatcher in diagnostics. Defaults to "hawtdispatch".
	Label string

	// Workers sets the shared pool size. Defaults to runtime.NumCPU().
	Workers int

	// Profile turns metrics collection on for every queue the dispatcher
	// creates, instead of queues opting in via Profile(true).
	Profile bool

	// PanicHandler receives task panics. Defaults to logging through Logger.
	PanicHandler PanicHandler

	// Logger receives diagnostics. Defaults to a zap-backed logger.
	Logger Logger
}

// DefaultConfig returns a config with default values filled in.
func DefaultConfig() *Config {
	logger := NewZapLogger(nil)
	return &Config{
		Label:        "hawtdispatch",
		Workers:      runtime.NumCPU(),
		PanicHandler: &LogPanicHandler{Logger: logger},
		Logger:       logger,
	}
}

func (c *Config) withDefaults() *Config {
	out := &Config{}
	if c != nil {
		*out = *c
	}
	if out.Label == "" {
		out.Label = "hawtdispatch"
	}
	if out.Workers <= 0 {
		out.Workers = runtime.NumCPU()
	}
	if out.Logger == nil {
		out.Logger = NewZapLogger(nil)
	}
	if out.PanicHandler == nil {
		out.PanicHandler = &LogPanicHandler{Logger: out.Logger}
	}
	return out
}
