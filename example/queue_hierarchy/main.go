package main

import (
	"context"
	"fmt"
	"time"

	hawtdispatch "github.com/Vivek89/hawtdispatch"
)

func main() {
	// 1. Initialize the shared worker pool
	hawtdispatch.Init(4)
	defer hawtdispatch.Shutdown()

	fmt.Println("=== Queue Hierarchy Example ===")

	// 2. Build a hierarchy: two children funneling into one parent.
	// The parent serializes across both children, so "left" and "right"
	// tasks never run at the same time even with four workers available.
	parent := hawtdispatch.CreateQueue("parent")
	left := parent.CreateQueue("left")
	right := parent.CreateQueue("right")

	// 3. Submit interleaved work to both children
	for i := 1; i <= 3; i++ {
		id := i
		left.Execute(func(ctx context.Context) {
			fmt.Printf("left %d (on %s)\n", id, hawtdispatch.GetCurrentQueue(ctx).Label())
		})
		right.Execute(func(ctx context.Context) {
			fmt.Printf("right %d (on %s)\n", id, hawtdispatch.GetCurrentQueue(ctx).Label())
		})
	}

	// 4. Wait for both children to drain
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	left.WaitIdle(ctx)
	right.WaitIdle(ctx)

	fmt.Println("=== Example Finished ===")
}
