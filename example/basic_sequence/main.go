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

	fmt.Println("=== Basic Sequence Example ===")

	// 2. Create a serial queue
	// Tasks submitted to it run strictly in order, but on pool workers.
	queue := hawtdispatch.CreateQueue("orders")

	done := make(chan struct{})

	// 3. Submit a sequence of tasks
	for i := 1; i <= 3; i++ {
		id := i
		queue.Execute(func(ctx context.Context) {
			fmt.Printf("Task %d running on a pool worker\n", id)
			time.Sleep(100 * time.Millisecond) // Simulate work
		})
	}

	// 4. Submit a delayed task
	queue.ExecuteAfter(500*time.Millisecond, func(ctx context.Context) {
		fmt.Println("Delayed task executed!")
		close(done)
	})

	<-done
	fmt.Println("=== Example Finished ===")
}
