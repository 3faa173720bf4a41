package main

import (
	"context"
	"fmt"
	"time"

	hawtdispatch "github.com/Vivek89/hawtdispatch"
)

func main() {
	// 1. Initialize the shared worker pool
	hawtdispatch.Init(2)
	defer hawtdispatch.Shutdown()

	fmt.Println("=== Suspend / Resume Example ===")

	queue := hawtdispatch.CreateQueue("gated")

	// 2. Suspend the queue before submitting: tasks accumulate in order
	queue.Suspend()
	for i := 1; i <= 3; i++ {
		id := i
		queue.Execute(func(ctx context.Context) {
			fmt.Printf("task %d\n", id)
		})
	}
	fmt.Println("submitted 3 tasks while suspended, nothing runs yet")
	time.Sleep(200 * time.Millisecond)

	// 3. Resume: the backlog drains in submission order
	fmt.Println("resuming...")
	queue.Resume()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	queue.WaitIdle(ctx)

	fmt.Println("=== Example Finished ===")
}
