package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	hawtdispatch "github.com/Vivek89/hawtdispatch"
	promexport "github.com/Vivek89/hawtdispatch/observability/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 1. Initialize the shared worker pool
	hawtdispatch.Init(4)
	defer hawtdispatch.Shutdown()

	// 2. Create profiled queues
	orders := hawtdispatch.CreateQueue("orders")
	orders.Profile(true)
	billing := hawtdispatch.CreateQueue("billing")
	billing.Profile(true)

	// 3. Wire the dispatcher into a Prometheus registry
	registry := prometheus.NewRegistry()
	poller, err := promexport.NewSnapshotPoller(registry, 5*time.Second)
	if err != nil {
		panic(err)
	}
	poller.AddDispatcher(hawtdispatch.Get())
	poller.Start(context.Background())
	defer poller.Stop()

	// 4. Generate some background load
	go func() {
		for {
			orders.Execute(func(ctx context.Context) {
				time.Sleep(time.Duration(rand.Intn(20)) * time.Millisecond)
			})
			billing.Execute(func(ctx context.Context) {
				time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
			})
			time.Sleep(50 * time.Millisecond)
		}
	}()

	// 5. Expose /metrics
	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	fmt.Println("serving metrics on :2112/metrics")
	if err := http.ListenAndServe(":2112", nil); err != nil {
		panic(err)
	}
}
