package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	hawtdispatch "github.com/Vivek89/hawtdispatch"
	"github.com/urfave/cli/v2"
)

// profile_dump runs synthetic load over a set of profiled queues and prints a
// per-interval snapshot table, the quickest way to see where queue time goes.
func main() {
	app := &cli.App{
		Name:  "profile-dump",
		Usage: "run synthetic queue load and dump profiling snapshots",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Value: 4,
				Usage: "shared pool size",
			},
			&cli.IntFlag{
				Name:  "queues",
				Value: 3,
				Usage: "number of profiled queues",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Value: time.Second,
				Usage: "snapshot interval",
			},
			&cli.DurationFlag{
				Name:  "duration",
				Value: 5 * time.Second,
				Usage: "total run time",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	hawtdispatch.Init(c.Int("workers"))
	defer hawtdispatch.Shutdown()

	// Profiled queues under synthetic load
	queues := make([]*hawtdispatch.SerialQueue, c.Int("queues"))
	for i := range queues {
		q := hawtdispatch.CreateQueue(fmt.Sprintf("load-%d", i))
		q.Profile(true)
		queues[i] = q
	}

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			q := queues[rand.Intn(len(queues))]
			q.Execute(func(ctx context.Context) {
				time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
			})
			time.Sleep(time.Millisecond)
		}
	}()

	ticker := time.NewTicker(c.Duration("interval"))
	defer ticker.Stop()
	deadline := time.After(c.Duration("duration"))

	for {
		select {
		case <-ticker.C:
			dump(hawtdispatch.Get().Metrics())
		case <-deadline:
			close(stop)
			return nil
		}
	}
}

func dump(snapshots []hawtdispatch.QueueMetrics) {
	fmt.Printf("%-12s %8s %8s %12s %12s %12s %12s\n",
		"queue", "in", "out", "wait-total", "wait-max", "run-total", "run-max")
	for _, s := range snapshots {
		fmt.Printf("%-12s %8d %8d %12s %12s %12s %12s\n",
			s.Label, s.Enqueued, s.Dequeued,
			s.TotalWaitTime.Round(time.Microsecond),
			s.MaxWaitTime.Round(time.Microsecond),
			s.TotalRunTime.Round(time.Microsecond),
			s.MaxRunTime.Round(time.Microsecond))
	}
	fmt.Println()
}
