package prometheus

import (
	"errors"
	"fmt"

	"github.com/Vivek89/hawtdispatch/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// MetricsExporter feeds profiled-queue snapshots and pool stats into
// Prometheus collectors. Queue snapshots reset on read, so their fields are
// per-interval deltas and land in counters via Add.
type MetricsExporter struct {
	tasksEnqueuedTotal *prom.CounterVec
	tasksDequeuedTotal *prom.CounterVec
	waitSecondsTotal   *prom.CounterVec
	runSecondsTotal    *prom.CounterVec
	maxWaitSeconds     *prom.GaugeVec
	maxRunSeconds      *prom.GaugeVec

	poolQueued  *prom.GaugeVec
	poolActive  *prom.GaugeVec
	poolDelayed *prom.GaugeVec
	poolWorkers *prom.GaugeVec
	poolRunning *prom.GaugeVec
}

// NewMetricsExporter creates and registers the collectors.
func NewMetricsExporter(namespace string, reg prom.Registerer) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "hawtdispatch"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	enqueuedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "queue_tasks_enqueued_total",
		Help:      "Total number of tasks submitted to profiled queues.",
	}, []string{"queue"})
	dequeuedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "queue_tasks_dequeued_total",
		Help:      "Total number of tasks executed by profiled queues.",
	}, []string{"queue"})
	waitVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "queue_wait_seconds_total",
		Help:      "Accumulated time tasks spent queued before starting.",
	}, []string{"queue"})
	runVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "queue_run_seconds_total",
		Help:      "Accumulated task execution time.",
	}, []string{"queue"})
	maxWaitVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_max_wait_seconds",
		Help:      "Largest single task wait in the last snapshot interval.",
	}, []string{"queue"})
	maxRunVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_max_run_seconds",
		Help:      "Longest single task execution in the last snapshot interval.",
	}, []string{"queue"})

	poolQueued := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "pool_queued",
		Help:      "Queued tasks in the shared pool.",
	}, []string{"pool"})
	poolActive := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "pool_active",
		Help:      "Tasks currently executing on pool workers.",
	}, []string{"pool"})
	poolDelayed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "pool_delayed",
		Help:      "Tasks waiting on the shared timer.",
	}, []string{"pool"})
	poolWorkers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "pool_workers",
		Help:      "Worker count of the shared pool.",
	}, []string{"pool"})
	poolRunning := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "pool_running",
		Help:      "Pool running state (1=running, 0=stopped).",
	}, []string{"pool"})

	var err error
	if enqueuedVec, err = registerCollector(reg, enqueuedVec); err != nil {
		return nil, err
	}
	if dequeuedVec, err = registerCollector(reg, dequeuedVec); err != nil {
		return nil, err
	}
	if waitVec, err = registerCollector(reg, waitVec); err != nil {
		return nil, err
	}
	if runVec, err = registerCollector(reg, runVec); err != nil {
		return nil, err
	}
	if maxWaitVec, err = registerCollector(reg, maxWaitVec); err != nil {
		return nil, err
	}
	if maxRunVec, err = registerCollector(reg, maxRunVec); err != nil {
		return nil, err
	}
	if poolQueued, err = registerCollector(reg, poolQueued); err != nil {
		return nil, err
	}
	if poolActive, err = registerCollector(reg, poolActive); err != nil {
		return nil, err
	}
	if poolDelayed, err = registerCollector(reg, poolDelayed); err != nil {
		return nil, err
	}
	if poolWorkers, err = registerCollector(reg, poolWorkers); err != nil {
		return nil, err
	}
	if poolRunning, err = registerCollector(reg, poolRunning); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		tasksEnqueuedTotal: enqueuedVec,
		tasksDequeuedTotal: dequeuedVec,
		waitSecondsTotal:   waitVec,
		runSecondsTotal:    runVec,
		maxWaitSeconds:     maxWaitVec,
		maxRunSeconds:      maxRunVec,
		poolQueued:         poolQueued,
		poolActive:         poolActive,
		poolDelayed:        poolDelayed,
		poolWorkers:        poolWorkers,
		poolRunning:        poolRunning,
	}, nil
}

// RecordQueue merges one per-interval queue snapshot into the collectors.
func (m *MetricsExporter) RecordQueue(snapshot core.QueueMetrics) {
	if m == nil {
		return
	}
	queue := normalizeLabel(snapshot.Label, "unknown")
	m.tasksEnqueuedTotal.WithLabelValues(queue).Add(float64(snapshot.Enqueued))
	m.tasksDequeuedTotal.WithLabelValues(queue).Add(float64(snapshot.Dequeued))
	m.waitSecondsTotal.WithLabelValues(queue).Add(snapshot.TotalWaitTime.Seconds())
	m.runSecondsTotal.WithLabelValues(queue).Add(snapshot.TotalRunTime.Seconds())
	m.maxWaitSeconds.WithLabelValues(queue).Set(snapshot.MaxWaitTime.Seconds())
	m.maxRunSeconds.WithLabelValues(queue).Set(snapshot.MaxRunTime.Seconds())
}

// RecordPool samples the pool gauges.
func (m *MetricsExporter) RecordPool(stats core.PoolStats) {
	if m == nil {
		return
	}
	pool := normalizeLabel(stats.ID, "unknown")
	m.poolQueued.WithLabelValues(pool).Set(float64(stats.Queued))
	m.poolActive.WithLabelValues(pool).Set(float64(stats.Active))
	m.poolDelayed.WithLabelValues(pool).Set(float64(stats.Delayed))
	m.poolWorkers.WithLabelValues(pool).Set(float64(stats.Workers))
	if stats.Running {
		m.poolRunning.WithLabelValues(pool).Set(1)
	} else {
		m.poolRunning.WithLabelValues(pool).Set(0)
	}
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
