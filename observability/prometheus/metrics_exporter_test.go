package prometheus

import (
	"testing"
	"time"

	"github.com/Vivek89/hawtdispatch/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// TestMetricsExporter_RecordQueue verifies snapshot deltas land in counters
// Given: An exporter on a fresh registry
// When: Two per-interval snapshots for the same queue are recorded
// Then: Counters accumulate across intervals and gauges hold the last value
func TestMetricsExporter_RecordQueue(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("test", reg)
	if err != nil {
		t.Fatalf("NewMetricsExporter: %v", err)
	}

	exporter.RecordQueue(core.QueueMetrics{
		Label:         "orders",
		Enqueued:      5,
		Dequeued:      4,
		TotalWaitTime: 2 * time.Second,
		MaxWaitTime:   time.Second,
		TotalRunTime:  500 * time.Millisecond,
		MaxRunTime:    200 * time.Millisecond,
	})
	exporter.RecordQueue(core.QueueMetrics{
		Label:       "orders",
		Enqueued:    3,
		Dequeued:    3,
		MaxWaitTime: 100 * time.Millisecond,
	})

	if got := testutil.ToFloat64(exporter.tasksEnqueuedTotal.WithLabelValues("orders")); got != 8 {
		t.Errorf("enqueued total = %v, want 8", got)
	}
	if got := testutil.ToFloat64(exporter.tasksDequeuedTotal.WithLabelValues("orders")); got != 7 {
		t.Errorf("dequeued total = %v, want 7", got)
	}
	if got := testutil.ToFloat64(exporter.waitSecondsTotal.WithLabelValues("orders")); got != 2 {
		t.Errorf("wait seconds total = %v, want 2", got)
	}
	// Gauges reflect the latest interval, not an accumulation
	if got := testutil.ToFloat64(exporter.maxWaitSeconds.WithLabelValues("orders")); got != 0.1 {
		t.Errorf("max wait seconds = %v, want 0.1", got)
	}
}

// TestMetricsExporter_RecordPool verifies the pool gauges
func TestMetricsExporter_RecordPool(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("test", reg)
	if err != nil {
		t.Fatalf("NewMetricsExporter: %v", err)
	}

	exporter.RecordPool(core.PoolStats{
		ID:      "main",
		Workers: 8,
		Queued:  3,
		Active:  2,
		Delayed: 1,
		Running: true,
	})

	if got := testutil.ToFloat64(exporter.poolWorkers.WithLabelValues("main")); got != 8 {
		t.Errorf("pool workers = %v, want 8", got)
	}
	if got := testutil.ToFloat64(exporter.poolQueued.WithLabelValues("main")); got != 3 {
		t.Errorf("pool queued = %v, want 3", got)
	}
	if got := testutil.ToFloat64(exporter.poolRunning.WithLabelValues("main")); got != 1 {
		t.Errorf("pool running = %v, want 1", got)
	}

	exporter.RecordPool(core.PoolStats{ID: "main", Workers: 8})
	if got := testutil.ToFloat64(exporter.poolRunning.WithLabelValues("main")); got != 0 {
		t.Errorf("pool running after stop = %v, want 0", got)
	}
}

// TestMetricsExporter_EmptyLabels verifies fallback label values
func TestMetricsExporter_EmptyLabels(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("test", reg)
	if err != nil {
		t.Fatalf("NewMetricsExporter: %v", err)
	}

	exporter.RecordQueue(core.QueueMetrics{Enqueued: 1})
	if got := testutil.ToFloat64(exporter.tasksEnqueuedTotal.WithLabelValues("unknown")); got != 1 {
		t.Errorf("unlabeled snapshot recorded as %v under unknown, want 1", got)
	}
}

// TestNewMetricsExporter_ReusesRegistered verifies double registration
// Given: Two exporters built on the same registry and namespace
// When: Both record into the same series
// Then: They share the underlying collectors instead of failing
func TestNewMetricsExporter_ReusesRegistered(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("test", reg)
	if err != nil {
		t.Fatalf("first NewMetricsExporter: %v", err)
	}
	second, err := NewMetricsExporter("test", reg)
	if err != nil {
		t.Fatalf("second NewMetricsExporter: %v", err)
	}

	first.RecordQueue(core.QueueMetrics{Label: "q", Enqueued: 1})
	second.RecordQueue(core.QueueMetrics{Label: "q", Enqueued: 1})

	if got := testutil.ToFloat64(first.tasksEnqueuedTotal.WithLabelValues("q")); got != 2 {
		t.Errorf("shared counter = %v, want 2", got)
	}
}

// TestMetricsExporter_NilReceiver verifies nil-safety of the record methods
func TestMetricsExporter_NilReceiver(t *testing.T) {
	var exporter *MetricsExporter
	exporter.RecordQueue(core.QueueMetrics{Label: "q"})
	exporter.RecordPool(core.PoolStats{ID: "p"})
}

// TestMetricsExporter_Gather verifies the exposed families end to end
// Given: An exporter with one recorded snapshot
// When: The registry is gathered
// Then: The expected family is present with the queue label attached
func TestMetricsExporter_Gather(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("test", reg)
	if err != nil {
		t.Fatalf("NewMetricsExporter: %v", err)
	}
	exporter.RecordQueue(core.QueueMetrics{Label: "orders", Enqueued: 2})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var family *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "test_queue_tasks_enqueued_total" {
			family = f
			break
		}
	}
	if family == nil {
		t.Fatal("test_queue_tasks_enqueued_total not exposed")
	}
	if got := family.GetType(); got != dto.MetricType_COUNTER {
		t.Errorf("family type = %v, want COUNTER", got)
	}

	metrics := family.GetMetric()
	if len(metrics) != 1 {
		t.Fatalf("family holds %d series, want 1", len(metrics))
	}
	if got := metrics[0].GetCounter().GetValue(); got != 2 {
		t.Errorf("counter value = %v, want 2", got)
	}
	labels := metrics[0].GetLabel()
	if len(labels) != 1 || labels[0].GetName() != "queue" || labels[0].GetValue() != "orders" {
		t.Errorf("labels = %v, want queue=orders", labels)
	}
}
