package sim

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jhaugland01/ReliabilitySim/internal/engine"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumInt(t *testing.T, agg metricdata.Aggregation) int64 {
	t.Helper()
	s, ok := agg.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected int64 sum, got %T", agg)
	}
	var total int64
	for _, dp := range s.DataPoints {
		total += dp.Value
	}
	return total
}

func TestOTelWriterRecords(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	w, err := NewOTelWriter(mp)
	if err != nil {
		t.Fatalf("NewOTelWriter: %v", err)
	}
	rows := []MetricRow{
		{RunID: "r1", TickMetric: engine.TickMetric{Requests: 10, FailureCount: 2, RetryCount: 3, P95Latency: 120, QueueDepth: 4, ErrorRate: 20, CircuitState: engine.CircuitClosed, SystemState: engine.StateStable}},
		{RunID: "r1", TickMetric: engine.TickMetric{Requests: 5, FailureCount: 5, RetryCount: 0, P95Latency: 5, QueueDepth: 0, ErrorRate: 100, CircuitState: engine.CircuitOpen, SystemState: engine.StateDown}},
	}
	for _, r := range rows {
		if err := w.WriteMetric(r); err != nil {
			t.Fatalf("WriteMetric: %v", err)
		}
	}
	if err := w.WriteEvent(EventRow{RunID: "r1", Event: engine.Event{Kind: engine.EventCircuitOpened}}); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}

	got := collect(t, reader)
	if v := sumInt(t, got["reliability_sim.requests"]); v != 15 {
		t.Fatalf("requests = %d, want 15", v)
	}
	if v := sumInt(t, got["reliability_sim.failures"]); v != 7 {
		t.Fatalf("failures = %d, want 7", v)
	}
	if v := sumInt(t, got["reliability_sim.retries"]); v != 3 {
		t.Fatalf("retries = %d, want 3", v)
	}
	if v := sumInt(t, got["reliability_sim.events"]); v != 1 {
		t.Fatalf("events = %d, want 1", v)
	}
	g, ok := got["reliability_sim.queue_depth"].(metricdata.Gauge[int64])
	if !ok || len(g.DataPoints) != 1 || g.DataPoints[0].Value != 0 {
		t.Fatalf("unexpected queue gauge %+v", got["reliability_sim.queue_depth"])
	}
	h, ok := got["reliability_sim.tick_p95_latency"].(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected histogram, got %T", got["reliability_sim.tick_p95_latency"])
	}
	var count uint64
	for _, dp := range h.DataPoints {
		count += dp.Count
	}
	if count != 2 {
		t.Fatalf("histogram count = %d, want 2", count)
	}
}
