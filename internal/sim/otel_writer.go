package sim

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/jhaugland01/ReliabilitySim/sim"

// OTelWriter records tick metrics as OpenTelemetry instruments.
type OTelWriter struct {
	requests  metric.Int64Counter
	failures  metric.Int64Counter
	retries   metric.Int64Counter
	events    metric.Int64Counter
	latency   metric.Float64Histogram
	queue     metric.Int64Gauge
	errorRate metric.Float64Gauge
}

// NewOTelWriter creates the instruments on a meter from mp.
func NewOTelWriter(mp metric.MeterProvider) (*OTelWriter, error) {
	meter := mp.Meter(meterName)
	w := &OTelWriter{}
	var err error
	if w.requests, err = meter.Int64Counter("reliability_sim.requests",
		metric.WithDescription("Requests generated by the simulation")); err != nil {
		return nil, fmt.Errorf("create requests counter: %w", err)
	}
	if w.failures, err = meter.Int64Counter("reliability_sim.failures",
		metric.WithDescription("Requests that failed after retries")); err != nil {
		return nil, fmt.Errorf("create failures counter: %w", err)
	}
	if w.retries, err = meter.Int64Counter("reliability_sim.retries",
		metric.WithDescription("Retry attempts")); err != nil {
		return nil, fmt.Errorf("create retries counter: %w", err)
	}
	if w.events, err = meter.Int64Counter("reliability_sim.events",
		metric.WithDescription("Engine events by kind")); err != nil {
		return nil, fmt.Errorf("create events counter: %w", err)
	}
	if w.latency, err = meter.Float64Histogram("reliability_sim.tick_p95_latency",
		metric.WithDescription("Per-tick p95 latency"), metric.WithUnit("ms")); err != nil {
		return nil, fmt.Errorf("create latency histogram: %w", err)
	}
	if w.queue, err = meter.Int64Gauge("reliability_sim.queue_depth",
		metric.WithDescription("Backlog carried between ticks")); err != nil {
		return nil, fmt.Errorf("create queue gauge: %w", err)
	}
	if w.errorRate, err = meter.Float64Gauge("reliability_sim.error_rate",
		metric.WithDescription("Per-tick error rate"), metric.WithUnit("%")); err != nil {
		return nil, fmt.Errorf("create error rate gauge: %w", err)
	}
	return w, nil
}

// WriteMetric records one tick.
func (w *OTelWriter) WriteMetric(row MetricRow) error {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("run_id", row.RunID),
		attribute.String("circuit_state", string(row.CircuitState)),
		attribute.String("system_state", string(row.SystemState)),
	)
	w.requests.Add(ctx, int64(row.Requests), attrs)
	w.failures.Add(ctx, int64(row.FailureCount), attrs)
	w.retries.Add(ctx, int64(row.RetryCount), attrs)
	w.latency.Record(ctx, row.P95Latency, attrs)

	runAttr := metric.WithAttributes(attribute.String("run_id", row.RunID))
	w.queue.Record(ctx, int64(row.QueueDepth), runAttr)
	w.errorRate.Record(ctx, row.ErrorRate, runAttr)
	return nil
}

// WriteEvent counts one event by kind.
func (w *OTelWriter) WriteEvent(row EventRow) error {
	w.events.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("run_id", row.RunID),
		attribute.String("kind", string(row.Kind)),
	))
	return nil
}
