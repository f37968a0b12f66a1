package sim

import (
	"context"
	"time"

	"github.com/jhaugland01/ReliabilitySim/internal/engine"
	"github.com/jhaugland01/ReliabilitySim/internal/store"
)

// StoreWriter persists one run's output into a store.Store.
type StoreWriter struct {
	ctx   context.Context
	store store.Store
	runID string
	now   func() time.Time
}

// NewStoreWriter returns a writer for runID. ctx bounds every store call.
func NewStoreWriter(ctx context.Context, s store.Store, runID string) *StoreWriter {
	return &StoreWriter{ctx: ctx, store: s, runID: runID, now: time.Now}
}

// WriteMetric appends one tick metric to the run.
func (w *StoreWriter) WriteMetric(row MetricRow) error {
	return w.store.AppendMetrics(w.ctx, w.runID, []engine.TickMetric{row.TickMetric})
}

// WriteMetrics appends multiple tick metrics.
func (w *StoreWriter) WriteMetrics(rows []MetricRow) error {
	metrics := make([]engine.TickMetric, len(rows))
	for i, r := range rows {
		metrics[i] = r.TickMetric
	}
	return w.store.AppendMetrics(w.ctx, w.runID, metrics)
}

// WriteEvent appends one event.
func (w *StoreWriter) WriteEvent(row EventRow) error {
	return w.store.AppendEvents(w.ctx, w.runID, []engine.Event{row.Event})
}

// WriteEvents appends multiple events in order.
func (w *StoreWriter) WriteEvents(rows []EventRow) error {
	events := make([]engine.Event, len(rows))
	for i, r := range rows {
		events[i] = r.Event
	}
	return w.store.AppendEvents(w.ctx, w.runID, events)
}

// WriteSummary marks the run completed.
func (w *StoreWriter) WriteSummary(row SummaryRow) error {
	return w.store.CompleteRun(w.ctx, w.runID, row.Summary, w.now().UTC())
}
