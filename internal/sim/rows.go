package sim

import "github.com/jhaugland01/ReliabilitySim/internal/engine"

// MetricRow is one tick metric tagged with the run it belongs to.
type MetricRow struct {
	RunID string `json:"run_id"`
	engine.TickMetric
}

// EventRow is one engine event tagged with its run.
type EventRow struct {
	RunID string `json:"run_id"`
	engine.Event
}

// SummaryRow is the final summary of a run.
type SummaryRow struct {
	RunID string `json:"run_id"`
	Seed  int64  `json:"seed"`
	engine.Summary
}

// MetricWriter is an interface to support different output writers.
type MetricWriter interface {
	WriteMetric(MetricRow) error
}

// EventWriter handles engine events.
type EventWriter interface {
	WriteEvent(EventRow) error
}

// SummaryWriter receives the summary once a run completes.
type SummaryWriter interface {
	WriteSummary(SummaryRow) error
}

// Optional: writers may support batch mode
type batchMetricWriter interface {
	WriteMetrics([]MetricRow) error
}

type batchEventWriter interface {
	WriteEvents([]EventRow) error
}

func writeMetrics(w MetricWriter, rows []MetricRow) error {
	if len(rows) == 0 {
		return nil
	}
	if bw, ok := w.(batchMetricWriter); ok {
		return bw.WriteMetrics(rows)
	}
	for _, r := range rows {
		if err := w.WriteMetric(r); err != nil {
			return err
		}
	}
	return nil
}

func writeEvents(w EventWriter, rows []EventRow) error {
	if len(rows) == 0 {
		return nil
	}
	if bw, ok := w.(batchEventWriter); ok {
		return bw.WriteEvents(rows)
	}
	for _, r := range rows {
		if err := w.WriteEvent(r); err != nil {
			return err
		}
	}
	return nil
}

func eventRows(runID string, events []engine.Event) []EventRow {
	rows := make([]EventRow, len(events))
	for i, ev := range events {
		rows[i] = EventRow{RunID: runID, Event: ev}
	}
	return rows
}
