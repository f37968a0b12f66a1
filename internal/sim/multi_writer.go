package sim

import "errors"

// MultiWriter fans out metrics, events and summaries to multiple writers.
// Writers that do not implement EventWriter or SummaryWriter are skipped
// for those rows.
type MultiWriter struct {
	writers []MetricWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...MetricWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Add appends a writer.
func (mw *MultiWriter) Add(w MetricWriter) { mw.writers = append(mw.writers, w) }

// Len returns the number of writers.
func (mw *MultiWriter) Len() int { return len(mw.writers) }

// WriteMetric sends a metric to every writer. All writers are attempted
// and their errors are joined.
func (mw *MultiWriter) WriteMetric(row MetricRow) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.WriteMetric(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteMetrics sends multiple metrics to every writer, using batch if supported.
func (mw *MultiWriter) WriteMetrics(rows []MetricRow) error {
	var errs []error
	for _, w := range mw.writers {
		if err := writeMetrics(w, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteEvent sends an event to every event writer.
func (mw *MultiWriter) WriteEvent(row EventRow) error {
	var errs []error
	for _, w := range mw.writers {
		if ew, ok := w.(EventWriter); ok {
			if err := ew.WriteEvent(row); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// WriteEvents sends multiple events to every event writer, using batch if supported.
func (mw *MultiWriter) WriteEvents(rows []EventRow) error {
	var errs []error
	for _, w := range mw.writers {
		if ew, ok := w.(EventWriter); ok {
			if err := writeEvents(ew, rows); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// WriteSummary sends the summary to every summary writer.
func (mw *MultiWriter) WriteSummary(row SummaryRow) error {
	var errs []error
	for _, w := range mw.writers {
		if sw, ok := w.(SummaryWriter); ok {
			if err := sw.WriteSummary(row); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every writer that has a Close method.
func (mw *MultiWriter) Close() error {
	var errs []error
	for _, w := range mw.writers {
		if c, ok := w.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
