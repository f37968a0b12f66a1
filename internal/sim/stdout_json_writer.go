package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSONStdoutWriter prints metrics, events and summaries as JSON lines.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

func (w *JSONStdoutWriter) print(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteMetric outputs a tick metric in JSON format.
func (w *JSONStdoutWriter) WriteMetric(row MetricRow) error { return w.print(row) }

// WriteEvent outputs an event in JSON format.
func (w *JSONStdoutWriter) WriteEvent(row EventRow) error { return w.print(row) }

// WriteSummary outputs the run summary in JSON format.
func (w *JSONStdoutWriter) WriteSummary(row SummaryRow) error { return w.print(row) }
