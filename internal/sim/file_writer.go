package sim

import (
	"encoding/json"
	"os"
)

// FileWriter writes metrics, events and summaries to JSONL files.
type FileWriter struct {
	metricFile  *os.File
	eventFile   *os.File
	summaryFile *os.File
	metricEnc   *json.Encoder
	eventEnc    *json.Encoder
	summaryEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. eventPath or summaryPath may be empty to skip those logs.
func NewFileWriter(metricPath, eventPath, summaryPath string) (*FileWriter, error) {
	mf, err := os.Create(metricPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{metricFile: mf, metricEnc: json.NewEncoder(mf)}
	if eventPath != "" {
		ef, err := os.Create(eventPath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.eventFile = ef
		fw.eventEnc = json.NewEncoder(ef)
	}
	if summaryPath != "" {
		sf, err := os.Create(summaryPath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.summaryFile = sf
		fw.summaryEnc = json.NewEncoder(sf)
	}
	return fw, nil
}

// WriteMetric logs a single tick metric.
func (f *FileWriter) WriteMetric(row MetricRow) error {
	return f.metricEnc.Encode(row)
}

// WriteMetrics logs multiple tick metrics.
func (f *FileWriter) WriteMetrics(rows []MetricRow) error {
	for _, r := range rows {
		if err := f.WriteMetric(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvent logs a single event, if enabled.
func (f *FileWriter) WriteEvent(row EventRow) error {
	if f.eventEnc == nil {
		return nil
	}
	return f.eventEnc.Encode(row)
}

// WriteEvents logs multiple events.
func (f *FileWriter) WriteEvents(rows []EventRow) error {
	for _, r := range rows {
		if err := f.WriteEvent(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary logs the run summary, if enabled.
func (f *FileWriter) WriteSummary(row SummaryRow) error {
	if f.summaryEnc == nil {
		return nil
	}
	return f.summaryEnc.Encode(row)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	for _, file := range []*os.File{f.metricFile, f.eventFile, f.summaryFile} {
		if file == nil {
			continue
		}
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
