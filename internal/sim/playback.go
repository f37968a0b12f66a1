package sim

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"
)

const replayBatch = 256

// ReplayLog replays metric rows from a JSONL log to writer. Delays follow
// the simulated time between rows divided by speed. If speed <= 0, no
// artificial delay is inserted and rows are forwarded in batches.
func ReplayLog(r io.Reader, writer MetricWriter, speed float64) error {
	dec := json.NewDecoder(bufio.NewReader(r))
	var batch []MetricRow
	var prev float64
	first := true
	for {
		var row MetricRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return writeMetrics(writer, batch)
			}
			return err
		}
		if speed <= 0 {
			batch = append(batch, row)
			if len(batch) >= replayBatch {
				if err := writeMetrics(writer, batch); err != nil {
					return err
				}
				batch = batch[:0]
			}
			continue
		}
		if !first {
			diff := time.Duration((row.Time - prev) / speed * float64(time.Second))
			if diff > 0 {
				time.Sleep(diff)
			}
		}
		if err := writer.WriteMetric(row); err != nil {
			return err
		}
		prev = row.Time
		first = false
	}
}

// ReplayLogFile opens a file and replays its metric rows.
func ReplayLogFile(path string, writer MetricWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}
