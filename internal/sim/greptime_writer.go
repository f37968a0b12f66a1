package sim

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
)

const (
	defaultGreptimePort = 4001
	greptimeTimeout     = 5 * time.Second
)

// greptimeClient is the subset of the ingester client the writer needs.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes tick metrics and events to GreptimeDB via the
// ingester client. Rows are stamped with the run start plus the simulated
// time, so one run occupies its real wall-clock span.
type GreptimeDBWriter struct {
	client     greptimeClient
	tickTable  string
	eventTable string
	start      time.Time
}

// NewGreptimeDBWriter connects to the endpoint in settings. start anchors
// simulated time.
func NewGreptimeDBWriter(s config.GreptimeSettings, start time.Time) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(s.Endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(s.Database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptimedb client: %w", err)
	}
	return &GreptimeDBWriter{
		client:     client,
		tickTable:  s.TickTable,
		eventTable: s.EventTable,
		start:      start,
	}, nil
}

func splitEndpoint(endpoint string) (string, int, error) {
	if endpoint == "" {
		return "", 0, fmt.Errorf("greptimedb endpoint is empty")
	}
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		// bare host
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("greptimedb endpoint %q: bad port", endpoint)
	}
	return host, port, nil
}

func (w *GreptimeDBWriter) stamp(simSeconds float64) time.Time {
	return w.start.Add(time.Duration(simSeconds * float64(time.Second)))
}

// WriteMetric inserts a single tick metric.
func (w *GreptimeDBWriter) WriteMetric(row MetricRow) error {
	return w.WriteMetrics([]MetricRow{row})
}

// WriteMetrics inserts multiple tick metrics in one request.
func (w *GreptimeDBWriter) WriteMetrics(rows []MetricRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.tickTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("run_id", types.STRING)
	tbl.AddFieldColumn("tick", types.INT64)
	tbl.AddFieldColumn("requests", types.INT64)
	tbl.AddFieldColumn("success_count", types.INT64)
	tbl.AddFieldColumn("failure_count", types.INT64)
	tbl.AddFieldColumn("error_rate", types.FLOAT64)
	tbl.AddFieldColumn("avg_latency", types.FLOAT64)
	tbl.AddFieldColumn("p95_latency", types.FLOAT64)
	tbl.AddFieldColumn("max_latency", types.FLOAT64)
	tbl.AddFieldColumn("retry_count", types.INT64)
	tbl.AddFieldColumn("queue_depth", types.INT64)
	tbl.AddFieldColumn("circuit_state", types.STRING)
	tbl.AddFieldColumn("system_state", types.STRING)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(
			r.RunID,
			int64(r.Tick),
			int64(r.Requests),
			int64(r.SuccessCount),
			int64(r.FailureCount),
			r.ErrorRate,
			r.AvgLatency,
			r.P95Latency,
			r.MaxLatency,
			int64(r.RetryCount),
			int64(r.QueueDepth),
			string(r.CircuitState),
			string(r.SystemState),
			w.stamp(r.Time),
		); err != nil {
			return err
		}
	}
	return w.write(tbl)
}

// WriteEvent inserts a single event.
func (w *GreptimeDBWriter) WriteEvent(row EventRow) error {
	return w.WriteEvents([]EventRow{row})
}

// WriteEvents inserts multiple events in one request.
func (w *GreptimeDBWriter) WriteEvents(rows []EventRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.eventTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("run_id", types.STRING)
	tbl.AddTagColumn("kind", types.STRING)
	tbl.AddFieldColumn("message", types.STRING)
	tbl.AddFieldColumn("sim_time", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(r.RunID, string(r.Kind), r.Message, r.Time, w.stamp(r.Time)); err != nil {
			return err
		}
	}
	return w.write(tbl)
}

func (w *GreptimeDBWriter) write(tbl *table.Table) error {
	ctx, cancel := context.WithTimeout(context.Background(), greptimeTimeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		return fmt.Errorf("greptimedb write: %w", err)
	}
	return nil
}
