package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"

	"github.com/jhaugland01/ReliabilitySim/internal/engine"
)

type mockGreptimeClient struct {
	tables []*table.Table
	err    error
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.tables = append(m.tables, tables...)
	return &gpb.GreptimeResponse{}, nil
}

func TestGreptimeWriterMetrics(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, tickTable: "reliability_ticks", eventTable: "reliability_events", start: time.Unix(0, 0).UTC()}

	rows := []MetricRow{
		{RunID: "r1", TickMetric: engine.TickMetric{Tick: 0, Time: 0, Requests: 10, ErrorRate: 20, CircuitState: engine.CircuitClosed, SystemState: engine.StateStable}},
		{RunID: "r1", TickMetric: engine.TickMetric{Tick: 1, Time: 0.25, Requests: 12, ErrorRate: 50, CircuitState: engine.CircuitOpen, SystemState: engine.StateDegraded}},
	}
	if err := w.WriteMetrics(rows); err != nil {
		t.Fatalf("WriteMetrics: %v", err)
	}
	if len(m.tables) != 1 {
		t.Fatalf("expected one table, got %d", len(m.tables))
	}
	got := m.tables[0].GetRows()
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got.Rows))
	}
	if got.Schema[0].ColumnName != "run_id" || got.Schema[0].SemanticType != gpb.SemanticType_TAG {
		t.Fatalf("unexpected first column %+v", got.Schema[0])
	}
	if v := got.Rows[1].Values[0].GetStringValue(); v != "r1" {
		t.Fatalf("run_id = %s, want r1", v)
	}
	if v := got.Rows[1].Values[2].GetI64Value(); v != 12 {
		t.Fatalf("requests = %d, want 12", v)
	}
	if v := got.Rows[1].Values[5].GetF64Value(); v != 50 {
		t.Fatalf("error_rate = %v, want 50", v)
	}
	if v := got.Rows[1].Values[11].GetStringValue(); v != "open" {
		t.Fatalf("circuit_state = %s, want open", v)
	}
	last := len(got.Schema) - 1
	if got.Schema[last].SemanticType != gpb.SemanticType_TIMESTAMP {
		t.Fatalf("last column should be the time index, got %+v", got.Schema[last])
	}
	if ts := got.Rows[1].Values[last].GetTimestampMillisecondValue(); ts != 250 {
		t.Fatalf("ts = %d, want 250", ts)
	}
}

func TestGreptimeWriterEvents(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, tickTable: "t", eventTable: "reliability_events", start: time.Unix(0, 0).UTC()}
	ev := EventRow{RunID: "r1", Event: engine.Event{Time: 1.5, Kind: engine.EventCircuitOpened, Message: "Circuit breaker opened"}}
	if err := w.WriteEvent(ev); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}
	got := m.tables[0].GetRows()
	if v := got.Rows[0].Values[1].GetStringValue(); v != "circuit_opened" {
		t.Fatalf("kind = %s, want circuit_opened", v)
	}
	if v := got.Rows[0].Values[2].GetStringValue(); v != ev.Message {
		t.Fatalf("message = %s", v)
	}
}

func TestGreptimeWriterError(t *testing.T) {
	m := &mockGreptimeClient{err: errors.New("unavailable")}
	w := &GreptimeDBWriter{client: m, tickTable: "t", eventTable: "e"}
	if err := w.WriteMetric(MetricRow{RunID: "r"}); err == nil {
		t.Fatalf("expected error")
	}
	if err := w.WriteEvents(nil); err != nil {
		t.Fatalf("empty batch should be a no-op: %v", err)
	}
}

func TestSplitEndpoint(t *testing.T) {
	host, port, err := splitEndpoint("greptimedb:4001")
	if err != nil || host != "greptimedb" || port != 4001 {
		t.Fatalf("got %s %d %v", host, port, err)
	}
	host, port, err = splitEndpoint("localhost")
	if err != nil || host != "localhost" || port != defaultGreptimePort {
		t.Fatalf("got %s %d %v", host, port, err)
	}
	if _, _, err := splitEndpoint(""); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
	if _, _, err := splitEndpoint("host:abc"); err == nil {
		t.Fatalf("expected error for bad port")
	}
}
