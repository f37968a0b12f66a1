package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
	"github.com/jhaugland01/ReliabilitySim/internal/engine"
)

func TestEnsureParseTime(t *testing.T) {
	cases := map[string]string{
		"user:pw@tcp(localhost:3306)/sim":                 "user:pw@tcp(localhost:3306)/sim?parseTime=true",
		"user:pw@tcp(localhost:3306)/sim?charset=utf8mb4": "user:pw@tcp(localhost:3306)/sim?charset=utf8mb4&parseTime=true",
		"user:pw@tcp(localhost:3306)/sim?parseTime=false": "user:pw@tcp(localhost:3306)/sim?parseTime=false",
	}
	for in, want := range cases {
		if got := ensureParseTime(in); got != want {
			t.Errorf("ensureParseTime(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenMySQLRequiresDSN(t *testing.T) {
	if _, err := OpenMySQL(context.Background(), config.StoreSettings{Driver: "mysql"}); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

// TestMySQLStoreIntegration runs against a real server when
// RELSIM_TEST_MYSQL_DSN is set.
func TestMySQLStoreIntegration(t *testing.T) {
	dsn := os.Getenv("RELSIM_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("RELSIM_TEST_MYSQL_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := OpenMySQL(ctx, config.StoreSettings{Driver: "mysql", DSN: dsn, MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	sc := testScenario(t, uuid.NewString(), now)
	if err := s.SaveScenario(ctx, sc); err != nil {
		t.Fatalf("save scenario: %v", err)
	}
	defer s.DeleteScenario(ctx, sc.ID)

	got, err := s.GetScenario(ctx, sc.ID)
	if err != nil {
		t.Fatalf("get scenario: %v", err)
	}
	if got.Config != sc.Config {
		t.Fatalf("config mismatch: %+v != %+v", got.Config, sc.Config)
	}

	runID := uuid.NewString()
	if err := s.CreateRun(ctx, Run{ID: runID, ScenarioID: sc.ID, Seed: 7, Status: StatusRunning, Duration: 30, TickInterval: 250, StartedAt: now}); err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := s.AppendMetrics(ctx, runID, []engine.TickMetric{{Tick: 0, Requests: 5}, {Tick: 1, Requests: 6}}); err != nil {
		t.Fatalf("append metrics: %v", err)
	}
	if err := s.AppendEvents(ctx, runID, []engine.Event{{Time: 0.25, Kind: engine.EventRetryStorm, Message: "storm"}}); err != nil {
		t.Fatalf("append events: %v", err)
	}
	if err := s.AppendEvents(ctx, runID, []engine.Event{{Time: 0.5, Kind: engine.EventCircuitOpened, Message: "open"}}); err != nil {
		t.Fatalf("append events: %v", err)
	}
	if err := s.CompleteRun(ctx, runID, engine.Summary{TotalRequests: 11}, now); err != nil {
		t.Fatalf("complete: %v", err)
	}

	r, err := s.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if r.Status != StatusCompleted || r.Summary == nil || r.Summary.TotalRequests != 11 {
		t.Fatalf("unexpected run %+v", r)
	}
	if len(r.Metrics) != 2 || len(r.Events) != 2 || r.Events[1].Kind != engine.EventCircuitOpened {
		t.Fatalf("unexpected series %+v %+v", r.Metrics, r.Events)
	}

	if err := s.DeleteScenario(ctx, sc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetRun(ctx, runID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected cascade delete, got %v", err)
	}
}
