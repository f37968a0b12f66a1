package sim

import (
	"context"
	"testing"
	"time"

	"github.com/jhaugland01/ReliabilitySim/internal/store"
)

func TestStoreWriterPersistsRun(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	if err := st.CreateRun(ctx, store.Run{ID: "run", ScenarioID: "s", Status: store.StatusRunning, StartedAt: time.Now()}); err != nil {
		t.Fatalf("create run: %v", err)
	}
	eng := newShortEngine(t, 11)
	w := NewStoreWriter(ctx, st, "run")
	fixed := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	if err := NewRunner("run", eng, w, 0).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	r, err := st.GetRun(ctx, "run")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if r.Status != store.StatusCompleted || r.Summary == nil {
		t.Fatalf("run not completed: %+v", r)
	}
	if len(r.Metrics) != eng.TotalTicks() || len(r.Events) != eng.EventCount() {
		t.Fatalf("series mismatch: %d/%d metrics %d/%d events", len(r.Metrics), eng.TotalTicks(), len(r.Events), eng.EventCount())
	}
	if !r.CompletedAt.Equal(fixed) {
		t.Fatalf("completed at %v, want %v", r.CompletedAt, fixed)
	}
}

func TestStoreWriterMissingRun(t *testing.T) {
	w := NewStoreWriter(context.Background(), store.NewMemoryStore(), "nope")
	if err := w.WriteMetric(MetricRow{}); err == nil {
		t.Fatalf("expected error for unknown run")
	}
	if err := w.WriteMetrics([]MetricRow{{}}); err == nil {
		t.Fatalf("expected error for unknown run")
	}
}
