package sim

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jhaugland01/ReliabilitySim/internal/engine"
)

// recordWriter collects everything a Runner writes.
type recordWriter struct {
	mu        sync.Mutex
	metrics   []MetricRow
	events    []EventRow
	summaries []SummaryRow
}

func (w *recordWriter) WriteMetric(r MetricRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.metrics = append(w.metrics, r)
	return nil
}

func (w *recordWriter) WriteEvent(r EventRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, r)
	return nil
}

func (w *recordWriter) WriteSummary(r SummaryRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.summaries = append(w.summaries, r)
	return nil
}

func newTestEngine(t *testing.T, preset string, seed int64) *engine.Engine {
	t.Helper()
	eng, err := engine.New(presetConfig(t, preset), engine.WithSeed(seed))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return eng
}

func newShortEngine(t *testing.T, seed int64) *engine.Engine {
	t.Helper()
	cfg := presetConfig(t, "retry-storm")
	cfg.Duration = 1
	cfg.TickInterval = 100
	eng, err := engine.New(cfg, engine.WithSeed(seed))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return eng
}

func TestRunnerInstant(t *testing.T) {
	eng := newTestEngine(t, "retry-storm", 7)
	w := &recordWriter{}
	r := NewRunner("run-1", eng, w, 0)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(w.metrics) != eng.TotalTicks() {
		t.Fatalf("metrics = %d, want %d", len(w.metrics), eng.TotalTicks())
	}
	for i, m := range w.metrics {
		if m.RunID != "run-1" || m.Tick != i {
			t.Fatalf("row %d: unexpected %+v", i, m)
		}
	}
	if len(w.events) != eng.EventCount() {
		t.Fatalf("events = %d, want %d", len(w.events), eng.EventCount())
	}
	if len(w.summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(w.summaries))
	}
	want, _ := eng.Summarize()
	if w.summaries[0].Summary != want || w.summaries[0].Seed != 7 {
		t.Fatalf("unexpected summary row %+v", w.summaries[0])
	}
	if err := r.Run(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

type failingSummaryWriter struct {
	recordWriter
	err error
}

func (w *failingSummaryWriter) WriteSummary(SummaryRow) error { return w.err }

func TestRunnerSummaryWriteFailure(t *testing.T) {
	errDisk := errors.New("disk full")
	w := &failingSummaryWriter{err: errDisk}
	r := NewRunner("run", newShortEngine(t, 1), w, 0)
	sub := r.Subscribe(32)
	if err := r.Run(context.Background()); !errors.Is(err, errDisk) {
		t.Fatalf("Run error = %v, want %v", err, errDisk)
	}
	for u := range sub.Updates() {
		if u.Type == UpdateComplete {
			t.Fatalf("complete update published after a failed summary write")
		}
	}
	if len(w.metrics) != 10 {
		t.Fatalf("metrics = %d, want 10", len(w.metrics))
	}
}

func TestRunnerDeterministic(t *testing.T) {
	a, b := &recordWriter{}, &recordWriter{}
	if err := NewRunner("a", newTestEngine(t, "network-spike", 99), a, 0).Run(context.Background()); err != nil {
		t.Fatalf("run a: %v", err)
	}
	if err := NewRunner("b", newTestEngine(t, "network-spike", 99), b, 0).Run(context.Background()); err != nil {
		t.Fatalf("run b: %v", err)
	}
	for i := range a.metrics {
		if a.metrics[i].TickMetric != b.metrics[i].TickMetric {
			t.Fatalf("tick %d differs", i)
		}
	}
}

func TestRunnerSubscription(t *testing.T) {
	eng := newShortEngine(t, 3)
	r := NewRunner("run", eng, nil, 0)
	sub := r.Subscribe(4)

	errc := make(chan error, 1)
	go func() { errc <- r.Run(context.Background()) }()

	var ticks int
	var complete *engine.Summary
	for u := range sub.Updates() {
		switch u.Type {
		case UpdateTick:
			if u.Tick == nil || u.Tick.Tick != ticks {
				t.Fatalf("unexpected tick update %+v", u)
			}
			ticks++
		case UpdateComplete:
			complete = u.Summary
		}
	}
	if err := <-errc; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ticks != 10 {
		t.Fatalf("ticks = %d, want 10", ticks)
	}
	if complete == nil {
		t.Fatalf("missing complete update")
	}

	late := r.Subscribe(1)
	u, ok := <-late.Updates()
	if !ok || u.Type != UpdateComplete {
		t.Fatalf("late subscriber should get the complete update, got %+v %v", u, ok)
	}
	if _, ok := <-late.Updates(); ok {
		t.Fatalf("late channel should be closed")
	}
}

func TestRunnerCancelledSubscriberDoesNotBlock(t *testing.T) {
	r := NewRunner("run", newShortEngine(t, 5), nil, 0)
	sub := r.Subscribe(1)
	sub.Cancel()
	sub.Cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("runner blocked on a cancelled subscriber")
	}
}

func TestRunnerCancel(t *testing.T) {
	w := &recordWriter{}
	r := NewRunner("run", newShortEngine(t, 1), w, 0)
	sub := r.Subscribe(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(w.metrics) != 0 || len(w.summaries) != 0 {
		t.Fatalf("nothing should be written after cancellation")
	}
	if _, ok := <-sub.Updates(); ok {
		t.Fatalf("subscription should be closed")
	}
}

func TestRunnerPacedCancel(t *testing.T) {
	w := &recordWriter{}
	r := NewRunner("run", newShortEngine(t, 1), w, 5*time.Millisecond)
	sub := r.Subscribe(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx) }()

	u := <-sub.Updates()
	if u.Type != UpdateTick {
		t.Fatalf("expected a tick first, got %s", u.Type)
	}
	cancel()
	sub.Cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.summaries) != 0 {
		t.Fatalf("cancelled run must not write a summary")
	}
	if len(w.metrics) == 0 || len(w.metrics) >= 10 {
		t.Fatalf("expected a partial run, got %d metrics", len(w.metrics))
	}
}
