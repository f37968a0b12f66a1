// Package sim drives engine runs: pacing, fan-out to writers and live
// subscribers, and log replay.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhaugland01/ReliabilitySim/internal/engine"
	"github.com/jhaugland01/ReliabilitySim/internal/logging"
)

// ErrAlreadyStarted is returned when Run is called twice on one Runner.
var ErrAlreadyStarted = errors.New("runner already started")

// UpdateType distinguishes tick updates from the final update.
type UpdateType string

const (
	UpdateTick     UpdateType = "tick"
	UpdateComplete UpdateType = "complete"
)

// Update is what subscribers receive for every tick and once at the end.
type Update struct {
	Type    UpdateType
	Tick    *engine.TickMetric
	Events  []engine.Event
	Summary *engine.Summary
}

// Runner advances one engine and forwards its output. A pace above zero
// spaces ticks on a ticker; zero runs them back to back.
type Runner struct {
	runID  string
	eng    *engine.Engine
	writer MetricWriter
	pace   time.Duration

	started atomic.Bool

	mu       sync.Mutex
	subs     map[int]*Subscription
	nextSub  int
	finished bool
	final    *Update
}

// NewRunner wraps eng. writer may be nil. Event and summary output is
// delivered when writer also implements EventWriter or SummaryWriter.
func NewRunner(runID string, eng *engine.Engine, writer MetricWriter, pace time.Duration) *Runner {
	return &Runner{
		runID:  runID,
		eng:    eng,
		writer: writer,
		pace:   pace,
		subs:   make(map[int]*Subscription),
	}
}

// RunID returns the identifier the runner tags its rows with.
func (r *Runner) RunID() string { return r.runID }

// Run advances every remaining tick and stops when the context is done.
// It returns ctx.Err() on cancellation, the engine error if a tick cannot
// be advanced and the writer error if the summary cannot be written.
func (r *Runner) Run(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	log := logging.FromContext(ctx).With("run_id", r.runID)
	log.Info("run started", "seed", r.eng.Seed(), "ticks", r.eng.TotalTicks(), "pace", r.pace)

	var tick <-chan time.Time
	if r.pace > 0 {
		ticker := time.NewTicker(r.pace)
		defer ticker.Stop()
		tick = ticker.C
	}

	for !r.eng.Done() {
		if tick != nil {
			select {
			case <-tick:
			case <-ctx.Done():
				r.finish(nil)
				log.Info("run cancelled", "tick", r.eng.CurrentTick())
				return ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			r.finish(nil)
			log.Info("run cancelled", "tick", r.eng.CurrentTick())
			return err
		}

		seen := r.eng.EventCount()
		m, err := r.eng.AdvanceTick()
		if err != nil {
			r.finish(nil)
			return err
		}
		events := r.eng.EventsSince(seen)
		r.write(ctx, m, events)
		r.publish(ctx, Update{Type: UpdateTick, Tick: &m, Events: events})
	}

	sum, err := r.eng.Summarize()
	if err != nil {
		r.finish(nil)
		return err
	}
	// Unlike tick rows, a lost summary leaves the run without a result, so
	// it fails the run and no complete update is published.
	if sw, ok := r.writer.(SummaryWriter); ok {
		if err := sw.WriteSummary(SummaryRow{RunID: r.runID, Seed: r.eng.Seed(), Summary: sum}); err != nil {
			log.Error("summary write failed", "err", err)
			r.finish(nil)
			return fmt.Errorf("write summary: %w", err)
		}
	}
	final := Update{Type: UpdateComplete, Summary: &sum}
	r.publish(ctx, final)
	r.finish(&final)
	log.Info("run completed", "requests", sum.TotalRequests, "error_rate", sum.ErrorRate, "main_cause", sum.MainCause)
	return nil
}

func (r *Runner) write(ctx context.Context, m engine.TickMetric, events []engine.Event) {
	if r.writer == nil {
		return
	}
	log := logging.FromContext(ctx)
	if err := r.writer.WriteMetric(MetricRow{RunID: r.runID, TickMetric: m}); err != nil {
		log.Error("metric write failed", "run_id", r.runID, "tick", m.Tick, "err", err)
	}
	if ew, ok := r.writer.(EventWriter); ok && len(events) > 0 {
		if err := writeEvents(ew, eventRows(r.runID, events)); err != nil {
			log.Error("event write failed", "run_id", r.runID, "tick", m.Tick, "err", err)
		}
	}
}

// publish delivers u to every live subscriber. A slow subscriber applies
// backpressure; a cancelled one is skipped.
func (r *Runner) publish(ctx context.Context, u Update) {
	r.mu.Lock()
	subs := make([]*Subscription, 0, len(r.subs))
	for _, s := range r.subs {
		subs = append(subs, s)
	}
	r.mu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- u:
		case <-s.done:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runner) finish(final *Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = true
	r.final = final
	for id, s := range r.subs {
		close(s.ch)
		delete(r.subs, id)
	}
}

// Subscribe registers a live subscriber with the given channel buffer. A
// subscriber attached after the run ended receives the complete update, if
// any, on an already closed channel.
func (r *Runner) Subscribe(buf int) *Subscription {
	if buf < 1 {
		buf = 1
	}
	s := &Subscription{ch: make(chan Update, buf), done: make(chan struct{}), r: r}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		if r.final != nil {
			s.ch <- *r.final
		}
		close(s.ch)
		return s
	}
	s.id = r.nextSub
	r.nextSub++
	r.subs[s.id] = s
	return s
}

// Subscription is one live view of a Runner.
type Subscription struct {
	id   int
	ch   chan Update
	done chan struct{}
	once sync.Once
	r    *Runner
}

// Updates returns the channel of updates. It is closed when the run ends.
func (s *Subscription) Updates() <-chan Update { return s.ch }

// Cancel detaches the subscription. The channel is not closed by Cancel.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		close(s.done)
		s.r.mu.Lock()
		delete(s.r.subs, s.id)
		s.r.mu.Unlock()
	})
}
