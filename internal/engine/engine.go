// Package engine implements the discrete-tick reliability model. It performs
// no I/O: callers decide cadence, persistence and presentation.
package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
	"github.com/jhaugland01/ReliabilitySim/internal/rng"
)

// Option customizes engine construction.
type Option func(*options)

type options struct {
	seed    int64
	seeded  bool
	entropy func() int64
}

// WithSeed fixes the seed of the run.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithEntropy sets the source used for the seed when WithSeed is absent.
func WithEntropy(fn func() int64) Option {
	return func(o *options) { o.entropy = fn }
}

// ClockEntropy derives a seed from the wall clock.
func ClockEntropy() int64 { return time.Now().UnixNano() }

// Engine owns the mutable state of exactly one run. It is not safe for
// concurrent use.
type Engine struct {
	cfg   config.SimulationConfig
	seed  int64
	rand  *rng.Source
	total int

	tick    int
	state   SystemState
	breaker *breaker
	queue   int

	totalRequests  int
	totalSuccesses int
	totalFailures  int

	metrics []TickMetric
	events  []Event
	summary *Summary
}

// New validates cfg and returns an engine positioned before tick 0.
func New(cfg config.SimulationConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{entropy: ClockEntropy}
	for _, opt := range opts {
		opt(&o)
	}
	seed := o.seed
	if !o.seeded {
		// Only the low 32 bits feed the generator; keep the recorded seed
		// equal to what is actually used.
		seed = o.entropy() & 0xffffffff
	}
	total := cfg.TotalTicks()
	return &Engine{
		cfg:     cfg,
		seed:    seed,
		rand:    rng.New(seed),
		total:   total,
		state:   StateStable,
		breaker: newBreaker(cfg.CircuitBreaker, cfg.TickInterval),
		metrics: make([]TickMetric, 0, total),
	}, nil
}

// AdvanceTick computes the next tick, appends its metric and events and
// returns the metric.
func (e *Engine) AdvanceTick() (TickMetric, error) {
	if e.tick >= e.total {
		return TickMetric{}, fmt.Errorf("%w: all %d ticks advanced", ErrRunComplete, e.total)
	}

	generated := e.generateLoad()
	latencies := make([]float64, 0, generated)
	var successes, failures, retries int
	var sum float64
	for i := 0; i < generated; i++ {
		out := e.simulateRequest()
		if out.ok {
			successes++
		} else {
			failures++
		}
		latencies = append(latencies, out.latency)
		sum += out.latency
		retries += out.retries
	}
	e.queue = nextQueue(e.queue, generated, e.cfg.Capacity)
	slices.Sort(latencies)

	m := TickMetric{
		Tick:           e.tick,
		Time:           e.cfg.TickSeconds(e.tick),
		Requests:       generated,
		RequestsPerSec: float64(generated) / (float64(e.cfg.TickInterval) / 1000),
		SuccessCount:   successes,
		FailureCount:   failures,
		ErrorRate:      float64(failures) / float64(generated) * 100,
		AvgLatency:     sum / float64(generated),
		P95Latency:     percentileSorted(latencies, 0.95),
		MaxLatency:     latencies[len(latencies)-1],
		RetryCount:     retries,
		QueueDepth:     e.queue,
	}
	e.totalRequests += generated
	e.totalSuccesses += successes
	e.totalFailures += failures

	if tr, ok := e.breaker.observe(e.tick, m.ErrorRate); ok {
		e.emit(tr.kind, tr.message)
	}
	// The recorded system state is the one the tick's requests were served
	// under; the classification below applies from the next tick on.
	m.CircuitState = e.breaker.state
	m.SystemState = e.state
	e.metrics = append(e.metrics, m)
	e.updateSystemState(m)

	e.tick++
	return m, nil
}

func (e *Engine) updateSystemState(m TickMetric) {
	prev := e.state
	e.state = classify(prev, m, e.queue, e.cfg)
	if e.state != prev {
		e.emit(EventStateTransition, fmt.Sprintf("State transition: %s → %s", prev, e.state))
	}
	if isRetryStorm(m) {
		e.emit(EventRetryStorm, "Retry storm detected (retries exceed original requests)")
	}
}

func (e *Engine) emit(kind EventKind, msg string) {
	e.events = append(e.events, Event{Time: e.cfg.TickSeconds(e.tick), Kind: kind, Message: msg})
}

// Run advances every remaining tick and returns the full result.
func (e *Engine) Run() (Result, error) {
	for !e.Done() {
		if _, err := e.AdvanceTick(); err != nil {
			return Result{}, err
		}
	}
	s, err := e.Summarize()
	if err != nil {
		return Result{}, err
	}
	return Result{Seed: e.seed, Metrics: e.Metrics(), Events: e.Events(), Summary: s}, nil
}

// Summarize returns the run summary. It fails until the last tick has been
// advanced and returns the same value on every later call.
func (e *Engine) Summarize() (Summary, error) {
	if !e.Done() {
		return Summary{}, fmt.Errorf("%w: %d of %d ticks advanced", ErrRunIncomplete, e.tick, e.total)
	}
	if e.summary == nil {
		s := e.buildSummary()
		e.summary = &s
	}
	return *e.summary, nil
}

// Done reports whether every tick has been advanced.
func (e *Engine) Done() bool { return e.tick >= e.total }

// TotalTicks is the number of ticks in the run.
func (e *Engine) TotalTicks() int { return e.total }

// CurrentTick is the index of the next tick to advance.
func (e *Engine) CurrentTick() int { return e.tick }

// Seed is the seed the run was constructed with.
func (e *Engine) Seed() int64 { return e.seed }

// Config returns the run configuration.
func (e *Engine) Config() config.SimulationConfig { return e.cfg }

// CircuitState returns the current breaker state.
func (e *Engine) CircuitState() CircuitState { return e.breaker.state }

// SystemState returns the current system state.
func (e *Engine) SystemState() SystemState { return e.state }

// QueueDepth returns the current backlog.
func (e *Engine) QueueDepth() int { return e.queue }

// Metrics returns a copy of the tick metrics produced so far.
func (e *Engine) Metrics() []TickMetric { return slices.Clone(e.metrics) }

// Events returns a copy of the events emitted so far.
func (e *Engine) Events() []Event { return slices.Clone(e.events) }

// EventsSince returns a copy of the events emitted after the first n.
func (e *Engine) EventsSince(n int) []Event {
	if n < 0 {
		n = 0
	}
	if n >= len(e.events) {
		return nil
	}
	return slices.Clone(e.events[n:])
}

// EventCount returns the number of events emitted so far.
func (e *Engine) EventCount() int { return len(e.events) }
