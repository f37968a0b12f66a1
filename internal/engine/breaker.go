package engine

import (
	"fmt"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
)

// probeQuota is the number of half-open requests after which the circuit
// closes. Probe outcomes are not considered.
const probeQuota = 5

// window is a fixed-capacity FIFO of per-tick error rates backed by a ring.
type window struct {
	buf   []float64
	start int
	count int
}

func newWindow(size int) *window {
	if size < 1 {
		size = 1
	}
	return &window{buf: make([]float64, size)}
}

// push appends v, evicting the oldest entry when full.
func (w *window) push(v float64) {
	if w.count < len(w.buf) {
		w.buf[(w.start+w.count)%len(w.buf)] = v
		w.count++
		return
	}
	w.buf[w.start] = v
	w.start = (w.start + 1) % len(w.buf)
}

func (w *window) len() int { return w.count }

// values returns the entries oldest first.
func (w *window) values() []float64 {
	out := make([]float64, w.count)
	for i := range out {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}

func (w *window) mean() float64 {
	if w.count == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < w.count; i++ {
		sum += w.buf[(w.start+i)%len(w.buf)]
	}
	return sum / float64(w.count)
}

// transition describes a breaker state change to be recorded as an Event.
type transition struct {
	kind    EventKind
	message string
}

type breaker struct {
	policy       config.CircuitBreakerPolicy
	tickInterval int
	state        CircuitState
	window       *window
	openedAt     int
	probes       int
}

func newBreaker(p config.CircuitBreakerPolicy, tickInterval int) *breaker {
	return &breaker{
		policy:       p,
		tickInterval: tickInterval,
		state:        CircuitClosed,
		window:       newWindow(p.WindowTicks),
		openedAt:     -1,
	}
}

// probe counts one half-open request and reports whether it closed the circuit.
func (b *breaker) probe() (transition, bool) {
	if b.state != CircuitHalfOpen {
		return transition{}, false
	}
	b.probes++
	if b.probes <= probeQuota {
		return transition{}, false
	}
	b.state = CircuitClosed
	b.openedAt = -1
	return transition{EventCircuitClosed, "Circuit closed after successful test traffic"}, true
}

// observe records the error rate of tick and applies the closed→open and
// open→half-open transitions. A disabled breaker ignores every observation.
func (b *breaker) observe(tick int, errorRate float64) (transition, bool) {
	if !b.policy.Enabled {
		return transition{}, false
	}
	b.window.push(errorRate)
	avg := b.window.mean()

	switch b.state {
	case CircuitClosed:
		if avg > b.policy.ErrorThreshold {
			b.state = CircuitOpen
			b.openedAt = tick
			return transition{
				kind:    EventCircuitOpened,
				message: fmt.Sprintf("Circuit opened (error rate %.1f%% over %d ticks)", avg, b.window.len()),
			}, true
		}
	case CircuitOpen:
		cooldownTicks := b.policy.CooldownTime * 1000 / float64(b.tickInterval)
		if float64(tick-b.openedAt) >= cooldownTicks {
			b.state = CircuitHalfOpen
			b.probes = 0
			return transition{EventCircuitHalfOpen, "Circuit half-open, testing recovery"}, true
		}
	}
	return transition{}, false
}
