package engine

import "math"

// fastFailLatency is the latency in ms charged to a request rejected by an
// open circuit.
const fastFailLatency = 5

type outcome struct {
	ok      bool
	latency float64
	retries int
}

// simulateRequest runs one synthetic request through the breaker and the
// retry loop.
func (e *Engine) simulateRequest() outcome {
	switch e.breaker.state {
	case CircuitOpen:
		return outcome{latency: fastFailLatency}
	case CircuitHalfOpen:
		if tr, ok := e.breaker.probe(); ok {
			e.emit(tr.kind, tr.message)
		}
	}

	policy := e.cfg.Retry
	var total float64
	for attempt := 0; ; attempt++ {
		total += e.sampleLatency()
		if !e.shouldFail() {
			return outcome{ok: true, latency: total, retries: attempt}
		}
		if attempt >= policy.MaxRetries {
			return outcome{latency: total, retries: attempt}
		}
		total += Backoff(policy, attempt)
	}
}

// sampleLatency draws one attempt latency in whole milliseconds, at least 1.
func (e *Engine) sampleLatency() float64 {
	latency := e.cfg.BaseLatency + (e.rand.Float64()*2-1)*e.cfg.LatencyJitter
	if e.queue > 0 {
		latency *= 1 + float64(e.queue)/float64(e.cfg.Capacity)
	}
	switch e.state {
	case StateDegraded:
		latency *= 1.5
	case StateDown:
		latency *= 3
	}
	return math.Max(1, math.Floor(latency))
}

func (e *Engine) shouldFail() bool {
	return e.rand.Float64() < e.failureProbability()
}
