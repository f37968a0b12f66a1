package engine

import "math"

// generateLoad returns the number of requests arriving in the current tick:
// the rate-derived base plus up to 20% variance, minus a 10% dampening,
// rounded up and never below one.
func (e *Engine) generateLoad() int {
	base := math.Floor(e.cfg.RPS * float64(e.cfg.TickInterval) / 1000)
	variance := math.Floor(e.rand.Float64() * base * 0.2)
	n := int(math.Ceil(base + variance - base*0.1))
	return max(1, n)
}

// nextQueue returns the backlog after a tick that received generated requests.
func nextQueue(queue, generated, capacity int) int {
	processed := min(generated, capacity)
	return max(0, queue+generated-processed)
}

// failureProbability combines the base probability with queue and system
// state penalties, capped at 0.95.
func (e *Engine) failureProbability() float64 {
	p := e.cfg.BaseFailureProbability
	capacity := float64(e.cfg.Capacity)
	queue := float64(e.queue)
	if queue > capacity*0.5 {
		p += 0.15
	}
	if queue > capacity {
		p += 0.25
	}
	switch e.state {
	case StateDegraded:
		p += 0.10
	case StateDown:
		p += 0.40
	}
	return math.Min(p, 0.95)
}
