package engine

import (
	"github.com/jhaugland01/ReliabilitySim/internal/config"
)

// Root causes reported in Summary.MainCause.
const (
	CauseRetryStorm      = "Retry storm caused cascading failures and increased load"
	CauseHighFailureRate = "High base failure rate overwhelmed system capacity"
	CauseDowntime        = "Extended downtime due to capacity saturation"
	CauseBreakerFlapping = "Multiple circuit breaker trips indicate unstable conditions"
	CauseNormal          = "System operated normally"
)

func (e *Engine) buildSummary() Summary {
	s := Summary{
		TotalRequests:  e.totalRequests,
		TotalSuccesses: e.totalSuccesses,
		TotalFailures:  e.totalFailures,
	}
	if e.totalRequests > 0 {
		s.SuccessRate = float64(e.totalSuccesses) / float64(e.totalRequests) * 100
		s.ErrorRate = float64(e.totalFailures) / float64(e.totalRequests) * 100
	}

	// AvgLatency weighs every tick equally. P95 and max are taken over the
	// flattened distribution in which each tick's mean latency stands for
	// each of its requests.
	var meanSum float64
	downTicks := 0
	dist := make([]weighted, 0, len(e.metrics))
	for _, m := range e.metrics {
		meanSum += m.AvgLatency
		if m.SystemState == StateDown {
			downTicks++
		}
		dist = append(dist, weighted{value: m.AvgLatency, count: m.Requests})
		s.MaxLatency = max(s.MaxLatency, m.AvgLatency)
	}
	if len(e.metrics) > 0 {
		s.AvgLatency = meanSum / float64(len(e.metrics))
	}
	if p95, err := weightedPercentile(dist, 0.95); err == nil {
		s.P95Latency = p95
	}
	s.DowntimeSec = float64(downTicks) * float64(e.cfg.TickInterval) / 1000

	for _, ev := range e.events {
		switch ev.Kind {
		case EventCircuitOpened:
			s.CircuitTrips++
		case EventRetryStorm:
			s.RetryStorms++
		}
	}
	s.MainCause = MainCause(e.cfg, s)
	return s
}

// MainCause applies the root-cause cascade to a summary; the first matching
// rule wins.
func MainCause(cfg config.SimulationConfig, s Summary) string {
	switch {
	case s.RetryStorms > 0 && cfg.Retry.MaxRetries > 0:
		return CauseRetryStorm
	case s.ErrorRate > 40:
		return CauseHighFailureRate
	case s.DowntimeSec > cfg.Duration*0.3:
		return CauseDowntime
	case s.CircuitTrips > 2:
		return CauseBreakerFlapping
	default:
		return CauseNormal
	}
}
