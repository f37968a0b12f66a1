package engine

import "github.com/jhaugland01/ReliabilitySim/internal/config"

// classify derives the system state from one tick's metrics and the queue
// depth. When no rule matches the previous state is kept.
func classify(prev SystemState, m TickMetric, queue int, cfg config.SimulationConfig) SystemState {
	switch {
	case m.ErrorRate > 50 || float64(queue) > float64(cfg.Capacity)*2:
		return StateDown
	case m.ErrorRate > 20 || m.P95Latency > cfg.BaseLatency*3:
		return StateDegraded
	case m.ErrorRate < 10 && m.P95Latency < cfg.BaseLatency*1.5:
		return StateStable
	default:
		return prev
	}
}

// isRetryStorm reports whether retries in the tick outnumber its requests.
func isRetryStorm(m TickMetric) bool {
	return m.RetryCount > m.SuccessCount+m.FailureCount
}
