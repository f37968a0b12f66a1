package report

import (
	"fmt"
	"strings"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
	"github.com/jhaugland01/ReliabilitySim/internal/engine"
)

// Narrative describes a completed run in a few sentences: the load, how
// the service held up, and the main cause.
func Narrative(cfg config.SimulationConfig, s engine.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The service received %d requests over %ss at a target of %s RPS against a capacity of %d per tick.",
		s.TotalRequests, num(cfg.Duration), num(cfg.RPS), cfg.Capacity)

	switch {
	case s.DowntimeSec > 0:
		fmt.Fprintf(&b, " %.1f%% succeeded, p95 latency reached %.0fms and the system was down for %.1fs.",
			s.SuccessRate, s.P95Latency, s.DowntimeSec)
	case s.ErrorRate > 10:
		fmt.Fprintf(&b, " Only %.1f%% succeeded and p95 latency reached %.0fms.", s.SuccessRate, s.P95Latency)
	default:
		fmt.Fprintf(&b, " %.1f%% succeeded with a p95 latency of %.0fms.", s.SuccessRate, s.P95Latency)
	}

	if s.CircuitTrips > 0 {
		trips := "time"
		if s.CircuitTrips > 1 {
			trips = "times"
		}
		fmt.Fprintf(&b, " The circuit breaker tripped %d %s.", s.CircuitTrips, trips)
	}
	if s.RetryStorms > 0 {
		fmt.Fprintf(&b, " Retries outnumbered original requests in %d ticks.", s.RetryStorms)
	}
	fmt.Fprintf(&b, " %s.", strings.TrimSuffix(s.MainCause, "."))
	return b.String()
}

// Text renders the plain-text run report.
func Text(scenario string, duration float64, s engine.Summary) string {
	lines := []string{
		"Reliability Simulation Report",
		"Scenario: " + scenario,
		fmt.Sprintf("Duration: %ss", num(duration)),
		"",
		"Results:",
		fmt.Sprintf("- Total Requests: %d", s.TotalRequests),
		fmt.Sprintf("- Success Rate: %.1f%%", s.SuccessRate),
		fmt.Sprintf("- Error Rate: %.1f%%", s.ErrorRate),
		fmt.Sprintf("- Avg Latency: %.0fms", s.AvgLatency),
		fmt.Sprintf("- p95 Latency: %.0fms", s.P95Latency),
		fmt.Sprintf("- Max Latency: %.0fms", s.MaxLatency),
		fmt.Sprintf("- Downtime: %.1fs", s.DowntimeSec),
		fmt.Sprintf("- Circuit Breaker Trips: %d", s.CircuitTrips),
		"",
		"Analysis: " + s.MainCause,
	}
	return strings.Join(lines, "\n")
}
