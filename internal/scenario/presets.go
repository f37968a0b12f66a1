package scenario

import (
	"sort"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
)

// BuiltIn returns the preset scenarios keyed by a URL-safe name.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"healthy-system": {
			Name:        "Healthy System",
			Description: "Comfortable headroom, low failure rate and one exponential retry.",
			Config: config.SimulationConfig{
				RPS: 30, Duration: 30, TickInterval: 250,
				BaseLatency: 50, LatencyJitter: 15, Capacity: 20,
				BaseFailureProbability: 0.02,
				Retry:                  config.RetryPolicy{MaxRetries: 1, BackoffType: config.BackoffExponential, BackoffDelay: 100},
				CircuitBreaker:         config.CircuitBreakerPolicy{Enabled: true, ErrorThreshold: 40, WindowTicks: 8, CooldownTime: 5},
			},
		},
		"retry-storm": {
			Name:        "Retry Storm",
			Description: "Aggressive linear retries against an undersized service with no breaker.",
			Config: config.SimulationConfig{
				RPS: 50, Duration: 30, TickInterval: 250,
				BaseLatency: 80, LatencyJitter: 30, Capacity: 12,
				BaseFailureProbability: 0.15,
				Retry:                  config.RetryPolicy{MaxRetries: 4, BackoffType: config.BackoffLinear, BackoffDelay: 50},
				CircuitBreaker:         config.CircuitBreakerPolicy{Enabled: false, ErrorThreshold: 35, WindowTicks: 8, CooldownTime: 5},
			},
		},
		"circuit-breaker-saves-you": {
			Name:        "Circuit Breaker Saves You",
			Description: "High failure rate where the breaker sheds load and gives the service room to recover.",
			Config: config.SimulationConfig{
				RPS: 60, Duration: 30, TickInterval: 250,
				BaseLatency: 100, LatencyJitter: 40, Capacity: 15,
				BaseFailureProbability: 0.18,
				Retry:                  config.RetryPolicy{MaxRetries: 3, BackoffType: config.BackoffExponential, BackoffDelay: 100},
				CircuitBreaker:         config.CircuitBreakerPolicy{Enabled: true, ErrorThreshold: 30, WindowTicks: 6, CooldownTime: 8},
			},
		},
		"capacity-saturation": {
			Name:        "Capacity Saturation",
			Description: "Offered load far above capacity; the backlog drives latency and failures.",
			Config: config.SimulationConfig{
				RPS: 100, Duration: 30, TickInterval: 250,
				BaseLatency: 60, LatencyJitter: 20, Capacity: 10,
				BaseFailureProbability: 0.05,
				Retry:                  config.RetryPolicy{MaxRetries: 2, BackoffType: config.BackoffExponential, BackoffDelay: 100},
				CircuitBreaker:         config.CircuitBreakerPolicy{Enabled: true, ErrorThreshold: 45, WindowTicks: 10, CooldownTime: 5},
			},
		},
		"network-spike": {
			Name:        "Network Spike",
			Description: "Slow, highly jittery responses with moderate failures.",
			Config: config.SimulationConfig{
				RPS: 45, Duration: 30, TickInterval: 250,
				BaseLatency: 120, LatencyJitter: 60, Capacity: 18,
				BaseFailureProbability: 0.12,
				Retry:                  config.RetryPolicy{MaxRetries: 2, BackoffType: config.BackoffExponential, BackoffDelay: 150},
				CircuitBreaker:         config.CircuitBreakerPolicy{Enabled: true, ErrorThreshold: 35, WindowTicks: 8, CooldownTime: 6},
			},
		},
	}
}

// PresetKeys returns the built-in keys in sorted order.
func PresetKeys() []string {
	presets := BuiltIn()
	keys := make([]string, 0, len(presets))
	for k := range presets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
