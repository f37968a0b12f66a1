// Simulation configuration model and YAML loading.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// BackoffType selects how the delay between retry attempts grows.
type BackoffType string

const (
	BackoffNone        BackoffType = "none"
	BackoffLinear      BackoffType = "linear"
	BackoffExponential BackoffType = "exponential"
)

// RetryPolicy controls how a failed synthetic request is retried.
type RetryPolicy struct {
	MaxRetries   int         `json:"maxRetries" yaml:"max_retries"`
	BackoffType  BackoffType `json:"backoffType,omitempty" yaml:"backoff_type,omitempty"`
	BackoffDelay float64     `json:"backoffDelay" yaml:"backoff_delay"`
}

// Kind returns the effective backoff type. An empty value means none.
func (r RetryPolicy) Kind() BackoffType {
	if r.BackoffType == "" {
		return BackoffNone
	}
	return r.BackoffType
}

// CircuitBreakerPolicy configures the rolling error-rate breaker.
type CircuitBreakerPolicy struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// ErrorThreshold is a percentage (0-100].
	ErrorThreshold float64 `json:"errorThreshold" yaml:"error_threshold"`
	WindowTicks    int     `json:"windowTicks" yaml:"window_ticks"`
	// CooldownTime is in seconds.
	CooldownTime float64 `json:"cooldownTime" yaml:"cooldown_time"`
}

// SimulationConfig is the immutable input of one simulation run.
type SimulationConfig struct {
	RPS                    float64              `json:"rps" yaml:"rps"`
	Duration               float64              `json:"duration" yaml:"duration"`
	TickInterval           int                  `json:"tickInterval" yaml:"tick_interval"`
	BaseLatency            float64              `json:"baseLatency" yaml:"base_latency"`
	LatencyJitter          float64              `json:"latencyJitter" yaml:"latency_jitter"`
	Capacity               int                  `json:"capacity" yaml:"capacity"`
	BaseFailureProbability float64              `json:"baseFailureProbability" yaml:"base_failure_probability"`
	Retry                  RetryPolicy          `json:"retry" yaml:"retry"`
	CircuitBreaker         CircuitBreakerPolicy `json:"circuitBreaker" yaml:"circuit_breaker"`
}

// TotalTicks is the number of ticks a run of this configuration advances.
func (c SimulationConfig) TotalTicks() int {
	if c.TickInterval <= 0 {
		return 0
	}
	return int(math.Ceil(c.Duration * 1000 / float64(c.TickInterval)))
}

// TickSeconds converts a tick index into simulated seconds.
func (c SimulationConfig) TickSeconds(tick int) float64 {
	return float64(tick) * float64(c.TickInterval) / 1000
}

// Load reads a configuration YAML file, checks it against the embedded CUE
// schema and validates the decoded values.
func Load(path string) (*SimulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates configuration YAML.
func Parse(data []byte) (*SimulationConfig, error) {
	if err := ValidateYAML(data, DefConfig); err != nil {
		return nil, err
	}
	var cfg SimulationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
