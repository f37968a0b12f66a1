package config

import (
	"errors"
	"fmt"
	"math"
)

// MaxRetries bounds RetryPolicy.MaxRetries.
const MaxRetries = 10

// MaxWindowTicks bounds CircuitBreakerPolicy.WindowTicks.
const MaxWindowTicks = 1000

// MaxTicks bounds the number of ticks a single run may advance.
const MaxTicks = 100000

// MaxRequestsPerTick bounds rps * tickInterval.
const MaxRequestsPerTick = 100000

// MaxMillis bounds every latency and delay field, in milliseconds.
const MaxMillis = 3_600_000

// ValidationError reports the first configuration field that is out of range.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Validate checks every field against its documented range. Values are never
// clamped; the first offending field is reported. NaN and infinite values
// fail every range check.
func (c SimulationConfig) Validate() error {
	switch {
	case !finite(c.RPS) || c.RPS <= 0:
		return invalid("rps", "must be a finite number greater than 0")
	case !finite(c.Duration) || c.Duration <= 0:
		return invalid("duration", "must be a finite number greater than 0")
	case c.TickInterval <= 0:
		return invalid("tickInterval", "must be greater than 0")
	case !inRange(c.BaseLatency, 0, MaxMillis):
		return invalid("baseLatency", fmt.Sprintf("must be between 0 and %d", MaxMillis))
	case !inRange(c.LatencyJitter, 0, MaxMillis):
		return invalid("latencyJitter", fmt.Sprintf("must be between 0 and %d", MaxMillis))
	case c.Capacity <= 0:
		return invalid("capacity", "must be greater than 0")
	case !inRange(c.BaseFailureProbability, 0, 1):
		return invalid("baseFailureProbability", "must be between 0 and 1")
	// Both bounds are checked before any float to int conversion.
	case c.Duration*1000/float64(c.TickInterval) > MaxTicks:
		return invalid("duration", fmt.Sprintf("yields more than %d ticks", MaxTicks))
	case c.RPS*float64(c.TickInterval)/1000 > MaxRequestsPerTick:
		return invalid("rps", fmt.Sprintf("yields more than %d requests per tick", MaxRequestsPerTick))
	}

	r := c.Retry
	switch {
	case r.MaxRetries < 0 || r.MaxRetries > MaxRetries:
		return invalid("retry.maxRetries", fmt.Sprintf("must be between 0 and %d", MaxRetries))
	case !inRange(r.BackoffDelay, 0, MaxMillis):
		return invalid("retry.backoffDelay", fmt.Sprintf("must be between 0 and %d", MaxMillis))
	}
	switch r.Kind() {
	case BackoffNone, BackoffLinear, BackoffExponential:
	default:
		return invalid("retry.backoffType", fmt.Sprintf("unknown backoff %q", r.BackoffType))
	}

	cb := c.CircuitBreaker
	if !cb.Enabled {
		return nil
	}
	switch {
	case !inRange(cb.ErrorThreshold, 0, 100) || cb.ErrorThreshold == 0:
		return invalid("circuitBreaker.errorThreshold", "must be in (0,100]")
	case cb.WindowTicks < 1 || cb.WindowTicks > MaxWindowTicks:
		return invalid("circuitBreaker.windowTicks", fmt.Sprintf("must be between 1 and %d", MaxWindowTicks))
	case !finite(cb.CooldownTime) || cb.CooldownTime < 0:
		return invalid("circuitBreaker.cooldownTime", "must be a finite number, not negative")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// inRange reports lo <= v <= hi; it is false for NaN.
func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
