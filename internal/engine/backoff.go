package engine

import (
	"math"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
)

// Backoff returns the delay in milliseconds inserted after failed attempt
// number attempt (zero based).
func Backoff(p config.RetryPolicy, attempt int) float64 {
	switch p.Kind() {
	case config.BackoffLinear:
		return p.BackoffDelay * float64(attempt+1)
	case config.BackoffExponential:
		return p.BackoffDelay * math.Pow(2, float64(attempt))
	default:
		return 0
	}
}
