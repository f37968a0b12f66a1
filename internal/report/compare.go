// Package report turns run results into comparisons and readable text.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
	"github.com/jhaugland01/ReliabilitySim/internal/engine"
)

// SimilarResults is the analysis when no metric moved past its threshold.
const SimilarResults = "Results are similar with no major differences."

// RunInput is the part of a run that a comparison looks at.
type RunInput struct {
	Config  config.SimulationConfig
	Summary engine.Summary
}

// Comparison describes how run B differs from run A.
type Comparison struct {
	Differences []string `json:"differences"`
	Analysis    string   `json:"analysis"`
}

// Compare reports configuration differences and the significant metric
// shifts from a to b. Thresholds: error rate 5 points, p95 latency half of
// a's base latency, downtime one second.
func Compare(a, b RunInput) Comparison {
	diffs := []string{}
	if a.Config.Retry.MaxRetries != b.Config.Retry.MaxRetries {
		diffs = append(diffs, fmt.Sprintf("Retries changed from %d to %d", a.Config.Retry.MaxRetries, b.Config.Retry.MaxRetries))
	}
	if a.Config.CircuitBreaker.Enabled != b.Config.CircuitBreaker.Enabled {
		change := "enabled"
		if a.Config.CircuitBreaker.Enabled {
			change = "disabled"
		}
		diffs = append(diffs, "Circuit breaker "+change)
	}
	if a.Config.RPS != b.Config.RPS {
		diffs = append(diffs, fmt.Sprintf("RPS changed from %s to %s", num(a.Config.RPS), num(b.Config.RPS)))
	}

	var parts []string
	if d := b.Summary.ErrorRate - a.Summary.ErrorRate; math.Abs(d) > 5 {
		parts = append(parts, fmt.Sprintf("Error rate %s by %.1f%%.", direction(d), math.Abs(d)))
	}
	if d := b.Summary.P95Latency - a.Summary.P95Latency; math.Abs(d) > a.Config.BaseLatency*0.5 {
		parts = append(parts, fmt.Sprintf("P95 latency %s by %.0fms.", direction(d), math.Abs(d)))
	}
	if d := b.Summary.DowntimeSec - a.Summary.DowntimeSec; math.Abs(d) > 1 {
		parts = append(parts, fmt.Sprintf("Downtime %s by %.1fs.", direction(d), math.Abs(d)))
	}
	analysis := SimilarResults
	if len(parts) > 0 {
		analysis = strings.Join(parts, " ")
	}
	return Comparison{Differences: diffs, Analysis: analysis}
}

func direction(d float64) string {
	if d > 0 {
		return "increased"
	}
	return "decreased"
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
