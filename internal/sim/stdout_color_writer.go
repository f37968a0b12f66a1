// ColorStdoutWriter prints human-friendly, colorized tick metrics to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
	"github.com/jhaugland01/ReliabilitySim/internal/engine"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// ColorStdoutWriter prints tick metrics using ANSI colors.
type ColorStdoutWriter struct {
	cfg  *config.SimulationConfig
	out  io.Writer
	once sync.Once
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.SimulationConfig) *ColorStdoutWriter {
	return &ColorStdoutWriter{cfg: cfg, out: os.Stdout}
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	c := w.cfg
	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "RPS:\t%g\n", c.RPS)
	fmt.Fprintf(tw, "Duration (s):\t%g\n", c.Duration)
	fmt.Fprintf(tw, "Tick Interval (ms):\t%d\n", c.TickInterval)
	fmt.Fprintf(tw, "Latency (ms):\t%g ± %g\n", c.BaseLatency, c.LatencyJitter)
	fmt.Fprintf(tw, "Capacity:\t%d\n", c.Capacity)
	fmt.Fprintf(tw, "Base Failure Probability:\t%.2f\n", c.BaseFailureProbability)
	fmt.Fprintf(tw, "Retries:\t%d (%s, %gms)\n", c.Retry.MaxRetries, c.Retry.Kind(), c.Retry.BackoffDelay)
	if c.CircuitBreaker.Enabled {
		fmt.Fprintf(tw, "Circuit Breaker:\t%g%% over %d ticks, cooldown %gs\n",
			c.CircuitBreaker.ErrorThreshold, c.CircuitBreaker.WindowTicks, c.CircuitBreaker.CooldownTime)
	} else {
		fmt.Fprintf(tw, "Circuit Breaker:\tdisabled\n")
	}
	tw.Flush()
	fmt.Fprintln(w.out)
}

func circuitColor(s engine.CircuitState) string {
	switch s {
	case engine.CircuitOpen:
		return colorRed
	case engine.CircuitHalfOpen:
		return colorYellow
	default:
		return colorGreen
	}
}

func systemColor(s engine.SystemState) string {
	switch s {
	case engine.StateDown:
		return colorRed
	case engine.StateDegraded:
		return colorYellow
	default:
		return colorGreen
	}
}

func errorRateColor(rate float64) string {
	switch {
	case rate > 50:
		return colorRed
	case rate > 10:
		return colorYellow
	default:
		return colorGreen
	}
}

// WriteMetric outputs a single tick metric in colorized format.
func (w *ColorStdoutWriter) WriteMetric(row MetricRow) error {
	w.once.Do(w.printOverview)
	fmt.Fprintf(w.out, "%s[t=%7.2fs #%d]%s ", colorGray, row.Time, row.Tick, colorReset)
	fmt.Fprintf(w.out, "%sreq=%d%s ", colorBlue, row.Requests, colorReset)
	fmt.Fprintf(w.out, "%serr=%.1f%%%s ", errorRateColor(row.ErrorRate), row.ErrorRate, colorReset)
	fmt.Fprintf(w.out, "%savg=%.0fms p95=%.0fms max=%.0fms%s ", colorCyan, row.AvgLatency, row.P95Latency, row.MaxLatency, colorReset)
	fmt.Fprintf(w.out, "%sretries=%d%s ", colorMagenta, row.RetryCount, colorReset)
	fmt.Fprintf(w.out, "%squeue=%d%s ", colorYellow, row.QueueDepth, colorReset)
	fmt.Fprintf(w.out, "%scircuit=%s%s ", circuitColor(row.CircuitState), row.CircuitState, colorReset)
	fmt.Fprintf(w.out, "%sstate=%s%s\n", systemColor(row.SystemState), row.SystemState, colorReset)
	return nil
}

// WriteEvent prints an engine event.
func (w *ColorStdoutWriter) WriteEvent(row EventRow) error {
	w.once.Do(w.printOverview)
	c := colorCyan
	switch row.Kind {
	case engine.EventCircuitOpened, engine.EventRetryStorm:
		c = colorRed
	case engine.EventCircuitHalfOpen:
		c = colorYellow
	}
	fmt.Fprintf(w.out, "%s[t=%7.2fs]%s %sEVENT%s %s\n", colorGray, row.Time, colorReset, c, colorReset, row.Message)
	return nil
}

// WriteSummary prints the final summary line.
func (w *ColorStdoutWriter) WriteSummary(row SummaryRow) error {
	w.once.Do(w.printOverview)
	fmt.Fprintf(w.out, "%sSUMMARY%s seed=%d requests=%d success=%.1f%% p95=%.0fms downtime=%.2fs trips=%d cause=%q\n",
		colorBlue, colorReset, row.Seed, row.TotalRequests, row.SuccessRate, row.P95Latency, row.DowntimeSec, row.CircuitTrips, row.MainCause)
	return nil
}
