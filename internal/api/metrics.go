package api

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhaugland01/ReliabilitySim/internal/sim"
)

// Metrics are the server-side Prometheus collectors.
type Metrics struct {
	runsStarted   *prometheus.CounterVec
	runsCompleted prometheus.Counter
	runsCancelled prometheus.Counter
	ticksStreamed prometheus.Counter
	activeStreams prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reliability_sim_runs_started_total",
				Help: "Runs started through the API",
			},
			[]string{"mode"},
		),
		runsCompleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reliability_sim_runs_completed_total",
				Help: "Runs that advanced every tick",
			},
		),
		runsCancelled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reliability_sim_runs_cancelled_total",
				Help: "Live runs stopped because every viewer disconnected",
			},
		),
		ticksStreamed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reliability_sim_ticks_streamed_total",
				Help: "Ticks advanced by live runs",
			},
		),
		activeStreams: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "reliability_sim_active_streams",
				Help: "Open SSE and WebSocket connections",
			},
		),
	}
	reg.MustRegister(m.runsStarted, m.runsCompleted, m.runsCancelled, m.ticksStreamed, m.activeStreams)
	return m
}

// tickCounter counts ticks of a live run. It sits next to the store writer
// in the run's MultiWriter.
type tickCounter struct {
	c prometheus.Counter
}

func (t tickCounter) WriteMetric(sim.MetricRow) error {
	t.c.Inc()
	return nil
}
