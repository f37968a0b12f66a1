package main

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
	"github.com/jhaugland01/ReliabilitySim/internal/logging"
	"github.com/jhaugland01/ReliabilitySim/internal/sim"
)

// writerOptions selects the outputs of a run.
type writerOptions struct {
	// stdout prints rows as they arrive; json picks the JSON form over the
	// colored one.
	stdout bool
	json   bool
	tui    bool
	// printOnly keeps rows off GreptimeDB even when an endpoint is set.
	printOnly  bool
	logFile    string
	otelStdout bool
}

// newWriters sets up the writers for one run based on flags and settings.
// GreptimeDB replaces stdout printing when settings carry an endpoint, as
// long as printOnly is off. The cleanup func closes everything opened here.
func newWriters(ctx context.Context, cfg *config.SimulationConfig, settings *config.Settings, opts writerOptions) ([]sim.MetricWriter, func(), error) {
	var ws []sim.MetricWriter
	var shutdown []func(context.Context) error
	cleanup := func() {
		log := logging.FromContext(ctx)
		if err := sim.NewMultiWriter(ws...).Close(); err != nil {
			log.Error("close writers", "err", err)
		}
		for _, fn := range shutdown {
			if err := fn(context.WithoutCancel(ctx)); err != nil {
				log.Error("shutdown meter provider", "err", err)
			}
		}
	}
	fail := func(err error) ([]sim.MetricWriter, func(), error) {
		cleanup()
		return nil, nil, err
	}

	greptime := !opts.printOnly && settings != nil && settings.Greptime.Endpoint != ""
	switch {
	case opts.tui:
		ws = append(ws, sim.NewTUIWriter(cfg))
	case opts.stdout && !greptime:
		if opts.json {
			ws = append(ws, sim.NewJSONStdoutWriter())
		} else {
			ws = append(ws, sim.NewColorStdoutWriter(cfg))
		}
	}

	if greptime {
		gw, err := sim.NewGreptimeDBWriter(settings.Greptime, time.Now())
		if err != nil {
			return fail(err)
		}
		ws = append(ws, gw)
	}

	if opts.logFile != "" {
		fw, err := sim.NewFileWriter(opts.logFile, opts.logFile+".events", opts.logFile+".summary")
		if err != nil {
			return fail(err)
		}
		ws = append(ws, fw)
	}

	if opts.otelStdout {
		exp, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint())
		if err != nil {
			return fail(fmt.Errorf("failed to create stdout metric exporter: %w", err))
		}
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
		shutdown = append(shutdown, mp.Shutdown)
		ow, err := sim.NewOTelWriter(mp)
		if err != nil {
			return fail(err)
		}
		ws = append(ws, ow)
	}

	return ws, cleanup, nil
}
