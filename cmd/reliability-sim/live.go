package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
	"github.com/jhaugland01/ReliabilitySim/internal/engine"
	"github.com/jhaugland01/ReliabilitySim/internal/logging"
	"github.com/jhaugland01/ReliabilitySim/internal/report"
	"github.com/jhaugland01/ReliabilitySim/internal/sim"
)

var (
	liveSource     source
	liveSpeed      float64
	liveTUI        bool
	livePrintOnly  bool
	liveJSON       bool
	liveLogFile    string
	liveOTelStdout bool
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Play a scenario in real time",
	Long: `live advances one tick per tick interval (divided by --speed) and streams
every tick to the terminal, the TUI, GreptimeDB or a log file.

GreptimeDB output is used when GREPTIMEDB_ENDPOINT (or RELSIM_GREPTIMEDB_ENDPOINT)
is set and --print-only is not.

Example:
  reliability-sim live --preset retry-storm --speed 4
  reliability-sim live --scenario my.yaml --tui --log-file run.jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadSettings(v)
		if err != nil {
			return err
		}
		sc, err := liveSource.load()
		if err != nil {
			return err
		}
		eng, err := engine.New(sc.Config, liveSource.engineOptions(cmd)...)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if liveTUI {
			// log lines would tear the alternate screen
			ctx = logging.NewContext(ctx, logging.NewWithLevel(io.Discard, logging.ParseLevel(settings.LogLevel)))
		}
		ws, cleanup, err := newWriters(ctx, &sc.Config, settings, writerOptions{
			stdout:     true,
			json:       liveJSON,
			tui:        liveTUI,
			printOnly:  livePrintOnly,
			logFile:    liveLogFile,
			otelStdout: liveOTelStdout,
		})
		if err != nil {
			return err
		}
		defer cleanup()

		runner := sim.NewRunner(uuid.NewString(), eng, sim.NewMultiWriter(ws...), paceFor(sc.Config, liveSpeed))
		if err := runner.Run(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				logging.FromContext(ctx).Info("live run stopped", "run_id", runner.RunID(), "tick", eng.CurrentTick())
				return nil
			}
			return err
		}
		if liveTUI {
			// keep the final summary on screen until the user quits
			for _, w := range ws {
				if tw, ok := w.(*sim.TUIWriter); ok {
					tw.Wait(ctx)
				}
			}
			return nil
		}
		if liveJSON {
			return nil
		}
		s, err := eng.Summarize()
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(report.Text(sc.Name, sc.Config.Duration, s))
		return nil
	},
}

// paceFor returns the wall-clock spacing of ticks. A speed of zero or less
// runs without delay.
func paceFor(cfg config.SimulationConfig, speed float64) time.Duration {
	if speed <= 0 {
		return 0
	}
	return time.Duration(float64(cfg.TickInterval) * float64(time.Millisecond) / speed)
}

func init() {
	liveSource.register(liveCmd)
	liveCmd.Flags().Float64Var(&liveSpeed, "speed", 1.0, "playback speed multiplier (0 = as fast as possible)")
	liveCmd.Flags().BoolVar(&liveTUI, "tui", false, "show the interactive terminal dashboard")
	liveCmd.Flags().BoolVar(&livePrintOnly, "print-only", false, "print ticks to STDOUT instead of writing to GreptimeDB")
	liveCmd.Flags().BoolVar(&liveJSON, "json", false, "print ticks as JSON lines")
	liveCmd.Flags().StringVar(&liveLogFile, "log-file", "", "path to export tick metrics (JSONL); events and summary go next to it")
	liveCmd.Flags().BoolVar(&liveOTelStdout, "otel-stdout", false, "export OpenTelemetry metrics to STDOUT")
}
