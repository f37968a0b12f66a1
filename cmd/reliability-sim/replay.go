package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
	"github.com/jhaugland01/ReliabilitySim/internal/sim"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a tick metric log file",
	Long:  "replay feeds tick metrics from a --log-file export back into GreptimeDB or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		settings, err := config.LoadSettings(v)
		if err != nil {
			return err
		}
		ws, cleanup, err := newWriters(cmd.Context(), nil, settings, writerOptions{
			stdout:    true,
			json:      true,
			printOnly: replayPrintOnly,
		})
		if err != nil {
			return err
		}
		defer cleanup()
		return sim.ReplayLogFile(replayInput, sim.NewMultiWriter(ws...), replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "path to a tick metric log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "playback speed multiplier (0 = no delay)")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "print ticks to STDOUT instead of writing to GreptimeDB")
	replayCmd.MarkFlagRequired("input")
}
