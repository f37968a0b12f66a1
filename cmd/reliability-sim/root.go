package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
	"github.com/jhaugland01/ReliabilitySim/internal/logging"
	"github.com/jhaugland01/ReliabilitySim/internal/ui"
)

var (
	noColor bool
	v       = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   "reliability-sim",
	Short: "Deterministic reliability simulation toolkit",
	Long: `reliability-sim models a networked service under load, failures, retries
and circuit breaking, one tick at a time. The same scenario and seed always
produce the same run.

Example usage:
  reliability-sim run --preset retry-storm --seed 42
  reliability-sim live --preset circuit-breaker-saves-you --tui
  reliability-sim serve --addr :8080 --seed-presets`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.NewWithLevel(os.Stderr, logging.ParseLevel(v.GetString("log_level")))
		cmd.SetContext(logging.NewContext(cmd.Context(), logger))
		return nil
	},
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colors")
	_ = v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(runCmd, liveCmd, serveCmd, replayCmd, compareCmd, presetsCmd)
}

func newUI() *ui.UI {
	u := ui.New()
	if noColor {
		u.SetNoColor(true)
	}
	return u
}
