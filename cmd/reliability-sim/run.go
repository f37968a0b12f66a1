package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jhaugland01/ReliabilitySim/internal/engine"
	"github.com/jhaugland01/ReliabilitySim/internal/report"
	"github.com/jhaugland01/ReliabilitySim/internal/sim"
	"github.com/jhaugland01/ReliabilitySim/internal/ui"
)

var (
	runSource  source
	runOut     string
	runLogFile string
	runTicks   bool
	runJSON    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario to completion and print the report",
	Long: `run advances every tick of a scenario without pacing and prints the
summary and narrative.

Example:
  reliability-sim run --preset retry-storm --seed 42
  reliability-sim run --scenario my.yaml --out result.json --ticks`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := runSource.load()
		if err != nil {
			return err
		}
		eng, err := engine.New(sc.Config, runSource.engineOptions(cmd)...)
		if err != nil {
			return err
		}

		ws, cleanup, err := newWriters(cmd.Context(), &sc.Config, nil, writerOptions{
			stdout:    runTicks,
			json:      runJSON,
			printOnly: true,
			logFile:   runLogFile,
		})
		if err != nil {
			return err
		}
		defer cleanup()

		runner := sim.NewRunner(uuid.NewString(), eng, sim.NewMultiWriter(ws...), 0)
		if err := runner.Run(cmd.Context()); err != nil {
			return err
		}
		res, err := eng.Run()
		if err != nil {
			return err
		}

		doc := report.NewDocument(sc.Name, sc.Config, res)
		if runOut != "" {
			if err := report.WriteDocument(runOut, doc); err != nil {
				return err
			}
		}
		if runJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		}
		printReport(newUI(), doc)
		return nil
	},
}

func printReport(u *ui.UI, doc report.Document) {
	fmt.Println(u.Header(doc.Scenario))
	fmt.Println()
	fmt.Println(u.SummaryBox("Summary", ui.SummaryItems(doc.Seed, doc.Summary)))
	fmt.Println(u.Verdict(doc.Summary))
	fmt.Println()
	fmt.Println(report.Narrative(doc.Config, doc.Summary))
	if len(doc.Events) > 0 {
		fmt.Println()
		fmt.Println(u.Muted(fmt.Sprintf("Events (%d):", len(doc.Events))))
		for _, ev := range doc.Events {
			fmt.Println(u.Event(ev))
		}
	}
}

func init() {
	runSource.register(runCmd)
	runCmd.Flags().StringVar(&runOut, "out", "", "write the full result as JSON to this path")
	runCmd.Flags().StringVar(&runLogFile, "log-file", "", "path to export tick metrics (JSONL); events and summary go next to it")
	runCmd.Flags().BoolVar(&runTicks, "ticks", false, "print every tick while running")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print JSON instead of the styled report")
}
