package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhaugland01/ReliabilitySim/internal/report"
)

var compareJSON bool

var compareCmd = &cobra.Command{
	Use:   "compare A.json B.json",
	Short: "Compare two results written by run --out",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := report.ReadDocument(args[0])
		if err != nil {
			return err
		}
		b, err := report.ReadDocument(args[1])
		if err != nil {
			return err
		}
		cmp := report.Compare(a.Input(), b.Input())
		if compareJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cmp)
		}

		u := newUI()
		fmt.Println(u.Header(fmt.Sprintf("%s vs %s", label(a, args[0]), label(b, args[1]))))
		fmt.Println()
		if len(cmp.Differences) == 0 {
			fmt.Println(u.Muted("No configuration differences."))
		}
		for _, d := range cmp.Differences {
			fmt.Println(u.KeyValue("Changed", d))
		}
		fmt.Println()
		fmt.Println(cmp.Analysis)
		return nil
	},
}

func label(d report.Document, path string) string {
	if d.Scenario != "" {
		return d.Scenario
	}
	return path
}

func init() {
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "print the comparison as JSON")
}
