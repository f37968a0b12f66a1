package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhaugland01/ReliabilitySim/internal/scenario"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		u := newUI()
		builtIn := scenario.BuiltIn()
		fmt.Println(u.Header("Built-in scenarios"))
		fmt.Println()
		for _, key := range scenario.PresetKeys() {
			sc := builtIn[key]
			fmt.Println(u.KeyValue(key, sc.Name))
			fmt.Println(u.Muted("  " + sc.Description))
		}
		return nil
	},
}
