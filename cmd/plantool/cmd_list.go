package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the YAML plans on the module path",
	RunE: func(cmd *cobra.Command, args []string) error {
		plans, err := discoverPlans(cfg.ModulePath)
		if err != nil {
			return err
		}
		printPlans(cmd.OutOrStdout(), plans)
		return nil
	},
}

// printPlans prints plan names and files, aligned.
func printPlans(w io.Writer, plans []planFile) {
	if len(plans) == 0 {
		fmt.Fprintln(w, "no plans found")
		return
	}

	maxLen := 0
	for _, p := range plans {
		if len(p.Name) > maxLen {
			maxLen = len(p.Name)
		}
	}
	for _, p := range plans {
		fmt.Fprintf(w, "%-*s  %s\n", maxLen, p.Name, p.Path)
	}
}
