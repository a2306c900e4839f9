package main

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

//go:embed cmd_example_plan.yaml
var examplePlanYAML []byte

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print a reference YAML plan covering every step kind",
	Long: "Print an annotated YAML plan that uses every step kind and expression\n" +
		"form. Use --output to write it to a file instead of stdout.",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		var w io.Writer = cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()
			w = f
		}

		if _, err := w.Write(examplePlanYAML); err != nil {
			return err
		}
		if output != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "written to %s\n", output)
		}
		return nil
	},
}

func init() {
	exampleCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
}
