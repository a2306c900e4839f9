package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [plan | file ...]",
	Short: "Check that YAML plans load and convert",
	Long: "Load and convert each plan without writing anything. With no arguments\n" +
		"every YAML plan on the module path is checked. All plans are checked\n" +
		"even when some fail.",
	ValidArgsFunction: planCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		verify, _ := cmd.Flags().GetBool("verify")

		var plans []planFile
		if len(args) == 0 {
			found, err := discoverPlans(cfg.ModulePath)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				return fmt.Errorf("no plans found on module path")
			}
			plans = found
		}
		var errs []error
		for _, arg := range args {
			pf, err := resolvePlanArg(arg, cfg.ModulePath, "")
			if err != nil {
				errs = append(errs, err)
				continue
			}
			plans = append(plans, pf)
		}

		errs = append(errs, validatePlans(cmd.OutOrStdout(), plans, verify)...)
		return errors.Join(errs...)
	},
}

func init() {
	validateCmd.Flags().Bool("verify", false, "also compare the signature of each converted plan with its YAML plan")
}

// validatePlans converts every plan and reports the ones that succeed.
func validatePlans(w io.Writer, plans []planFile, verify bool) []error {
	var errs []error
	for _, pf := range plans {
		data, err := os.ReadFile(pf.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("reading plan %s: %w", pf.Path, err))
			continue
		}
		job := &convertJob{name: pf.Name, path: pf.Path, verify: verify}
		if _, err := job.convert(data); err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(w, "%s %s\n", styleOK.Render("ok"), pf.Name)
	}
	return errs
}
