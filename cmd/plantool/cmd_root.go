package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var (
	cfg    Config
	logger = slog.New(slog.DiscardHandler)
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Convert YAML plans to Puppet plan language",
	Long: appName + " converts declarative YAML plans into equivalent Puppet plan\n" +
		"language source and inspects plan signatures.\n\n" +
		"Plans are looked up by name on the module path:\n" +
		"  mod::a::b  ->  <dir>/mod/plans/a/b.yaml\n" +
		"  mod        ->  <dir>/mod/plans/init.yaml",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

// setup resolves the configuration and logger shared by every subcommand.
func setup(cmd *cobra.Command) error {
	c, err := loadConfig(flagModulePath, flagLogLevel, flagLogFormat)
	if err != nil {
		return err
	}
	cfg = c
	logger = newLogger(c.LogLevel, c.LogFormat, cmd.ErrOrStderr())
	logger.Debug("configuration loaded", "modulepath", c.ModulePath)
	return nil
}

// planCompletion completes plan names discovered on the module path.
func planCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	c, err := loadConfig(flagModulePath, flagLogLevel, flagLogFormat)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	plans, err := discoverPlans(c.ModulePath)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var names []string
	for _, p := range plans {
		names = append(names, p.Name)
	}
	return names, cobra.ShellCompDirectiveDefault
}
