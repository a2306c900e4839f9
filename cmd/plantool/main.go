package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"plan-tools/pkg/lib"
)

var (
	flagModulePath []string
	flagLogLevel   string
	flagLogFormat  string
)

func main() {
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(exampleCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.PersistentFlags().StringArrayVarP(&flagModulePath, "modulepath", "m", nil,
		"module directory to search for plans (repeatable, colon lists accepted; default: modules:site-modules)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "",
		"log level: debug, info, warn or error (default warn)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "",
		"log format: text or json (default text)")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		lib.Exit(err, renderError)
	}
}
