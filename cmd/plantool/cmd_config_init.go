package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed cmd_config_init.yaml
var initConfigYAML []byte

const configInitHeader = "# " + appName + " configuration\n" +
	"# ─────────────────────────────────────────────────────────────────────────────\n" +
	"# Every setting is optional. Print the effective values with:\n" +
	"#   " + appName + " config show\n" +
	"# ─────────────────────────────────────────────────────────────────────────────\n\n"

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: "Create the " + appName + " config directory and write a commented starter\n" +
		"config.yaml.\n\n" +
		"The default config directory is resolved as:\n" +
		"  $PLANTOOL_CONFIG_DIR > $XDG_CONFIG_HOME/" + appName + " > ~/.config/" + appName,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		dir, _ := cmd.Flags().GetString("dir")

		if dir == "" {
			var err error
			dir, err = resolveConfigDir()
			if err != nil {
				return err
			}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}

		path := filepath.Join(dir, configFileName)
		if err := writeInitFile(path, configInitHeader, initConfigYAML, force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "initialised %s\n", path)
		return nil
	},
}

func writeInitFile(path, header string, content []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if header != "" {
		fmt.Fprint(f, header)
	}
	_, err = f.Write(content)
	return err
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing config file")
	configInitCmd.Flags().String("dir", "", "target config directory (default: auto-resolved)")
}
