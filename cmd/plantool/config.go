package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// appName is the single source of truth for the application name.
// All derived identifiers (env vars, config paths, error messages) are computed from it.
const appName = "plantool"

// Derived env var names.
var (
	envConfigDir  = strings.ToUpper(appName) + "_CONFIG_DIR"
	envModulePath = strings.ToUpper(appName) + "_MODULEPATH"
)

const configFileName = "config.yaml"

var defaultModulePath = []string{"modules", "site-modules"}

// Config holds the settings read from the config file, merged with the
// environment and command-line flags.
type Config struct {
	ModulePath []string `yaml:"modulepath"`
	LogLevel   string   `yaml:"log_level"`
	LogFormat  string   `yaml:"log_format"`
}

// resolveConfigDir returns the base config directory for the application.
// Priority: $<APPNAME>_CONFIG_DIR > $XDG_CONFIG_HOME/<appName> > ~/.config/<appName>
func resolveConfigDir() (string, error) {
	if v := os.Getenv(envConfigDir); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// readConfigFile reads <dir>/config.yaml. A missing file yields a zero Config.
func readConfigFile(dir string) (Config, error) {
	var c Config
	path := filepath.Join(dir, configFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// loadConfig merges the config file with the environment and flags.
// Module path order: flags > $<APPNAME>_MODULEPATH > config file > default.
func loadConfig(flagModulePath []string, flagLevel, flagFormat string) (Config, error) {
	dir, err := resolveConfigDir()
	if err != nil {
		return Config{}, err
	}
	c, err := readConfigFile(dir)
	if err != nil {
		return Config{}, err
	}

	c.ModulePath = resolveModulePath(flagModulePath, c.ModulePath)
	if flagLevel != "" {
		c.LogLevel = flagLevel
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if flagFormat != "" {
		c.LogFormat = flagFormat
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (want debug, info, warn or error)", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", c.LogFormat)
	}
	return nil
}

func resolveModulePath(flagDirs, fileDirs []string) []string {
	var dirs []string
	for _, f := range flagDirs {
		dirs = append(dirs, splitColon(f)...)
	}
	if len(dirs) > 0 {
		return dirs
	}
	if env := splitColon(os.Getenv(envModulePath)); len(env) > 0 {
		return env
	}
	if len(fileDirs) > 0 {
		return fileDirs
	}
	return defaultModulePath
}

// splitColon splits a colon-separated string, filtering empty parts.
func splitColon(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ":")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
