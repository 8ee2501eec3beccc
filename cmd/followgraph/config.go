package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"followgraph/pkg/config"
	"followgraph/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage followgraph configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (FOLLOWGRAPH_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the default settings",
	Long: `Create a configuration file holding every option at its default value.

The file is created as '.followgraph.yaml' in the current directory unless a
different path is given with --config. Credentials are left empty; store them
with 'followgraph auth login' instead.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source.

Credentials are masked.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from every source and report invalid values.`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".followgraph.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file %s already exists", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Created configuration file %s", path))
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}
	return writeMaskedConfig(cmd.OutOrStdout(), cfg)
}

// writeMaskedConfig writes cfg as YAML with the credentials masked
func writeMaskedConfig(w io.Writer, cfg *config.Config) error {
	masked := *cfg
	masked.Twitter.ConsumerKey = mask(cfg.Twitter.ConsumerKey)
	masked.Twitter.ConsumerSecret = mask(cfg.Twitter.ConsumerSecret)
	masked.Twitter.BearerToken = mask(cfg.Twitter.BearerToken)

	data, err := yaml.Marshal(&masked)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "********"
	default:
		return s[:4] + "..." + s[len(s)-4:]
	}
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Relation", cfg.Collect.Relation)
	ui.PrintInfo("Max depth", fmt.Sprintf("%d", cfg.Collect.MaxDepth))
	ui.PrintInfo("Mark visited", cfg.Collect.MarkVisited)
	ui.PrintInfo("Output", fmt.Sprintf("%s (%s)", cfg.Output.Path, cfg.Output.Format))
	if !cfg.Twitter.HasCredentials() {
		ui.PrintWarning("No credentials configured; stored profiles will be used")
	}
	return nil
}
