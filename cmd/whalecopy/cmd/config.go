package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/whalecopy/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files for the whale tracker.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  whalecopy config init -o tracker.yaml
  whalecopy config validate -f tracker.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings.

The defaults start in observation mode with no copy execution; review the
thresholds and enable copying explicitly.

Example:
  whalecopy config init -o tracker.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded.

Example:
  whalecopy config validate -f tracker.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "tracker.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("Default configuration written to %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := config.LoadFromFile(configValidatePath); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	fmt.Printf("%s is valid\n", configValidatePath)
	return nil
}
