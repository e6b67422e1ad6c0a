package main

import (
	"fmt"

	"github.com/refreshkit/refreshkit/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a RefreshKit configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  refreshkit validate -c config.yaml
  refreshkit validate --config /etc/refreshkit/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// building widgets catches option-level errors the parser cannot see
	if _, err := config.BuildWidgets(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	owned := 0
	for _, w := range cfg.Widgets {
		if w.OwnerParam != "" {
			owned++
		}
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:    %d\n", cfg.Port)
	fmt.Printf("  Widgets: %d (%d owner-scoped)\n", len(cfg.Widgets), owned)

	return nil
}
