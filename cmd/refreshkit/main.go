// Package main is the entry point for the refreshkit CLI.
//
// RefreshKit can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	refreshkit serve -c config.yaml    # Start polling and serving widgets
//	refreshkit validate -c config.yaml # Validate configuration
//	refreshkit version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "refreshkit",
	Short: "Adaptive polling for embeddable resource widgets",
	Long: `RefreshKit keeps embeddable widgets in sync with remote resource
collections (presentations, workspaces, processing jobs) by adaptive polling.

It polls each configured widget's backend, detects real changes via payload
fingerprints, backs off on failures, and serves the latest snapshots over a
JSON API with Server-Sent Events for live updates.

Quick start:
  1. Create a config file (refreshkit.yaml)
  2. Run: refreshkit serve -c refreshkit.yaml
  3. Fetch http://localhost:8080/api/widgets

Example config:
  port: 8080
  polling:
    base_interval: 10s
    max_interval: 60s
  widgets:
    - name: Workspace Grid
      url: https://api.example.com/presentations
      owner_param: userId
      owner: ${USER_ID}`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this refreshkit binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("refreshkit %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
