// Package main is the entry point for the devagent CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lytics/dev-agent-sub000/internal/config"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devagent",
		Short: "Local-first semantic code intelligence engine",
		Long:  `devagent indexes a git repository's source and commit history into an on-disk vector store and serves semantic search, history, and codebase-map queries over it.`,
	}

	cmd.AddCommand(indexCmd())
	cmd.AddCommand(searchCmd())
	cmd.AddCommand(mapCmd())
	cmd.AddCommand(historyCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("devagent version %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}

// loadConfig loads configuration in devagent's precedence order: defaults,
// then .env file, then environment variables, then CLI flag overrides
// (applied by callers after this returns).
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
