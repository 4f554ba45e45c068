package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lytics/dev-agent-sub000/internal/codemap"
	"github.com/lytics/dev-agent-sub000/internal/config"
)

func mapCmd() *cobra.Command {
	var (
		envFile                string
		dataDir                string
		repoPath               string
		smart                  bool
		includeChangeFrequency bool
		includeInfrastructure  bool
	)

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Print a directory-tree summary of an indexed repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(context.Background(), envFile, dataDir, repoPath, smart, includeChangeFrequency, includeInfrastructure)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory (overrides DEVAGENT_DATA_DIR)")
	cmd.Flags().StringVar(&repoPath, "repo", ".", "Repository path")
	cmd.Flags().BoolVar(&smart, "smart", false, "Use smart-mode pruning instead of fixed-depth pruning")
	cmd.Flags().BoolVar(&includeChangeFrequency, "change-frequency", false, "Annotate directories with recent git commit activity")
	cmd.Flags().BoolVar(&includeInfrastructure, "infrastructure", false, "Summarize docker-compose services found at the repository root")

	return cmd
}

func runMap(ctx context.Context, envFile, dataDir, repoPath string, smart, includeChangeFrequency, includeInfrastructure bool) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if dataDir != "" {
		config.WithDataDir(dataDir)(&cfg)
	}

	a, err := newApp(cfg, repoPath)
	if err != nil {
		return err
	}
	defer a.close()

	opts := a.mapOptions()
	if smart {
		opts.PruneMode = codemap.PruneSmart
	}
	opts.IncludeChangeFrequency = includeChangeFrequency
	opts.IncludeInfrastructure = includeInfrastructure

	result, err := a.mapBuilder.Build(ctx, opts)
	if err != nil {
		return fmt.Errorf("build map: %w", err)
	}

	printMapNode(result.Root, 0)

	fmt.Println("\nHot paths:")
	for _, hp := range result.HotPaths {
		fmt.Printf("  %-40s %d\n", hp.File, hp.Score)
	}

	if len(result.Infrastructure) > 0 {
		fmt.Println("\nInfrastructure:")
		for _, note := range result.Infrastructure {
			fmt.Printf("  %s\n", note)
		}
	}
	return nil
}

func printMapNode(node *codemap.MapNode, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	if node.Name != "" {
		fmt.Printf("%s%s/ (%d)\n", indent, node.Name, node.ComponentCount)
	}
	for _, exp := range node.Exports {
		fmt.Printf("%s  - %s (%s)\n", indent, exp.Name, exp.Type)
	}
	for _, child := range node.Children {
		printMapNode(child, depth+1)
	}
}
