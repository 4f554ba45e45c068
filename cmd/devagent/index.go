package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lytics/dev-agent-sub000/internal/config"
	"github.com/lytics/dev-agent-sub000/internal/domain"
	"github.com/lytics/dev-agent-sub000/internal/gitlog"
	"github.com/lytics/dev-agent-sub000/internal/metadata"
)

func indexCmd() *cobra.Command {
	var (
		envFile string
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "index [repo-path]",
		Short: "Index a repository's source declarations and commit history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoPath := "."
			if len(args) == 1 {
				repoPath = args[0]
			}
			return runIndex(context.Background(), envFile, dataDir, repoPath)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory (overrides DEVAGENT_DATA_DIR)")

	return cmd
}

func runIndex(ctx context.Context, envFile, dataDir, repoPath string) error {
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

	report := func(ev domain.ProgressEvent) {
		a.logger.Info("indexing progress", "phase", ev.Phase, "percent", ev.PercentComplete, "documents", ev.DocumentsExtracted)
	}

	result, err := a.indexer.Run(ctx, repoPath, report)
	if err != nil {
		return fmt.Errorf("index source: %w", err)
	}
	a.logger.Info("source index complete", "files", result.FilesScanned, "documents", result.DocumentsStored, "errors", len(result.Errors))

	commitResult, err := a.commitIndex.Run(ctx, gitlog.DefaultOptions(), report)
	if err != nil {
		return fmt.Errorf("index commits: %w", err)
	}
	a.logger.Info("commit index complete", "commits", commitResult.CommitsStored, "errors", len(commitResult.Errors))

	patch := metadata.Patch{
		Indexed: &metadata.Indexed{
			Files:      result.FilesScanned,
			Components: result.DocumentsStored,
		},
	}
	if _, err := metadata.Save(ctx, a.layout.Dir, repoPath, patch); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}

	return nil
}
