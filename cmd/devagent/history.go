package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lytics/dev-agent-sub000/internal/config"
)

func historyCmd() *cobra.Command {
	var (
		envFile  string
		dataDir  string
		repoPath string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "history [file-path]",
		Short: "Show a file's commit history, following renames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(context.Background(), envFile, dataDir, repoPath, args[0], limit)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory (overrides DEVAGENT_DATA_DIR)")
	cmd.Flags().StringVar(&repoPath, "repo", ".", "Repository path")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of commits (0 = unbounded)")

	return cmd
}

func runHistory(ctx context.Context, envFile, dataDir, repoPath, file string, limit int) error {
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

	commits, err := a.commitIndex.FileHistory(ctx, file, limit)
	if err != nil {
		return fmt.Errorf("file history: %w", err)
	}
	for _, c := range commits {
		fmt.Printf("%s %s <%s> %s\n", c.ShortHash, c.Author.Name, c.Author.Email, c.Subject)
	}
	return nil
}
