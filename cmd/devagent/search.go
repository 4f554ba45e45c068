package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lytics/dev-agent-sub000/internal/config"
	"github.com/lytics/dev-agent-sub000/internal/domain"
)

func searchCmd() *cobra.Command {
	var (
		envFile  string
		dataDir  string
		repoPath string
		limit    int
		commits  bool
	)

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Semantically search an indexed repository's declarations or commits",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(context.Background(), envFile, dataDir, repoPath, strings.Join(args, " "), limit, commits)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory (overrides DEVAGENT_DATA_DIR)")
	cmd.Flags().StringVar(&repoPath, "repo", ".", "Repository path")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of results")
	cmd.Flags().BoolVar(&commits, "commits", false, "Search commit history instead of source declarations")

	return cmd
}

func runSearch(ctx context.Context, envFile, dataDir, repoPath, query string, limit int, searchCommits bool) error {
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

	if searchCommits {
		commits, err := a.commitIndex.Search(ctx, query, limit)
		if err != nil {
			return fmt.Errorf("search commits: %w", err)
		}
		for _, c := range commits {
			fmt.Printf("%s %s\n", c.ShortHash, c.Subject)
		}
		return nil
	}

	vec, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return fmt.Errorf("embed query: %w", err)
	}
	results, err := a.codeStore.Search(ctx, vec, domain.SearchOptions{Limit: limit})
	if err != nil {
		return fmt.Errorf("search declarations: %w", err)
	}
	for _, r := range results {
		fmt.Printf("%.4f %s %s\n", r.Score, r.Document.ID, r.Document.Metadata.Signature)
	}
	return nil
}
