package main

import (
	"fmt"

	"github.com/lytics/dev-agent-sub000/internal/commitindex"
	"github.com/lytics/dev-agent-sub000/internal/codemap"
	"github.com/lytics/dev-agent-sub000/internal/config"
	"github.com/lytics/dev-agent-sub000/internal/embedding"
	"github.com/lytics/dev-agent-sub000/internal/extract"
	"github.com/lytics/dev-agent-sub000/internal/gitlog"
	"github.com/lytics/dev-agent-sub000/internal/indexer"
	"github.com/lytics/dev-agent-sub000/internal/logging"
	"github.com/lytics/dev-agent-sub000/internal/scanner"
	"github.com/lytics/dev-agent-sub000/internal/storagepath"
	"github.com/lytics/dev-agent-sub000/internal/vectorstore"
)

// app bundles the wired components a devagent subcommand needs for a
// single repository, mirroring how serve.go wires its server from
// config.AppConfig.
type app struct {
	cfg    config.AppConfig
	logger *logging.Logger

	layout      storagepath.Layout
	git         *gitlog.Extractor
	embedder    *embedding.Embedder
	codeStore   *vectorstore.VectorStore
	commitStore *vectorstore.VectorStore

	indexer     *indexer.RepositoryIndexer
	commitIndex *commitindex.GitIndexer
	mapBuilder  *codemap.MapBuilder
}

// newApp resolves repoPath's storage layout and wires every component
// needed to index or query it.
func newApp(cfg config.AppConfig, repoPath string) (*app, error) {
	logger := logging.New(logFormat(cfg.LogFormat()), cfg.LogLevel())

	resolver := storagepath.NewResolver(cfg.DataDir())
	layout, err := resolver.GetStoragePath(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	if err := storagepath.EnsureDir(layout); err != nil {
		return nil, fmt.Errorf("ensure index dir: %w", err)
	}

	git := gitlog.New(repoPath, cfg.GitExecutable())
	embedder := embedding.NewFromConfig(cfg)

	codeStore := vectorstore.New()
	if err := codeStore.Initialize(layout.VectorsPath()); err != nil {
		return nil, fmt.Errorf("open code vector store: %w", err)
	}
	commitStore := vectorstore.New()
	if err := commitStore.Initialize(layout.CommitVectorsPath()); err != nil {
		return nil, fmt.Errorf("open commit vector store: %w", err)
	}

	registry := scanner.NewRegistry(logger,
		extract.NewGoExtractor(),
		extract.NewTypeScriptExtractor(),
		extract.NewMarkdownExtractor(),
	)

	return &app{
		cfg:         cfg,
		logger:      logger,
		layout:      layout,
		git:         git,
		embedder:    embedder,
		codeStore:   codeStore,
		commitStore: commitStore,
		indexer:     indexer.New(registry, embedder, codeStore, cfg.IndexingBatchSize(), logger),
		commitIndex: commitindex.New(git, embedder, commitStore, cfg.IndexingBatchSize(), logger),
		mapBuilder:  codemap.New(codeStore, git),
	}, nil
}

func (a *app) close() {
	_ = a.codeStore.Close()
	_ = a.commitStore.Close()
	_ = a.embedder.Close()
}

func logFormat(f config.LogFormat) logging.Format {
	if f == config.LogFormatJSON {
		return logging.FormatJSON
	}
	return logging.FormatPretty
}

func (a *app) mapOptions() codemap.Options {
	opts := codemap.DefaultOptions()
	opts.Depth = a.cfg.MapDepth()
	opts.SmartDepthThreshold = a.cfg.MapSmartDepthThreshold()
	opts.MaxExportsPerDir = a.cfg.MapMaxExportsPerDir()
	opts.MaxHotPaths = a.cfg.MapMaxHotPaths()
	return opts
}
