// Package commitindex implements the same discovery/embed/store
// orchestration as the indexer package's RepositoryIndexer, applied to
// commits instead of source declarations, reusing its phase/progress
// idiom.
package commitindex

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lytics/dev-agent-sub000/internal/domain"
	"github.com/lytics/dev-agent-sub000/internal/embedding"
	"github.com/lytics/dev-agent-sub000/internal/gitlog"
	"github.com/lytics/dev-agent-sub000/internal/logging"
	"github.com/lytics/dev-agent-sub000/internal/vectorstore"
)

// commitSidecarKey is the Custom metadata key under which the full
// commit is stashed so Search can round-trip results back into
// domain.Commit.
const commitSidecarKey = "_commit"

// DefaultBatchSize matches RepositoryIndexer's embedding batch size.
const DefaultBatchSize = 32

// Result summarizes a completed commit-index run.
type Result struct {
	CommitsExtracted int
	CommitsStored    int
	Errors           []domain.IndexingError
}

// GitIndexer orchestrates extract -> embed -> store for a repository's
// commit history, mirroring RepositoryIndexer but sourcing documents
// from gitlog.Extractor.Log instead of ScannerRegistry.Scan.
type GitIndexer struct {
	git       *gitlog.Extractor
	embedder  *embedding.Embedder
	store     *vectorstore.VectorStore
	batchSize int
	logger    *logging.Logger
}

// New builds a GitIndexer from its collaborators. batchSize <= 0 uses
// DefaultBatchSize.
func New(git *gitlog.Extractor, embedder *embedding.Embedder, store *vectorstore.VectorStore, batchSize int, logger *logging.Logger) *GitIndexer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &GitIndexer{git: git, embedder: embedder, store: store, batchSize: batchSize, logger: logger}
}

// Run extracts the repository's commit history via opts, builds one
// document per commit, and batch-embeds/upserts them into the commits
// vector store instance.
func (gi *GitIndexer) Run(ctx context.Context, opts gitlog.Options, cb domain.ProgressCallback) (Result, error) {
	domain.Emit(cb, domain.ProgressEvent{Phase: domain.PhaseDiscovery, PercentComplete: 0})

	commits, err := gi.git.Log(ctx, opts)
	if err != nil {
		return Result{}, fmt.Errorf("%w: list commits: %v", domain.ErrIO, err)
	}

	docs := make([]domain.Document, 0, len(commits))
	for _, c := range commits {
		doc, err := commitDocument(c)
		if err != nil {
			continue
		}
		docs = append(docs, doc)
	}

	total := len(docs)
	domain.Emit(cb, domain.ProgressEvent{
		Phase:              domain.PhaseScanning,
		DocumentsExtracted: total,
		PercentComplete:    25,
	})

	result := Result{CommitsExtracted: total}

	batches := batchDocuments(docs, gi.batchSize)
	for i, batch := range batches {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		texts := make([]string, len(batch))
		for j, doc := range batch {
			texts[j] = doc.Text
		}

		vecs, embedErr := gi.embedder.EmbedBatch(ctx, texts)
		domain.Emit(cb, domain.ProgressEvent{
			Phase:              domain.PhaseEmbedding,
			DocumentsExtracted: total,
			PercentComplete:    25 + 70*(float64(i)+0.5)/float64(len(batches)),
		})
		if embedErr != nil {
			result.Errors = append(result.Errors, domain.IndexingError{
				File:    fmt.Sprintf("[batch %d]", i),
				Message: embedErr.Error(),
			})
			gi.logger.Warn("commit embedding batch failed, continuing with next batch", "batch", i, "error", embedErr)
			continue
		}

		if err := gi.store.Add(ctx, batch, vecs); err != nil {
			result.Errors = append(result.Errors, domain.IndexingError{
				File:    fmt.Sprintf("[batch %d]", i),
				Message: err.Error(),
			})
			gi.logger.Warn("commit store add failed for batch, continuing with next batch", "batch", i, "error", err)
			continue
		}
		result.CommitsStored += len(batch)

		domain.Emit(cb, domain.ProgressEvent{
			Phase:              domain.PhaseStoring,
			DocumentsExtracted: total,
			PercentComplete:    25 + 70*float64(i+1)/float64(len(batches)),
		})
	}

	domain.Emit(cb, domain.ProgressEvent{
		Phase:              domain.PhaseComplete,
		DocumentsExtracted: total,
		PercentComplete:    100,
	})

	return result, nil
}

// Search embeds query, restricts results to commit documents, and
// reconstructs each domain.Commit from its sidecar metadata, discarding
// any row missing it.
func (gi *GitIndexer) Search(ctx context.Context, query string, limit int) ([]domain.Commit, error) {
	vec, err := gi.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", domain.ErrModel, err)
	}

	results, err := gi.store.Search(ctx, vec, domain.SearchOptions{
		Limit:  limit,
		Filter: map[string]any{"type": string(domain.DocTypeCommit)},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search commits: %v", domain.ErrBackend, err)
	}

	commits := make([]domain.Commit, 0, len(results))
	for _, r := range results {
		c, ok := commitFromSidecar(r.Document.Metadata)
		if !ok {
			continue
		}
		commits = append(commits, c)
	}
	return commits, nil
}

// FileHistory bypasses the vector store entirely: a thin pass-through to
// GitExtractor.Log scoped to path with rename-following and merges
// excluded.
func (gi *GitIndexer) FileHistory(ctx context.Context, path string, limit int) ([]domain.Commit, error) {
	return gi.git.Log(ctx, gitlog.Options{Path: path, Follow: true, NoMerges: true, Limit: limit})
}

// Count returns the exact number of stored commit documents. The store
// exposes a counting primitive directly, so this is exact rather than
// a broad-search approximation.
func (gi *GitIndexer) Count(ctx context.Context) (int64, error) {
	return gi.store.Count(ctx)
}

func commitDocument(c domain.Commit) (domain.Document, error) {
	if err := c.Validate(); err != nil {
		return domain.Document{}, err
	}

	fileList := make([]string, len(c.Files))
	for i, f := range c.Files {
		fileList[i] = f.Path
	}
	text := c.Subject + "\n\n" + c.Body + "\n\n" + strings.Join(fileList, " ")

	sidecar, err := sidecarValue(c)
	if err != nil {
		return domain.Document{}, err
	}

	meta := domain.CoreMetadata{
		Name:      c.Subject,
		Docstring: c.Body,
	}
	meta = meta.WithCustom("type", string(domain.DocTypeCommit))
	meta = meta.WithCustom(commitSidecarKey, sidecar)

	return domain.Document{
		ID:       "commit:" + c.Hash,
		Text:     text,
		Type:     domain.DocTypeCommit,
		Metadata: meta,
	}, nil
}

// sidecarValue round-trips c through JSON into a generic map so it
// survives the metadata column's marshal/unmarshal cycle the same way a
// row read back from the store would see it.
func sidecarValue(c domain.Commit) (any, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal commit sidecar: %v", domain.ErrPrecondition, err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("%w: unmarshal commit sidecar: %v", domain.ErrConsistency, err)
	}
	return generic, nil
}

func commitFromSidecar(meta domain.CoreMetadata) (domain.Commit, bool) {
	raw, ok := meta.Get(commitSidecarKey)
	if !ok {
		return domain.Commit{}, false
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return domain.Commit{}, false
	}
	var c domain.Commit
	if err := json.Unmarshal(encoded, &c); err != nil {
		return domain.Commit{}, false
	}
	return c, true
}

func batchDocuments(docs []domain.Document, size int) [][]domain.Document {
	if len(docs) == 0 {
		return nil
	}
	var batches [][]domain.Document
	for i := 0; i < len(docs); i += size {
		end := i + size
		if end > len(docs) {
			end = len(docs)
		}
		batches = append(batches, docs[i:end])
	}
	return batches
}
