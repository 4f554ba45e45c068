// Package indexer implements the end-to-end orchestration of discovery,
// scanning, embedding, and storing for a single repository, using a
// phase/progress idiom composed over this module's scanner, embedder,
// and vector store.
package indexer

import (
	"context"
	"fmt"

	"github.com/lytics/dev-agent-sub000/internal/domain"
	"github.com/lytics/dev-agent-sub000/internal/embedding"
	"github.com/lytics/dev-agent-sub000/internal/logging"
	"github.com/lytics/dev-agent-sub000/internal/scanner"
	"github.com/lytics/dev-agent-sub000/internal/vectorstore"
)

// DefaultBatchSize is the default embedding batch size.
const DefaultBatchSize = 32

// Result summarizes a completed index run.
type Result struct {
	FilesScanned       int
	DocumentsExtracted int
	DocumentsStored    int
	Errors             []domain.IndexingError
}

// RepositoryIndexer orchestrates scan -> embed -> store for a single
// repository root.
type RepositoryIndexer struct {
	registry  *scanner.Registry
	embedder  *embedding.Embedder
	store     *vectorstore.VectorStore
	batchSize int
	logger    *logging.Logger
}

// New builds a RepositoryIndexer from its collaborators. batchSize <= 0
// uses DefaultBatchSize.
func New(registry *scanner.Registry, embedder *embedding.Embedder, store *vectorstore.VectorStore, batchSize int, logger *logging.Logger) *RepositoryIndexer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RepositoryIndexer{registry: registry, embedder: embedder, store: store, batchSize: batchSize, logger: logger}
}

// Run executes a full index pass over root, emitting progress through cb.
// Re-running over a changed repository is safe: documents carry stable
// ids and the store upserts.
func (idx *RepositoryIndexer) Run(ctx context.Context, root string, cb domain.ProgressCallback) (Result, error) {
	domain.Emit(cb, domain.ProgressEvent{Phase: domain.PhaseDiscovery, PercentComplete: 0})

	scanResult, err := idx.registry.Scan(ctx, root)
	if err != nil {
		return Result{}, fmt.Errorf("%w: scan %s: %v", domain.ErrIO, root, err)
	}

	total := len(scanResult.Documents)
	domain.Emit(cb, domain.ProgressEvent{
		Phase:              domain.PhaseScanning,
		FilesProcessed:     scanResult.Stats.FilesScanned,
		Total:              scanResult.Stats.FilesScanned,
		DocumentsExtracted: total,
		PercentComplete:    25,
	})

	result := Result{
		FilesScanned:       scanResult.Stats.FilesScanned,
		DocumentsExtracted: total,
	}
	for _, e := range scanResult.Stats.Errors {
		result.Errors = append(result.Errors, domain.IndexingError{File: e.File, Message: e.Error})
	}

	batches := batchDocuments(scanResult.Documents, idx.batchSize)
	for i, batch := range batches {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		texts := make([]string, len(batch))
		for j, doc := range batch {
			texts[j] = doc.Text
		}

		vecs, embedErr := idx.embedder.EmbedBatch(ctx, texts)
		embedPct := 25 + 70*(float64(i)+0.5)/float64(len(batches))
		domain.Emit(cb, domain.ProgressEvent{
			Phase:              domain.PhaseEmbedding,
			FilesProcessed:     scanResult.Stats.FilesScanned,
			Total:              scanResult.Stats.FilesScanned,
			DocumentsExtracted: total,
			PercentComplete:    embedPct,
		})
		if embedErr != nil {
			result.Errors = append(result.Errors, domain.IndexingError{
				File:    fmt.Sprintf("[batch %d]", i),
				Message: embedErr.Error(),
			})
			idx.logger.Warn("embedding batch failed, continuing with next batch", "batch", i, "error", embedErr)
			continue
		}

		if err := idx.store.Add(ctx, batch, vecs); err != nil {
			result.Errors = append(result.Errors, domain.IndexingError{
				File:    fmt.Sprintf("[batch %d]", i),
				Message: err.Error(),
			})
			idx.logger.Warn("store add failed for batch, continuing with next batch", "batch", i, "error", err)
			continue
		}
		result.DocumentsStored += len(batch)

		storePct := 25 + 70*float64(i+1)/float64(len(batches))
		domain.Emit(cb, domain.ProgressEvent{
			Phase:              domain.PhaseStoring,
			FilesProcessed:     scanResult.Stats.FilesScanned,
			Total:              scanResult.Stats.FilesScanned,
			DocumentsExtracted: total,
			PercentComplete:    storePct,
		})
	}

	domain.Emit(cb, domain.ProgressEvent{
		Phase:              domain.PhaseComplete,
		FilesProcessed:     scanResult.Stats.FilesScanned,
		Total:              scanResult.Stats.FilesScanned,
		DocumentsExtracted: total,
		PercentComplete:    100,
	})

	return result, nil
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
