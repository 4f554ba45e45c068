// Package embedding turns text into 384-dim L2-normalized vectors.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// Dimensions is the fixed output width every backend must produce.
const Dimensions = 384

// DefaultBatchSize is the default chunk size EmbedBatch splits its input
// into before calling a backend.
const DefaultBatchSize = 32

// EmbeddingError reports a backend failure. Partial results are never
// returned from a batch call — see Embedder.EmbedBatch.
type EmbeddingError struct {
	Reason string
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed: %s", e.Reason)
}

// Backend is the minimal capability a concrete embedding provider
// implements. Embedder wraps a Backend with batching and order
// preservation so callers never depend on backend-specific chunk sizes.
type Backend interface {
	// Embed embeds at most Capacity() texts in one call, returning one
	// vector per input text in the same order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Capacity is the maximum number of texts accepted per Embed call.
	Capacity() int

	// Close releases any backend resources. Safe to call more than once.
	Close() error
}

// Embedder is the public capability the rest of the pipeline depends on:
// embed(text) and embedBatch(texts).
type Embedder struct {
	backend   Backend
	batchSize int
}

// New wraps backend with the given caller-settable batch size. A
// batchSize < 1 falls back to DefaultBatchSize.
func New(backend Backend, batchSize int) *Embedder {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{backend: backend, batchSize: batchSize}
}

// Embed embeds a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch chunks texts into groups of at most batchSize (and at most
// the backend's Capacity(), whichever is smaller), embeds each group,
// and reassembles the results in input order. A failure in any group
// fails the whole call — partial results are never returned.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	chunkSize := e.batchSize
	if cap := e.backend.Capacity(); cap > 0 && cap < chunkSize {
		chunkSize = cap
	}

	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += chunkSize {
		end := start + chunkSize
		if end > len(texts) {
			end = len(texts)
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vecs, err := e.backend.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, &EmbeddingError{Reason: err.Error()}
		}
		if len(vecs) != end-start {
			return nil, &EmbeddingError{Reason: fmt.Sprintf("backend returned %d vectors for %d texts", len(vecs), end-start)}
		}
		copy(out[start:end], vecs)
	}

	return out, nil
}

// Close releases the underlying backend.
func (e *Embedder) Close() error {
	return e.backend.Close()
}

// ErrNoBackendConfigured reports that no embedding backend could be
// constructed from configuration. New always constructs a backend, so
// it does not return this error.
var ErrNoBackendConfigured = errors.New("embedding: no backend configured")
