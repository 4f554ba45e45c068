package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lytics/dev-agent-sub000/internal/domain"
	"github.com/lytics/dev-agent-sub000/internal/embedding"
	"github.com/lytics/dev-agent-sub000/internal/extract"
	"github.com/lytics/dev-agent-sub000/internal/scanner"
	"github.com/lytics/dev-agent-sub000/internal/vectorstore"
)

// stubBackend returns a deterministic fixed-length vector for any input,
// avoiding a dependency on a real embedding model in tests.
type stubBackend struct{}

func (stubBackend) Capacity() int { return 8 }
func (stubBackend) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}
func (stubBackend) Close() error { return nil }

func newTestIndexer(t *testing.T) (*RepositoryIndexer, *vectorstore.VectorStore) {
	t.Helper()
	reg := scanner.NewRegistry(nil, extract.NewGoExtractor())
	emb := embedding.New(stubBackend{}, 2)
	store := vectorstore.New()
	require.NoError(t, store.Initialize(filepath.Join(t.TempDir(), "vectors.db")))
	t.Cleanup(func() { _ = store.Close() })
	return New(reg, emb, store, 2, nil), store
}

func TestRunIndexesRepository(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n\nfunc Run() {}\n\nfunc helper() {}\n"), 0o644))

	idx, store := newTestIndexer(t)

	var events []domain.ProgressEvent
	result, err := idx.Run(context.Background(), root, func(ev domain.ProgressEvent) {
		events = append(events, ev)
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesScanned)
	assert.Equal(t, 2, result.DocumentsExtracted)
	assert.Equal(t, 2, result.DocumentsStored)
	assert.Empty(t, result.Errors)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	require.NotEmpty(t, events)
	assert.Equal(t, domain.PhaseComplete, events[len(events)-1].Phase)
	assert.Equal(t, 100.0, events[len(events)-1].PercentComplete)
}

func TestRunIsIdempotentOnReindex(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n\nfunc Run() {}\n"), 0o644))

	idx, store := newTestIndexer(t)
	ctx := context.Background()

	_, err := idx.Run(ctx, root, nil)
	require.NoError(t, err)
	_, err = idx.Run(ctx, root, nil)
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRunWithNoDocumentsProducesEmptyResult(t *testing.T) {
	root := t.TempDir()
	idx, _ := newTestIndexer(t)

	result, err := idx.Run(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Zero(t, result.DocumentsExtracted)
	assert.Zero(t, result.DocumentsStored)
}
