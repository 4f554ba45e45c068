package codemap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lytics/dev-agent-sub000/internal/domain"
	"github.com/lytics/dev-agent-sub000/internal/vectorstore"
)

func newTestStore(t *testing.T) *vectorstore.VectorStore {
	t.Helper()
	store := vectorstore.New()
	require.NoError(t, store.Initialize(filepath.Join(t.TempDir(), "map.db")))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func doc(id, file, name string, exported bool) domain.Document {
	return domain.Document{
		ID:   id,
		Text: name,
		Type: domain.DocTypeFunction,
		Metadata: domain.CoreMetadata{
			File:     file,
			Name:     name,
			Exported: exported,
		},
	}
}

func TestBuildAccumulatesComponentCountsUpTree(t *testing.T) {
	store := newTestStore(t)
	docs := []domain.Document{
		doc("1", "internal/foo/a.go", "A", true),
		doc("2", "internal/foo/bar/b.go", "B", true),
		doc("3", "internal/baz/c.go", "C", false),
	}
	vecs := make([][]float32, len(docs))
	for i := range vecs {
		vecs[i] = []float32{1, 0}
	}
	require.NoError(t, store.Add(context.Background(), docs, vecs))

	builder := New(store, nil)
	result, err := builder.Build(context.Background(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Root.ComponentCount)

	internal := findChild(result.Root, "internal")
	require.NotNil(t, internal)
	assert.Equal(t, 3, internal.ComponentCount)

	foo := findChild(internal, "foo")
	require.NotNil(t, foo)
	assert.Equal(t, 2, foo.ComponentCount)
}

func TestBuildCollectsExportsPreservingOrderAndCap(t *testing.T) {
	store := newTestStore(t)
	var docs []domain.Document
	var vecs [][]float32
	for i := 0; i < 7; i++ {
		docs = append(docs, doc(string(rune('a'+i)), "pkg/file.go", string(rune('A'+i)), true))
		vecs = append(vecs, []float32{1, 0})
	}
	require.NoError(t, store.Add(context.Background(), docs, vecs))

	opts := DefaultOptions()
	opts.MaxExportsPerDir = 5
	builder := New(store, nil)
	result, err := builder.Build(context.Background(), opts)
	require.NoError(t, err)

	pkg := findChild(result.Root, "pkg")
	require.NotNil(t, pkg)
	require.Len(t, pkg.Exports, 5)
	assert.Equal(t, "A", pkg.Exports[0].Name)
	assert.Equal(t, "E", pkg.Exports[4].Name)
}

func TestBuildFixedModePrunesBelowDepth(t *testing.T) {
	store := newTestStore(t)
	docs := []domain.Document{
		doc("1", "a/b/c/d/file.go", "X", true),
	}
	require.NoError(t, store.Add(context.Background(), docs, [][]float32{{1, 0}}))

	opts := DefaultOptions()
	opts.Depth = 2
	builder := New(store, nil)
	result, err := builder.Build(context.Background(), opts)
	require.NoError(t, err)

	a := findChild(result.Root, "a")
	require.NotNil(t, a)
	b := findChild(a, "b")
	require.NotNil(t, b)
	assert.Empty(t, b.Children, "children at depth >= cutoff must be cleared")
}

func TestBuildSmartModeCollapsesLowComponentCount(t *testing.T) {
	store := newTestStore(t)
	docs := []domain.Document{
		doc("1", "a/b/small/file.go", "X", true),
	}
	require.NoError(t, store.Add(context.Background(), docs, [][]float32{{1, 0}}))

	opts := DefaultOptions()
	opts.PruneMode = PruneSmart
	opts.SmartDepthThreshold = 10
	builder := New(store, nil)
	result, err := builder.Build(context.Background(), opts)
	require.NoError(t, err)

	a := findChild(result.Root, "a")
	require.NotNil(t, a)
	b := findChild(a, "b")
	require.NotNil(t, b)
	small := findChild(b, "small")
	require.NotNil(t, small)
	assert.Empty(t, small.Children)
}

func TestHotPathsScenarioSix(t *testing.T) {
	store := newTestStore(t)

	callersOfTwo := []domain.Callee{{Name: "x", Line: 1}, {Name: "y", Line: 2}}
	docsA := []domain.Document{
		{ID: "a1", Text: "a1", Type: domain.DocTypeFunction, Metadata: domain.CoreMetadata{File: "A", Name: "a1", Callers: callersOfTwo}},
		{ID: "a2", Text: "a2", Type: domain.DocTypeFunction, Metadata: domain.CoreMetadata{File: "A", Name: "a2", Callers: callersOfTwo}},
		{ID: "a3", Text: "a3", Type: domain.DocTypeFunction, Metadata: domain.CoreMetadata{File: "A", Name: "a3", Callers: callersOfTwo}},
	}
	docB := domain.Document{
		ID:   "b1",
		Text: "b1",
		Type: domain.DocTypeFunction,
		Metadata: domain.CoreMetadata{
			File: "B", Name: "b1",
			Callees: []domain.Callee{{Name: "something", Line: 1, File: "B"}},
		},
	}

	docs := append(docsA, docB)
	vecs := make([][]float32, len(docs))
	for i := range vecs {
		vecs[i] = []float32{1, 0}
	}
	require.NoError(t, store.Add(context.Background(), docs, vecs))

	builder := New(store, nil)
	result, err := builder.Build(context.Background(), DefaultOptions())
	require.NoError(t, err)

	require.Len(t, result.HotPaths, 2)
	assert.Equal(t, "A", result.HotPaths[0].File)
	assert.Equal(t, 6, result.HotPaths[0].Score)
	assert.Equal(t, "B", result.HotPaths[1].File)
	assert.Equal(t, 1, result.HotPaths[1].Score)
}

func TestComparePatternsBucketsByFile(t *testing.T) {
	a := []domain.SearchResult{
		{Document: domain.Document{Metadata: domain.CoreMetadata{File: "shared.go"}}},
		{Document: domain.Document{Metadata: domain.CoreMetadata{File: "onlyA.go"}}},
	}
	b := []domain.SearchResult{
		{Document: domain.Document{Metadata: domain.CoreMetadata{File: "shared.go"}}},
		{Document: domain.Document{Metadata: domain.CoreMetadata{File: "onlyB.go"}}},
	}

	diff := ComparePatterns(a, b)
	assert.Equal(t, []string{"onlyA.go"}, diff.OnlyInA)
	assert.Equal(t, []string{"onlyB.go"}, diff.OnlyInB)
	assert.Equal(t, []string{"shared.go"}, diff.Shared)
}

func TestDiscoverInfrastructureSummarizesComposeServices(t *testing.T) {
	dir := t.TempDir()
	compose := `
services:
  api:
    image: devagent/api:1.2.3
    ports:
      - "8080:8080"
  worker:
    build: ./worker
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte(compose), 0o644))

	notes := discoverInfrastructure(dir)
	require.Len(t, notes, 2)
	assert.Contains(t, notes[0], `service "api"`)
	assert.Contains(t, notes[0], "devagent/api:1.2.3")
	assert.Contains(t, notes[0], "8080:8080")
	assert.Contains(t, notes[1], `service "worker"`)
	assert.Contains(t, notes[1], "builds from local source")
}

func TestDiscoverInfrastructureNoComposeFileIsEmpty(t *testing.T) {
	notes := discoverInfrastructure(t.TempDir())
	assert.Empty(t, notes)
}

func findChild(node *MapNode, name string) *MapNode {
	for _, c := range node.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}
