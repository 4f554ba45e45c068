package commitindex

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lytics/dev-agent-sub000/internal/domain"
	"github.com/lytics/dev-agent-sub000/internal/embedding"
	"github.com/lytics/dev-agent-sub000/internal/gitlog"
	"github.com/lytics/dev-agent-sub000/internal/vectorstore"
)

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

func hasGit() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

func initRepoWithCommits(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		require.NoError(t, cmd.Run())
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test User")

	for i := 0; i < n; i++ {
		name := filepath.Join(dir, "file.txt")
		require.NoError(t, os.WriteFile(name, []byte{byte('a' + i)}, 0o644))
		run("add", ".")
		run("commit", "-q", "-m", "commit number")
	}
	return dir
}

func newTestIndexer(t *testing.T, repo string) (*GitIndexer, *vectorstore.VectorStore) {
	t.Helper()
	git := gitlog.New(repo, "git")
	emb := embedding.New(stubBackend{}, 2)
	store := vectorstore.New()
	require.NoError(t, store.Initialize(filepath.Join(t.TempDir(), "commits.db")))
	t.Cleanup(func() { _ = store.Close() })
	return New(git, emb, store, 2, nil), store
}

func TestRunIndexesCommitHistory(t *testing.T) {
	if !hasGit() {
		t.Skip("git binary not available")
	}
	repo := initRepoWithCommits(t, 3)
	idx, store := newTestIndexer(t, repo)

	result, err := idx.Run(context.Background(), gitlog.DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.CommitsExtracted)
	assert.Equal(t, 3, result.CommitsStored)
	assert.Empty(t, result.Errors)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestSearchReconstructsCommitFromSidecar(t *testing.T) {
	if !hasGit() {
		t.Skip("git binary not available")
	}
	repo := initRepoWithCommits(t, 1)
	idx, _ := newTestIndexer(t, repo)

	_, err := idx.Run(context.Background(), gitlog.DefaultOptions(), nil)
	require.NoError(t, err)

	commits, err := idx.Search(context.Background(), "commit number", 5)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "commit number", commits[0].Subject)
	assert.Len(t, commits[0].Hash, 40)
}

func TestFileHistoryIsThinPassThrough(t *testing.T) {
	if !hasGit() {
		t.Skip("git binary not available")
	}
	repo := initRepoWithCommits(t, 2)
	idx, _ := newTestIndexer(t, repo)

	history, err := idx.FileHistory(context.Background(), "file.txt", 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestCountReflectsStoredCommits(t *testing.T) {
	if !hasGit() {
		t.Skip("git binary not available")
	}
	repo := initRepoWithCommits(t, 2)
	idx, _ := newTestIndexer(t, repo)

	_, err := idx.Run(context.Background(), gitlog.DefaultOptions(), nil)
	require.NoError(t, err)

	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestCommitDocumentBuildsTextAndSidecar(t *testing.T) {
	c := domain.Commit{
		Hash:      "1234567890123456789012345678901234567890",
		ShortHash: "1234567",
		Subject:   "Fix the bug",
		Body:      "Closes #5",
		Files: []domain.FileChange{
			{Path: "main.go"},
			{Path: "util.go"},
		},
	}

	doc, err := commitDocument(c)
	require.NoError(t, err)
	assert.Equal(t, "commit:1234567890123456789012345678901234567890", doc.ID)
	assert.Equal(t, "Fix the bug\n\nCloses #5\n\nmain.go util.go", doc.Text)
	assert.Equal(t, domain.DocTypeCommit, doc.Type)

	roundTripped, ok := commitFromSidecar(doc.Metadata)
	require.True(t, ok)
	assert.Equal(t, c.Hash, roundTripped.Hash)
	assert.Equal(t, c.Subject, roundTripped.Subject)
}

func TestCommitFromSidecarMissingReturnsFalse(t *testing.T) {
	_, ok := commitFromSidecar(domain.CoreMetadata{})
	assert.False(t, ok)
}
