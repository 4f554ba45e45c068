package metadata

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	_, ok := Load(t.TempDir())
	assert.False(t, ok)
}

func TestLoadMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte("{not json"), 0o644))
	_, ok := Load(dir)
	assert.False(t, ok)
}

func TestLoadInvalidSchema(t *testing.T) {
	dir := t.TempDir()
	// Missing repository.path.
	raw, _ := json.Marshal(RepositoryMetadata{Version: "1.0"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), raw, 0o644))
	_, ok := Load(dir)
	assert.False(t, ok)
}

func TestSaveCreatesAndPreservesFields(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	repoDir := t.TempDir()
	initRepo(t, repoDir)

	indexDir := t.TempDir()
	ctx := context.Background()

	m1, err := Save(ctx, indexDir, repoDir, Patch{
		Indexed: &Indexed{Timestamp: "2026-01-01T00:00:00Z", Files: 3, Components: 7, Size: 1024},
	})
	require.NoError(t, err)
	assert.Equal(t, "1.0", m1.Version)
	require.NotNil(t, m1.Indexed)
	assert.Equal(t, 3, m1.Indexed.Files)
	assert.Nil(t, m1.Config)

	// A second save with only a config patch must not drop the indexed
	// section set by the first save.
	m2, err := Save(ctx, indexDir, repoDir, Patch{
		Config: &Config{Languages: []string{"go"}},
	})
	require.NoError(t, err)
	require.NotNil(t, m2.Indexed)
	assert.Equal(t, 3, m2.Indexed.Files)
	require.NotNil(t, m2.Config)
	assert.Equal(t, []string{"go"}, m2.Config.Languages)

	loaded, ok := Load(indexDir)
	require.True(t, ok)
	assert.Equal(t, m2, loaded)
}

func TestSaveSetsAbsoluteRepoPath(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	repoDir := t.TempDir()
	initRepo(t, repoDir)

	m, err := Save(context.Background(), t.TempDir(), repoDir, Patch{})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(m.Repository.Path))
}

func initRepo(t *testing.T, dir string) {
	t.Helper()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		require.NoError(t, cmd.Run(), "git %v", args)
	}
	run("init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "initial")
}
