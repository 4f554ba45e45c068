package gitlog

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMineRefsClassifiesPRvsIssue(t *testing.T) {
	refs := MineRefs("Fix crash (#42)\n\nMerge pull request #7 from someone/fix\nAlso see PR #9 and #100")
	assert.ElementsMatch(t, []int{7, 9}, refs.PRRefs)
	assert.ElementsMatch(t, []int{42, 100}, refs.IssueRefs)
}

func TestMineRefsDeduplicatesPreservingOrder(t *testing.T) {
	refs := MineRefs("See #5 and #5 again, and #12")
	assert.Equal(t, []int{5, 12}, refs.IssueRefs)
}

func TestMineRefsNoRefs(t *testing.T) {
	refs := MineRefs("Simple commit with no references")
	assert.Empty(t, refs.IssueRefs)
	assert.Empty(t, refs.PRRefs)
}

func TestParseNumstatSimpleModification(t *testing.T) {
	files, stats := parseNumstat("10\t2\tmain.go")
	require.Len(t, files, 1)
	assert.Equal(t, "main.go", files[0].Path)
	assert.Equal(t, 10, files[0].Additions)
	assert.Equal(t, 2, files[0].Deletions)
	assert.Equal(t, 1, stats.FilesChanged)
	assert.Equal(t, 10, stats.Additions)
	assert.Equal(t, 2, stats.Deletions)
}

func TestParseNumstatBinaryFile(t *testing.T) {
	files, _ := parseNumstat("-\t-\tassets/logo.png")
	require.Len(t, files, 1)
	assert.Equal(t, 0, files[0].Additions)
	assert.Equal(t, 0, files[0].Deletions)
}

func TestParseNumstatSimpleRename(t *testing.T) {
	files, _ := parseNumstat("1\t1\told.go => new.go")
	require.Len(t, files, 1)
	assert.Equal(t, "old.go", files[0].PreviousPath)
	assert.Equal(t, "new.go", files[0].Path)
	assert.EqualValues(t, "renamed", files[0].Status)
}

func TestParseNumstatBraceRename(t *testing.T) {
	files, _ := parseNumstat("1\t1\tinternal/{old => new}/file.go")
	require.Len(t, files, 1)
	assert.Equal(t, "internal/old/file.go", files[0].PreviousPath)
	assert.Equal(t, "internal/new/file.go", files[0].Path)
	assert.EqualValues(t, "renamed", files[0].Status)
}

func TestParseLogSingleCommit(t *testing.T) {
	record := startMark +
		"abc1234567890123456789012345678901234567" + fieldSep +
		"abc1234" + fieldSep +
		"Jane Doe" + fieldSep + "jane@example.com" + fieldSep + "2024-01-02T03:04:05Z" + fieldSep +
		"Jane Doe" + fieldSep + "jane@example.com" + fieldSep + "2024-01-02T03:04:05Z" + fieldSep +
		"Fix the bug" + fieldSep + "Closes #5" + fieldSep +
		"" + recordSep + "\n3\t1\tmain.go\n"

	commits, err := parseLog(record)
	require.NoError(t, err)
	require.Len(t, commits, 1)

	c := commits[0]
	assert.Equal(t, "abc1234567890123456789012345678901234567", c.Hash)
	assert.Equal(t, "abc1234", c.ShortHash)
	assert.Equal(t, "Fix the bug", c.Subject)
	assert.Equal(t, "Closes #5", c.Body)
	assert.Equal(t, "Jane Doe", c.Author.Name)
	assert.Equal(t, []int{5}, c.Refs.IssueRefs)
	require.Len(t, c.Files, 1)
	assert.Equal(t, "main.go", c.Files[0].Path)
}

func hasGit() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

func runGitInit(t *testing.T, dir string) {
	t.Helper()
	cmds := [][]string{
		{"init", "-q"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test User"},
	}
	for _, args := range cmds {
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		require.NoError(t, cmd.Run())
	}
}

func writeTestFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestExtractorLogAgainstRealRepo(t *testing.T) {
	if !hasGit() {
		t.Skip("git binary not available")
	}
	dir := t.TempDir()
	runGitInit(t, dir)

	writeTestFile(t, dir, "README.md", "# hello\n")
	require.NoError(t, exec.Command("git", "-C", dir, "add", ".").Run())
	require.NoError(t, exec.Command("git", "-C", dir, "commit", "-q", "-m", "Initial commit (#1)").Run())

	e := New(dir, "git")
	commits, err := e.Log(context.Background(), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "Initial commit (#1)", commits[0].Subject)
	assert.Len(t, commits[0].Hash, 40)
	assert.Len(t, commits[0].ShortHash, 7)
	assert.Equal(t, []int{1}, commits[0].Refs.IssueRefs)
}

func TestExtractorInfoAgainstRealRepo(t *testing.T) {
	if !hasGit() {
		t.Skip("git binary not available")
	}
	dir := t.TempDir()
	runGitInit(t, dir)
	writeTestFile(t, dir, "a.txt", "x")

	e := New(dir, "git")
	info, err := e.Info(context.Background())
	require.NoError(t, err)
	assert.True(t, info.Dirty)
}

func TestEmptyRepoLogReturnsEmptyResult(t *testing.T) {
	if !hasGit() {
		t.Skip("git binary not available")
	}
	dir := t.TempDir()
	runGitInit(t, dir)

	e := New(dir, "git")
	commits, err := e.Log(context.Background(), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, commits)
}
