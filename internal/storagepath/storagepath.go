// Package storagepath resolves the deterministic on-disk home for a
// repository's index.
package storagepath

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Layout is the resolved set of file paths inside a repository's index
// directory.
type Layout struct {
	// Dir is the index directory itself, e.g. ~/.dev-agent/indexes/<hash>/.
	Dir string
}

// VectorsPath is the code vector store's on-disk path.
func (l Layout) VectorsPath() string { return filepath.Join(l.Dir, "vectors.lance") }

// CommitVectorsPath is the commit vector store's on-disk path, a sibling
// suffix of VectorsPath.
func (l Layout) CommitVectorsPath() string { return filepath.Join(l.Dir, "vectors.lance-git") }

// MetadataPath is the repository metadata JSON file's path.
func (l Layout) MetadataPath() string { return filepath.Join(l.Dir, "metadata.json") }

// IndexerStatePath is the indexer's persisted checkpoint file path.
func (l Layout) IndexerStatePath() string { return filepath.Join(l.Dir, "indexer-state.json") }

// GitHubStatePath is the GitHub sync checkpoint file path.
func (l Layout) GitHubStatePath() string { return filepath.Join(l.Dir, "github-state.json") }

// MetricsDBPath is reserved for future metrics persistence; no
// schema is defined for it yet, so nothing reads or writes through it.
func (l Layout) MetricsDBPath() string { return filepath.Join(l.Dir, "metrics.db") }

// Resolver computes the index Layout for a repository, given the
// directory under which all index directories are rooted (an AppConfig's
// DataDir).
type Resolver struct {
	Root string
}

// NewResolver returns a Resolver rooted at root.
func NewResolver(root string) Resolver {
	return Resolver{Root: root}
}

// GetStoragePath resolves repoPath's index directory:
//  1. Read remote.origin.url from the repository at repoPath.
//  2. If present, normalize it to "owner/repo" and hash that with MD5,
//     taking the first 8 hex characters.
//  3. Otherwise hash the absolute repo path itself.
//
// The result is deterministic and idempotent: the same repository
// resolves to the same directory regardless of which clone's absolute
// path is passed in, because the remote identity — not the filesystem
// path — drives the hash whenever a remote is configured.
func (r Resolver) GetStoragePath(repoPath string) (Layout, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve absolute path for %q: %w", repoPath, err)
	}

	key := abs
	if remote, ok := originURL(abs); ok {
		key = normalizeRemote(remote)
	}

	sum := md5.Sum([]byte(key))
	hash := hex.EncodeToString(sum[:])[:8]

	return Layout{Dir: filepath.Join(r.Root, hash)}, nil
}

// originURL returns the repository's "origin" remote URL, if the path
// is a git repository with that remote configured.
func originURL(repoPath string) (string, bool) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", false
	}
	remote, err := repo.Remote("origin")
	if err != nil {
		return "", false
	}
	cfg := remote.Config()
	if cfg == nil || len(cfg.URLs) == 0 {
		return "", false
	}
	return cfg.URLs[0], true
}

// normalizeRemote reduces a git remote URL to a lowercased "owner/repo"
// identity string. It strips the scheme, the host segment,
// a trailing ".git", and trailing slashes.
//
// normalizeRemote is a fixed point on its own output: normalizing an
// already-normalized "owner/repo" string returns it unchanged.
func normalizeRemote(remote string) string {
	s := strings.TrimSpace(remote)

	switch {
	case strings.HasPrefix(s, "https://"):
		s = strings.TrimPrefix(s, "https://")
	case strings.HasPrefix(s, "http://"):
		s = strings.TrimPrefix(s, "http://")
	case strings.HasPrefix(s, "ssh://git@"):
		s = strings.TrimPrefix(s, "ssh://git@")
	case strings.HasPrefix(s, "ssh://"):
		s = strings.TrimPrefix(s, "ssh://")
	case strings.HasPrefix(s, "git@"):
		// git@host:owner/repo -> host:owner/repo, then drop the host below
		// by locating the colon rather than a slash.
		s = strings.TrimPrefix(s, "git@")
		s = strings.Replace(s, ":", "/", 1)
	}

	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".git")
	s = strings.TrimSuffix(s, "/")

	// Drop a leading host segment (e.g. "github.com/owner/repo" ->
	// "owner/repo"). A segment is treated as a host only when it looks
	// like a domain (contains a dot); this keeps normalizeRemote a fixed
	// point on its own "owner/repo" output, since plain owner
	// names essentially never contain dots.
	if idx := strings.Index(s, "/"); idx >= 0 && strings.Contains(s[:idx], ".") {
		s = s[idx+1:]
	}

	return strings.ToLower(s)
}

// EnsureDir creates the index directory (and any parents) if it does
// not already exist.
func EnsureDir(layout Layout) error {
	if err := os.MkdirAll(layout.Dir, 0o755); err != nil {
		return fmt.Errorf("create index dir %q: %w", layout.Dir, err)
	}
	return nil
}
