package gitlog

import (
	"context"
	"strings"
)

// RepoInfo summarizes a repository's current ref state.
type RepoInfo struct {
	Origin string
	Branch string
	Head   string
	Dirty  bool
}

// Info gathers origin remote, current branch, HEAD hash, and dirty state.
func (e *Extractor) Info(ctx context.Context) (RepoInfo, error) {
	var info RepoInfo

	if out, err := e.run(ctx, "remote", "get-url", "origin"); err == nil {
		info.Origin = strings.TrimSpace(out)
	}

	if out, err := e.run(ctx, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		branch := strings.TrimSpace(out)
		if branch != "HEAD" {
			info.Branch = branch
		}
	}

	if out, err := e.run(ctx, "rev-parse", "HEAD"); err == nil {
		info.Head = strings.TrimSpace(out)
	}

	if out, err := e.run(ctx, "status", "--porcelain"); err == nil {
		info.Dirty = strings.TrimSpace(out) != ""
	}

	return info, nil
}
