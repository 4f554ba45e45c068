// Package gitlog implements commit enumeration, numstat parsing, PR/issue
// reference mining, blame, and repository info, all via os/exec subprocess
// invocations of the git binary.
package gitlog

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lytics/dev-agent-sub000/internal/domain"
)

// Framing separators: two rarely used Unicode symbols (U+241E, U+241F)
// unlikely to appear in commit text, plus a start-of-record marker so that multi-line
// bodies never get mistaken for a record boundary.
const (
	fieldSep  = "␞"
	recordSep = "␟"
	startMark = "::COMMIT_START::"
)

// logFormat lists the commit fields in order, each joined by fieldSep and
// the whole record prefixed by startMark.
const logFormat = startMark +
	"%H" + fieldSep + "%h" + fieldSep +
	"%an" + fieldSep + "%ae" + fieldSep + "%aI" + fieldSep +
	"%cn" + fieldSep + "%ce" + fieldSep + "%cI" + fieldSep +
	"%s" + fieldSep + "%b" + fieldSep + "%P" + recordSep

// Options configures a Log call.
type Options struct {
	Limit     int
	Since     time.Time
	Until     time.Time
	Author    string
	Path      string
	Follow    bool
	NoMerges  bool
	StartFrom string
}

// DefaultOptions returns Options with noMerges=true.
func DefaultOptions() Options {
	return Options{NoMerges: true}
}

// Extractor runs git subprocesses against a single repository checkout.
type Extractor struct {
	repoPath   string
	executable string
}

// New returns an Extractor rooted at repoPath, invoking the named git
// executable (normally "git").
func New(repoPath, executable string) *Extractor {
	if executable == "" {
		executable = "git"
	}
	return &Extractor{repoPath: repoPath, executable: executable}
}

// RepoPath returns the repository root this Extractor is rooted at.
func (e *Extractor) RepoPath() string { return e.repoPath }

// Log enumerates commits matching opts.
func (e *Extractor) Log(ctx context.Context, opts Options) ([]domain.Commit, error) {
	formatArg := "--format=" + logFormat
	args := []string{"log", "--numstat", formatArg}

	if opts.Limit > 0 {
		args = append(args, "-n", strconv.Itoa(opts.Limit))
	}
	if !opts.Since.IsZero() {
		args = append(args, "--since", opts.Since.Format(time.RFC3339))
	}
	if !opts.Until.IsZero() {
		args = append(args, "--until", opts.Until.Format(time.RFC3339))
	}
	if opts.Author != "" {
		args = append(args, "--author", opts.Author)
	}
	if opts.NoMerges {
		args = append(args, "--no-merges")
	}
	if opts.StartFrom != "" {
		args = append(args, opts.StartFrom)
	}
	if opts.Path != "" {
		if opts.Follow {
			args = append(args, "--follow")
		}
		args = append(args, "--", opts.Path)
	}

	out, err := e.run(ctx, args...)
	if err != nil {
		if isEmptyRepoError(err) {
			return nil, nil
		}
		return nil, err
	}

	return parseLog(out)
}

// run executes git with args, CWD = repoPath, and a stderr buffer used to
// detect the empty-repo condition.
func (e *Extractor) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, e.executable, append([]string{"-C", e.repoPath}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if strings.Contains(stderr.String(), "does not have any commits yet") {
			return "", emptyRepoError{}
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%w: git %s: %s", domain.ErrIO, strings.Join(args, " "), msg)
	}
	return stdout.String(), nil
}

type emptyRepoError struct{}

func (emptyRepoError) Error() string { return "repository has no commits yet" }

func isEmptyRepoError(err error) bool {
	_, ok := err.(emptyRepoError)
	return ok
}

// parseLog splits git log output into records framed by startMark,
// splits each record's metadata on fieldSep, and feeds the trailing
// numstat block to parseNumstat.
func parseLog(out string) ([]domain.Commit, error) {
	records := strings.Split(out, startMark)
	commits := make([]domain.Commit, 0, len(records))

	for _, record := range records {
		record = strings.TrimLeft(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}

		var header, numstatBlock string
		if idx := strings.Index(record, recordSep); idx >= 0 {
			header = record[:idx]
			numstatBlock = record[idx+len(recordSep):]
		} else {
			header = record
		}

		fields := strings.Split(header, fieldSep)
		if len(fields) < 11 {
			continue
		}

		authorDate, _ := time.Parse(time.RFC3339, strings.TrimSpace(fields[4]))
		committerDate, _ := time.Parse(time.RFC3339, strings.TrimSpace(fields[7]))

		hash := strings.TrimSpace(fields[0])
		shortHash := strings.TrimSpace(fields[1])
		subject := strings.TrimSpace(fields[8])
		body := strings.TrimRight(fields[9], "\n")
		body = strings.TrimSpace(body)

		var parents []string
		if p := strings.TrimSpace(fields[10]); p != "" {
			parents = strings.Fields(p)
		}

		files, stats := parseNumstat(numstatBlock)

		commit := domain.Commit{
			Hash:      hash,
			ShortHash: shortHash,
			Subject:   subject,
			Body:      body,
			Author: domain.Author{
				Name:  strings.TrimSpace(fields[2]),
				Email: strings.TrimSpace(fields[3]),
				Date:  authorDate,
			},
			Committer: domain.Author{
				Name:  strings.TrimSpace(fields[5]),
				Email: strings.TrimSpace(fields[6]),
				Date:  committerDate,
			},
			Files:   files,
			Stats:   stats,
			Parents: parents,
		}
		commit.Refs = MineRefs(subject + "\n" + body)

		commits = append(commits, commit)
	}

	return commits, nil
}

var renameBrace = regexp.MustCompile(`^(.*)\{(.*) => (.*)\}(.*)$`)
var renameArrow = regexp.MustCompile(`^(.*) => (.*)$`)

// parseNumstat parses numstat lines ("additions<TAB>deletions<TAB>path")
// into FileChange rows plus their aggregate CommitStats.
func parseNumstat(block string) ([]domain.FileChange, domain.CommitStats) {
	var files []domain.FileChange
	var stats domain.CommitStats

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}

		additions := parseNumstatCount(parts[0])
		deletions := parseNumstatCount(parts[1])
		path := parts[2]

		change := domain.FileChange{Additions: additions, Deletions: deletions, Status: domain.FileStatusModified}

		if m := renameBrace.FindStringSubmatch(path); m != nil {
			prefix, oldPart, newPart, suffix := m[1], m[2], m[3], m[4]
			change.PreviousPath = collapseSlashes(prefix + oldPart + suffix)
			change.Path = collapseSlashes(prefix + newPart + suffix)
			change.Status = domain.FileStatusRenamed
		} else if m := renameArrow.FindStringSubmatch(path); m != nil {
			change.PreviousPath = strings.TrimSpace(m[1])
			change.Path = strings.TrimSpace(m[2])
			change.Status = domain.FileStatusRenamed
		} else {
			change.Path = path
		}

		files = append(files, change)
		stats.Additions += additions
		stats.Deletions += deletions
	}
	stats.FilesChanged = len(files)
	return files, stats
}

func parseNumstatCount(s string) int {
	if s == "-" {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func collapseSlashes(s string) string {
	for strings.Contains(s, "//") {
		s = strings.ReplaceAll(s, "//", "/")
	}
	return s
}
