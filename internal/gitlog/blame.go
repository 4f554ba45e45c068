package gitlog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BlameLine is one content line of a git blame result, carrying the most
// recent commit known to have touched it.
type BlameLine struct {
	Hash       string    `json:"hash"`
	Author     string    `json:"author"`
	AuthorTime time.Time `json:"authorTime"`
	Summary    string    `json:"summary"`
	LineNumber int       `json:"lineNumber"`
	Content    string    `json:"content"`
}

// Blame parses `git blame --line-porcelain -L start,end` for path into
// one BlameLine per content line.
func (e *Extractor) Blame(ctx context.Context, path string, start, end int) ([]BlameLine, error) {
	args := []string{"blame", "--line-porcelain", fmt.Sprintf("-L%d,%d", start, end), "--", path}
	out, err := e.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return parseBlame(out), nil
}

func parseBlame(out string) []BlameLine {
	var lines []BlameLine
	var cur BlameLine
	lineNum := 0

	for _, raw := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(raw, "\t"):
			lineNum++
			cur.LineNumber = lineNum
			cur.Content = raw[1:]
			lines = append(lines, cur)
		case strings.HasPrefix(raw, "author "):
			cur.Author = strings.TrimPrefix(raw, "author ")
		case strings.HasPrefix(raw, "author-time "):
			if secs, err := strconv.ParseInt(strings.TrimPrefix(raw, "author-time "), 10, 64); err == nil {
				cur.AuthorTime = time.Unix(secs, 0).UTC()
			}
		case strings.HasPrefix(raw, "summary "):
			cur.Summary = strings.TrimPrefix(raw, "summary ")
		default:
			fields := strings.Fields(raw)
			if len(fields) > 0 && len(fields[0]) == 40 && isLowerHexString(fields[0]) {
				cur.Hash = fields[0]
			}
		}
	}

	return lines
}

func isLowerHexString(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
