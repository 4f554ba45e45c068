package gitlog

import (
	"regexp"
	"strconv"

	"github.com/lytics/dev-agent-sub000/internal/domain"
)

// prPattern matches PR references: "PR #123", "pull request #123", or
// "Merge pull request #123".
var prPattern = regexp.MustCompile(`(?i)(?:PR\s*#|pull\s+request\s*#|Merge pull request #)(\d+)`)

// bareHashPattern matches every bare "#123" occurrence, from which PR
// matches are subtracted to find issue references. Go's regexp package
// is RE2 and has no lookbehind, so a negative-lookbehind issue regex is
// implemented as this set-difference instead: find every bare "#N", find
// every PR-context "#N", then remove the latter from the former (order
// preserved, deduplicated).
var bareHashPattern = regexp.MustCompile(`#(\d+)`)

// MineRefs extracts PR and issue references from a commit's combined
// subject+body text.
func MineRefs(text string) domain.CommitRefs {
	prNumbers := matchNumbers(prPattern, text)
	prSet := make(map[int]bool, len(prNumbers))
	for _, n := range prNumbers {
		prSet[n] = true
	}

	allBare := matchNumbers(bareHashPattern, text)

	var issueRefs []int
	seenIssue := make(map[int]bool)
	for _, n := range allBare {
		if prSet[n] || seenIssue[n] {
			continue
		}
		seenIssue[n] = true
		issueRefs = append(issueRefs, n)
	}

	var prRefs []int
	seenPR := make(map[int]bool)
	for _, n := range prNumbers {
		if seenPR[n] {
			continue
		}
		seenPR[n] = true
		prRefs = append(prRefs, n)
	}

	return domain.CommitRefs{IssueRefs: issueRefs, PRRefs: prRefs}
}

func matchNumbers(re *regexp.Regexp, text string) []int {
	matches := re.FindAllStringSubmatch(text, -1)
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
