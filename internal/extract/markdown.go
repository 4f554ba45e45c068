package extract

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/lytics/dev-agent-sub000/internal/domain"
)

// MarkdownExtractor turns a Markdown file into one domain.Document per
// heading-delimited section, walking the goldmark AST for structure
// rather than rendering.
type MarkdownExtractor struct {
	md goldmark.Markdown
}

// NewMarkdownExtractor returns an extractor configured with auto heading
// IDs, used as each section's slug.
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{
		md: goldmark.New(goldmark.WithParserOptions(parser.WithAutoHeadingID())),
	}
}

func (e *MarkdownExtractor) Language() string { return "markdown" }

func (e *MarkdownExtractor) CanHandle(path string) bool {
	return strings.HasSuffix(path, ".md") || strings.HasSuffix(path, ".markdown")
}

func (e *MarkdownExtractor) Capabilities() Capabilities {
	return Capabilities{Syntax: false, Types: false, References: false, Documentation: true}
}

type mdSection struct {
	slug      string
	title     string
	level     int
	startLine int
	endLine   int
}

func (e *MarkdownExtractor) Extract(relativePath string, content []byte) ([]domain.Document, error) {
	reader := text.NewReader(content)
	root := e.md.Parser().Parse(reader)

	lineOf := newLineIndex(content)

	var sections []mdSection
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		title := headingText(heading, content)
		slug := headingSlug(heading, title)
		offset := 0
		if lines := heading.Lines(); lines.Len() > 0 {
			offset = lines.At(0).Start
		}
		sections = append(sections, mdSection{
			slug:      slug,
			title:     title,
			level:     heading.Level,
			startLine: lineOf(offset),
		})
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrParse, relativePath, err)
	}

	totalLines := strings.Count(string(content), "\n") + 1
	for i := range sections {
		if i+1 < len(sections) {
			sections[i].endLine = sections[i+1].startLine - 1
		} else {
			sections[i].endLine = totalLines
		}
	}

	lines := strings.Split(string(content), "\n")
	docs := make([]domain.Document, 0, len(sections))
	for _, s := range sections {
		body := joinLines(lines, s.startLine, s.endLine)
		docstring := strings.TrimSpace(dropFirstLine(body))

		meta := domain.CoreMetadata{
			File:      relativePath,
			StartLine: s.startLine,
			EndLine:   s.endLine,
			Name:      s.title,
			Exported:  true,
			Snippet:   domain.TruncateSnippet(body, 50),
		}
		meta = meta.WithCustom("headingLevel", s.level)
		meta = meta.WithCustom("slug", s.slug)

		text := domain.BuildEmbeddingText(domain.DocTypeDocumentation, s.title, "", docstring)
		docs = append(docs, domain.Document{
			ID:       DocumentID(relativePath, s.slug, s.startLine),
			Text:     text,
			Type:     domain.DocTypeDocumentation,
			Language: "markdown",
			Metadata: meta,
		})
	}

	return docs, nil
}

func headingText(h *ast.Heading, source []byte) string {
	var b strings.Builder
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
		}
	}
	return strings.TrimSpace(b.String())
}

func headingSlug(h *ast.Heading, title string) string {
	if id, ok := h.AttributeString("id"); ok {
		if s, ok := id.([]byte); ok {
			return string(s)
		}
	}
	return slugify(title)
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func dropFirstLine(s string) string {
	idx := strings.IndexByte(s, '\n')
	if idx < 0 {
		return ""
	}
	return s[idx+1:]
}

func joinLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}

// newLineIndex returns a function mapping a byte offset into content to its
// 1-based line number.
func newLineIndex(content []byte) func(offset int) int {
	offsets := []int{0}
	for i, b := range content {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return func(offset int) int {
		lo, hi := 0, len(offsets)-1
		for lo < hi {
			mid := (lo + hi + 1) / 2
			if offsets[mid] <= offset {
				lo = mid
			} else {
				hi = mid - 1
			}
		}
		return lo + 1
	}
}

var _ Extractor = (*MarkdownExtractor)(nil)
